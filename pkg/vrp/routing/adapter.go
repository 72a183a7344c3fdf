// Package routing provides the routing-backend adapter: a polymorphic
// interface over several concrete engines (OSRM, ORS, Valhalla, and an
// optional in-process OSRM build) that yields a cost matrix for a set of
// locations and, later, geometry for a finished route.
package routing

import (
	"context"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

// Adapter is the capability set every routing backend variant exposes.
// GetMatrix must be safe to call concurrently across distinct adapter
// instances; each owns exactly one profile. The dispatcher constructs a new
// adapter for every matrix fetch and for every route it enriches; adapters
// are not kept or reused across calls.
type Adapter interface {
	// Profile returns the routing profile this adapter serves.
	Profile() string
	// GetMatrix computes a dense cost matrix for the given ordered points.
	// It fails with a RoutingError when the backend returns malformed or
	// incomplete data.
	GetMatrix(ctx context.Context, points []matrix.Point) (matrix.Matrix, error)
	// AddRouteInfo enriches a route with distance and geometry.
	AddRouteInfo(ctx context.Context, route RouteInput) (RouteOutput, error)
}

// RouteInput is an ordered sequence of points describing a finished route,
// the unit AddRouteInfo enriches with geometry and total distance.
type RouteInput struct {
	Points []matrix.Point
}

// RouteOutput is a RouteInput enriched with the geometry the backend
// computed for it.
type RouteOutput struct {
	Distance float64
	Geometry string
}

// New constructs the adapter for the given profile and router kind. It
// fails with CodeMissingServerConfig if the backend requires a server
// descriptor the caller did not provide, with CodeUnsupportedRouter for an
// unknown router, and always with CodeBackendNotCompiled for the in-process
// variant, which this module does not include.
func New(router config.Router, profile string, servers map[string]config.ServerConfig) (Adapter, error) {
	switch router {
	case config.RouterOSRM:
		srv, ok := servers[profile]
		if !ok {
			return nil, missingServer(profile)
		}
		return newOSRMAdapter(profile, srv), nil
	case config.RouterORS:
		srv, ok := servers[profile]
		if !ok {
			return nil, missingServer(profile)
		}
		return newORSAdapter(profile, srv), nil
	case config.RouterValhalla:
		srv, ok := servers[profile]
		if !ok {
			return nil, missingServer(profile)
		}
		return newValhallaAdapter(profile, srv), nil
	case config.RouterLibOSRM:
		return newLibOSRMAdapter(profile)
	default:
		return nil, apperror.New(apperror.CodeUnsupportedRouter,
			"unsupported router").WithDetails("router", string(router))
	}
}

func missingServer(profile string) error {
	return apperror.New(apperror.CodeMissingServerConfig,
		"no server descriptor configured for profile").WithField("servers").WithDetails("profile", profile)
}
