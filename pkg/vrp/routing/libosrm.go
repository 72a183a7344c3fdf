package routing

import (
	"context"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/vrp/matrix"
)

// libosrmAdapter is the in-process OSRM backend's placeholder. No cgo
// binding to an embedded OSRM engine is wired into this module, so
// constructing it always fails with CodeBackendNotCompiled rather than
// silently falling back to the HTTP backend; a real build would put the
// cgo-bound implementation behind a "libosrm" build tag and give this file
// the "!libosrm" constraint instead.
type libosrmAdapter struct {
	profile string
}

func newLibOSRMAdapter(profile string) (Adapter, error) {
	return nil, apperror.New(apperror.CodeBackendNotCompiled,
		"in-process OSRM backend was requested but this build does not include it").
		WithDetails("profile", profile)
}

func (a *libosrmAdapter) Profile() string { return a.profile }

func (a *libosrmAdapter) GetMatrix(ctx context.Context, points []matrix.Point) (matrix.Matrix, error) {
	return matrix.Matrix{}, apperror.New(apperror.CodeBackendNotCompiled, "in-process OSRM backend not compiled in")
}

func (a *libosrmAdapter) AddRouteInfo(ctx context.Context, route RouteInput) (RouteOutput, error) {
	return RouteOutput{}, apperror.New(apperror.CodeBackendNotCompiled, "in-process OSRM backend not compiled in")
}
