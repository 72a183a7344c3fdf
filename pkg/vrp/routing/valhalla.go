package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

// valhallaAdapter talks to a Valhalla /sources_to_targets and /route HTTP
// service, one instance per profile (Valhalla calls a profile a "costing
// model").
type valhallaAdapter struct {
	httpBackend
}

func newValhallaAdapter(profile string, srv config.ServerConfig) *valhallaAdapter {
	return &valhallaAdapter{httpBackend: newHTTPBackend(profile, srv)}
}

func (a *valhallaAdapter) Profile() string { return a.profile }

type valhallaLatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type valhallaMatrixResponse struct {
	SourcesToTargets [][]struct {
		Time *float64 `json:"time"`
	} `json:"sources_to_targets"`
}

// GetMatrix calls Valhalla's /sources_to_targets endpoint with every point
// used as both a source and a target.
func (a *valhallaAdapter) GetMatrix(ctx context.Context, points []matrix.Point) (matrix.Matrix, error) {
	locs := make([]valhallaLatLon, len(points))
	for i, p := range points {
		locs[i] = valhallaLatLon{Lat: p.Lat, Lon: p.Lon}
	}
	payload := map[string]any{
		"sources": locs,
		"targets": locs,
		"costing": a.profile,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return matrix.Matrix{}, apperror.New(apperror.CodeInternal, "failed to encode Valhalla matrix request")
	}
	reqURL := fmt.Sprintf("http://%s/sources_to_targets?json=%s", a.server.Address(), url.QueryEscape(string(body)))

	var resp valhallaMatrixResponse
	if err := a.getJSON(ctx, reqURL, &resp); err != nil {
		return matrix.Matrix{}, err
	}
	if len(resp.SourcesToTargets) != len(points) {
		return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "Valhalla matrix response has wrong dimension").
			WithDetails("profile", a.profile)
	}

	m := matrix.NewMatrix(len(points))
	for i, row := range resp.SourcesToTargets {
		for j, cell := range row {
			if cell.Time == nil {
				return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "Valhalla matrix has an unreachable pair").
					WithDetails("profile", a.profile)
			}
			m.Set(i, j, uint64(*cell.Time))
		}
	}
	return m, nil
}

type valhallaRouteResponse struct {
	Trip struct {
		Summary struct {
			Length float64 `json:"length"`
		} `json:"summary"`
		Legs []struct {
			Shape string `json:"shape"`
		} `json:"legs"`
	} `json:"trip"`
}

// AddRouteInfo calls Valhalla's /route endpoint with the ordered point list
// as through-locations.
func (a *valhallaAdapter) AddRouteInfo(ctx context.Context, route RouteInput) (RouteOutput, error) {
	locs := make([]valhallaLatLon, len(route.Points))
	for i, p := range route.Points {
		locs[i] = valhallaLatLon{Lat: p.Lat, Lon: p.Lon}
	}
	payload := map[string]any{"locations": locs, "costing": a.profile}
	body, err := json.Marshal(payload)
	if err != nil {
		return RouteOutput{}, apperror.New(apperror.CodeInternal, "failed to encode Valhalla route request")
	}
	reqURL := fmt.Sprintf("http://%s/route?json=%s", a.server.Address(), url.QueryEscape(string(body)))

	var resp valhallaRouteResponse
	if err := a.getJSON(ctx, reqURL, &resp); err != nil {
		return RouteOutput{}, err
	}
	geometry := ""
	if len(resp.Trip.Legs) > 0 {
		geometry = resp.Trip.Legs[0].Shape
	}
	return RouteOutput{Distance: resp.Trip.Summary.Length, Geometry: geometry}, nil
}
