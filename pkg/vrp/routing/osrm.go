package routing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

// osrmAdapter talks to an OSRM /table and /route HTTP service, one instance
// per profile.
type osrmAdapter struct {
	httpBackend
}

func newOSRMAdapter(profile string, srv config.ServerConfig) *osrmAdapter {
	return &osrmAdapter{httpBackend: newHTTPBackend(profile, srv)}
}

func (a *osrmAdapter) Profile() string { return a.profile }

type osrmTableResponse struct {
	Code      string        `json:"code"`
	Durations [][]*float64  `json:"durations"`
	Distances [][]*float64  `json:"distances"`
	Message   string        `json:"message"`
}

// GetMatrix calls OSRM's /table/v1/{profile}/{coords} endpoint with every
// point as both source and destination, and returns the duration table as
// the cost matrix, matching the original implementation's convention of
// using travel time (not distance) as route cost.
func (a *osrmAdapter) GetMatrix(ctx context.Context, points []matrix.Point) (matrix.Matrix, error) {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%s,%s", strconv.FormatFloat(p.Lon, 'f', 6, 64), strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	url := fmt.Sprintf("http://%s/table/v1/%s/%s?annotations=duration",
		a.server.Address(), a.profile, strings.Join(coords, ";"))

	var resp osrmTableResponse
	if err := a.getJSON(ctx, url, &resp); err != nil {
		return matrix.Matrix{}, err
	}
	if resp.Code != "Ok" {
		return matrix.Matrix{}, apperror.New(apperror.CodeBackendRequestFailed, "OSRM table request failed").
			WithDetails("profile", a.profile).WithDetails("osrm_code", resp.Code).WithDetails("message", resp.Message)
	}
	if len(resp.Durations) != len(points) {
		return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "OSRM table response has wrong dimension").
			WithDetails("profile", a.profile)
	}

	m := matrix.NewMatrix(len(points))
	for i, row := range resp.Durations {
		if len(row) != len(points) {
			return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "OSRM table row has wrong length").
				WithDetails("profile", a.profile).WithDetails("row", i)
		}
		for j, v := range row {
			if v == nil {
				return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "OSRM table has an unreachable pair").
					WithDetails("profile", a.profile).WithDetails("from", i).WithDetails("to", j)
			}
			m.Set(i, j, uint64(*v))
		}
	}
	return m, nil
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// AddRouteInfo calls OSRM's /route/v1/{profile}/{coords} endpoint to obtain
// the total distance and an encoded polyline for an already-ordered route.
func (a *osrmAdapter) AddRouteInfo(ctx context.Context, route RouteInput) (RouteOutput, error) {
	coords := make([]string, len(route.Points))
	for i, p := range route.Points {
		coords[i] = fmt.Sprintf("%s,%s", strconv.FormatFloat(p.Lon, 'f', 6, 64), strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	url := fmt.Sprintf("http://%s/route/v1/%s/%s?overview=full&geometries=polyline",
		a.server.Address(), a.profile, strings.Join(coords, ";"))

	var resp osrmRouteResponse
	if err := a.getJSON(ctx, url, &resp); err != nil {
		return RouteOutput{}, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return RouteOutput{}, apperror.New(apperror.CodeBackendRequestFailed, "OSRM route request failed").
			WithDetails("profile", a.profile).WithDetails("osrm_code", resp.Code)
	}
	return RouteOutput{Distance: resp.Routes[0].Distance, Geometry: resp.Routes[0].Geometry}, nil
}
