package routing

import (
	"context"
	"fmt"
	"strconv"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

// orsAdapter talks to an OpenRouteService matrix/directions HTTP service,
// one instance per profile.
type orsAdapter struct {
	httpBackend
}

func newORSAdapter(profile string, srv config.ServerConfig) *orsAdapter {
	return &orsAdapter{httpBackend: newHTTPBackend(profile, srv)}
}

func (a *orsAdapter) Profile() string { return a.profile }

type orsMatrixResponse struct {
	Durations [][]*float64 `json:"durations"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GetMatrix calls ORS's /v2/matrix/{profile} endpoint with GET, passing the
// point list as a pipe-separated "lon,lat" locations query parameter.
func (a *orsAdapter) GetMatrix(ctx context.Context, points []matrix.Point) (matrix.Matrix, error) {
	locs := make([]string, len(points))
	for i, p := range points {
		locs[i] = fmt.Sprintf("%s,%s", strconv.FormatFloat(p.Lon, 'f', 6, 64), strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	url := fmt.Sprintf("http://%s/v2/matrix/%s?locations=%s&metrics=duration",
		a.server.Address(), a.profile, joinPipe(locs))

	var resp orsMatrixResponse
	if err := a.getJSON(ctx, url, &resp); err != nil {
		return matrix.Matrix{}, err
	}
	if resp.Error != nil {
		return matrix.Matrix{}, apperror.New(apperror.CodeBackendRequestFailed, "ORS matrix request failed").
			WithDetails("profile", a.profile).WithDetails("message", resp.Error.Message)
	}
	if len(resp.Durations) != len(points) {
		return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "ORS matrix response has wrong dimension").
			WithDetails("profile", a.profile)
	}

	m := matrix.NewMatrix(len(points))
	for i, row := range resp.Durations {
		for j, v := range row {
			if v == nil {
				return matrix.Matrix{}, apperror.New(apperror.CodeMalformedMatrix, "ORS matrix has an unreachable pair").
					WithDetails("profile", a.profile)
			}
			m.Set(i, j, uint64(*v))
		}
	}
	return m, nil
}

type orsDirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AddRouteInfo calls ORS's /v2/directions/{profile} endpoint.
func (a *orsAdapter) AddRouteInfo(ctx context.Context, route RouteInput) (RouteOutput, error) {
	coords := make([]string, len(route.Points))
	for i, p := range route.Points {
		coords[i] = fmt.Sprintf("%s,%s", strconv.FormatFloat(p.Lon, 'f', 6, 64), strconv.FormatFloat(p.Lat, 'f', 6, 64))
	}
	url := fmt.Sprintf("http://%s/v2/directions/%s?coordinates=%s",
		a.server.Address(), a.profile, joinPipe(coords))

	var resp orsDirectionsResponse
	if err := a.getJSON(ctx, url, &resp); err != nil {
		return RouteOutput{}, err
	}
	if resp.Error != nil || len(resp.Routes) == 0 {
		return RouteOutput{}, apperror.New(apperror.CodeBackendRequestFailed, "ORS directions request failed").
			WithDetails("profile", a.profile)
	}
	return RouteOutput{Distance: resp.Routes[0].Summary.Distance, Geometry: resp.Routes[0].Geometry}, nil
}

func joinPipe(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}
