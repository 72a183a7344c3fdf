package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
	"vrpcore/pkg/vrp/matrix"
)

func serverConfigFor(t *testing.T, ts *httptest.Server) config.ServerConfig {
	t.Helper()
	u := strings.TrimPrefix(ts.URL, "http://")
	host, portStr, err := splitHostPort(u)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return config.ServerConfig{Host: host, Port: port}
}

func splitHostPort(addr string) (string, string, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, "0", nil
	}
	return addr[:idx], addr[idx+1:], nil
}

func TestOSRMGetMatrix(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","durations":[[0,10,20],[10,0,15],[20,15,0]]}`))
	}))
	defer ts.Close()

	a := newOSRMAdapter("car", serverConfigFor(t, ts))
	m, err := a.GetMatrix(context.Background(), []matrix.Point{{0, 0}, {1, 1}, {2, 2}})
	require.NoError(t, err)
	require.Equal(t, uint64(10), m.Get(0, 1))
}

func TestOSRMGetMatrixBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"NoRoute","message":"no route found"}`))
	}))
	defer ts.Close()

	a := newOSRMAdapter("car", serverConfigFor(t, ts))
	_, err := a.GetMatrix(context.Background(), []matrix.Point{{0, 0}, {1, 1}})
	require.True(t, apperror.Is(err, apperror.CodeBackendRequestFailed))
}

func TestOSRMGetMatrixMalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	a := newOSRMAdapter("car", serverConfigFor(t, ts))
	_, err := a.GetMatrix(context.Background(), []matrix.Point{{0, 0}, {1, 1}})
	require.True(t, apperror.Is(err, apperror.CodeMalformedMatrix))
}

func TestOSRMAddRouteInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":1234.5,"geometry":"abc123"}]}`))
	}))
	defer ts.Close()

	a := newOSRMAdapter("car", serverConfigFor(t, ts))
	out, err := a.AddRouteInfo(context.Background(), RouteInput{Points: []matrix.Point{{0, 0}, {1, 1}}})
	require.NoError(t, err)
	require.Equal(t, 1234.5, out.Distance)
	require.Equal(t, "abc123", out.Geometry)
}
