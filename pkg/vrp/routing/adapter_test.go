package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vrpcore/pkg/apperror"
	"vrpcore/pkg/config"
)

func TestNewMissingServerConfig(t *testing.T) {
	_, err := New(config.RouterOSRM, "car", map[string]config.ServerConfig{})
	require.True(t, apperror.Is(err, apperror.CodeMissingServerConfig))
}

func TestNewUnsupportedRouter(t *testing.T) {
	_, err := New(config.Router("BOGUS"), "car", nil)
	require.True(t, apperror.Is(err, apperror.CodeUnsupportedRouter))
}

func TestNewLibOSRMNotCompiled(t *testing.T) {
	_, err := New(config.RouterLibOSRM, "car", nil)
	require.True(t, apperror.Is(err, apperror.CodeBackendNotCompiled))
}

func TestNewOSRMAdapterConstructed(t *testing.T) {
	a, err := New(config.RouterOSRM, "car", map[string]config.ServerConfig{
		"car": {Host: "localhost", Port: 5000},
	})
	require.NoError(t, err)
	require.Equal(t, "car", a.Profile())
}
