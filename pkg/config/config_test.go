package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planets/federation-gateway/pkg/discovery"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENV", "")

		cfg, err := Load(NewViper())
		require.NoError(t, err)

		assert.Equal(t, discovery.DeploymentMode(""), cfg.DeploymentMode)
		assert.Equal(t, discovery.TopologyFull, cfg.Topology)
		assert.Equal(t, "0.0.0.0:4000", cfg.ListenAddr())
		assert.False(t, cfg.StrictDeploymentMode)
		assert.Equal(t, 10, cfg.SDLFetchAttempts)
		assert.Equal(t, 2*time.Second, cfg.SDLFetchInterval)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("ENV", "docker")
		t.Setenv("TOPOLOGY", "reduced")
		t.Setenv("LISTEN_PORT", "8080")
		t.Setenv("JWT_SECRET_KEY", "example")
		t.Setenv("SDL_FETCH_INTERVAL", "500ms")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:3080")

		cfg, err := Load(NewViper())
		require.NoError(t, err)

		assert.Equal(t, discovery.DeploymentModeDocker, cfg.DeploymentMode)
		assert.Equal(t, discovery.TopologyReduced, cfg.Topology)
		assert.Equal(t, 8080, cfg.ListenPort)
		assert.Equal(t, "example", cfg.JWTSecretKey)
		assert.Equal(t, 500*time.Millisecond, cfg.SDLFetchInterval)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3080"}, cfg.AllowedOrigins)
	})

	t.Run("unknown mode is accepted unless strict", func(t *testing.T) {
		t.Setenv("ENV", "staging")

		cfg, err := Load(NewViper())
		require.NoError(t, err)
		assert.False(t, cfg.DeploymentMode.IsKnown())

		t.Setenv("STRICT_DEPLOYMENT_MODE", "true")
		_, err = Load(NewViper())
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, discovery.ErrUnknownDeploymentMode)
	})

	t.Run("rejects an unknown topology", func(t *testing.T) {
		t.Setenv("TOPOLOGY", "everything")
		_, err := Load(NewViper())
		assert.ErrorIs(t, err, discovery.ErrUnknownTopology)
	})

	t.Run("rejects an invalid port", func(t *testing.T) {
		t.Setenv("LISTEN_PORT", "70000")
		_, err := Load(NewViper())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing files are ignored", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables that are not set yet", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("GATEWAY_TEST_DOTENV=local\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("GATEWAY_TEST_DOTENV") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "local", os.Getenv("GATEWAY_TEST_DOTENV"))
	})
}
