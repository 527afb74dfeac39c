package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/jt828/ollyllm-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCollector(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://localhost/olly")

		cfg, err := config.LoadCollector()

		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/olly", cfg.DSN)
		assert.Equal(t, ":50051", cfg.GrpcAddr)
		assert.Equal(t, ":9090", cfg.MetricsAddr)
		assert.Equal(t, 10*time.Second, cfg.HealthInterval)
		assert.Empty(t, cfg.APIKeys)
	})

	t.Run("reads api keys list", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "postgres://localhost/olly")
		t.Setenv("API_KEYS", "a,b")
		t.Setenv("GRPC_ADDR", ":6000")

		cfg, err := config.LoadCollector()

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, cfg.APIKeys)
		assert.Equal(t, ":6000", cfg.GrpcAddr)
	})

	t.Run("dsn is required", func(t *testing.T) {
		t.Setenv("DATABASE_DSN", "unused")
		require.NoError(t, os.Unsetenv("DATABASE_DSN"))

		_, err := config.LoadCollector()

		assert.Error(t, err)
	})
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/olly")

	cfg, err := config.LoadDatabase()

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/olly", cfg.DSN)
}
