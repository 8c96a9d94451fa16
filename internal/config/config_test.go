package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "minishop-checkout", cfg.ServiceName)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Empty(t, cfg.SequenceDBPath)
	require.False(t, cfg.SeedDemoData)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "3")
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("SEQUENCE_DB_PATH", "/tmp/seq.db")

	cfg := Load()
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.True(t, cfg.SeedDemoData)
	require.Equal(t, "/tmp/seq.db", cfg.SequenceDBPath)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("SEED_DEMO_DATA", "yes please")

	cfg := Load()
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.False(t, cfg.SeedDemoData)
}
