package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/pkg/observability"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		healthJSON = false
	})
	err := Execute(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	prev := Version
	Version = "1.4.0"
	t.Cleanup(func() { Version = prev })

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "salonops 1.4.0 (commit none, built unknown)\n", out)
}

func TestHealthCommand(t *testing.T) {
	registry := observability.NewHealthRegistry()
	registry.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy,
		func(context.Context) error { return nil }))
	registry.Register("cache", observability.PingChecker("redis", observability.HealthStatusDegraded,
		func(context.Context) error { return errors.New("refused") }))
	SetApp(&App{Health: registry})
	t.Cleanup(func() { SetApp(nil) })

	out, err := execute(t, "health")

	require.NoError(t, err)
	assert.Contains(t, out, "status: degraded")
	assert.Contains(t, out, "redis connection failed: refused")
	assert.Contains(t, out, "database connection healthy")
}

func TestHealthCommand_Unhealthy(t *testing.T) {
	registry := observability.NewHealthRegistry()
	registry.Register("block_api", observability.PingChecker("block api", observability.HealthStatusUnhealthy,
		func(context.Context) error { return errors.New("timeout") }))
	SetApp(&App{Health: registry})
	t.Cleanup(func() { SetApp(nil) })

	out, err := execute(t, "health", "--json")

	require.Error(t, err)
	assert.Contains(t, out, `"status":"unhealthy"`)
}

func TestHealthCommand_NoApp(t *testing.T) {
	SetApp(nil)
	_, err := execute(t, "health")
	assert.EqualError(t, err, "app not initialized")
}
