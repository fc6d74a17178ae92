package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/app"
	_ "go.trai.ch/qpm/internal/wiring"
)

func TestNewApp_Success(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), config.FileName))
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	components, err := app.NewApp(context.Background())
	require.NoError(t, err)

	// Verify components are initialized
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
