package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/qpm/internal/adapters/config"
	"go.trai.ch/qpm/internal/core/domain"
)

func newStore(t *testing.T) (*config.Store, string) {
	t.Helper()
	dir := t.TempDir()
	return config.NewStore(filepath.Join(dir, "qpm", "config.yaml"), filepath.Join(dir, "cache")), dir
}

func TestStore_LoadDefaults(t *testing.T) {
	store, dir := newStore(t)

	settings, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "cache", "qpm"), settings.CacheDir)
	assert.Equal(t, domain.DefaultRegistry, settings.Registry)
	assert.Equal(t, 0, settings.Concurrency)
	assert.Equal(t, "pretty", settings.LogFormat)
	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, 60*time.Second, settings.HTTPTimeout)
}

func TestStore_SetThenLoad(t *testing.T) {
	store, dir := newStore(t)
	cacheDir := filepath.Join(dir, "shared-cache")

	require.NoError(t, store.Set(domain.SettingCacheDir, cacheDir))
	require.NoError(t, store.Set(domain.SettingConcurrency, "8"))
	require.NoError(t, store.Set(domain.SettingHTTPTimeout, "5s"))
	require.NoError(t, store.Set(domain.SettingRegistry, "https://registry.example.com/"))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cacheDir, settings.CacheDir)
	assert.Equal(t, 8, settings.Concurrency)
	assert.Equal(t, 5*time.Second, settings.HTTPTimeout)
	assert.Equal(t, "https://registry.example.com", settings.Registry)

	got, err := store.Get(domain.SettingCacheDir)
	require.NoError(t, err)
	assert.Equal(t, cacheDir, got)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.FilePerm), info.Mode().Perm())
}

func TestStore_EnvOverridesFile(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, store.Set(domain.SettingLogFormat, "pretty"))

	envCache := filepath.Join(dir, "from-env")
	t.Setenv("QPM_CACHE_DIR", envCache)
	t.Setenv("QPM_LOG_FORMAT", "json")
	t.Setenv("QPM_CONCURRENCY", "3")

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, envCache, settings.CacheDir)
	assert.Equal(t, "json", settings.LogFormat)
	assert.Equal(t, 3, settings.Concurrency)
}

func TestStore_SetRejectsInvalid(t *testing.T) {
	store, _ := newStore(t)

	tests := []struct {
		key   string
		value string
		want  error
	}{
		{key: "colour", value: "blue", want: domain.ErrUnknownSetting},
		{key: domain.SettingConcurrency, value: "-1", want: domain.ErrInvalidSetting},
		{key: domain.SettingConcurrency, value: "many", want: domain.ErrInvalidSetting},
		{key: domain.SettingLogFormat, value: "xml", want: domain.ErrInvalidSetting},
		{key: domain.SettingRegistry, value: "ftp://r", want: domain.ErrInvalidSetting},
		{key: domain.SettingHTTPTimeout, value: "soon", want: domain.ErrInvalidSetting},
		{key: domain.SettingCacheDir, value: "", want: domain.ErrInvalidSetting},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := store.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}

	_, err := os.Stat(store.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_SetKeepsOtherKeys(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o750))
	require.NoError(t, os.WriteFile(store.Path(), []byte("log_level: debug\n"), 0o600))

	require.NoError(t, store.Set(domain.SettingLogFormat, "json"))

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "json", settings.LogFormat)
}

func TestStore_GetUnknown(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get("nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownSetting))
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "/etc/qpm.yaml")
	path, err := config.DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/qpm.yaml", path)
}
