// Package config loads and persists qpm settings.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	qfs "go.trai.ch/qpm/internal/adapters/fs"
	"go.trai.ch/qpm/internal/core/domain"
	"go.trai.ch/qpm/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. QPM_CACHE_DIR.
	EnvPrefix = "QPM"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "QPM_CONFIG"

	// FileName is the config file name inside the user config directory.
	FileName = "config.yaml"

	defaultHTTPTimeout = 60 * time.Second
)

// Store implements ports.SettingsStore on a YAML file read through viper.
type Store struct {
	path string
	// cacheBase is the directory that holds the default cache root.
	cacheBase string
}

var _ ports.SettingsStore = (*Store)(nil)

// NewStore returns a Store reading path. Defaults for cache_dir live below cacheBase.
func NewStore(path, cacheBase string) *Store {
	return &Store{path: path, cacheBase: cacheBase}
}

// DefaultPath returns $QPM_CONFIG, or <UserConfigDir>/qpm/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate user config directory")
	}
	return filepath.Join(dir, "qpm", FileName), nil
}

// DefaultCacheBase returns the user cache directory.
func DefaultCacheBase() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate user cache directory")
	}
	return dir, nil
}

// Defaults returns the settings used when neither file nor environment set a key.
func (s *Store) Defaults() domain.Settings {
	return domain.Settings{
		CacheDir:    filepath.Join(s.cacheBase, "qpm"),
		Registry:    domain.DefaultRegistry,
		Concurrency: 0,
		LogFormat:   "pretty",
		LogLevel:    "info",
		HTTPTimeout: defaultHTTPTimeout,
	}
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns defaults overridden by the config file, then by QPM_* variables.
func (s *Store) Load() (*domain.Settings, error) {
	v, err := s.viper()
	if err != nil {
		return nil, err
	}

	var settings domain.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", s.path)
	}

	if settings.CacheDir != "" {
		abs, err := filepath.Abs(expandHome(settings.CacheDir))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to resolve cache_dir")
		}
		settings.CacheDir = abs
	}
	settings.Registry = strings.TrimRight(settings.Registry, "/")
	if settings.Concurrency < 0 {
		settings.Concurrency = 0
	}

	return &settings, nil
}

func (s *Store) viper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	d := s.Defaults()
	v.SetDefault(domain.SettingCacheDir, d.CacheDir)
	v.SetDefault(domain.SettingRegistry, d.Registry)
	v.SetDefault(domain.SettingConcurrency, d.Concurrency)
	v.SetDefault(domain.SettingLogFormat, d.LogFormat)
	v.SetDefault(domain.SettingLogLevel, d.LogLevel)
	v.SetDefault(domain.SettingMetricsFile, d.MetricsFile)
	v.SetDefault(domain.SettingHTTPTimeout, d.HTTPTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if s.path != "" && fileExists(s.path) {
		v.SetConfigFile(s.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", s.path)
		}
	}
	return v, nil
}

// Get returns the effective value of key.
func (s *Store) Get(key string) (string, error) {
	if !slices.Contains(domain.SettingKeys, key) {
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownSetting, key), "key", key)
	}
	settings, err := s.Load()
	if err != nil {
		return "", err
	}
	return Format(settings, key), nil
}

// Format renders one field of settings as text.
func Format(settings *domain.Settings, key string) string {
	switch key {
	case domain.SettingCacheDir:
		return settings.CacheDir
	case domain.SettingRegistry:
		return settings.Registry
	case domain.SettingConcurrency:
		return strconv.Itoa(settings.Concurrency)
	case domain.SettingLogFormat:
		return settings.LogFormat
	case domain.SettingLogLevel:
		return settings.LogLevel
	case domain.SettingMetricsFile:
		return settings.MetricsFile
	case domain.SettingHTTPTimeout:
		return settings.HTTPTimeout.String()
	default:
		return ""
	}
}

// Set validates value and writes key to the config file, keeping other keys.
func (s *Store) Set(key, value string) error {
	typed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", s.path)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", s.path)
	}

	doc[key] = typed

	out, err := yaml.Marshal(doc)
	if err != nil {
		return zerr.Wrap(domain.ErrConfigWriteFailed, err.Error())
	}
	if err := qfs.WriteFileAtomic(s.path, out, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrConfigWriteFailed, err.Error()), "path", s.path)
	}
	return nil
}

func parseValue(key, value string) (any, error) {
	invalid := func(reason string) error {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidSetting, reason), "key", key), "value", value)
	}

	switch key {
	case domain.SettingCacheDir:
		if value == "" {
			return nil, invalid("cache_dir must not be empty")
		}
		abs, err := filepath.Abs(expandHome(value))
		if err != nil {
			return nil, invalid(err.Error())
		}
		return abs, nil
	case domain.SettingRegistry:
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return nil, invalid("registry must be an http(s) URL")
		}
		return strings.TrimRight(value, "/"), nil
	case domain.SettingConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, invalid("concurrency must be a non-negative integer")
		}
		return n, nil
	case domain.SettingLogFormat:
		if value != "pretty" && value != "json" {
			return nil, invalid("log_format must be pretty or json")
		}
		return value, nil
	case domain.SettingLogLevel:
		if !slices.Contains([]string{"debug", "info", "warn", "error"}, value) {
			return nil, invalid("log_level must be debug, info, warn or error")
		}
		return value, nil
	case domain.SettingMetricsFile:
		return value, nil
	case domain.SettingHTTPTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, invalid("http_timeout must be a positive duration")
		}
		return d.String(), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownSetting, key), "key", key)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
