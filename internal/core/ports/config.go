package ports

import "go.trai.ch/qpm/internal/core/domain"

//go:generate mockgen -source=config.go -destination=mocks/mock_config.go -package=mocks

// SettingsStore loads and persists tool settings.
type SettingsStore interface {
	// Load returns the effective settings: defaults, then file, then environment.
	Load() (*domain.Settings, error)
	// Get returns the effective value of one setting.
	Get(key string) (string, error)
	// Set persists one setting to the config file.
	Set(key, value string) error
	// Path returns the config file location.
	Path() string
}
