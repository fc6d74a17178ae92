package domain

import "time"

// DefaultRegistry is the registry queried when none is configured.
const DefaultRegistry = "https://registry.npmjs.org"

// Setting keys as they appear in the config file and after the QPM_ env prefix.
const (
	SettingCacheDir    = "cache_dir"
	SettingRegistry    = "registry"
	SettingConcurrency = "concurrency"
	SettingLogFormat   = "log_format"
	SettingLogLevel    = "log_level"
	SettingMetricsFile = "metrics_file"
	SettingHTTPTimeout = "http_timeout"
)

// SettingKeys lists every known setting in display order.
var SettingKeys = []string{
	SettingCacheDir,
	SettingRegistry,
	SettingConcurrency,
	SettingLogFormat,
	SettingLogLevel,
	SettingMetricsFile,
	SettingHTTPTimeout,
}

// Settings is the persisted tool configuration.
type Settings struct {
	CacheDir    string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	Registry    string        `yaml:"registry" mapstructure:"registry"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	LogFormat   string        `yaml:"log_format" mapstructure:"log_format"`
	LogLevel    string        `yaml:"log_level" mapstructure:"log_level"`
	MetricsFile string        `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`
}

// ProjectAt returns the project context for root under these settings.
func (s *Settings) ProjectAt(root string) Project {
	return Project{Root: root, CacheRoot: s.CacheDir}
}
