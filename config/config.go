// Package config provides configuration structures for the engine.
package config

type Config struct {
	// Path is the directory where cassette files are stored.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// IgnoredFields are argument field names excluded from request matching
	// in every session. Session-scoped additions are unioned with this list.
	IgnoredFields []string `json:"ignoredFields" yaml:"ignoredFields" mapstructure:"ignoredFields"`
	Debug         bool     `json:"debug" yaml:"debug" mapstructure:"debug"`
	DisableANSI   bool     `json:"disableANSI" yaml:"disableANSI" mapstructure:"disableANSI"`
	ConfigPath    string   `json:"configPath" yaml:"configPath" mapstructure:"configPath"`
}
