package config

// New returns the default configuration. The cassette directory defaults to
// ./stubtape under the working directory; callers override it before any
// session starts.
func New() *Config {
	return &Config{
		Path:          "./stubtape",
		IgnoredFields: []string{},
		ConfigPath:    ".",
	}
}
