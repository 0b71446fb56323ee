package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "dev",
		Timeout:            30000, // 30 seconds
		FollowRedirects:    BoolPtr(true),
		MaxRedirects:       10,
		Reporters:          []string{"console"},
		Parallel:           BoolPtr(false),
		Concurrency:        5,
		Bail:               BoolPtr(false),
		FailFast:           BoolPtr(false),
		NoColor:            BoolPtr(false),
		LogLevel:           "warn",
		LogFormat:          "text",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.DefaultEnvironment == defaults.DefaultEnvironment &&
		c.BaseURL == "" &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.RateLimit == 0 &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		c.OutputDir == "" &&
		c.GetParallel() == defaults.GetParallel() &&
		c.Concurrency == defaults.Concurrency &&
		c.GetBail() == defaults.GetBail() &&
		c.GetFailFast() == defaults.GetFailFast() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat &&
		c.History == "" &&
		len(c.Environments) == 0
}
