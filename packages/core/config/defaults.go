package config

import (
	"fmt"

	"github.com/creasty/defaults"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		// the struct tags are static, so this only fires on a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return c
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.DefaultEnv == d.DefaultEnv &&
		c.Output == d.Output &&
		c.BaseURL == d.BaseURL &&
		c.Timeout == d.Timeout &&
		c.Concurrency == d.Concurrency &&
		c.Rate == d.Rate &&
		len(c.Headers) == 0 &&
		c.Parallel == nil &&
		c.Watch == nil &&
		c.Bail == nil &&
		c.Verbose == nil &&
		c.NoColor == nil &&
		c.FollowRedirects == nil &&
		c.ValidateSSL == nil &&
		c.Log == d.Log &&
		c.Notify == d.Notify &&
		c.Metrics.File == "" &&
		c.Metrics.Datadog == "" &&
		len(c.Metrics.DatadogTags) == 0
}
