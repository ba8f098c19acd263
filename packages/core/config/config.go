package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// base_url accepts absolute http(s) URLs and values still holding a {{...}} token
	_ = validate.RegisterValidation("base_url", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.Contains(s, "{{") {
			return true
		}
		return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
	})
}

// Config represents the apiflow project configuration
type Config struct {
	DefaultEnv      string            `yaml:"defaultEnv" default:".env"`
	Output          string            `yaml:"output" default:"console" validate:"oneof=console json junit tap"`
	BaseURL         string            `yaml:"baseUrl" validate:"omitempty,base_url"`
	Timeout         int               `yaml:"timeout" default:"10000" validate:"min=1"` // milliseconds
	Concurrency     int               `yaml:"concurrency" default:"5" validate:"min=1"`
	Rate            float64           `yaml:"rate" validate:"min=0"` // requests per second, 0 is unlimited
	Headers         map[string]string `yaml:"headers"`
	Parallel        *bool             `yaml:"parallel"`
	Watch           *bool             `yaml:"watch"`
	Bail            *bool             `yaml:"bail"`
	Verbose         *bool             `yaml:"verbose"`
	NoColor         *bool             `yaml:"noColor"`
	FollowRedirects *bool             `yaml:"followRedirects"`
	ValidateSSL     *bool             `yaml:"validateSSL"`
	Log             LogConfig         `yaml:"log"`
	Notify          NotifyConfig      `yaml:"notify"`
	Metrics         MetricsConfig     `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"warn" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	File   string `yaml:"file"`
}

// NotifyConfig names the chat webhooks that receive run summaries.
type NotifyConfig struct {
	When         string `yaml:"when" default:"failure" validate:"oneof=always failure success recovery"`
	Slack        string `yaml:"slack,omitempty" validate:"omitempty,url"`
	SlackChannel string `yaml:"slackChannel,omitempty"`
	Teams        string `yaml:"teams,omitempty" validate:"omitempty,url"`
	Environment  string `yaml:"environment,omitempty"`
}

// Enabled reports whether any webhook is configured.
func (n NotifyConfig) Enabled() bool {
	return n.Slack != "" || n.Teams != ""
}

// MetricsConfig selects where run metrics are exported. File gets JSON
// when it ends in .json and Prometheus text otherwise; Datadog is the
// Datadog site, such as datadoghq.com, and needs DD_API_KEY.
type MetricsConfig struct {
	File        string   `yaml:"file,omitempty"`
	Datadog     string   `yaml:"datadog,omitempty" validate:"omitempty,hostname"`
	DatadogTags []string `yaml:"datadogTags,omitempty"`
}

// Error reports a configuration file that could not be loaded or is invalid.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

func (c *Config) GetParallel() bool        { return getBool(c.Parallel, false) }
func (c *Config) GetWatch() bool           { return getBool(c.Watch, false) }
func (c *Config) GetBail() bool            { return getBool(c.Bail, false) }
func (c *Config) GetVerbose() bool         { return getBool(c.Verbose, false) }
func (c *Config) GetNoColor() bool         { return getBool(c.NoColor, false) }
func (c *Config) GetFollowRedirects() bool { return getBool(c.FollowRedirects, true) }
func (c *Config) GetValidateSSL() bool     { return getBool(c.ValidateSSL, true) }

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	"apiflow.yaml",
	".apiflow.yaml",
	"apiflow.yml",
	"apiflow.json",
}

// IsConfigFile reports whether path names a project config file rather
// than a suite.
func IsConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ConfigFilenames {
		if base == name {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from the specified path or searches the
// current directory for a config file
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Defaults are returned when there is none.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

// loadConfigFromFile reads YAML or JSON; JSON documents are valid YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := config.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return config, nil
}

// Validate checks the config against its field rules.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation (rule: %s)", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Merge merges another config into this one, with other taking precedence.
// Zero values and nil pointers in other are treated as unset.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.DefaultEnv != "" {
		result.DefaultEnv = other.DefaultEnv
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Watch != nil {
		result.Watch = other.Watch
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}

	if other.Log.Level != "" {
		result.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		result.Log.Format = other.Log.Format
	}
	if other.Log.File != "" {
		result.Log.File = other.Log.File
	}

	if other.Notify.When != "" {
		result.Notify.When = other.Notify.When
	}
	if other.Notify.Slack != "" {
		result.Notify.Slack = other.Notify.Slack
	}
	if other.Notify.SlackChannel != "" {
		result.Notify.SlackChannel = other.Notify.SlackChannel
	}
	if other.Notify.Teams != "" {
		result.Notify.Teams = other.Notify.Teams
	}
	if other.Notify.Environment != "" {
		result.Notify.Environment = other.Notify.Environment
	}
	if other.Metrics.File != "" {
		result.Metrics.File = other.Metrics.File
	}
	if other.Metrics.Datadog != "" {
		result.Metrics.Datadog = other.Metrics.Datadog
	}
	if len(other.Metrics.DatadogTags) > 0 {
		result.Metrics.DatadogTags = other.Metrics.DatadogTags
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig writes the configuration as YAML
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
