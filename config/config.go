// Package config loads pjsipwatch configuration files.
//
// The format is chosen by file extension: .yaml and .yml are YAML, .toml is
// TOML, .json and .jsonc are JSON with comments. Anything else is read as
// YAML.
//
// Example configuration (YAML):
//
//	sleep_time_seconds: 60
//
//	slack:
//	  webhook_url: ${SLACK_WEBHOOK_URL}
//
//	command:
//	  path: /usr/sbin/asterisk
//	  args: ["-rx", "pjsip list endpoints"]
//	  timeout: 30s
//
//	http:
//	  listen: ":9108"
//
//	log:
//	  level: info
//	  format: json
//
// The same file in TOML:
//
//	sleep_time_seconds = 60
//
//	[slack]
//	api_token = "${SLACK_TOKEN}"
//	api_url = "https://slack.com/api"
//	channel = "#pbx"
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	defaultChannel        = "#general"
	defaultAPIURL         = "https://slack.com/api"
	defaultSlackTimeout   = 10 * time.Second
	defaultCommandPath    = "asterisk"
	defaultCommandTimeout = 30 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
)

var defaultCommandArgs = []string{"-rx", "pjsip list endpoints"}

// Format identifies the syntax of a configuration file.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatJSONC Format = "jsonc"
)

// FormatFromPath picks the [Format] for a file name by its extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config; both apply defaults, expand
// environment variables and validate.
type Config struct {
	// SleepTimeSeconds is the pause between poll cycles. Required, positive.
	SleepTimeSeconds int `yaml:"sleep_time_seconds" toml:"sleep_time_seconds" json:"sleep_time_seconds"`

	Slack   SlackConfig   `yaml:"slack" toml:"slack" json:"slack"`
	Command CommandConfig `yaml:"command" toml:"command" json:"command"`
	HTTP    HTTPConfig    `yaml:"http" toml:"http" json:"http"`
	Log     LogConfig     `yaml:"log" toml:"log" json:"log"`
}

// SlackConfig selects the notification transport. Exactly one of WebhookURL
// and APIToken must be set.
type SlackConfig struct {
	// WebhookURL is an incoming webhook URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	WebhookURL string `yaml:"webhook_url" toml:"webhook_url" json:"webhook_url"`

	// APIToken is a bot token for chat.postMessage.
	// Supports environment variable substitution.
	APIToken string `yaml:"api_token" toml:"api_token" json:"api_token"`

	// APIURL is the Web API base URL in API mode. Defaults to
	// "https://slack.com/api".
	// Supports environment variable substitution.
	APIURL string `yaml:"api_url" toml:"api_url" json:"api_url"`

	// Channel is the target channel in API mode. Defaults to "#general".
	Channel string `yaml:"channel" toml:"channel" json:"channel"`

	// Timeout bounds each delivery attempt. Defaults to 10s.
	Timeout Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// CommandConfig is the status command run on every cycle.
type CommandConfig struct {
	// Path is the executable. Defaults to "asterisk".
	Path string `yaml:"path" toml:"path" json:"path"`

	// Args defaults to ["-rx", "pjsip list endpoints"].
	Args []string `yaml:"args" toml:"args" json:"args"`

	// Timeout bounds one run. Defaults to 30s.
	Timeout Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// HTTPConfig configures the optional status server.
type HTTPConfig struct {
	// Listen is the TCP address, e.g. ":9108". Empty disables the server.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error. Defaults to info.
	Level string `yaml:"level" toml:"level" json:"level"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Interval returns the poll interval as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.SleepTimeSeconds) * time.Second
}

// UsesWebhook reports whether notifications go to an incoming webhook rather
// than the Slack Web API.
func (c *Config) UsesWebhook() bool {
	return c.Slack.WebhookURL != ""
}

// Duration wraps time.Duration for config unmarshalling. It accepts duration
// strings like "10s", "1m" or "500ms" in every supported format.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML and
// JSON decoders.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// validateHTTPURL checks that raw is an absolute http or https URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file, choosing the format from its
// extension.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse decodes configuration data in the given format, applies defaults,
// expands environment variables in string settings, and validates.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	if err := decode(data, format, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	case FormatJSONC:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", format)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Slack.Channel == "" {
		c.Slack.Channel = defaultChannel
	}
	if c.Slack.APIURL == "" {
		c.Slack.APIURL = defaultAPIURL
	}
	if c.Slack.Timeout == 0 {
		c.Slack.Timeout = Duration(defaultSlackTimeout)
	}
	if c.Command.Path == "" {
		c.Command.Path = defaultCommandPath
	}
	if c.Command.Args == nil {
		c.Command.Args = append([]string(nil), defaultCommandArgs...)
	}
	if c.Command.Timeout == 0 {
		c.Command.Timeout = Duration(defaultCommandTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.SleepTimeSeconds <= 0 {
		return fmt.Errorf("sleep_time_seconds must be a positive integer, got %d", c.SleepTimeSeconds)
	}

	for _, f := range []struct {
		name string
		ptr  *string
	}{
		{"slack.webhook_url", &c.Slack.WebhookURL},
		{"slack.api_token", &c.Slack.APIToken},
		{"slack.api_url", &c.Slack.APIURL},
		{"slack.channel", &c.Slack.Channel},
		{"command.path", &c.Command.Path},
		{"http.listen", &c.HTTP.Listen},
	} {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = strings.TrimSpace(expanded)
	}

	switch {
	case c.Slack.WebhookURL == "" && c.Slack.APIToken == "":
		return errors.New("slack: one of webhook_url or api_token is required")
	case c.Slack.WebhookURL != "" && c.Slack.APIToken != "":
		return errors.New("slack: webhook_url and api_token are mutually exclusive")
	}

	if c.Slack.WebhookURL != "" {
		if err := validateHTTPURL(c.Slack.WebhookURL); err != nil {
			return fmt.Errorf("slack.webhook_url: %w", err)
		}
	}
	if err := validateHTTPURL(c.Slack.APIURL); err != nil {
		return fmt.Errorf("slack.api_url: %w", err)
	}

	if c.Slack.Timeout.Duration() < 0 {
		return fmt.Errorf("slack.timeout cannot be negative, got %s", c.Slack.Timeout.Duration())
	}
	if c.Command.Timeout.Duration() < 0 {
		return fmt.Errorf("command.timeout cannot be negative, got %s", c.Command.Timeout.Duration())
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}
