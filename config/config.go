// Package config provides YAML configuration parsing for the tracker bot.
//
// The bot is configured from a single settings file. Secrets (the Telegram
// bot token, the remote endpoint auth token) can be injected from the
// environment using ${VAR} or ${VAR:-default} syntax.
//
// Example configuration:
//
//	bot_token: ${AUDAX_BOT_TOKEN}
//	admin_chat_id: 123456789
//	endpoint_url: https://tracking.example.org/api
//	endpoint_token: ${AUDAX_ENDPOINT_TOKEN}
//	fetch_interval: 5m
//	state_file: /var/local/audax-tracker/state.json
//	time_zone: Europe/Moscow
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// minFetchInterval is the minimum allowed fetching interval. Polling the
// remote endpoint more often than this only hammers it for data that
// changes on a scale of minutes.
const minFetchInterval = 1 * time.Minute

// Config is the root configuration structure for the tracker bot.
//
// It maps directly to the YAML settings file. Use [Load] or [Parse] to
// create a Config from YAML.
type Config struct {
	// BotToken is the Telegram Bot API token. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}.
	BotToken string `yaml:"bot_token"`

	// AdminChatID is the Telegram chat id of the operator. Error reports
	// and circuit-breaker alerts are sent there, and only this chat may
	// use the admin panel. Zero disables the admin surface.
	AdminChatID int64 `yaml:"admin_chat_id"`

	// EndpointURL is the remote tracking endpoint. Required.
	// Supports environment variable substitution.
	EndpointURL string `yaml:"endpoint_url"`

	// EndpointToken is the shared secret sent with every endpoint request.
	// Supports environment variable substitution.
	EndpointToken string `yaml:"endpoint_token"`

	// FetchInterval is the time between tracking update fetches.
	// Accepts duration strings like "5m", "90s". Defaults to 5m.
	FetchInterval Duration `yaml:"fetch_interval"`

	// FetchInitialDelay is the one-time delay before the first fetch after
	// fetching is started. Defaults to 10s.
	FetchInitialDelay Duration `yaml:"fetch_initial_delay"`

	// StateFile is the path of the persisted snapshot.
	// Defaults to "state.json" in the working directory.
	StateFile string `yaml:"state_file"`

	// DefaultLanguage is the language used when a subscriber's locale is
	// not supported. Defaults to "en".
	DefaultLanguage string `yaml:"default_language"`

	// SupportedLanguages lists the locales the bot answers in.
	// Defaults to ["en", "ru"].
	SupportedLanguages []string `yaml:"supported_languages"`

	// TimeZone is the IANA time zone of the event; all checkin times are
	// presented in it. Defaults to "UTC".
	TimeZone string `yaml:"time_zone"`

	// MaxSubscriptions caps the number of participants a single subscriber
	// may watch, keeping update messages within Telegram's size limits.
	// Defaults to 20.
	MaxSubscriptions int `yaml:"max_subscriptions"`

	// ParticipantListURL, when set, is included in the welcome message so
	// users can look up frame plate numbers. Optional.
	ParticipantListURL string `yaml:"participant_list_url"`

	// MetricsListen is the address of the Prometheus /metrics listener
	// (e.g. ":9120"). Empty disables metrics serving.
	MetricsListen string `yaml:"metrics_listen"`
}

// Location returns the configured event time zone.
//
// The zone name is validated during [Parse], so Location does not fail on
// a validated Config.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration converts the wrapper back to a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
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

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in BotToken, EndpointURL, and
// EndpointToken. Defaults are applied for FetchInterval (5m),
// FetchInitialDelay (10s), StateFile ("state.json"), DefaultLanguage
// ("en"), SupportedLanguages (["en", "ru"]), TimeZone ("UTC"), and
// MaxSubscriptions (20).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.FetchInterval == 0 {
		cfg.FetchInterval = Duration(5 * time.Minute)
	}
	if cfg.FetchInitialDelay == 0 {
		cfg.FetchInitialDelay = Duration(10 * time.Second)
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "state.json"
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if len(cfg.SupportedLanguages) == 0 {
		cfg.SupportedLanguages = []string{"en", "ru"}
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	if cfg.MaxSubscriptions == 0 {
		cfg.MaxSubscriptions = 20
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	expanded, err := expandEnvVars(c.BotToken)
	if err != nil {
		return fmt.Errorf("bot_token: %w", err)
	}
	c.BotToken = expanded
	if c.BotToken == "" {
		return fmt.Errorf("bot_token is required")
	}

	expanded, err = expandEnvVars(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("endpoint_url: %w", err)
	}
	c.EndpointURL = expanded
	if c.EndpointURL == "" {
		return fmt.Errorf("endpoint_url is required")
	}
	parsedURL, err := url.Parse(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("endpoint_url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	expanded, err = expandEnvVars(c.EndpointToken)
	if err != nil {
		return fmt.Errorf("endpoint_token: %w", err)
	}
	c.EndpointToken = expanded

	if c.FetchInterval.Duration() < minFetchInterval {
		return fmt.Errorf("fetch_interval must be at least %s, got %s", minFetchInterval, c.FetchInterval.Duration())
	}
	if c.FetchInitialDelay.Duration() < 0 {
		return fmt.Errorf("fetch_initial_delay cannot be negative, got %s", c.FetchInitialDelay.Duration())
	}

	if !slices.Contains(c.SupportedLanguages, c.DefaultLanguage) {
		return fmt.Errorf("default_language %q is not in supported_languages %v", c.DefaultLanguage, c.SupportedLanguages)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}

	if c.MaxSubscriptions < 1 {
		return fmt.Errorf("max_subscriptions must be positive, got %d", c.MaxSubscriptions)
	}

	return nil
}
