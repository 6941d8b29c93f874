package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.FetchInterval.Duration() != 5*time.Minute {
		t.Errorf("FetchInterval = %v, want 5m", cfg.FetchInterval.Duration())
	}
	if cfg.FetchInitialDelay.Duration() != 10*time.Second {
		t.Errorf("FetchInitialDelay = %v, want 10s", cfg.FetchInitialDelay.Duration())
	}
	if cfg.StateFile != "state.json" {
		t.Errorf("StateFile = %q, want state.json", cfg.StateFile)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
	if len(cfg.SupportedLanguages) != 2 {
		t.Errorf("len(SupportedLanguages) = %d, want 2", len(cfg.SupportedLanguages))
	}
	if cfg.TimeZone != "UTC" {
		t.Errorf("TimeZone = %q, want UTC", cfg.TimeZone)
	}
	if cfg.MaxSubscriptions != 20 {
		t.Errorf("MaxSubscriptions = %d, want 20", cfg.MaxSubscriptions)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
bot_token: test-token
admin_chat_id: 123456789
endpoint_url: https://tracking.example.org/api
endpoint_token: shared-secret
fetch_interval: 2m
fetch_initial_delay: 30s
state_file: /var/local/audax/state.json
default_language: ru
supported_languages: [ru, en]
time_zone: Europe/Moscow
max_subscriptions: 5
participant_list_url: https://example.org/participants
metrics_listen: ":9120"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.AdminChatID != 123456789 {
		t.Errorf("AdminChatID = %d, want 123456789", cfg.AdminChatID)
	}
	if cfg.EndpointToken != "shared-secret" {
		t.Errorf("EndpointToken = %q, want shared-secret", cfg.EndpointToken)
	}
	if cfg.FetchInterval.Duration() != 2*time.Minute {
		t.Errorf("FetchInterval = %v, want 2m", cfg.FetchInterval.Duration())
	}
	if cfg.FetchInitialDelay.Duration() != 30*time.Second {
		t.Errorf("FetchInitialDelay = %v, want 30s", cfg.FetchInitialDelay.Duration())
	}
	if cfg.StateFile != "/var/local/audax/state.json" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
	if cfg.DefaultLanguage != "ru" {
		t.Errorf("DefaultLanguage = %q, want ru", cfg.DefaultLanguage)
	}
	if cfg.TimeZone != "Europe/Moscow" {
		t.Errorf("TimeZone = %q, want Europe/Moscow", cfg.TimeZone)
	}
	if cfg.MaxSubscriptions != 5 {
		t.Errorf("MaxSubscriptions = %d, want 5", cfg.MaxSubscriptions)
	}
	if cfg.ParticipantListURL != "https://example.org/participants" {
		t.Errorf("ParticipantListURL = %q", cfg.ParticipantListURL)
	}
	if cfg.MetricsListen != ":9120" {
		t.Errorf("MetricsListen = %q, want :9120", cfg.MetricsListen)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test (Go 1.17+)
	t.Setenv("TEST_BOT_TOKEN", "secret123")
	t.Setenv("TEST_TRACKING_HOST", "tracking.test.org")

	yaml := `
bot_token: ${TEST_BOT_TOKEN}
endpoint_url: https://${TEST_TRACKING_HOST}/api
endpoint_token: "Bearer ${TEST_BOT_TOKEN}"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BotToken != "secret123" {
		t.Errorf("BotToken = %q, want secret123", cfg.BotToken)
	}
	if cfg.EndpointURL != "https://tracking.test.org/api" {
		t.Errorf("EndpointURL = %q, want https://tracking.test.org/api", cfg.EndpointURL)
	}
	if cfg.EndpointToken != "Bearer secret123" {
		t.Errorf("EndpointToken = %q, want 'Bearer secret123'", cfg.EndpointToken)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	// just ensure the var doesn't exist in the environment
	yaml := `
bot_token: test-token
endpoint_url: https://${UNSET_VAR:-tracking.example.org}/api
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.EndpointURL != "https://tracking.example.org/api" {
		t.Errorf("EndpointURL = %q, want https://tracking.example.org/api", cfg.EndpointURL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	yaml := `
bot_token: ${MISSING_VAR}
endpoint_url: https://tracking.example.org/api
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") {
		t.Errorf("error should mention MISSING_VAR: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "missing bot token",
			yaml:        `endpoint_url: https://tracking.example.org/api`,
			wantErrLike: "bot_token is required",
		},
		{
			name:        "missing endpoint url",
			yaml:        `bot_token: test-token`,
			wantErrLike: "endpoint_url is required",
		},
		{
			name: "bad endpoint scheme",
			yaml: `
bot_token: test-token
endpoint_url: ftp://tracking.example.org/api
`,
			wantErrLike: "scheme must be http or https",
		},
		{
			name: "fetch interval too short",
			yaml: `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
fetch_interval: 5s
`,
			wantErrLike: "fetch_interval must be at least",
		},
		{
			name: "default language unsupported",
			yaml: `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
default_language: fr
`,
			wantErrLike: "not in supported_languages",
		},
		{
			name: "bad time zone",
			yaml: `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
time_zone: Mars/Olympus_Mons
`,
			wantErrLike: "invalid time_zone",
		},
		{
			name: "negative max subscriptions",
			yaml: `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
max_subscriptions: -1
`,
			wantErrLike: "max_subscriptions must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestLocation_ValidatedZone(t *testing.T) {
	cfg := &Config{TimeZone: "Europe/Moscow"}
	if got := cfg.Location().String(); got != "Europe/Moscow" {
		t.Errorf("Location() = %q, want Europe/Moscow", got)
	}
}

func TestDuration_Invalid(t *testing.T) {
	yaml := `
bot_token: test-token
endpoint_url: https://tracking.example.org/api
fetch_interval: not-a-duration
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %q, want to contain 'invalid duration'", err.Error())
	}
}
