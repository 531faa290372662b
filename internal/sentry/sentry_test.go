package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/keepsake/internal/config"
)

func TestNewClient_Initialize(t *testing.T) {
	tests := []struct {
		name       string
		sentryCfg  config.SentryConfig
		expectInit bool
	}{
		{
			name: "enabled with dsn",
			sentryCfg: config.SentryConfig{
				Enabled:     true,
				DSN:         "https://test@example.com/1",
				Environment: "test",
				SampleRate:  1.0,
			},
			expectInit: true,
		},
		{
			name:       "disabled",
			sentryCfg:  config.SentryConfig{Enabled: false},
			expectInit: false,
		},
		{
			name:       "enabled without dsn",
			sentryCfg:  config.SentryConfig{Enabled: true, DSN: ""},
			expectInit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Sentry = tt.sentryCfg

			client, err := NewClient(cfg, "1.0.0", "abc1234", "2025-01-01")
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.Equal(t, tt.expectInit, client.IsEnabled())
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "command text",
			input:    "command: rm -rf /tmp/scratch",
			expected: "command: [REDACTED]",
		},
		{
			name:     "template text",
			input:    "template: echo {name} is {age}",
			expected: "template: [REDACTED]",
		},
		{
			name:     "email address",
			input:    "user@example.com already registered",
			expected: "[EMAIL_REDACTED] already registered",
		},
		{
			name:     "password",
			input:    "password: hunter2",
			expected: "password: [REDACTED]",
		},
		{
			name:     "home directory",
			input:    "open /home/alice/snippets.json: permission denied",
			expected: "open /[USER_HOME]/snippets.json: permission denied",
		},
		{
			name:     "safe message",
			input:    "connection timeout",
			expected: "connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, client.sanitizeValue(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	client := &Client{}

	event := &sentry.Event{
		Message: "save failed for user@example.com",
		Tags: map[string]string{
			"template":  "docker run {image}",
			"component": "store",
		},
		Extra: map[string]interface{}{
			"value": "secret-input",
			"count": 3,
		},
		User: sentry.User{Email: "user@example.com", Username: "alice"},
	}

	got := client.sanitizeEvent(event)

	assert.Equal(t, "save failed for [EMAIL_REDACTED]", got.Message)
	assert.Equal(t, "[REDACTED]", got.Tags["template"])
	assert.Equal(t, "store", got.Tags["component"])
	assert.Equal(t, "[REDACTED]", got.Extra["value"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Empty(t, got.User.Email)
	assert.Empty(t, got.User.Username)
}

func TestSanitizeBreadcrumb(t *testing.T) {
	client := &Client{}

	crumb := &sentry.Breadcrumb{
		Message: "binding placeholder for user@example.com",
		Data: map[string]interface{}{
			"args":      "one two",
			"operation": "bind",
		},
	}

	got := client.sanitizeBreadcrumb(crumb)

	assert.Equal(t, "binding placeholder for [EMAIL_REDACTED]", got.Message)
	assert.Equal(t, "[REDACTED]", got.Data["args"])
	assert.Equal(t, "bind", got.Data["operation"])
}

func TestZerologHook_DisabledClientIsNoop(t *testing.T) {
	hook := NewZerologHook(&Client{}, zerolog.WarnLevel)

	// Must not panic or block with an uninitialized client.
	hook.Run(nil, zerolog.ErrorLevel, "boom")
	hook.Run(nil, zerolog.DebugLevel, "quiet")
}
