package sentry

import (
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
)

// What leaves this process is error telemetry about a tool whose whole
// job is storing the user's shell commands. Command text, placeholder
// values, emails, and credentials must never reach the server.

var (
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	homePattern    = regexp.MustCompile(`(/home/[^/\s]+|/Users/[^/\s]+)`)
	secretPattern  = regexp.MustCompile(`(?i)(password|passwd|token|secret|key|credential)[:=]\s*['"]?(\S+)['"]?`)
	commandPattern = regexp.MustCompile(`(?i)(command|template|cmd)[:=]\s*['"]?([^'"]+)['"]?`)
)

// sensitiveFields are redacted wholesale when they appear as tag or
// data keys.
var sensitiveFields = []string{
	"command", "template", "cmd", "args", "value",
	"email", "password", "credential", "token", "secret",
	"path", "file",
}

// sanitizeValue redacts sensitive content from a string
func (c *Client) sanitizeValue(value string) string {
	if value == "" {
		return value
	}

	value = commandPattern.ReplaceAllString(value, "${1}: [REDACTED]")
	value = secretPattern.ReplaceAllString(value, "${1}: [REDACTED]")
	value = emailPattern.ReplaceAllString(value, "[EMAIL_REDACTED]")
	value = homePattern.ReplaceAllString(value, "/[USER_HOME]")

	return value
}

func isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// sanitizeEvent scrubs a Sentry event before it is sent
func (c *Client) sanitizeEvent(event *sentry.Event) *sentry.Event {
	if event == nil {
		return event
	}

	if event.Message != "" {
		event.Message = c.sanitizeValue(event.Message)
	}

	for i, exception := range event.Exception {
		if exception.Value != "" {
			event.Exception[i].Value = c.sanitizeValue(exception.Value)
		}
	}

	for key, value := range event.Tags {
		if isSensitiveField(key) {
			event.Tags[key] = "[REDACTED]"
		} else {
			event.Tags[key] = c.sanitizeValue(value)
		}
	}

	if event.Extra != nil {
		for key, value := range event.Extra {
			if isSensitiveField(key) {
				event.Extra[key] = "[REDACTED]"
			} else if strValue, ok := value.(string); ok {
				event.Extra[key] = c.sanitizeValue(strValue)
			}
		}
	}

	// Identity never leaves the machine.
	if event.User.ID != "" || event.User.Username != "" || event.User.Email != "" {
		event.User = sentry.User{}
	}

	return event
}

// sanitizeBreadcrumb scrubs a breadcrumb before it is recorded
func (c *Client) sanitizeBreadcrumb(breadcrumb *sentry.Breadcrumb) *sentry.Breadcrumb {
	if breadcrumb == nil {
		return breadcrumb
	}

	if breadcrumb.Message != "" {
		breadcrumb.Message = c.sanitizeValue(breadcrumb.Message)
	}

	if breadcrumb.Data != nil {
		for key, value := range breadcrumb.Data {
			if isSensitiveField(key) {
				breadcrumb.Data[key] = "[REDACTED]"
			} else if strValue, ok := value.(string); ok {
				breadcrumb.Data[key] = c.sanitizeValue(strValue)
			}
		}
	}

	return breadcrumb
}
