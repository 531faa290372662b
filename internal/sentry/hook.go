package sentry

import (
	"github.com/rs/zerolog"
)

// ZerologHook mirrors log events into Sentry: error level and above
// become captured messages, everything else becomes a breadcrumb that
// gives later errors their context.
type ZerologHook struct {
	client   *Client
	minLevel zerolog.Level
}

// NewZerologHook creates a hook that forwards events at or above minLevel.
func NewZerologHook(client *Client, minLevel zerolog.Level) *ZerologHook {
	return &ZerologHook{
		client:   client,
		minLevel: minLevel,
	}
}

// Hook returns a zerolog hook bound to the package-wide client. Call
// after Initialize, otherwise the hook stays inert.
func Hook(minLevel zerolog.Level) *ZerologHook {
	return NewZerologHook(globalClient, minLevel)
}

// Run is called by zerolog for each log event
func (h *ZerologHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.client == nil || !h.client.IsEnabled() {
		return
	}
	if level < h.minLevel {
		return
	}

	if level >= zerolog.ErrorLevel {
		h.client.CaptureMessage(msg, level.String(), "log", "unknown")
		return
	}

	h.client.AddBreadcrumb("log", msg, level.String())
}
