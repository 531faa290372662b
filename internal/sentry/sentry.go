package sentry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/NeverVane/keepsake/internal/config"
	"github.com/NeverVane/keepsake/internal/logger"
)

// Client wraps the Sentry SDK. Snippets are shell commands and the
// registration flow handles emails and passwords, so everything that
// leaves the process goes through the sanitizer first.
type Client struct {
	hub         *sentry.Hub
	config      *config.SentryConfig
	logger      *logger.Logger
	initialized bool
	version     string
	commit      string
	buildDate   string
}

// NewClient creates a Sentry client. Reporting stays off unless the
// config enables it and carries a DSN.
func NewClient(cfg *config.Config, version, commit, buildDate string) (*Client, error) {
	client := &Client{
		config:    &cfg.Sentry,
		logger:    logger.GetLogger().WithComponent("sentry"),
		version:   version,
		commit:    commit,
		buildDate: buildDate,
	}

	if err := client.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry client: %w", err)
	}

	return client, nil
}

func (c *Client) initialize() error {
	if !c.config.Enabled {
		c.logger.Debug().Msg("Sentry monitoring disabled")
		return nil
	}

	if c.config.DSN == "" {
		c.logger.Warn().Msg("Sentry DSN not configured, monitoring disabled")
		return nil
	}

	release := c.version
	if c.commit != "" {
		release = fmt.Sprintf("%s-%s", c.version, c.commit)
	}
	if c.config.Release != "" {
		release = c.config.Release
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              c.config.DSN,
		Environment:      c.config.Environment,
		Release:          release,
		SampleRate:       c.config.SampleRate,
		Debug:            c.config.Debug,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return c.sanitizeEvent(event)
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, hint *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			return c.sanitizeBreadcrumb(breadcrumb)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry SDK: %w", err)
	}

	c.hub = sentry.CurrentHub().Clone()

	c.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app.name", "keepsake")
		scope.SetTag("app.version", c.version)
		scope.SetTag("app.commit", c.commit)
		scope.SetTag("app.build_date", c.buildDate)
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
	})

	c.initialized = true
	c.logger.Info().
		Str("environment", c.config.Environment).
		Str("release", release).
		Float64("sample_rate", c.config.SampleRate).
		Msg("Sentry monitoring initialized")

	return nil
}

// CaptureError captures an error tagged with component and operation.
func (c *Client) CaptureError(err error, component, operation string) {
	if !c.initialized || err == nil {
		return
	}

	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("operation", operation)
		c.hub.CaptureException(err)
	})

	c.logger.Debug().
		Str("component", component).
		Str("operation", operation).
		Err(err).
		Msg("Error captured by Sentry")
}

// CaptureMessage captures a message at the given level.
func (c *Client) CaptureMessage(message, level, component, operation string) {
	if !c.initialized {
		return
	}

	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetTag("operation", operation)
		scope.SetLevel(sentryLevel(level))
		c.hub.CaptureMessage(c.sanitizeValue(message))
	})
}

// AddBreadcrumb records an operation trace for later error context.
func (c *Client) AddBreadcrumb(category, message, level string) {
	if !c.initialized {
		return
	}

	c.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   c.sanitizeValue(message),
		Level:     sentryLevel(level),
		Timestamp: time.Now(),
	}, nil)
}

// Flush flushes pending events
func (c *Client) Flush(timeout time.Duration) bool {
	if !c.initialized {
		return true
	}
	return sentry.Flush(timeout)
}

// Close flushes and shuts down the client
func (c *Client) Close() {
	if c.initialized {
		c.Flush(2 * time.Second)
		c.initialized = false
		c.logger.Debug().Msg("Sentry client closed")
	}
}

// IsEnabled returns whether Sentry monitoring is active
func (c *Client) IsEnabled() bool {
	return c.initialized
}

func sentryLevel(level string) sentry.Level {
	switch level {
	case "debug":
		return sentry.LevelDebug
	case "warn", "warning":
		return sentry.LevelWarning
	case "error":
		return sentry.LevelError
	case "fatal":
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}

var (
	globalClient *Client
	globalOnce   sync.Once
)

// Initialize sets up the package-wide client used by the convenience
// functions below. Safe to call when reporting is disabled.
func Initialize(cfg *config.Config, version, commit, buildDate string) error {
	var initErr error
	globalOnce.Do(func() {
		client, err := NewClient(cfg, version, commit, buildDate)
		if err != nil {
			initErr = err
			return
		}
		globalClient = client
	})
	return initErr
}

// IsEnabled reports whether the package-wide client is active.
func IsEnabled() bool {
	return globalClient != nil && globalClient.IsEnabled()
}

// CaptureError forwards to the package-wide client.
func CaptureError(err error, component, operation string) {
	if globalClient != nil {
		globalClient.CaptureError(err, component, operation)
	}
}

// Flush forwards to the package-wide client.
func Flush(timeout time.Duration) bool {
	if globalClient == nil {
		return true
	}
	return globalClient.Flush(timeout)
}

// Close shuts down the package-wide client.
func Close() {
	if globalClient != nil {
		globalClient.Close()
	}
}
