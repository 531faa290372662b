package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	zerolog.Logger
	level  zerolog.Level
	output io.Writer
}

// Config represents logger configuration
type Config struct {
	// Log level (debug, info, warn, error)
	Level string

	// Output destination (stdout, stderr, or a file path)
	Output string

	// Enable colored output (console writer on terminals)
	Color bool

	// Enable timestamp in logs
	Timestamp bool

	// Enable caller information (file:line)
	Caller bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     "error",
		Output:    "stderr",
		Color:     true,
		Timestamp: true,
		Caller:    false,
	}
}

var globalLogger *Logger

// Init initializes the global logger with the provided configuration
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	// Set error stack marshaling
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// Parse log level
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}

	// Configure output
	var output io.Writer
	switch config.Output {
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		// Assume it's a file path
		if err := os.MkdirAll(filepath.Dir(config.Output), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	// Configure console writer for terminal output
	if (config.Output == "stdout" || config.Output == "stderr") && config.Color {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    !config.Color,
		}
		output = consoleWriter
	}

	// Create logger
	logger := zerolog.New(output).Level(level)

	if config.Timestamp {
		logger = logger.With().Timestamp().Logger()
	}

	if config.Caller {
		logger = logger.With().Caller().Logger()
	}

	globalLogger = &Logger{
		Logger: logger,
		level:  level,
		output: output,
	}

	// Set global logger
	log.Logger = globalLogger.Logger

	return nil
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if globalLogger == nil {
		// Initialize with defaults if not already done
		_ = Init(DefaultConfig())
	}
	return globalLogger
}

// AttachHook adds a zerolog hook to the global logger. Loggers derived
// before the call do not carry the hook.
func AttachHook(h zerolog.Hook) {
	l := GetLogger()
	l.Logger = l.Logger.Hook(h)
	log.Logger = l.Logger
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With().Interface(key, value).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.Logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &Logger{
		Logger: ctx.Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithError adds an error field to the logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With().Err(err).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithComponent adds a component field for structured logging
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// WithOperation adds an operation field for structured logging
func (l *Logger) WithOperation(operation string) *Logger {
	return l.WithField("operation", operation)
}

// Global convenience functions
func Debug() *zerolog.Event {
	return GetLogger().Debug()
}

func Info() *zerolog.Event {
	return GetLogger().Info()
}

func Warn() *zerolog.Event {
	return GetLogger().Warn()
}

func Error() *zerolog.Event {
	return GetLogger().Error()
}

func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

func WithError(err error) *Logger {
	return GetLogger().WithError(err)
}

func WithComponent(component string) *Logger {
	return GetLogger().WithComponent(component)
}
