package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Registration server for the hosted keepsake service.
const DefaultRemoteURL = "https://api.keepsake.dev"

// Config represents the complete configuration for Keepsake
type Config struct {
	// Snippet store configuration
	Store StoreConfig `toml:"store"`

	// Search configuration
	Search SearchConfig `toml:"search"`

	// Interactive prompt configuration
	Prompt PromptConfig `toml:"prompt"`

	// Command execution configuration
	Executor ExecutorConfig `toml:"executor"`

	// Remote registration configuration
	Remote RemoteConfig `toml:"remote"`

	// Self-update configuration
	Update UpdateConfig `toml:"update"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`

	// Sentry configuration
	Sentry SentryConfig `toml:"sentry"`

	// Output configuration
	Output OutputConfig `toml:"output"`

	// Directory paths (computed, not stored in TOML)
	DataDir   string `toml:"-"`
	ConfigDir string `toml:"-"`
}

// StoreConfig contains snippet store settings
type StoreConfig struct {
	// Path to the snippets document
	Path string `toml:"path"`

	// How long a second invocation waits for the store lock, in milliseconds
	LockTimeoutMS int `toml:"lock_timeout_ms"`
}

// SearchConfig contains pattern matching settings
type SearchConfig struct {
	// Edit distance for fuzzy matching (0 disables fuzzy hits)
	Fuzziness int `toml:"fuzziness"`

	// Score boost for exact template matches
	BoostExactMatch float64 `toml:"boost_exact_match"`

	// Score boost for prefix matches
	BoostPrefix float64 `toml:"boost_prefix"`

	// Minimum score for a scored hit to count
	MinScore float64 `toml:"min_score"`

	// Upper bound on results pulled from the index per query
	MaxCandidates int `toml:"max_candidates"`
}

// PromptConfig contains interactive prompt settings
type PromptConfig struct {
	// Present defaults as editable text instead of replace-on-type
	AllowEdit bool `toml:"allow_edit"`
}

// ExecutorConfig contains command execution settings
type ExecutorConfig struct {
	// Interpret commands in-process instead of spawning a shell
	Native bool `toml:"native"`

	// Shell binary used when native execution is disabled
	Shell string `toml:"shell"`
}

// RemoteConfig contains registration server settings
type RemoteConfig struct {
	// Registration server base URL
	URL string `toml:"url"`

	// Request timeout in seconds
	Timeout int `toml:"timeout_seconds"`

	// Retry attempts for failed requests
	MaxRetries int `toml:"max_retries"`

	// Initial backoff between retries, in milliseconds
	RetryBackoffMS int `toml:"retry_backoff_ms"`

	// Path to the saved credentials file
	CredentialsPath string `toml:"credentials_path"`
}

// UpdateConfig contains self-update settings
type UpdateConfig struct {
	// Check for new releases in the background
	AutoCheck bool `toml:"auto_check"`

	// Hours between background checks
	CheckIntervalHours int `toml:"check_interval_hours"`

	// GitHub repository queried for releases
	RepoOwner string `toml:"repo_owner"`
	RepoName  string `toml:"repo_name"`

	// Release API timeout in seconds
	Timeout int `toml:"timeout_seconds"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `toml:"level"`

	// Log file path; empty logs to stderr
	File string `toml:"file"`
}

// SentryConfig contains Sentry error monitoring settings
type SentryConfig struct {
	// Enable Sentry error monitoring
	Enabled bool `toml:"enabled"`

	// Sentry DSN for error reporting
	DSN string `toml:"dsn"`

	// Environment name (development, staging, production)
	Environment string `toml:"environment"`

	// Sample rate for error reporting (0.0 to 1.0)
	SampleRate float64 `toml:"sample_rate"`

	// Release version for error grouping
	Release string `toml:"release"`

	// Debug mode for Sentry SDK
	Debug bool `toml:"debug"`
}

// OutputConfig contains CLI output formatting settings
type OutputConfig struct {
	// Enable colored output
	ColorsEnabled bool `toml:"colors_enabled"`

	// Color scheme: "modern", "conservative", "custom"
	ColorScheme string `toml:"color_scheme"`

	// Automatically disable colors when not in a TTY
	AutoDetectTTY bool `toml:"auto_detect_tty"`

	// Verbosity level: "minimal", "normal", "verbose"
	Verbosity string `toml:"verbosity"`

	// Custom color definitions (used when color_scheme = "custom")
	Colors ColorConfig `toml:"colors"`
}

// ColorConfig contains color definitions for different output types
type ColorConfig struct {
	Success string `toml:"success"` // Bright Green
	Error   string `toml:"error"`   // Bright Red
	Warning string `toml:"warning"` // Orange
	Info    string `toml:"info"`    // Bright Blue
	Tip     string `toml:"tip"`     // Bright Cyan
	Remote  string `toml:"remote"`  // Bright Blue
	Done    string `toml:"done"`    // Bright Green
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".config", "keepsake")
	dataDir := filepath.Join(homeDir, ".local", "share", "keepsake")

	return &Config{
		Store: StoreConfig{
			Path:          filepath.Join(dataDir, "snippets.json"),
			LockTimeoutMS: 5000,
		},
		Search: SearchConfig{
			Fuzziness:       1,
			BoostExactMatch: 3.0,
			BoostPrefix:     2.0,
			MinScore:        0.1,
			MaxCandidates:   1000,
		},
		Prompt: PromptConfig{
			AllowEdit: true,
		},
		Executor: ExecutorConfig{
			Native: true,
			Shell:  "sh",
		},
		Remote: RemoteConfig{
			URL:             DefaultRemoteURL,
			Timeout:         30,
			MaxRetries:      3,
			RetryBackoffMS:  500,
			CredentialsPath: filepath.Join(dataDir, ".credentials"),
		},
		Update: UpdateConfig{
			AutoCheck:          false, // Require explicit opt-in for background checks
			CheckIntervalHours: 24,
			RepoOwner:          "NeverVane",
			RepoName:           "keepsake",
			Timeout:            30,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  filepath.Join(dataDir, "keepsake.log"),
		},
		Sentry: SentryConfig{
			Enabled:     false, // Opt-in only
			DSN:         "",
			Environment: "production",
			SampleRate:  1.0,
			Release:     "",
			Debug:       false,
		},
		Output: OutputConfig{
			ColorsEnabled: true,
			ColorScheme:   "modern",
			AutoDetectTTY: true,
			// Informational messages (empty store, no match) must be
			// visible without --verbose, so "minimal" is not the default.
			Verbosity: "normal",
			Colors: ColorConfig{
				Success: "#00FF00", // Bright Green
				Error:   "#FF0000", // Bright Red
				Warning: "#FF8800", // Orange
				Info:    "#0088FF", // Bright Blue
				Tip:     "#00FFFF", // Bright Cyan
				Remote:  "#0088FF", // Bright Blue
				Done:    "#00FF00", // Bright Green
			},
		},
		DataDir:   dataDir,
		ConfigDir: configDir,
	}
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try default location
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil // Return defaults if can't determine home dir
		}
		configPath = filepath.Join(homeDir, ".config", "keepsake", "config.toml")
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, return defaults
		config.ApplyDefaults()
		return config, nil
	}

	// Load and parse the TOML file
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	// Apply defaults to fill in any missing values
	config.ApplyDefaults()

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure directories exist
	if err := config.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the specified file path
func (c *Config) Save(configPath string) error {
	// Ensure the config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open the config file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Encode the configuration as TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config as TOML: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	// Validate store settings
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	if c.Store.LockTimeoutMS < 0 {
		return fmt.Errorf("store.lock_timeout_ms must be non-negative")
	}

	// Validate search settings
	if c.Search.Fuzziness < 0 || c.Search.Fuzziness > 2 {
		return fmt.Errorf("search.fuzziness must be between 0 and 2")
	}
	if c.Search.BoostExactMatch <= 0 {
		return fmt.Errorf("search.boost_exact_match must be positive")
	}
	if c.Search.BoostPrefix <= 0 {
		return fmt.Errorf("search.boost_prefix must be positive")
	}
	if c.Search.MinScore < 0 {
		return fmt.Errorf("search.min_score must be non-negative")
	}
	if c.Search.MaxCandidates <= 0 {
		return fmt.Errorf("search.max_candidates must be positive")
	}

	// Validate executor settings
	if c.Executor.Shell == "" {
		return fmt.Errorf("executor.shell must be set")
	}

	// Validate remote settings
	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url must be set")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout_seconds must be positive")
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("remote.max_retries must be non-negative")
	}
	if c.Remote.RetryBackoffMS <= 0 {
		return fmt.Errorf("remote.retry_backoff_ms must be positive")
	}

	// Validate update settings
	if c.Update.CheckIntervalHours <= 0 {
		return fmt.Errorf("update.check_interval_hours must be positive")
	}
	if c.Update.RepoOwner == "" || c.Update.RepoName == "" {
		return fmt.Errorf("update.repo_owner and update.repo_name must be set")
	}
	if c.Update.Timeout <= 0 {
		return fmt.Errorf("update.timeout_seconds must be positive")
	}

	// Validate logging settings
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	// Validate sentry settings
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry.sample_rate must be between 0.0 and 1.0")
	}

	// Validate output settings
	validColorSchemes := map[string]bool{"modern": true, "conservative": true, "custom": true}
	if !validColorSchemes[c.Output.ColorScheme] {
		return fmt.Errorf("output.color_scheme must be one of: modern, conservative, custom")
	}
	validVerbosity := map[string]bool{"minimal": true, "normal": true, "verbose": true}
	if !validVerbosity[c.Output.Verbosity] {
		return fmt.Errorf("output.verbosity must be one of: minimal, normal, verbose")
	}

	return nil
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.ConfigDir,
		c.DataDir,
		filepath.Dir(c.Store.Path),
		filepath.Dir(c.Remote.CredentialsPath),
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyDefaults applies default values for all configuration sections
// This ensures that TOML decoding doesn't override defaults with zero values
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	// Store defaults
	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}
	if c.Store.LockTimeoutMS <= 0 {
		c.Store.LockTimeoutMS = defaults.Store.LockTimeoutMS
	}

	// Search defaults
	if c.Search.BoostExactMatch <= 0 {
		c.Search.BoostExactMatch = defaults.Search.BoostExactMatch
	}
	if c.Search.BoostPrefix <= 0 {
		c.Search.BoostPrefix = defaults.Search.BoostPrefix
	}
	if c.Search.MinScore <= 0 {
		c.Search.MinScore = defaults.Search.MinScore
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = defaults.Search.MaxCandidates
	}

	// Executor defaults
	if c.Executor.Shell == "" {
		c.Executor.Shell = defaults.Executor.Shell
	}

	// Remote defaults
	if c.Remote.URL == "" {
		c.Remote.URL = defaults.Remote.URL
	}
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = defaults.Remote.Timeout
	}
	if c.Remote.MaxRetries == 0 {
		c.Remote.MaxRetries = defaults.Remote.MaxRetries
	}
	if c.Remote.RetryBackoffMS <= 0 {
		c.Remote.RetryBackoffMS = defaults.Remote.RetryBackoffMS
	}
	if c.Remote.CredentialsPath == "" {
		c.Remote.CredentialsPath = defaults.Remote.CredentialsPath
	}

	// Update defaults
	if c.Update.CheckIntervalHours <= 0 {
		c.Update.CheckIntervalHours = defaults.Update.CheckIntervalHours
	}
	if c.Update.RepoOwner == "" {
		c.Update.RepoOwner = defaults.Update.RepoOwner
	}
	if c.Update.RepoName == "" {
		c.Update.RepoName = defaults.Update.RepoName
	}
	if c.Update.Timeout <= 0 {
		c.Update.Timeout = defaults.Update.Timeout
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	// Sentry defaults
	if c.Sentry.Environment == "" {
		c.Sentry.Environment = defaults.Sentry.Environment
	}
	if c.Sentry.SampleRate <= 0 {
		c.Sentry.SampleRate = defaults.Sentry.SampleRate
	}

	// Output defaults
	if c.Output.ColorScheme == "" {
		c.Output.ColorScheme = defaults.Output.ColorScheme
	}
	if c.Output.Verbosity == "" {
		c.Output.Verbosity = defaults.Output.Verbosity
	}
}

// GetLockTimeout returns the store lock timeout as a time.Duration
func (c *Config) GetLockTimeout() time.Duration {
	return time.Duration(c.Store.LockTimeoutMS) * time.Millisecond
}

// GetRemoteURL returns the registration server base URL without a trailing slash
func (c *Config) GetRemoteURL() string {
	return strings.TrimRight(c.Remote.URL, "/")
}

// GetRemoteTimeout returns the remote request timeout as a time.Duration
func (c *Config) GetRemoteTimeout() time.Duration {
	return time.Duration(c.Remote.Timeout) * time.Second
}

// GetRemoteRetryBackoff returns the initial retry backoff as a time.Duration
func (c *Config) GetRemoteRetryBackoff() time.Duration {
	return time.Duration(c.Remote.RetryBackoffMS) * time.Millisecond
}

// GetUpdateTimeout returns the release API timeout as a time.Duration
func (c *Config) GetUpdateTimeout() time.Duration {
	return time.Duration(c.Update.Timeout) * time.Second
}

// GetUpdateCheckInterval returns the background check interval as a time.Duration
func (c *Config) GetUpdateCheckInterval() time.Duration {
	return time.Duration(c.Update.CheckIntervalHours) * time.Hour
}
