package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NeverVane/keepsake/internal/config"
	"github.com/NeverVane/keepsake/internal/executor"
	"github.com/NeverVane/keepsake/internal/logger"
	"github.com/NeverVane/keepsake/internal/output"
	"github.com/NeverVane/keepsake/internal/picker"
	"github.com/NeverVane/keepsake/internal/prompt"
	"github.com/NeverVane/keepsake/internal/remote"
	"github.com/NeverVane/keepsake/internal/search"
	"github.com/NeverVane/keepsake/internal/sentry"
	"github.com/NeverVane/keepsake/internal/snippet"
	"github.com/NeverVane/keepsake/internal/store"
	"github.com/NeverVane/keepsake/internal/updater"
	"github.com/briandowns/spinner"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.2.0"
	commit  = "release"
	date    = "2025-08-18"
	author  = "Leonardo Zanobi"
	website = "https://keepsake.dev"
)

func main() {
	// Add panic recovery for better error reporting
	defer func() {
		if r := recover(); r != nil {
			if sentry.IsEnabled() {
				sentry.CaptureError(fmt.Errorf("panic: %v", r), "main", "panic_recovery")
				sentry.Flush(2 * time.Second)
			}
			fmt.Fprintf(os.Stderr, "Keepsake encountered a fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	// The config file location must be known before cobra parses flags,
	// so --config is picked out of the raw arguments.
	cfg, err := config.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize Sentry error monitoring
	if err := sentry.Initialize(cfg, version, commit, date); err != nil {
		// Don't fail the application if Sentry initialization fails
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize error monitoring: %v\n", err)
	}

	// Ensure Sentry cleanup on exit
	defer func() {
		if sentry.IsEnabled() {
			sentry.Flush(2 * time.Second)
			sentry.Close()
		}
	}()

	// KEEPSAKE_DATA_DIR redirects every data path, for containers and
	// tests with isolated environments.
	if dataDir := os.Getenv("KEEPSAKE_DATA_DIR"); dataDir != "" {
		if !filepath.IsAbs(dataDir) {
			fmt.Fprintf(os.Stderr, "KEEPSAKE_DATA_DIR must be an absolute path, got: %s\n", dataDir)
			os.Exit(1)
		}
		if filepath.Clean(dataDir) != dataDir {
			fmt.Fprintf(os.Stderr, "KEEPSAKE_DATA_DIR contains invalid path components: %s\n", dataDir)
			os.Exit(1)
		}

		cfg.DataDir = dataDir
		cfg.ConfigDir = dataDir
		cfg.Store.Path = filepath.Join(dataDir, "snippets.json")
		cfg.Remote.CredentialsPath = filepath.Join(dataDir, ".credentials")
		if cfg.Logging.File != "" {
			cfg.Logging.File = filepath.Join(dataDir, "keepsake.log")
		}

		if err := os.MkdirAll(dataDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create custom data directory %s: %v\n", dataDir, err)
			os.Exit(1)
		}
	}

	// Initialize logger. The default level only surfaces errors, written
	// to the data directory so interactive output stays clean.
	loggerConfig := &logger.Config{
		Level:     cfg.Logging.Level,
		Output:    "stderr",
		Color:     true,
		Timestamp: true,
		Caller:    false,
	}
	if cfg.Logging.File != "" {
		loggerConfig.Output = cfg.Logging.File
	}

	if err := logger.Init(loggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Mirror warnings and errors into Sentry when reporting is enabled
	if sentry.IsEnabled() {
		logger.AttachHook(sentry.Hook(zerolog.WarnLevel))
	}

	rootCmd := &cobra.Command{
		Use:   "keepsake",
		Short: "Keepsake - Personal command snippet vault",
		Long: `
===================================================================
                        Keepsake v` + version + `
===================================================================

Keepsake keeps the shell commands you never remember: save a command
template once, find it again with a fuzzy pattern, fill its
{placeholder} values interactively, confirm, and run it.

Key Features:
  - Command templates with {placeholder} substitution
  - Fuzzy pattern search over commands and descriptions
  - Interactive picker when a pattern matches several commands
  - Confirmation before anything is executed
  - Optional registration with the hosted keepsake service
  - Self-update from GitHub releases

Author: Leonardo Zanobi
License: MIT
Homepage: ` + website + `

Get started:
  keepsake init               Initialize Keepsake
  keepsake new                Save your first command
  keepsake run <pattern>      Find and execute a saved command
  keepsake help               Show all available commands`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle verbose flag
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				// Reinitialize logger with debug level on stderr so the
				// extra detail is actually visible.
				loggerConfig.Level = "debug"
				loggerConfig.Output = "stderr"
				return logger.Init(loggerConfig)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.config/keepsake/config.toml)")

	// Disable auto-generated completion command (not yet implemented)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands with configuration
	rootCmd.AddCommand(initCmd(cfg))
	rootCmd.AddCommand(newCmd(cfg))
	rootCmd.AddCommand(listCmd(cfg))
	rootCmd.AddCommand(searchCmd(cfg))
	rootCmd.AddCommand(rmCmd(cfg))
	rootCmd.AddCommand(editCmd(cfg))
	rootCmd.AddCommand(runCmd(cfg))
	rootCmd.AddCommand(registerCmd(cfg))
	rootCmd.AddCommand(updateCmd(cfg))
	rootCmd.AddCommand(versionCmd(cfg))

	// Perform auto-update check in background (non-blocking)
	checkAutoUpdate(cfg)

	// Execute the root command
	if err := rootCmd.Execute(); err != nil {
		// Commands handle their own error display via formatter
		os.Exit(1)
	}
}

// initCmd prepares the directories and configuration Keepsake needs
func initCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize Keepsake directories and configuration",
		Long: `Initialize Keepsake by creating the config and data directories, writing
a default configuration file when none exists, and optionally registering
with the hosted keepsake service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger().WithComponent("init")
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			formatter.Success("Data directory ready: %s", cfg.DataDir)

			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = filepath.Join(cfg.ConfigDir, "config.toml")
			}
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := cfg.Save(configPath); err != nil {
					return fmt.Errorf("failed to write default config: %w", err)
				}
				formatter.Success("Default configuration written: %s", configPath)
			} else {
				formatter.Info("Configuration already present: %s", configPath)
			}

			if _, err := remote.LoadCredentials(cfg.Remote.CredentialsPath); err == nil {
				formatter.Info("Already registered with the keepsake service.")
				log.Debug().Msg("Credentials present, skipping registration offer")
			} else if err := runRegistration(cmd.Context(), cfg, formatter); err != nil {
				return err
			}

			formatter.Done("Keepsake is ready. Save your first command with 'keepsake new'.")
			return nil
		},
	}

	return cmd
}

// newCmd saves a command template with its description
func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Save a new command",
		Long: `Save a shell command together with a description. Placeholders written
as {name} are filled in interactively when the command is run.

Example:
  keepsake new
  keepsake new --command "tar -czf {archive}.tar.gz {dir}" --description "compress a directory"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			command, _ := cmd.Flags().GetString("command")
			description, _ := cmd.Flags().GetString("description")

			console := prompt.NewConsole(cfg.Prompt.AllowEdit)
			var err error
			if command == "" {
				command, err = console.Input("Command", "")
				if err != nil {
					return err
				}
			}
			command = strings.TrimSpace(command)

			if description == "" {
				description, err = console.Input("Description", "")
				if err != nil {
					return err
				}
			}

			sn := snippet.Snippet{Template: command, Description: description}
			if err := sn.Validate(); err != nil {
				return err
			}

			updated, err := openStore(cfg).Save(sn)
			if err != nil {
				return fmt.Errorf("failed to save command: %w", err)
			}

			if updated {
				formatter.Success("Command updated!")
			} else {
				formatter.Success("Command saved!")
			}
			if names := snippet.Placeholders(sn.Template); len(names) > 0 {
				formatter.Tip("Placeholders detected: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().String("command", "", "Command template to save")
	cmd.Flags().String("description", "", "Description of the command")

	return cmd
}

// listCmd shows every saved command
func listCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all saved commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			snippets, err := openStore(cfg).List()
			if errors.Is(err, store.ErrNoStore) {
				formatter.Println("No commands saved yet. Add one by 'keepsake new'.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}

			printSnippetTable(snippets)
			return nil
		},
	}

	return cmd
}

// searchCmd finds saved commands by pattern
func searchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search <pattern>",
		Aliases: []string{"grep"},
		Short:   "Search saved commands by pattern",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			pattern := args[0]

			snippets, err := openStore(cfg).List()
			if errors.Is(err, store.ErrNoStore) {
				formatter.Println("No commands saved yet. Add one by 'keepsake new'.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}

			matches, err := newMatcher(cfg).Match(snippets, pattern)
			if err != nil {
				return fmt.Errorf("pattern match failed: %w", err)
			}
			if len(matches) == 0 {
				formatter.Println("No saved commands matches the pattern %s", pattern)
				return nil
			}

			printSnippetTable(matches)
			return nil
		},
	}

	return cmd
}

// rmCmd removes a saved command by exact template
func rmCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [template]",
		Short: "Remove a saved command",
		Long: `Remove a saved command by its exact template. Without an argument an
interactive picker lists every saved command.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			st := openStore(cfg)

			var template string
			if len(args) > 0 {
				// Templates contain spaces, so all arguments form the key.
				template = strings.Join(args, " ")
			} else {
				snippets, err := st.List()
				if errors.Is(err, store.ErrNoStore) {
					formatter.Println("No commands to remove. Run 'keepsake new' to add one.")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read commands: %w", err)
				}

				idx, err := picker.Pick(snippets, "Remove a command")
				if errors.Is(err, picker.ErrAborted) {
					return nil
				}
				if err != nil {
					return err
				}
				template = snippets[idx].Template
			}

			err := st.Remove(template)
			switch {
			case errors.Is(err, store.ErrNoStore):
				formatter.Println("No commands to remove. Run 'keepsake new' to add one.")
				return nil
			case errors.Is(err, store.ErrNotFound):
				formatter.Println("Command - %s - does not exist.", template)
				return nil
			case err != nil:
				return fmt.Errorf("failed to remove command: %w", err)
			}

			formatter.Success("Command successfully removed!")
			return nil
		},
	}

	return cmd
}

// editCmd rewrites a saved command in place
func editCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [pattern]",
		Short: "Edit a saved command",
		Long: `Pick a saved command and edit its template and description. A pattern
narrows the selection the same way 'keepsake search' does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			st := openStore(cfg)

			snippets, err := st.List()
			if errors.Is(err, store.ErrNoStore) {
				formatter.Println("No commands to edit. Run 'keepsake new' to add one.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}

			candidates := snippets
			if len(args) > 0 {
				candidates, err = newMatcher(cfg).Match(snippets, args[0])
				if err != nil {
					return fmt.Errorf("pattern match failed: %w", err)
				}
				if len(candidates) == 0 {
					formatter.Println("No saved commands matches the pattern %s", args[0])
					return nil
				}
			}

			idx, err := picker.Pick(candidates, "Edit a command")
			if errors.Is(err, picker.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			current := candidates[idx]

			console := prompt.NewConsole(cfg.Prompt.AllowEdit)
			template, err := console.Input("Command", current.Template)
			if err != nil {
				return err
			}
			description, err := console.Input("Description", current.Description)
			if err != nil {
				return err
			}

			edited := snippet.Snippet{
				Template:    strings.TrimSpace(template),
				Description: description,
			}
			if err := edited.Validate(); err != nil {
				return err
			}

			// A changed template is a new key; the old entry goes away.
			if edited.Template != current.Template {
				if err := st.Remove(current.Template); err != nil {
					return fmt.Errorf("failed to replace command: %w", err)
				}
			}
			if _, err := st.Save(edited); err != nil {
				return fmt.Errorf("failed to save command: %w", err)
			}

			formatter.Success("Command updated!")
			return nil
		},
	}

	return cmd
}

// runCmd finds a saved command, fills its placeholders and executes it
func runCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pattern> [arguments...]",
		Short: "Execute a saved command",
		Long: `Find a saved command by pattern, fill its placeholders and execute it
after confirmation. Positional arguments fill placeholders in order of
appearance; remaining placeholders are prompted for unless --safe is set,
in which case they stay in the command as literal text.

Example:
  keepsake run compress ./photos
  keepsake run --safe "tar"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger().WithComponent("run")
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")
			safe, _ := cmd.Flags().GetBool("safe")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			pattern := args[0]
			positional := args[1:]

			snippets, err := openStore(cfg).List()
			if errors.Is(err, store.ErrNoStore) {
				formatter.Println("No commands to run, Add one by 'keepsake new'.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read commands: %w", err)
			}

			matches, err := newMatcher(cfg).Match(snippets, pattern)
			if err != nil {
				return fmt.Errorf("pattern match failed: %w", err)
			}
			if len(matches) == 0 {
				formatter.Println("No saved commands matches the pattern %s", pattern)
				return nil
			}

			idx, err := picker.Pick(matches, "Run a command")
			if errors.Is(err, picker.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			chosen := matches[idx]

			console := prompt.NewConsole(cfg.Prompt.AllowEdit)
			result, err := snippet.Bind(chosen.Template, snippet.BindOptions{
				Args:   positional,
				Safe:   safe,
				Supply: console,
				OnBound: func(name, value string) {
					fmt.Printf("%s: %s\n", name, value)
				},
			})
			if err != nil {
				return fmt.Errorf("failed to bind placeholders: %w", err)
			}

			formatter.Separator()
			if len(result.Unbound) > 0 {
				formatter.Warning("Command still contains placeholders: %s", strings.Join(result.Unbound, ", "))
			}

			fmt.Printf("Execute\n\t$ %s :: %s\n\n", result.Command, chosen.Description)
			confirmed, err := console.Confirm("?", true)
			if err != nil {
				return err
			}
			if !confirmed {
				log.Debug().Str("command", result.Command).Msg("Execution declined")
				return nil
			}

			runner := executor.New(executor.Options{
				Native: cfg.Executor.Native,
				Shell:  cfg.Executor.Shell,
			})
			status, err := runner.Run(cmd.Context(), result.Command)
			if err != nil {
				return fmt.Errorf("failed to execute command: %w", err)
			}
			// The downstream command's exit status is its own business.
			if status != 0 {
				log.Debug().
					Int("exit_status", status).
					Str("command", result.Command).
					Msg("Command exited nonzero")
			}
			return nil
		},
	}

	cmd.Flags().Bool("safe", false, "Leave unfilled placeholders as literal text instead of prompting")
	// Arguments may contain dashes; nothing after the pattern is a flag.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// registerCmd creates an account with the hosted keepsake service
func registerCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register with the keepsake service",
		Long: `Register an account with the hosted keepsake service. The password is
generated locally and saved together with the email in the credentials
file inside the data directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			return runRegistration(cmd.Context(), cfg, formatter)
		},
	}

	return cmd
}

// updateCmd updates the running binary to the latest release
func updateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update keepsake to the latest version",
		Long: `Update keepsake to the latest version.

This command will:
- Check for the latest version on GitHub releases
- Download and verify the new binary
- Replace the current executable with the new version
- Preserve all your data and configuration

Example:
  keepsake update            # Update to the latest version
  keepsake update --check    # Only check, don't install
  keepsake update --force    # Install without asking`,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")
			checkOnly, _ := cmd.Flags().GetBool("check")
			force, _ := cmd.Flags().GetBool("force")

			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(verbose, false, noColor)

			u := updater.NewUpdater(cfg, version)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			formatter.Info("Checking for updates...")
			info, err := u.CheckForUpdate(ctx)
			if err != nil {
				formatter.Error("Failed to check for updates")
				return fmt.Errorf("failed to check for updates: %w", err)
			}

			if info == nil {
				formatter.Success("You're already running the latest version (%s)", version)
				return nil
			}

			formatter.Success("Update found")
			formatter.Separator()
			formatter.Info("New version available!")
			formatter.Info("   Current: %s", version)
			formatter.Info("   Latest:  %s", info.Version)
			formatter.Info("   Size:    %.1f MB", float64(info.AssetSize)/(1024*1024))
			formatter.Info("   Date:    %s", info.ReleaseDate.Format("2006-01-02"))

			if info.PreRelease {
				formatter.Warning("   Pre-release version")
			}

			if info.Changelog != "" {
				formatter.Info("Release Notes:")
				lines := strings.Split(info.Changelog, "\n")
				for i, line := range lines {
					if i >= 10 { // Limit to first 10 lines
						formatter.Info("   ... (view full notes at GitHub)")
						break
					}
					if strings.TrimSpace(line) != "" {
						formatter.Info("   %s", line)
					}
				}
			}

			if checkOnly {
				formatter.Tip("Run 'keepsake update' to install the latest version")
				return nil
			}

			if !force {
				console := prompt.NewConsole(cfg.Prompt.AllowEdit)
				proceed, err := console.Confirm("Proceed with update", false)
				if err != nil {
					return err
				}
				if !proceed {
					formatter.Println("Update cancelled.")
					return nil
				}
			}

			formatter.Separator()
			formatter.Info("Starting update process...")
			if err := u.Update(ctx, info); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}

			formatter.Done("Update completed successfully!")
			formatter.Success("keepsake is now version %s", info.Version)
			formatter.Println("Restart any running shells to use the new version.")
			return nil
		},
	}

	cmd.Flags().Bool("check", false, "Only check for updates, don't install")
	cmd.Flags().Bool("force", false, "Install without asking for confirmation")

	return cmd
}

// versionCmd prints version information
func versionCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")

			fmt.Printf("keepsake version %s\n", version)
			if verbose {
				fmt.Printf("  Commit:      %s\n", commit)
				fmt.Printf("  Build Date:  %s\n", date)
				fmt.Printf("  Author:      %s\n", author)
				fmt.Printf("  Homepage:    %s\n", website)
				fmt.Printf("  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
				fmt.Printf("  Go Version:  %s\n", runtime.Version())
			}
			return nil
		},
	}

	return cmd
}

// checkAutoUpdate performs a background check for updates and prints a
// notice when one exists. Best effort: the command does not wait for it.
func checkAutoUpdate(cfg *config.Config) {
	if os.Getenv("KEEPSAKE_SKIP_UPDATE_CHECK") == "true" {
		return
	}

	u := updater.NewUpdater(cfg, version)
	if !u.ShouldAutoCheck() {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Silently handle any panics in auto-update check
				logger.GetLogger().WithComponent("auto-update").
					WithField("error", r).
					Debug().Msg("Auto-update check failed")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		info, err := u.CheckForUpdate(ctx)
		if err != nil {
			// Silently fail for auto-check
			logger.GetLogger().WithComponent("auto-update").
				Debug().Err(err).Msg("Auto-update check failed")
			return
		}

		if info != nil {
			formatter := output.NewFormatter(cfg)
			formatter.SetFlags(false, false, false)
			formatter.Info("Update available: v%s - Run 'keepsake update' to upgrade", info.Version)
		}
	}()
}

// runRegistration drives the account creation flow: confirm, email with
// double entry, existence check, generated password, register, save
// credentials.
func runRegistration(ctx context.Context, cfg *config.Config, formatter *output.Formatter) error {
	log := logger.GetLogger().WithComponent("register")
	console := prompt.NewConsole(cfg.Prompt.AllowEdit)

	proceed, err := console.Confirm("Proceed to register", true)
	if err != nil {
		return err
	}
	if !proceed {
		log.Debug().Msg("Registration declined")
		return nil
	}

	formatter.Println("Your credentials will be saved in the %s directory.", cfg.DataDir)

	email, err := promptEmail(console)
	if err != nil {
		return err
	}

	client := remote.NewClient(cfg, version)

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Prefix = "Verifying with existing users "
	s.Start()
	exists, err := client.CheckUser(ctx, email)
	s.Stop()
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	if exists {
		formatter.Error("User already exists !")
		email, err = promptEmail(console)
		if err != nil {
			return err
		}
		s.Start()
		_, err = client.CheckUser(ctx, email)
		s.Stop()
		if err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
	}

	password, err := remote.GeneratePassword()
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}
	formatter.Remote("Generated password for %s", email)

	hostname, _ := os.Hostname()
	deviceID := uuid.NewString()

	s.Prefix = "Registering new user "
	s.Start()
	err = client.Register(ctx, remote.RegisterRequest{
		Email:    email,
		Password: password,
		DeviceID: deviceID,
		Hostname: hostname,
		Platform: runtime.GOOS,
	})
	s.Stop()
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	formatter.Success("User successfully registered !")

	creds := &remote.Credentials{Email: email, Password: password, DeviceID: deviceID}
	if err := remote.SaveCredentials(cfg.Remote.CredentialsPath, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	// The generated password is shown exactly once.
	fmt.Println(formatter.Colorize(password, output.StatusTip))
	formatter.Success("Credentials file saved at %s", cfg.Remote.CredentialsPath)
	return nil
}

// promptEmail asks for an email address twice until both entries agree.
func promptEmail(console *prompt.Console) (string, error) {
	for {
		email, err := console.Input("Email", "")
		if err != nil {
			return "", err
		}
		email = strings.TrimSpace(email)
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			fmt.Println("Error: invalid email address")
			continue
		}

		confirm, err := console.Input("Repeat for confirmation", "")
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(confirm) == email {
			return email, nil
		}
		fmt.Println("Error: the two entered values do not match")
	}
}

// openStore builds the snippet store from config.
func openStore(cfg *config.Config) *store.FileStore {
	return store.New(store.Options{
		Path:        cfg.Store.Path,
		LockTimeout: cfg.GetLockTimeout(),
	})
}

// newMatcher builds the pattern matcher from config.
func newMatcher(cfg *config.Config) *search.Matcher {
	return search.NewMatcher(&search.Options{
		Fuzziness:       cfg.Search.Fuzziness,
		BoostExactMatch: cfg.Search.BoostExactMatch,
		BoostPrefix:     cfg.Search.BoostPrefix,
		MinScore:        cfg.Search.MinScore,
		MaxCandidates:   cfg.Search.MaxCandidates,
	})
}

// printSnippetTable renders snippets as an aligned two-column table.
func printSnippetTable(snippets []snippet.Snippet) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tDESCRIPTION")
	for _, sn := range snippets {
		fmt.Fprintf(w, "%s\t%s\n", sn.Template, sn.Description)
	}
	w.Flush()
}

// configPathFromArgs picks --config out of the raw arguments, since the
// configuration has to be loaded before cobra parses flags.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
