// Package cli implements the notebridge command line.
package cli

import (
	"fmt"
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrlokans/notebridge/internal/config"
	"github.com/mrlokans/notebridge/internal/entrypoint"
)

// rootOptions carries global flags and what the pre-run built from them.
type rootOptions struct {
	configFile  string
	envFile     string
	verbose     bool
	profilesDir string
	profile     string

	version string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the command tree. version is reported by --version
// and the health endpoint.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	rootCmd := &cobra.Command{
		Use:   "notebridge",
		Short: "Copy notes between flashcard collections",
		Long: `notebridge searches other local profiles and a remote example-sentence
catalog and imports the selected notes into the active collection,
carrying media, tags and review history along.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file path (default: notebridge.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.profilesDir, "profiles-dir", "", "directory holding all profiles (overrides NOTEBRIDGE_PROFILES_DIR)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "active profile to import into (overrides NOTEBRIDGE_PROFILE)")

	rootCmd.AddCommand(
		serveCmd(opts),
		profilesCmd(opts),
		decksCmd(opts),
		searchCmd(opts),
		importCmd(opts),
		remoteSearchCmd(opts),
		remoteImportCmd(opts),
		batchesCmd(opts),
		undoCmd(opts),
	)

	return rootCmd
}

// Execute runs the CLI and returns the process exit code. An interrupt
// cancels the running command; an interrupted import commits nothing.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (o *rootOptions) load(logOut io.Writer) error {
	cfg, err := config.NewConfig(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.profilesDir != "" {
		cfg.ProfilesDir = o.profilesDir
	}
	if o.profile != "" {
		cfg.Profile = o.profile
	}
	if o.verbose {
		cfg.EnableDebugLog = true
	}

	level := slog.LevelInfo
	if cfg.EnableDebugLog {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.logger)
	o.cfg = cfg
	return nil
}

type runFunc func(app *entrypoint.App, cmd *cobra.Command, args []string) error

// withApp opens the active collection around a command's run function.
func withApp(opts *rootOptions, fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := entrypoint.NewApp(opts.cfg, opts.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				opts.logger.Warn("Error closing collections", "error", err)
			}
		}()
		return fn(app, cmd, args)
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(cmd.Context(), opts.cfg, opts.logger, opts.version)
		},
	}
}
