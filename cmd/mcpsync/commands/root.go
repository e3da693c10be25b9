// Package commands implements the CLI commands for mcpsync.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/cmd"
	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
)

var (
	// verbosity holds the count of -v flags.
	verbosity int
	// quiet holds the value of the -q/--quiet flag.
	quiet bool
	// logFormat holds the value of the --log-format flag.
	logFormat string
	// logFile holds the path to the log file.
	logFile string
	// configFlag holds an explicit config file path.
	configFlag string
	// remoteFlag holds the user@host[:port] target for tool files.
	remoteFlag string
	// forceFlag allows writes outside known config directories.
	forceFlag bool
)

// loadedConfig and configLoadErr hold the result of loading the config at
// startup. Load errors are reported by the commands that need the config.
var (
	loadedConfig  = config.Default()
	configLoadErr error
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbosity, "verbose", "v", "increase verbosity level (e.g., -v, -vv)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text, json")
	flags.StringVar(&logFile, "log-file", "", "write logs to file in JSON format")
	flags.StringVar(&configFlag, "config", "", "config file (default: ~/.config/mcpsync/config.yaml)")
	flags.StringVar(&remoteFlag, "remote", "", "sync tool configs on a remote host over SSH (user@host[:port])")
	flags.BoolVar(&forceFlag, "force", false, "allow writing outside known config directories")
	flags.StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	flags.BoolVar(&jsonOutput, "json", false, "shorthand for --output json")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("mcpsync version {{.Version}}\n")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	cfg, err := config.Load(configFlag)
	if err != nil {
		configLoadErr = err
		return
	}
	loadedConfig = cfg
}

var rootCmd = &cobra.Command{
	Use:   "mcpsync",
	Short: "Keep MCP server definitions in sync across AI coding tools",
	Long: `mcpsync copies MCP server definitions from one source list into the
config files of every AI coding tool you use: Claude Code, Cursor, Gemini
CLI, Codex, VS Code, Amp and more.

The source is either Claude Code's own ~/.claude.json (the default) or a
list managed by mcpsync itself. Servers already in a tool's file are kept;
servers that differ between source and tool are reported as conflicts and
never overwritten without a decision.`,
	Example: `  # Show which tools are in sync
  mcpsync status

  # Enable tools and sync them
  mcpsync tools enable cursor gemini-cli
  mcpsync sync

  # See what a sync would change
  mcpsync preview cursor --diff

  See Also: mcpsync status, mcpsync sync, mcpsync config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return validateOutputFlag()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command with a context cancelled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// PrintError writes err, its hints and its suggestion to w.
func PrintError(w io.Writer, err *errors.ExitError) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.Hints(err) {
		fmt.Fprintf(w, "  hint: %s\n", hint)
	}
	if err.Suggestion != "" {
		fmt.Fprintf(w, "  %s\n", err.Suggestion)
	}
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(errors.New("cannot use --quiet and --verbose together"), "")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity
		// CLI flags take precedence over the environment.
		if v == 0 {
			switch strings.ToLower(os.Getenv("MCPSYNC_DEBUG")) {
			case "1", "true":
				v = 2
			case "2":
				v = 3
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{
		logging.NewFormatHandler(cmd.ErrOrStderr(), logging.ParseFormat(logFormat), opts),
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.NewUserError(errors.Wrap(err, "opening log file"), "Check the --log-file path")
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))
	return nil
}
