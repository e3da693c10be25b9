package commands

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/watch"
)

var (
	watchSync     bool
	watchStrategy string
	watchDebounce time.Duration
)

func init() {
	watchCmd.Flags().BoolVar(&watchSync, "sync", false, "sync enabled tools on every change instead of only reporting")
	watchCmd.Flags().StringVarP(&watchStrategy, "strategy", "s", "", "settle conflicts during --sync: source or target")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before reacting to changes")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "React to changes of the source file",
	Long: `Watch the source file and, after each burst of changes, print the status
of enabled tools or, with --sync, sync them. Runs until interrupted.`,
	Example: `  mcpsync watch --sync --strategy target`,
	Args:    cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, _ []string) error {
		return runWatch(ctx, w, a)
	}),
}

func runWatch(ctx context.Context, w io.Writer, a *app) error {
	strategy, err := parseStrategy(watchStrategy)
	if err != nil {
		return err
	}
	watcher, err := watch.New(a.source.Path(), watchDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	logger := logging.FromContext(ctx)
	logger.Info("watching source", slog.String("path", a.source.Path()))
	printf(w, "Watching %s (Ctrl+C to stop)\n", a.resolver.Contract(a.source.Path()))

	return watcher.Run(ctx, func(ctx context.Context) error {
		return onSourceChange(ctx, w, a, strategy)
	})
}

// onSourceChange reports or syncs enabled tools after the source changed.
func onSourceChange(ctx context.Context, w io.Writer, a *app, strategy reconcile.Choice) error {
	stamp := time.Now().Format(time.TimeOnly)
	if !watchSync {
		statuses, err := a.orch.Statuses(ctx, a.cfg.EnabledTools)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			if s.Enabled {
				printf(w, "[%s] %s: %s\n", stamp, s.ToolID, statusLabel(s.Status))
			}
		}
		return nil
	}

	for _, r := range a.orch.SyncAll(ctx, a.cfg.EnabledTools, strategy) {
		mark := green("✓")
		if !r.Success {
			mark = red("✗")
		}
		printf(w, "[%s] %s %s: %s\n", stamp, mark, r.ToolID, r.Message)
	}
	return nil
}
