package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/diff"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

var (
	previewDiff        bool
	previewStrategy    string
	previewResolutions string
)

func init() {
	previewCmd.Flags().BoolVarP(&previewDiff, "diff", "d", false, "show a unified diff of the file instead of a summary")
	previewCmd.Flags().StringVarP(&previewStrategy, "strategy", "s", "", "settle conflicts in the diff: source or target")
	previewCmd.Flags().StringVar(&previewResolutions, "resolutions", "", "YAML or JSON file with one resolution per conflict")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <tool>",
	Short: "Show what a sync would change without writing",
	Long: `Compare the source with one tool's config file and list the servers a
sync would add, keep and the conflicts it would need settled.

With --diff, the file a sync would write is rendered and shown as a unified
diff against the current file. Conflicts take the source version unless
--strategy or --resolutions says otherwise.`,
	Example: `  # Summary of changes
  mcpsync preview cursor

  # Full diff, keeping the tool's version of conflicts
  mcpsync preview cursor --diff --strategy target

See Also: mcpsync sync, mcpsync status`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runPreviewWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
}

func runPreviewWithWriter(ctx context.Context, w io.Writer, a *app, id string) error {
	if previewDiff {
		return runPreviewDiff(ctx, w, a, id)
	}

	p, err := a.orch.Preview(ctx, id)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, p)
	}

	fmt.Fprintf(w, "%s %s (%s)\n", bold(p.ToolName), statusLabel(p.Status), a.resolver.Contract(p.Path))
	if !p.Exists {
		fmt.Fprintln(w, gray("  config file does not exist yet; sync will create it"))
	}
	printServers(w, "Add", green("+"), p.Result.Added)
	printServers(w, "Keep", " ", p.Result.Kept)
	if len(p.Result.Conflicts) > 0 {
		fmt.Fprintf(w, "\nConflicts (%d):\n", len(p.Result.Conflicts))
		for _, c := range p.Result.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", red("!"), c.Name)
		}
		fmt.Fprintln(w, gray("  Settle with: mcpsync sync "+p.ToolID+" --strategy source|target"))
	}
	if !p.HasChanges {
		fmt.Fprintln(w, "\nNothing to do.")
	}
	return nil
}

func runPreviewDiff(ctx context.Context, w io.Writer, a *app, id string) error {
	strategy, err := parseStrategy(previewStrategy)
	if err != nil {
		return err
	}
	if err := validateResolutionFlags(strategy, previewResolutions, false); err != nil {
		return err
	}
	resolutions, err := collectResolutions(ctx, a, id, strategy, previewResolutions, false)
	if err != nil {
		return err
	}
	cp, err := a.orch.PreviewContent(ctx, id, resolutions)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, cp)
	}
	return diff.NewPrinter(w).Unified(a.resolver.Contract(cp.Path), cp.Current, cp.Proposed)
}

func printServers(w io.Writer, title, mark string, servers []mcp.Server) {
	if len(servers) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(servers))
	for _, s := range servers {
		fmt.Fprintf(w, "  %s %s\n", mark, s.Name)
	}
}
