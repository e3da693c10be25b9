package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how each tool relates to the source",
	Long: `Show every known tool with its config path, whether it is installed and
how its MCP servers compare to the source:

  synced         every source server is present and identical
  out_of_sync    some source servers are missing
  conflicts      a server exists on both sides with different definitions
  not_installed  the tool's config file does not exist
  no_mcp         the file exists but holds no servers or cannot be parsed`,
	Example: `  # Show status for all tools
  mcpsync status

  # Machine-readable output
  mcpsync status --json

See Also: mcpsync sync, mcpsync tools list`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runStatusWithWriter(cmd.Context(), cmd.OutOrStdout(), a)
}

func runStatusWithWriter(ctx context.Context, w io.Writer, a *app) error {
	statuses, err := a.orch.Statuses(ctx, a.cfg.EnabledTools)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, statuses)
	}

	fmt.Fprintf(w, "%s %s (%s)\n\n", bold("Source:"), a.source.Mode(), a.resolver.Contract(a.source.Path()))
	tw := newTable(w)
	fmt.Fprintln(tw, "TOOL\tSTATUS\tSERVERS\tENABLED\tPATH")
	for _, s := range statuses {
		enabled := ""
		if s.Enabled {
			enabled = "yes"
		}
		servers := "-"
		if s.Installed {
			servers = fmt.Sprint(s.ServerCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ToolID, statusLabel(s.Status), servers, enabled, s.ConfigPath)
	}
	return tw.Flush()
}
