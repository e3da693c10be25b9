package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/format"
)

func init() {
	toolsCmd.AddCommand(toolsListCmd, toolsEnableCmd, toolsDisableCmd)
	rootCmd.AddCommand(toolsCmd)
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List known tools and choose which ones sync",
	RunE:  runToolsList,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every tool mcpsync can write",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

var toolsEnableCmd = &cobra.Command{
	Use:   "enable <tool>...",
	Short: "Include tools in 'mcpsync sync'",
	Long:  `Include tools in 'mcpsync sync'. Arguments accept glob patterns such as "*" or "q*".`,
	Example: `  mcpsync tools enable cursor gemini-cli
  mcpsync tools enable '*'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToolsToggle(cmd, args, true)
	},
}

var toolsDisableCmd = &cobra.Command{
	Use:   "disable <tool>...",
	Short: "Exclude tools from 'mcpsync sync'",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToolsToggle(cmd, args, false)
	},
}

// toolOutput is one row of 'tools list'.
type toolOutput struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ConfigPath string      `json:"config_path"`
	JSONPath   string      `json:"json_path"`
	Format     format.Kind `json:"format"`
	Enabled    bool        `json:"enabled"`
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runToolsListWithWriter(cmd.OutOrStdout(), a)
}

func runToolsListWithWriter(w io.Writer, a *app) error {
	enabled := make(map[string]bool, len(a.cfg.EnabledTools))
	for _, id := range a.cfg.EnabledTools {
		enabled[id] = true
	}

	var rows []toolOutput
	for _, t := range a.catalog.All() {
		rows = append(rows, toolOutput{
			ID:         t.ID,
			Name:       t.DisplayName,
			ConfigPath: t.ConfigPath,
			JSONPath:   t.JSONPath,
			Format:     t.Format,
			Enabled:    enabled[t.ID],
		})
	}
	if structured() {
		return writeStructured(w, rows)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tENABLED\tCONFIG")
	for _, r := range rows {
		mark := ""
		if r.Enabled {
			mark = green("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Format, mark, r.ConfigPath)
	}
	return tw.Flush()
}

func runToolsToggle(cmd *cobra.Command, args []string, enable bool) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runToolsToggleWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args, enable)
}

func runToolsToggleWithWriter(_ context.Context, w io.Writer, a *app, patterns []string, enable bool) error {
	tools, err := a.catalog.Select(patterns...)
	if err != nil {
		return err
	}
	var changed []string
	for _, t := range tools {
		var ok bool
		if enable {
			ok = a.cfg.EnableTool(t.ID)
		} else {
			ok = a.cfg.DisableTool(t.ID)
		}
		if ok {
			changed = append(changed, t.ID)
		}
	}
	if len(changed) == 0 {
		printf(w, "Nothing changed\n")
		return nil
	}
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		return err
	}
	verb := "Enabled"
	if !enable {
		verb = "Disabled"
	}
	for _, id := range changed {
		printf(w, "%s %s\n", verb, id)
	}
	return nil
}
