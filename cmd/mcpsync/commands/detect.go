package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/detect"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/redact"
)

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(importCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Identify the MCP layout of a config file",
	Long: `Read a JSON config file and report which layout holds its MCP servers:
Amp's "amp.mcpServers", OpenCode's "mcp.servers", VS Code/Copilot "servers"
or the common "mcpServers". The file is never modified.`,
	Example: `  mcpsync detect ~/.vscode/mcp.json

See Also: mcpsync import`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add servers from any config file to the managed source",
	Long: `Detect the layout of a config file and add each of its servers to the
mcpsync-managed source list. Servers whose names already exist in the source
are skipped, never overwritten.`,
	Example: `  mcpsync import ~/.cursor/mcp.json

See Also: mcpsync detect, mcpsync servers list`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// detectOutput is the machine-readable form of a detection.
type detectOutput struct {
	Path      string       `json:"path"`
	Format    string       `json:"format"`
	Kind      string       `json:"kind"`
	Container string       `json:"container"`
	Servers   []mcp.Server `json:"servers"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runDetectWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
}

func runDetectWithWriter(ctx context.Context, w io.Writer, a *app, file string) error {
	path, err := a.resolver.Expand(file)
	if err != nil {
		return err
	}
	content, err := a.local.Read(ctx, path)
	if err != nil {
		return err
	}
	found, err := detect.Detect(content)
	if err != nil {
		return err
	}

	servers := make([]mcp.Server, len(found.Servers))
	for i, s := range found.Servers {
		servers[i] = redact.Server(s)
	}
	if structured() {
		return writeStructured(w, detectOutput{
			Path:      path,
			Format:    string(found.Format),
			Kind:      string(found.Kind),
			Container: found.Container,
			Servers:   servers,
		})
	}

	fmt.Fprintf(w, "%s %s (container %q)\n", bold("Format:"), found.Format, found.Container)
	fmt.Fprintf(w, "%s %d\n", bold("Servers:"), len(servers))
	for _, s := range servers {
		fmt.Fprintf(w, "  %s\n", s.Name)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runImportWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
}

func runImportWithWriter(ctx context.Context, w io.Writer, a *app, file string) error {
	path, err := a.resolver.Expand(file)
	if err != nil {
		return err
	}
	res, err := a.store.Import(ctx, path)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, res)
	}

	printf(w, "Detected %s layout in %s\n", res.Format, a.resolver.Contract(path))
	for _, name := range res.Added {
		printf(w, "  %s %s\n", green("+"), name)
	}
	for _, name := range res.Skipped {
		printf(w, "  %s %s (already in source)\n", gray("="), name)
	}
	printf(w, "Imported %d, skipped %d\n", len(res.Added), len(res.Skipped))
	if a.source.Mode() != a.store.Mode() {
		printf(w, "%s source_mode is %s; run 'mcpsync config set source_mode app-managed' to sync from the imported list\n",
			yellow("note:"), a.source.Mode())
	}
	return nil
}
