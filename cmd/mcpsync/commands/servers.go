package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/thoreinstein/mcpsync/internal/cli/prompt"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/redact"
)

var (
	serverURL      string
	serverEnv      []string
	serverDisabled bool
	serverTarget   string
	serverRename   string
	serverReveal   bool
)

func init() {
	for _, c := range []*cobra.Command{serversAddCmd, serversUpdateCmd} {
		c.Flags().StringVar(&serverURL, "url", "", "endpoint of a remote server")
		c.Flags().StringArrayVarP(&serverEnv, "env", "e", nil, "environment variable KEY=VALUE (repeatable)")
		c.Flags().BoolVar(&serverDisabled, "disabled", false, "mark the server disabled")
		c.Flags().StringVar(&serverTarget, "target", "", "provenance tag stored as _target")
	}
	serversUpdateCmd.Flags().StringVar(&serverRename, "rename", "", "new name for the server")
	serversShowCmd.Flags().BoolVar(&serverReveal, "reveal", false, "show secrets instead of masking them")

	serversCmd.AddCommand(serversListCmd, serversShowCmd, serversAddCmd, serversUpdateCmd, serversRemoveCmd)
	rootCmd.AddCommand(serversCmd)
}

var serversCmd = &cobra.Command{
	Use:     "servers",
	Aliases: []string{"server", "mcp"},
	Short:   "Manage the source server list",
	Long: `List the servers in the source. When source_mode is app-managed the list
is stored by mcpsync and can be edited with add, update and remove.`,
	RunE: runServersList,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List source servers",
	Args:  cobra.NoArgs,
	RunE:  runServersList,
}

var serversShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one source server",
	Long:  `Show a source server as JSON. Secrets in env, args and url are masked unless --reveal is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runServersShow,
}

var serversAddCmd = &cobra.Command{
	Use:   "add <name> [-- command [args...]]",
	Short: "Add a server to the managed source",
	Example: `  # Local server
  mcpsync servers add github -e GITHUB_TOKEN=ghp_xxx -- npx -y @modelcontextprotocol/server-github

  # Remote server
  mcpsync servers add docs --url https://mcp.example.com/sse

See Also: mcpsync servers update, mcpsync sync`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServersAdd,
}

var serversUpdateCmd = &cobra.Command{
	Use:   "update <name> [-- command [args...]]",
	Short: "Change a server in the managed source",
	Long: `Change a server in place. Only the given flags are applied; a command after
"--" replaces the command and its arguments.`,
	Example: `  mcpsync servers update github --rename gh
  mcpsync servers update github -e GITHUB_TOKEN=ghp_new`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServersUpdate,
}

var serversRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a server from the managed source",
	Args:    cobra.ExactArgs(1),
	RunE:    runServersRemove,
}

func runServersList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runServersListWithWriter(cmd.Context(), cmd.OutOrStdout(), a)
}

func runServersListWithWriter(ctx context.Context, w io.Writer, a *app) error {
	servers, err := a.source.Servers(ctx)
	if err != nil {
		return err
	}
	masked := make([]mcp.Server, len(servers))
	for i, s := range servers {
		masked[i] = redact.Server(s)
	}
	if structured() {
		return writeStructured(w, masked)
	}

	if len(masked) == 0 {
		fmt.Fprintf(w, "No servers in %s\n", a.resolver.Contract(a.source.Path()))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tTRANSPORT\tCOMMAND")
	for _, s := range masked {
		target := s.URL
		if !s.IsRemote() {
			target = strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
		}
		name := s.Name
		if s.Disabled {
			name += gray(" (disabled)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, s.Transport(), target)
	}
	return tw.Flush()
}

func runServersShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runServersShowWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
}

func runServersShowWithWriter(ctx context.Context, w io.Writer, a *app, name string) error {
	servers, err := a.source.Servers(ctx)
	if err != nil {
		return err
	}
	s, ok := mcp.Find(servers, name)
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "server %q", name)
	}
	if currentFormat() == outputYAML {
		if !serverReveal {
			s = redact.Server(s)
		}
		return writeStructured(w, s)
	}
	if serverReveal {
		data, err := s.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(pretty.Pretty(data)))
		return nil
	}
	fmt.Fprintln(w, prompt.Render(s))
	return nil
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	name, command, cmdArgs := splitCommand(cmd, args)
	return runServersAddWithWriter(cmd.Context(), cmd.OutOrStdout(), a, name, command, cmdArgs)
}

func runServersAddWithWriter(ctx context.Context, w io.Writer, a *app, name, command string, args []string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if command == "" && serverURL == "" {
		return errors.NewUserError(
			errors.Newf("server %q needs a command or --url", name),
			"Run: mcpsync servers add <name> -- <command> [args...]",
		)
	}
	env, err := parseEnv(serverEnv)
	if err != nil {
		return err
	}
	s := mcp.Server{
		Name:     name,
		Command:  command,
		Args:     args,
		Env:      env,
		URL:      serverURL,
		Disabled: serverDisabled,
		Target:   serverTarget,
	}
	if err := store.Add(ctx, s); err != nil {
		return err
	}
	printf(w, "Added %s to %s\n", name, a.resolver.Contract(store.Path()))
	return nil
}

func runServersUpdate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	name, command, cmdArgs := splitCommand(cmd, args)
	changes := serverChanges{
		command: command,
		args:    cmdArgs,
		url:     serverURL,
		target:  serverTarget,
		rename:  serverRename,
	}
	if cmd.Flags().Changed("disabled") {
		changes.disabled = &serverDisabled
	}
	changes.env, err = parseEnv(serverEnv)
	if err != nil {
		return err
	}
	return runServersUpdateWithWriter(cmd.Context(), cmd.OutOrStdout(), a, name, changes)
}

// serverChanges are the fields update applies. Zero values leave a field
// alone.
type serverChanges struct {
	command  string
	args     []string
	env      map[string]string
	url      string
	target   string
	rename   string
	disabled *bool
}

func (c serverChanges) apply(s mcp.Server) mcp.Server {
	out := s.Clone()
	if c.command != "" {
		out.Command = c.command
		out.Args = c.args
	}
	for k, v := range c.env {
		if out.Env == nil {
			out.Env = make(map[string]string)
		}
		out.Env[k] = v
	}
	if c.url != "" {
		out.URL = c.url
	}
	if c.target != "" {
		out.Target = c.target
	}
	if c.rename != "" {
		out.Name = c.rename
	}
	if c.disabled != nil {
		out.Disabled = *c.disabled
	}
	return out
}

func runServersUpdateWithWriter(ctx context.Context, w io.Writer, a *app, name string, changes serverChanges) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	current, err := store.Get(ctx, name)
	if err != nil {
		return err
	}
	updated := changes.apply(current)
	if err := store.Update(ctx, name, updated); err != nil {
		return err
	}
	if updated.Name != name {
		printf(w, "Updated %s (now %s)\n", name, updated.Name)
		return nil
	}
	printf(w, "Updated %s\n", name)
	return nil
}

func runServersRemove(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return runServersRemoveWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
}

func runServersRemoveWithWriter(ctx context.Context, w io.Writer, a *app, name string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if err := store.Remove(ctx, name); err != nil {
		return err
	}
	printf(w, "Removed %s\n", name)
	return nil
}

// splitCommand separates "<name> -- command args..." into its parts.
func splitCommand(cmd *cobra.Command, args []string) (name, command string, cmdArgs []string) {
	name = args[0]
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return name, "", nil
	}
	rest := args[max(dash, 1):]
	if len(rest) == 0 {
		return name, "", nil
	}
	return name, rest[0], slices.Clone(rest[1:])
}

// parseEnv turns KEY=VALUE pairs into a map. Nil input yields nil.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.NewUserError(errors.Newf("invalid env %q", p), "Use --env KEY=VALUE")
		}
		env[k] = v
	}
	return env, nil
}
