package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/versions"
)

var (
	versionName        string
	versionDescription string
	versionDefault     bool
)

func init() {
	versionsSaveCmd.Flags().StringVar(&versionName, "name", "", "version name (default: a timestamp)")
	versionsSaveCmd.Flags().StringVar(&versionDescription, "description", "", "free-form description")
	versionsSaveCmd.Flags().BoolVar(&versionDefault, "default", false, "mark as the default version")
	versionsUpdateCmd.Flags().StringVar(&versionName, "name", "", "new name")
	versionsUpdateCmd.Flags().StringVar(&versionDescription, "description", "", "new description")
	versionsUpdateCmd.Flags().BoolVar(&versionDefault, "default", false, "mark as the default version")

	versionsCmd.AddCommand(versionsListCmd, versionsShowCmd, versionsSaveCmd, versionsUpdateCmd, versionsRestoreCmd, versionsDeleteCmd)
	rootCmd.AddCommand(versionsCmd)
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Named snapshots of tool config files",
	Long: `mcpsync keeps a history of each tool's config file. A snapshot is taken
automatically before every write and can be saved manually at any time.
Versions are stored in ~/.local/share/mcpsync/versions.db.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list <tool>",
	Short: "List versions of a tool's config, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runVersionsList(ctx, w, a, args[0])
	}),
}

var versionsShowCmd = &cobra.Command{
	Use:   "show <tool> <id>",
	Short: "Print the content of a version",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runVersionsShow(ctx, w, a, args[0], args[1])
	}),
}

var versionsSaveCmd = &cobra.Command{
	Use:   "save <tool>",
	Short: "Save the current config file as a version",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runVersionsSave(ctx, w, a, args[0])
	}),
}

var versionsUpdateCmd = &cobra.Command{
	Use:   "update <tool> <id>",
	Short: "Rename, describe or mark a version as default",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := versionUpdateFromFlags(cmd)
		return withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
			return runVersionsUpdate(ctx, w, a, args[0], args[1], u)
		})(cmd, args)
	},
}

var versionsRestoreCmd = &cobra.Command{
	Use:   "restore <tool> <id>",
	Short: "Write a version back to the tool's config file",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runVersionsRestore(ctx, w, a, args[0], args[1])
	}),
}

var versionsDeleteCmd = &cobra.Command{
	Use:     "delete <tool> <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a version",
	Args:    cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runVersionsDelete(ctx, w, a, args[0], args[1])
	}),
}

// withApp adapts a run function that needs the app into a cobra RunE.
func withApp(run func(ctx context.Context, w io.Writer, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), cmd.OutOrStdout(), a, args)
	}
}

// versionUpdateFromFlags builds an Update from the flags set on cmd.
func versionUpdateFromFlags(cmd *cobra.Command) versions.Update {
	var u versions.Update
	flags := cmd.Flags()
	if flags.Changed("name") {
		u.Name = &versionName
	}
	if flags.Changed("description") {
		u.Description = &versionDescription
	}
	if flags.Changed("default") {
		u.IsDefault = &versionDefault
	}
	return u
}

func runVersionsList(ctx context.Context, w io.Writer, a *app, id string) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	if _, err := a.catalog.Lookup(id); err != nil {
		return err
	}
	list, err := vs.List(ctx, id)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintf(w, "No versions for %s\n", id)
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tCREATED\tDEFAULT")
	for _, m := range list {
		def := ""
		if m.IsDefault {
			def = green("*")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Source, m.Timestamp.Local().Format(time.DateTime), def)
	}
	return tw.Flush()
}

func runVersionsShow(ctx context.Context, w io.Writer, a *app, id, versionID string) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	v, err := vs.Load(ctx, id, versionID)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, v)
	}
	fmt.Fprint(w, v.Content)
	return nil
}

func runVersionsSave(ctx context.Context, w io.Writer, a *app, id string) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	t, err := a.catalog.Lookup(id)
	if err != nil {
		return err
	}
	path, err := a.orch.ToolPath(t)
	if err != nil {
		return err
	}
	content, err := a.orch.Storage().Read(ctx, path)
	if err != nil {
		return err
	}
	name := versionName
	if name == "" {
		name = "manual " + time.Now().Format(time.DateTime)
	}
	v, err := vs.Save(ctx, t.ID, name, string(content), versionDescription, versions.SourceManual)
	if err != nil {
		return err
	}
	if versionDefault {
		def := true
		if _, err := vs.Update(ctx, t.ID, v.ID, versions.Update{IsDefault: &def}); err != nil {
			return err
		}
	}
	printf(w, "Saved version %s (%s)\n", v.ID, v.Name)
	return nil
}

func runVersionsUpdate(ctx context.Context, w io.Writer, a *app, id, versionID string, u versions.Update) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	if u.Name == nil && u.Description == nil && u.IsDefault == nil {
		return errors.NewUserError(errors.New("nothing to update"), "Pass --name, --description or --default")
	}
	m, err := vs.Update(ctx, id, versionID, u)
	if err != nil {
		return err
	}
	printf(w, "Updated version %s (%s)\n", m.ID, m.Name)
	return nil
}

func runVersionsRestore(ctx context.Context, w io.Writer, a *app, id, versionID string) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	v, err := vs.Load(ctx, id, versionID)
	if err != nil {
		return err
	}
	if err := a.orch.WriteContent(ctx, id, []byte(v.Content)); err != nil {
		return err
	}
	printf(w, "Restored %s to version %s (%s)\n", id, v.ID, v.Name)
	return nil
}

func runVersionsDelete(ctx context.Context, w io.Writer, a *app, id, versionID string) error {
	vs, err := a.requireVersions()
	if err != nil {
		return err
	}
	if err := vs.Delete(ctx, id, versionID); err != nil {
		return err
	}
	printf(w, "Deleted version %s\n", versionID)
	return nil
}
