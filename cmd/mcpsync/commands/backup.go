package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var backupSlot int

func init() {
	backupRestoreCmd.Flags().IntVar(&backupSlot, "slot", 0, "backup slot to restore (0 is the newest)")
	backupCmd.AddCommand(backupListCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect and restore rotating backups of tool configs",
	Long: `Every write to a tool's config file first copies the previous file to a
numbered backup next to it (config.bak, config.bak.1, ...). The number of
slots is set by backup.max_backups.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list <tool>",
	Short: "List backups for a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runBackupListWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0])
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <tool>",
	Short: "Restore a tool's config from a backup",
	Long: `Restore a tool's config file from a backup slot. The current file is itself
backed up first, so a restore can be undone by restoring slot 0.`,
	Example: `  mcpsync backup restore cursor
  mcpsync backup restore cursor --slot 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runBackupRestoreWithWriter(cmd.Context(), cmd.OutOrStdout(), a, args[0], backupSlot)
	},
}

func runBackupListWithWriter(ctx context.Context, w io.Writer, a *app, id string) error {
	slots, err := a.orch.Backups(ctx, id)
	if err != nil {
		return err
	}
	if structured() {
		return writeStructured(w, slots)
	}
	if len(slots) == 0 {
		fmt.Fprintf(w, "No backups for %s\n", id)
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SLOT\tPATH")
	for _, s := range slots {
		fmt.Fprintf(tw, "%d\t%s\n", s.Index, a.resolver.Contract(s.Path))
	}
	return tw.Flush()
}

func runBackupRestoreWithWriter(ctx context.Context, w io.Writer, a *app, id string, slot int) error {
	if err := a.orch.RestoreBackup(ctx, id, slot); err != nil {
		return err
	}
	printf(w, "Restored %s from backup slot %d\n", id, slot)
	return nil
}
