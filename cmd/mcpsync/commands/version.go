package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/mcpsync/cmd"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, and build date of mcpsync.`,
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		if structured() {
			return writeStructured(c.OutOrStdout(), cmd.Info())
		}
		printVersion(c.OutOrStdout())
		return nil
	},
}

func printVersion(w io.Writer) {
	info := cmd.Info()
	fmt.Fprintf(w, "mcpsync version %s\n", info.Version)
	fmt.Fprintf(w, "  commit: %s\n", info.Commit)
	fmt.Fprintf(w, "  built:  %s\n", info.Date)
}
