package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

var (
	genDocDir    string
	genDocFormat string
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate reference documentation for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runGenDoc(cmd.OutOrStdout(), rootCmd, genDocDir, genDocFormat)
	},
}

func init() {
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "", "output directory for documentation")
	genDocCmd.Flags().StringVar(&genDocFormat, "format", "markdown", "documentation format (markdown, man)")
	rootCmd.AddCommand(genDocCmd)
}

func runGenDoc(w io.Writer, root *cobra.Command, dir, format string) error {
	if dir == "" {
		return errors.NewUserError(errors.New("output directory is required"), "Use --dir DIR")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.MarkIO(err, dir), "creating output directory")
	}

	root.DisableAutoGenTag = true
	switch format {
	case "markdown":
		if err := doc.GenMarkdownTreeCustom(root, dir, filePrepender, linkHandler); err != nil {
			return errors.Wrap(err, "generating markdown")
		}
	case "man":
		header := &doc.GenManHeader{Title: "MCPSYNC", Section: "1", Source: "mcpsync"}
		if err := doc.GenManTree(root, header, dir); err != nil {
			return errors.Wrap(err, "generating man pages")
		}
	default:
		return errors.NewUserError(errors.Newf("unknown doc format %q", format), "Use --format markdown or man")
	}

	fmt.Fprintf(w, "Documentation generated in %s\n", dir)
	return nil
}

// filePrepender adds front matter titled after the command path, so
// mcpsync_servers_add.md becomes "mcpsync servers add".
func filePrepender(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	title := strings.ReplaceAll(base, "_", " ")
	return fmt.Sprintf("---\ntitle: %q\ndescription: %q\n---\n\n", title, "Reference for "+title)
}

func linkHandler(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return "/docs/reference/" + strings.ToLower(base) + "/"
}
