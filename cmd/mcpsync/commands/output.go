package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/syncer"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	// outputFormat holds the value of the -o/--output flag.
	outputFormat string
	// jsonOutput holds the value of the --json flag.
	jsonOutput bool
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func validateOutputFlag() error {
	if !slices.Contains([]string{outputText, outputJSON, outputYAML}, outputFormat) {
		return errors.NewUserError(errors.Newf("unknown output format %q", outputFormat), "Use --output text, json or yaml")
	}
	return nil
}

// currentFormat resolves --json and --output into one format.
func currentFormat() string {
	if jsonOutput {
		return outputJSON
	}
	if outputFormat == "" {
		return outputText
	}
	return outputFormat
}

// structured reports whether output should be machine-readable.
func structured() bool {
	return currentFormat() != outputText
}

// writeStructured encodes v as JSON or YAML. YAML is produced from the JSON
// encoding so both formats share key names and order.
func writeStructured(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	if currentFormat() == outputJSON {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return errors.Wrap(err, "converting output to yaml")
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return errors.Wrap(err, "encoding yaml output")
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles a JSON document parses
// with, so the YAML is emitted in block form.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// newTable returns a tabwriter for aligned columns.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// statusLabel colors a status for terminal output.
func statusLabel(s reconcile.Status) string {
	switch s {
	case reconcile.StatusSynced:
		return green(string(s))
	case reconcile.StatusOutOfSync:
		return yellow(string(s))
	case reconcile.StatusConflicts:
		return red(string(s))
	default:
		return gray(string(s))
	}
}

// outcomeLabel colors a sync outcome for terminal output.
func outcomeLabel(o syncer.Outcome) string {
	switch o {
	case syncer.OutcomeSynced:
		return green(string(o))
	case syncer.OutcomeConflictsPending:
		return red(string(o))
	default:
		return gray(string(o))
	}
}

// printf writes unless --quiet is set.
func printf(w io.Writer, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(w, format, args...)
}
