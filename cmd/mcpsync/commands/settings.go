package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write flat editor settings by key prefix",
	Long: `Editor settings files keep extension options as flat root keys such as
"amp.url" or "amp.permissions". These commands read or replace every root
key starting with a prefix, leaving all other settings untouched.`,
}

var settingsGetCmd = &cobra.Command{
	Use:     "get <tool> <prefix>",
	Short:   "Print every root key starting with prefix",
	Example: `  mcpsync settings get amp amp.`,
	Args:    cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runSettingsGet(ctx, w, a, args[0], args[1])
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <tool> <prefix> <json-object>",
	Short: "Replace every root key starting with prefix",
	Long: `Replace every root key starting with prefix by the keys of a JSON object.
Keys of the prefix missing from the object are removed. Every key in the
object must itself start with prefix.`,
	Example: `  mcpsync settings set amp amp.url '{"amp.url": "https://ampcode.com"}'`,
	Args:    cobra.ExactArgs(3),
	RunE: withApp(func(ctx context.Context, w io.Writer, a *app, args []string) error {
		return runSettingsSet(ctx, w, a, args[0], args[1], args[2])
	}),
}

func runSettingsGet(ctx context.Context, w io.Writer, a *app, id, prefix string) error {
	entries, err := a.orch.Settings(ctx, id, prefix)
	if err != nil {
		return err
	}
	obj := mcp.NewObject()
	for _, e := range entries {
		obj.Set(e.Key, e.Value)
	}
	if currentFormat() == outputYAML {
		return writeStructured(w, obj)
	}
	data, err := mcp.MarshalObject(obj)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(pretty.Pretty(data)))
	return nil
}

func runSettingsSet(ctx context.Context, w io.Writer, a *app, id, prefix, raw string) error {
	entries, err := parseEntries(raw)
	if err != nil {
		return err
	}
	if err := a.orch.SetSettings(ctx, id, prefix, entries); err != nil {
		return err
	}
	printf(w, "Wrote %d %s* settings to %s\n", len(entries), prefix, id)
	return nil
}

// parseEntries splits a JSON object into entries in document order.
func parseEntries(raw string) ([]jsonpath.Entry, error) {
	if !gjson.Valid(raw) {
		return nil, errors.NewUserError(errors.Wrap(errors.ErrInvalidFormat, "settings are not valid JSON"), "Pass a JSON object such as '{\"amp.url\": \"...\"}'")
	}
	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return nil, errors.NewUserError(errors.Wrap(errors.ErrInvalidFormat, "settings must be a JSON object"), "")
	}
	var entries []jsonpath.Entry
	obj.ForEach(func(key, value gjson.Result) bool {
		entries = append(entries, jsonpath.Entry{Key: key.String(), Value: json.RawMessage(value.Raw)})
		return true
	})
	return entries, nil
}
