package syncer

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/format"
	"github.com/thoreinstein/mcpsync/internal/jsonpath"
)

// Settings returns the root keys of a tool's file that start with prefix,
// such as "amp." for Amp's editor settings. A missing file has none.
func (o *Orchestrator) Settings(ctx context.Context, id, prefix string) ([]jsonpath.Entry, error) {
	tf, err := o.jsonTool(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonpath.ReadPrefix(tf.content, prefix, containerKeys(tf.tool)...)
}

// SetSettings replaces every root key starting with prefix by entries and
// writes the file. Other keys, including the server container, are kept.
func (o *Orchestrator) SetSettings(ctx context.Context, id, prefix string, entries []jsonpath.Entry) error {
	tf, err := o.jsonTool(ctx, id)
	if err != nil {
		return err
	}
	reserved := containerKeys(tf.tool)
	for _, e := range entries {
		if slices.Contains(reserved, e.Key) {
			return errors.WithHint(
				errors.Wrapf(errors.ErrInvalidFormat, "%q holds %s's servers", e.Key, tf.tool.DisplayName),
				"servers are changed with mcpsync sync or mcpsync servers",
			)
		}
	}
	out, err := jsonpath.WritePrefix(tf.content, prefix, entries, reserved...)
	if err != nil {
		return err
	}
	out, err = format.JSONCodec{}.Encode(out, tf.content)
	if err != nil {
		return err
	}
	return o.write(ctx, tf, out, "before settings change")
}

// containerKeys returns the root keys that may hold t's servers: the
// container path as a literal key and, for a nested path, its first segment.
func containerKeys(t catalog.Tool) []string {
	first, _, _ := strings.Cut(t.JSONPath, ".")
	return lo.Uniq([]string{t.JSONPath, first})
}

func (o *Orchestrator) jsonTool(ctx context.Context, id string) (toolFile, error) {
	tf, err := o.readToolRaw(ctx, id)
	if err != nil {
		return toolFile{}, err
	}
	if tf.tool.Format == format.KindCodex {
		return toolFile{}, errors.Wrapf(errors.ErrInvalidFormat, "%s keeps its config in TOML; prefix settings apply to JSON files", tf.tool.DisplayName)
	}
	return tf, nil
}
