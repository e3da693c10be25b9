package jsonpath

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Entry is one root key and its raw value.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ReadPrefix returns every root key of doc starting with prefix, in
// document order. Editor settings files keep per-extension keys such as
// "amp.url" flat at the root. Keys listed in reserved are never returned.
func ReadPrefix(doc []byte, prefix string, reserved ...string) ([]Entry, error) {
	doc, err := Normalize(doc)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
		if strings.HasPrefix(key.String(), prefix) && !slices.Contains(reserved, key.String()) {
			entries = append(entries, Entry{Key: key.String(), Value: json.RawMessage(value.Raw)})
		}
		return true
	})
	return entries, nil
}

// WritePrefix replaces every root key starting with prefix by entries. Keys
// in entries must carry the prefix. Reserved keys are left untouched and may
// not appear in entries.
func WritePrefix(doc []byte, prefix string, entries []Entry, reserved ...string) ([]byte, error) {
	for _, e := range entries {
		if !strings.HasPrefix(e.Key, prefix) {
			return nil, errors.Wrapf(errors.ErrInvalidFormat, "key %q does not start with %q", e.Key, prefix)
		}
		if slices.Contains(reserved, e.Key) {
			return nil, errors.Wrapf(errors.ErrInvalidFormat, "key %q is reserved", e.Key)
		}
		if !gjson.ValidBytes(e.Value) {
			return nil, errors.Wrapf(errors.ErrInvalidFormat, "value of %q is not valid JSON", e.Key)
		}
	}

	existing, err := ReadPrefix(doc, prefix, reserved...)
	if err != nil {
		return nil, err
	}
	out, _ := Normalize(doc)
	for _, e := range existing {
		out, err = sjson.DeleteBytes(out, Escape(e.Key))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidFormat, "removing %q: %v", e.Key, err)
		}
	}
	for _, e := range entries {
		out, err = setRaw(out, Escape(e.Key), e.Value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
