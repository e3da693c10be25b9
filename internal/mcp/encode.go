package mcp

import (
	"bytes"
	"encoding/json"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// MarshalObject encodes obj compactly, preserving key order. Unlike
// json.Marshal it does not HTML-escape strings, so URLs containing '&' are
// written as typed.
func MarshalObject(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, obj *Object) error {
	buf.WriteByte('{')
	first := true
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeValue(buf, pair.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, pair.Value); err != nil {
			return errors.Wrapf(err, "encoding %q", pair.Key)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *Object:
		return writeObject(buf, val)
	case json.RawMessage:
		return json.Compact(buf, val)
	default:
		var tmp bytes.Buffer
		enc := json.NewEncoder(&tmp)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return err
		}
		buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
		return nil
	}
}
