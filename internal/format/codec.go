package format

import (
	"bytes"

	"github.com/tidwall/pretty"

	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/translate"
)

// Codec converts file content to the JSON document adapters work on, and
// back.
type Codec interface {
	// Decode returns a JSON object for content. Empty content decodes to {}.
	Decode(content []byte) ([]byte, error)

	// Encode renders doc as file content. original is the previous file
	// content, if any, and may be used to keep its layout.
	Encode(doc, original []byte) ([]byte, error)
}

// JSONCodec reads and writes JSON files. Output is re-indented using the
// indentation of the original file, or two spaces for a new file.
type JSONCodec struct{}

func (JSONCodec) Decode(content []byte) ([]byte, error) {
	return jsonpath.Normalize(content)
}

func (JSONCodec) Encode(doc, original []byte) ([]byte, error) {
	doc, err := jsonpath.Normalize(doc)
	if err != nil {
		return nil, err
	}
	opts := *pretty.DefaultOptions
	opts.Indent = DetectIndent(original)
	out := pretty.PrettyOptions(doc, &opts)
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}

// DetectIndent returns the indentation unit of a JSON document: a tab, a
// run of spaces, or two spaces when the document has no indented lines.
func DetectIndent(content []byte) string {
	for _, line := range bytes.Split(content, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == len(line) || len(trimmed) == 0 {
			continue
		}
		if line[0] == '\t' {
			return "\t"
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return "  "
}

// TOMLCodec reads and writes TOML files. Comments and key order of the
// original file are not preserved.
type TOMLCodec struct{}

func (TOMLCodec) Decode(content []byte) ([]byte, error) {
	return translate.TOMLToJSON(content)
}

func (TOMLCodec) Encode(doc, _ []byte) ([]byte, error) {
	return translate.JSONToTOML(doc)
}
