// Package translate converts configuration documents between TOML, JSON and
// YAML through a generic tree.
package translate

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// TOMLToJSON converts a TOML document into a compact JSON object. An empty
// document becomes "{}".
func TOMLToJSON(tomlData []byte) ([]byte, error) {
	data := map[string]any{}
	if len(bytes.TrimSpace(tomlData)) > 0 {
		if err := toml.Unmarshal(tomlData, &data); err != nil {
			return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidFormat), "unmarshaling toml")
		}
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling json")
	}
	return out, nil
}

// JSONToTOML converts a JSON object into TOML. Integral numbers stay
// integers so that values such as timeouts keep their TOML type.
func JSONToTOML(jsonData []byte) ([]byte, error) {
	tree, err := decodeJSON(jsonData)
	if err != nil {
		return nil, err
	}
	out, err := toml.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling toml")
	}
	return out, nil
}

// JSONToYAML converts JSON into YAML for human-oriented output.
func JSONToYAML(jsonData []byte) ([]byte, error) {
	tree, err := decodeJSON(jsonData)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling yaml")
	}
	return out, nil
}

func decodeJSON(jsonData []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidFormat), "unmarshaling json")
	}
	return normalizeNumbers(tree), nil
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if !strings.ContainsAny(val.String(), ".eE") {
			if i, err := val.Int64(); err == nil {
				return i
			}
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}
