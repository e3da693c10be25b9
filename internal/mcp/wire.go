package mcp

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Keys of the Standard wire entry.
const (
	KeyCommand  = "command"
	KeyArgs     = "args"
	KeyEnv      = "env"
	KeyDisabled = "disabled"
	KeyURL      = "url"
	KeyTarget   = "_target"
)

// StandardKeys lists the keys the Standard entry codec interprets.
var StandardKeys = []string{KeyCommand, KeyArgs, KeyEnv, KeyDisabled, KeyURL, KeyTarget}

// Object is an ordered JSON object under construction.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered JSON object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// DecodeEntry decodes one Standard server entry.
func DecodeEntry(name string, raw []byte) (Server, error) {
	if !gjson.ValidBytes(raw) {
		return Server{}, errors.Wrapf(errors.ErrInvalidFormat, "server %q is not valid JSON", name)
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return Server{}, errors.Wrapf(errors.ErrInvalidFormat, "server %q is not an object", name)
	}
	return DecodeEntryResult(name, obj), nil
}

// DecodeEntryResult decodes a Standard entry that has already been located
// with gjson. Keys with an unexpected type, and known keys holding a value
// that would not be re-emitted (an empty command, "disabled": false), are
// kept in Extra so that encoding reproduces them.
func DecodeEntryResult(name string, obj gjson.Result) Server {
	s := Server{Name: name}
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if !s.decodeStandardKey(k, value) {
			s.Extra.Set(k, json.RawMessage(value.Raw))
		}
		return true
	})
	return s
}

func (s *Server) decodeStandardKey(key string, v gjson.Result) bool {
	switch key {
	case KeyCommand:
		if v.Type != gjson.String || v.Str == "" {
			return false
		}
		s.Command = v.Str
	case KeyArgs:
		args, ok := StringList(v)
		if !ok {
			return false
		}
		s.Args = args
	case KeyEnv:
		env, literals, ok := EnvMap(v)
		if !ok {
			return false
		}
		s.Env, s.EnvLiterals = env, literals
	case KeyDisabled:
		if v.Type != gjson.True {
			return false
		}
		s.Disabled = true
	case KeyURL:
		if v.Type != gjson.String || v.Str == "" {
			return false
		}
		s.URL = v.Str
	case KeyTarget:
		if v.Type != gjson.String || v.Str == "" {
			return false
		}
		s.Target = v.Str
	default:
		return false
	}
	return true
}

// StandardObject builds the ordered Standard entry for s: known keys first,
// then extras in their original order. Extras never override a known key.
func StandardObject(s Server) *Object {
	obj := NewObject()
	if s.Command != "" {
		obj.Set(KeyCommand, s.Command)
	}
	if s.Args != nil {
		obj.Set(KeyArgs, s.Args)
	}
	if s.Env != nil {
		obj.Set(KeyEnv, s.EnvValue())
	}
	if s.Disabled {
		obj.Set(KeyDisabled, true)
	}
	if s.URL != "" {
		obj.Set(KeyURL, s.URL)
	}
	if s.Target != "" {
		obj.Set(KeyTarget, s.Target)
	}
	AppendExtra(obj, s.Extra)
	return obj
}

// AppendExtra adds every extra whose key obj does not already carry, plus
// any key listed in skip is left out.
func AppendExtra(obj *Object, extra Fields, skip ...string) {
	extra.Each(func(k string, raw json.RawMessage) {
		if _, taken := obj.Get(k); taken {
			return
		}
		for _, s := range skip {
			if s == k {
				return
			}
		}
		obj.Set(k, raw)
	})
}

// EncodeEntry encodes s as a compact Standard entry.
func EncodeEntry(s Server) ([]byte, error) {
	data, err := MarshalObject(StandardObject(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encoding server %q", s.Name)
	}
	return data, nil
}

// MarshalJSON encodes s as a Standard entry with a leading "name" key. It is
// the shape used for --json output and resolution files.
func (s Server) MarshalJSON() ([]byte, error) {
	obj := NewObject()
	obj.Set("name", s.Name)
	for pair := StandardObject(s).Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "name" {
			continue
		}
		obj.Set(pair.Key, pair.Value)
	}
	return MarshalObject(obj)
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (s *Server) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.Wrap(errors.ErrInvalidFormat, "server is not valid JSON")
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return errors.Wrap(errors.ErrInvalidFormat, "server is not an object")
	}
	name := obj.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return errors.Wrap(errors.ErrInvalidFormat, "server has no name")
	}
	decoded := DecodeEntryResult(name.Str, obj)
	decoded.Extra.Delete("name")
	*s = decoded
	return nil
}

// StringList converts a JSON array of strings. It fails on any non-string
// element so that callers can keep the raw value instead.
func StringList(v gjson.Result) ([]string, bool) {
	if !v.IsArray() {
		return nil, false
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, false
		}
		out = append(out, item.Str)
	}
	return out, true
}

// EnvMap converts a JSON object of scalars. Numbers keep their literal text
// and booleans become "true" or "false"; nested values fail the conversion.
// The raw JSON of every value that was not a string is returned for use as
// [Server.EnvLiterals].
func EnvMap(v gjson.Result) (map[string]string, Fields, bool) {
	var literals Fields
	if !v.IsObject() {
		return nil, literals, false
	}
	out := make(map[string]string)
	ok := true
	v.ForEach(func(key, value gjson.Result) bool {
		s, scalar := ScalarString(value)
		if !scalar {
			ok = false
			return false
		}
		out[key.String()] = s
		if value.Type != gjson.String {
			literals.Set(key.String(), json.RawMessage(value.Raw))
		}
		return true
	})
	if !ok {
		return nil, Fields{}, false
	}
	return out, literals, true
}

// EnvValue returns what encoders write for Env. A value still equal to the
// text of its entry in EnvLiterals is written in its original JSON form, so
// an untouched PORT: 8080 stays a number.
func (s Server) EnvValue() any {
	if s.EnvLiterals.Len() == 0 {
		return s.Env
	}
	obj := NewObject()
	for _, k := range slices.Sorted(maps.Keys(s.Env)) {
		v := s.Env[k]
		if raw, ok := s.EnvLiterals.Get(k); ok {
			if text, scalar := ScalarString(gjson.ParseBytes(raw)); scalar && text == v {
				obj.Set(k, raw)
				continue
			}
		}
		obj.Set(k, v)
	}
	return obj
}

// ScalarString renders a JSON scalar as a string.
func ScalarString(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		return v.Raw, true
	case gjson.True:
		return "true", true
	case gjson.False:
		return "false", true
	default:
		return "", false
	}
}
