package format

import (
	"encoding/json"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// OpenCode server types.
const (
	openCodeLocal  = "local"
	openCodeRemote = "remote"
)

const (
	openCodeKeyType        = "type"
	openCodeKeyEnvironment = "environment"
	openCodeKeyEnabled     = "enabled"
)

// openCodeEntryKeys identify an object as a server definition rather than a
// container of servers.
var openCodeEntryKeys = []string{mcp.KeyCommand, mcp.KeyURL, openCodeKeyType, openCodeKeyEnvironment, openCodeKeyEnabled}

// openCodeSkippedExtras are Standard keys that must not leak into an
// OpenCode entry through Extra.
var openCodeSkippedExtras = []string{mcp.KeyArgs, mcp.KeyEnv, mcp.KeyDisabled, mcp.KeyTarget}

// NewOpenCode returns the adapter for OpenCode's shape. With path "mcp" the
// adapter reads servers directly under "mcp", or under "mcp.servers" when
// the document uses that variant, and writes back to whichever the document
// already uses. Any other path is used as is.
func NewOpenCode(path string) Adapter {
	if path == "" {
		path = DefaultContainer(KindOpenCode)
	}
	a := &objectAdapter{
		kind:  KindOpenCode,
		path:  path,
		codec: entryCodec{decode: decodeOpenCode, encode: encodeOpenCode},
	}
	if path == DefaultContainer(KindOpenCode) {
		a.readPath = openCodeContainer
		a.writePath = openCodeContainer
	}
	return a
}

// openCodeContainer returns "mcp.servers" when the document nests servers
// one level down, "mcp" otherwise.
func openCodeContainer(doc []byte) string {
	mcpObj, _ := jsonpath.Get(doc, "mcp")
	servers := mcpObj.Get("servers")
	if !servers.IsObject() {
		return "mcp"
	}
	nested := true
	servers.ForEach(func(key, value gjson.Result) bool {
		if slices.Contains(openCodeEntryKeys, key.String()) || !value.IsObject() {
			nested = false
			return false
		}
		return true
	})
	if nested {
		return "mcp.servers"
	}
	return "mcp"
}

func decodeOpenCode(name string, obj gjson.Result) mcp.Server {
	s := mcp.Server{Name: name}
	var legacyArgs []string
	var typ gjson.Result

	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		consumed := true
		switch k {
		case mcp.KeyCommand:
			consumed = decodeOpenCodeCommand(&s, value)
		case mcp.KeyArgs:
			legacyArgs, consumed = mcp.StringList(value)
		case openCodeKeyEnvironment, mcp.KeyEnv:
			s.Env, s.EnvLiterals, consumed = mcp.EnvMap(value)
		case mcp.KeyURL:
			consumed = value.Type == gjson.String
			s.URL = value.Str
		case openCodeKeyEnabled:
			consumed = value.IsBool()
			s.Disabled = consumed && !value.Bool()
		case openCodeKeyType:
			consumed = value.Str == openCodeLocal || value.Str == openCodeRemote
			typ = value
		default:
			consumed = false
		}
		if !consumed {
			s.Extra.Set(k, json.RawMessage(value.Raw))
		}
		return true
	})

	if s.Args == nil && legacyArgs != nil {
		s.Args = legacyArgs
	}
	// Without a command or url the type cannot be derived on write.
	if s.Command == "" && s.URL == "" && typ.Exists() {
		s.Extra.Set(openCodeKeyType, json.RawMessage(typ.Raw))
	}
	return s
}

// decodeOpenCodeCommand accepts the array form and the older string and
// object forms of "command".
func decodeOpenCodeCommand(s *mcp.Server, value gjson.Result) bool {
	switch {
	case value.IsArray():
		parts, ok := mcp.StringList(value)
		if !ok {
			return false
		}
		if len(parts) > 0 {
			s.Command = parts[0]
		}
		if len(parts) > 1 {
			s.Args = parts[1:]
		}
		return true
	case value.Type == gjson.String:
		s.Command = value.Str
		return true
	case value.IsObject():
		program := value.Get("path")
		if !program.Exists() {
			program = value.Get("command")
		}
		if program.Type != gjson.String {
			return false
		}
		s.Command = program.Str
		if args, ok := mcp.StringList(value.Get("args")); ok {
			s.Args = args
		}
		return true
	default:
		return false
	}
}

func encodeOpenCode(s mcp.Server) *mcp.Object {
	obj := mcp.NewObject()
	raw, _ := s.Extra.Get(openCodeKeyType)
	switch kept := gjson.ParseBytes(raw).Str; {
	case s.IsRemote():
		obj.Set(openCodeKeyType, openCodeRemote)
	case s.Command == "" && (kept == openCodeLocal || kept == openCodeRemote):
		obj.Set(openCodeKeyType, kept)
	default:
		obj.Set(openCodeKeyType, openCodeLocal)
	}
	if s.Command != "" {
		obj.Set(mcp.KeyCommand, append([]string{s.Command}, s.Args...))
	}
	if s.URL != "" {
		obj.Set(mcp.KeyURL, s.URL)
	}
	if s.Env != nil {
		obj.Set(openCodeKeyEnvironment, s.EnvValue())
	}
	obj.Set(openCodeKeyEnabled, !s.Disabled)
	mcp.AppendExtra(obj, s.Extra, openCodeSkippedExtras...)
	return obj
}
