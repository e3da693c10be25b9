package format

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// NewCodex returns the adapter for Codex's TOML "mcp_servers" tables, seen
// through the JSON document produced by TOMLCodec. Entries carry command,
// args, env and url like the Standard shape; a disabled server is written
// as "enabled = false".
func NewCodex(path string) Adapter {
	if path == "" {
		path = DefaultContainer(KindCodex)
	}
	return &objectAdapter{
		kind:  KindCodex,
		path:  path,
		codec: entryCodec{decode: decodeCodex, encode: encodeCodex},
	}
}

func decodeCodex(name string, obj gjson.Result) mcp.Server {
	s := mcp.Server{Name: name}
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		consumed := false
		switch k {
		case mcp.KeyCommand:
			if value.Type == gjson.String && value.Str != "" {
				s.Command, consumed = value.Str, true
			}
		case mcp.KeyArgs:
			s.Args, consumed = mcp.StringList(value)
		case mcp.KeyEnv:
			s.Env, s.EnvLiterals, consumed = mcp.EnvMap(value)
		case mcp.KeyURL:
			if value.Type == gjson.String && value.Str != "" {
				s.URL, consumed = value.Str, true
			}
		case openCodeKeyEnabled:
			// Only "enabled = false" maps to a field; an explicit true is
			// replayed from Extra.
			if value.Type == gjson.False {
				s.Disabled, consumed = true, true
			}
		}
		if !consumed {
			s.Extra.Set(k, json.RawMessage(value.Raw))
		}
		return true
	})
	return s
}

func encodeCodex(s mcp.Server) *mcp.Object {
	obj := mcp.NewObject()
	if s.Command != "" {
		obj.Set(mcp.KeyCommand, s.Command)
	}
	if s.Args != nil {
		obj.Set(mcp.KeyArgs, s.Args)
	}
	if s.Env != nil {
		obj.Set(mcp.KeyEnv, s.EnvValue())
	}
	if s.URL != "" {
		obj.Set(mcp.KeyURL, s.URL)
	}
	if s.Disabled {
		obj.Set(openCodeKeyEnabled, false)
	}
	mcp.AppendExtra(obj, s.Extra, mcp.KeyTarget)
	return obj
}
