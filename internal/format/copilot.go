package format

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// NewCopilot returns the adapter for the Copilot shape: servers under the
// literal "servers" key with command, args, env and url. Other properties
// are kept in Extra when parsed but are not written back.
func NewCopilot() Adapter {
	return &objectAdapter{
		kind:  KindCopilot,
		path:  DefaultContainer(KindCopilot),
		codec: entryCodec{decode: decodeCopilot, encode: encodeCopilot},
	}
}

func decodeCopilot(name string, obj gjson.Result) mcp.Server {
	s := mcp.Server{Name: name}
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		consumed := false
		switch k {
		case mcp.KeyCommand:
			if value.Type == gjson.String {
				s.Command, consumed = value.Str, true
			}
		case mcp.KeyArgs:
			s.Args, consumed = mcp.StringList(value)
		case mcp.KeyEnv:
			s.Env, s.EnvLiterals, consumed = mcp.EnvMap(value)
		case mcp.KeyURL:
			if value.Type == gjson.String {
				s.URL, consumed = value.Str, true
			}
		}
		if !consumed {
			s.Extra.Set(k, json.RawMessage(value.Raw))
		}
		return true
	})
	return s
}

func encodeCopilot(s mcp.Server) *mcp.Object {
	obj := mcp.NewObject()
	if s.Command != "" || s.URL == "" {
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
	return obj
}
