package format

import (
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// NewStandard returns the adapter for the Standard shape stored under path.
// The path may be a literal dotted key such as "amp.mcpServers" or a nested
// path; see package jsonpath for the lookup rules.
func NewStandard(path string) Adapter {
	if path == "" {
		path = DefaultContainer(KindStandard)
	}
	return &objectAdapter{
		kind: KindStandard,
		path: path,
		codec: entryCodec{
			decode: mcp.DecodeEntryResult,
			encode: mcp.StandardObject,
		},
	}
}
