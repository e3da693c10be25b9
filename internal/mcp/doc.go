// Package mcp defines the canonical MCP server record that every format
// adapter converts to and from.
//
// A [Server] carries the fields mcpsync understands (command, args, env,
// disabled, url, target) plus an ordered side-channel, [Fields], holding the
// raw JSON of every property it does not understand. Re-encoding a parsed
// server replays those properties unchanged:
//
//	s, _ := mcp.DecodeEntry("fs", []byte(`{"command":"npx","timeout":30}`))
//	out, _ := mcp.EncodeEntry(s)
//	// out == {"command":"npx","timeout":30}
//
// The entry codec ([DecodeEntry], [EncodeEntry]) implements the Standard wire
// shape shared by most tools:
//
//	{ "command"?, "args"?: [string], "env"?: {string:string},
//	  "disabled"?: bool, "url"?: string, "_target"?: string, ...extra }
package mcp
