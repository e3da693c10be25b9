// Package format converts between tool configuration documents and the
// canonical [mcp.Server] list.
//
// An [Adapter] understands one server container shape inside a JSON
// document. A [Codec] turns file bytes into that JSON document and back, so
// TOML-based tools reuse the same adapters. [File] pairs the two and is what
// callers use:
//
//	f, _ := format.ForKind(format.KindStandard, "mcpServers")
//	servers, _ := f.Read(content)
//	updated, _ := f.Render(content, servers)
//
// Writes replace only the server container; every other key of the
// document is left as it was.
package format
