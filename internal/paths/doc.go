// Package paths resolves the home-relative tokens used in tool config
// locations and the application's own config and data directories.
//
// # Tokens
//
// Catalog paths are written portably and expanded per user:
//
//	~/.claude.json                 -> /home/me/.claude.json
//	%USERPROFILE%\.codex\config.toml -> /home/me/.codex/config.toml
//	%APPDATA%\Code\User\mcp.json   -> <AppData>/Code/User/mcp.json
//
// # XDG Base Directory Compliance
//
// The application directories wrap github.com/adrg/xdg:
//
//	| Purpose  | Location                          |
//	|----------|-----------------------------------|
//	| Config   | <ConfigHome>/mcpsync/config.yaml  |
//	| Servers  | <DataHome>/mcpsync/servers.json   |
//	| Versions | <DataHome>/mcpsync/versions.db    |
package paths
