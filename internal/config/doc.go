// Package config provides configuration management for the mcpsync CLI.
//
// This package handles loading, saving, and validating mcpsync's own
// configuration file. It is distinct from the tool config files mcpsync
// syncs, which are handled by the syncer.
//
// # Configuration File
//
// The default location is ~/.config/mcpsync/config.yaml:
//
//	version: 1
//	source_mode: claude        # or app-managed
//	enabled_tools:
//	  - gemini-cli
//	  - opencode
//	backup:
//	  enabled: true
//	  max_backups: 5           # 0 disables, clamped to 20
//	versions:
//	  enabled: true
//	allow_unsafe_paths: false
//	tools:                     # extend or override the built-in catalog
//	  - id: my-editor
//	    name: My Editor
//	    config_path: ~/.my-editor/mcp.json
//	    json_path: mcpServers
//	    format: standard
//	    literal_key: false     # true writes a dotted json_path as one key
//
// Every key can be overridden from the environment with the MCPSYNC_ prefix,
// dots replaced by underscores: MCPSYNC_BACKUP_MAX_BACKUPS=3.
//
// # Loading Configuration
//
// Call [Init] once, then [Load]. An empty path searches the current
// directory and the default location and falls back to [Default] values.
package config
