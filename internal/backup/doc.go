// Package backup keeps numbered backups next to each config file that a sync
// overwrites.
//
// # Naming
//
// The newest backup replaces the file's extension with ".bak"; older ones
// append a slot number:
//
//	~/.gemini/settings.json
//	~/.gemini/settings.bak     newest
//	~/.gemini/settings.bak.1
//	~/.gemini/settings.bak.2   oldest with max_backups: 3
//
// # Rotation
//
// [Manager.Rotate] runs before every write under an active [Policy]. It
// never leaves more than MaxBackups slots behind, including slots left over
// from a previously larger setting.
//
// # Restoring
//
// [Manager.Restore] loads a slot and hands it to a [WriteFunc]. Callers pass
// a rotating atomic writer, so the file being replaced becomes the newest
// backup and a restore can itself be undone.
//
// All operations go through [storage.Storage] and work the same for local
// and remote targets.
package backup
