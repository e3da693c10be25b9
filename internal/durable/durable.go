// Package durable writes config files so that a crash never leaves a
// truncated file behind and the previous content survives as a backup.
package durable

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/storage"
	"github.com/thoreinstein/mcpsync/pkg/fileutil"
)

// Write replaces path with content:
//
//  1. create the parent directory;
//  2. rotate backups when policy is active and path exists;
//  3. write a sibling temp file;
//  4. rename it over path.
//
// A failed write or rename removes the temp file; path is then untouched
// apart from the completed rotation.
func Write(ctx context.Context, st storage.Storage, path string, content []byte, policy backup.Policy) error {
	if err := st.MkdirAll(ctx, filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}

	if err := backup.NewManager(st, backup.WithPolicy(policy)).Rotate(ctx, path); err != nil {
		return err
	}

	tmp := fileutil.TempName(path)
	if err := st.Write(ctx, tmp, content); err != nil {
		_ = st.Remove(ctx, tmp)
		return errors.Wrap(err, "writing temp file")
	}
	if err := st.Rename(ctx, tmp, path); err != nil {
		_ = st.Remove(ctx, tmp)
		return errors.Wrap(err, "replacing config file")
	}

	logging.FromContext(ctx).Debug("wrote config", slog.String("path", path), slog.Int("bytes", len(content)))
	return nil
}

// Writer binds st and policy into a backup.WriteFunc.
func Writer(st storage.Storage, policy backup.Policy) backup.WriteFunc {
	return func(ctx context.Context, path string, content []byte) error {
		return Write(ctx, st, path, content, policy)
	}
}

// Restore copies backup slot index back over path. The content being
// replaced is itself rotated into the newest backup slot.
func Restore(ctx context.Context, st storage.Storage, path string, index int, policy backup.Policy) error {
	mgr := backup.NewManager(st, backup.WithPolicy(policy))
	return mgr.Restore(ctx, path, index, Writer(st, policy))
}
