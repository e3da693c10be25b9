package syncer

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/durable"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/safety"
	"github.com/thoreinstein/mcpsync/internal/versions"
)

// write is the single write path for tool files: safety gate, version
// snapshot of the replaced content, then durable write with backups.
func (o *Orchestrator) write(ctx context.Context, tf toolFile, content []byte, snapshotName string) error {
	logger := logging.FromContext(ctx)

	if o.safety != nil {
		level, err := o.safety.Gate(tf.path, o.allowWarn)
		if err != nil {
			return err
		}
		if level == safety.Warn {
			logger.Warn("writing outside known config directories", slog.String("path", tf.path))
		}
	}

	if tf.exists && o.snapshots != nil {
		if _, err := o.snapshots.Save(ctx, tf.tool.ID, snapshotName, string(tf.content), "", versions.SourceAuto); err != nil {
			return errors.Wrap(err, "saving version snapshot")
		}
	}

	if err := durable.Write(ctx, o.storage, tf.path, content, o.policy); err != nil {
		return errors.Wrapf(err, "writing %s config", tf.tool.DisplayName)
	}
	return nil
}

// WriteContent replaces a tool's file with content verbatim. It is used to
// restore versions. content must parse in the tool's format.
func (o *Orchestrator) WriteContent(ctx context.Context, id string, content []byte) error {
	tf, err := o.readToolRaw(ctx, id)
	if err != nil {
		return err
	}
	file, err := tf.tool.File()
	if err != nil {
		return err
	}
	if _, err := file.Read(content); err != nil {
		return errors.Wrapf(err, "content is not a valid %s config", tf.tool.DisplayName)
	}
	return o.write(ctx, tf, content, "before restore")
}

// Backups lists the backup slots of a tool's file, newest first.
func (o *Orchestrator) Backups(ctx context.Context, id string) ([]backup.Slot, error) {
	t, err := o.catalog.Lookup(id)
	if err != nil {
		return nil, err
	}
	path, err := o.ToolPath(t)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(o.storage, backup.WithPolicy(o.policy)).List(ctx, path)
}

// RestoreBackup writes backup slot index back over a tool's file. The
// current content is itself rotated into the backups first.
func (o *Orchestrator) RestoreBackup(ctx context.Context, id string, index int) error {
	tf, err := o.readToolRaw(ctx, id)
	if err != nil {
		return err
	}
	content, err := backup.NewManager(o.storage, backup.WithPolicy(o.policy)).Load(ctx, tf.path, index)
	if err != nil {
		return err
	}
	return o.write(ctx, tf, content, "before backup restore")
}

// readToolRaw loads a tool's file without parsing it, so that a corrupt
// file can still be replaced.
func (o *Orchestrator) readToolRaw(ctx context.Context, id string) (toolFile, error) {
	t, err := o.catalog.Lookup(id)
	if err != nil {
		return toolFile{}, err
	}
	path, err := o.ToolPath(t)
	if err != nil {
		return toolFile{}, err
	}
	tf := toolFile{tool: t, path: path}
	content, err := o.storage.Read(ctx, path)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return tf, nil
	case err != nil:
		return toolFile{}, err
	}
	tf.exists = true
	tf.content = content
	return tf, nil
}
