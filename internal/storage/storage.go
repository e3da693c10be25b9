// Package storage abstracts the filesystem operations a config sync needs so
// that the same pipeline can target local files or a remote host over SSH.
package storage

import (
	"context"
	"io/fs"
	"os"

	"github.com/spf13/afero"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/pkg/fileutil"
)

// Storage is the set of file operations used by the sync pipeline. Paths are
// interpreted by the implementation: local paths are absolute, remote paths
// may start with "~/".
type Storage interface {
	Exists(ctx context.Context, path string) (bool, error)
	// Read returns the file content, or an error marked ErrNotFound when the
	// file does not exist.
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	// Rename replaces dst with src. An existing dst keeps its permission bits.
	Rename(ctx context.Context, src, dst string) error
	MkdirAll(ctx context.Context, dir string) error
	Remove(ctx context.Context, path string) error
}

// Permissions for files and directories created locally.
const (
	DefaultFilePerm os.FileMode = 0o644
	DefaultDirPerm  os.FileMode = 0o755
)

// Local is a Storage backed by an afero filesystem.
type Local struct {
	fs afero.Fs
}

// NewLocal returns local storage over fs.
func NewLocal(fs afero.Fs) *Local {
	return &Local{fs: fs}
}

// NewOS returns local storage over the real filesystem.
func NewOS() *Local {
	return NewLocal(afero.NewOsFs())
}

// Fs exposes the underlying filesystem.
func (l *Local) Fs() afero.Fs {
	return l.fs
}

// Exists reports whether path names an existing file or directory.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	ok, err := afero.Exists(l.fs, path)
	if err != nil {
		return false, errors.MarkIO(err, path)
	}
	return ok, nil
}

func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	data, err := fileutil.ReadFileWithLimit(l.fs, path)
	if err != nil {
		return nil, errors.MarkIO(err, path)
	}
	return data, nil
}

// Write creates or truncates path. An existing file keeps its mode.
func (l *Local) Write(_ context.Context, path string, data []byte) error {
	perm := DefaultFilePerm
	if info, err := l.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := afero.WriteFile(l.fs, path, data, perm); err != nil {
		return errors.MarkIO(err, path)
	}
	return nil
}

func (l *Local) Copy(ctx context.Context, src, dst string) error {
	data, err := l.Read(ctx, src)
	if err != nil {
		return err
	}
	perm := DefaultFilePerm
	if info, err := l.fs.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := afero.WriteFile(l.fs, dst, data, perm); err != nil {
		return errors.MarkIO(err, dst)
	}
	// WriteFile leaves the mode of an existing dst alone.
	if err := l.fs.Chmod(dst, perm); err != nil {
		return errors.MarkIO(err, dst)
	}
	return nil
}

func (l *Local) Rename(_ context.Context, src, dst string) error {
	if info, err := l.fs.Stat(dst); err == nil {
		if err := l.fs.Chmod(src, info.Mode().Perm()); err != nil {
			return errors.MarkIO(err, src)
		}
	}
	if err := l.fs.Rename(src, dst); err != nil {
		return errors.MarkIO(err, dst)
	}
	return nil
}

func (l *Local) MkdirAll(_ context.Context, dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := l.fs.MkdirAll(dir, DefaultDirPerm); err != nil {
		return errors.MarkIO(err, dir)
	}
	return nil
}

// Remove deletes path. A missing file is not an error.
func (l *Local) Remove(_ context.Context, path string) error {
	if err := l.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.MarkIO(err, path)
	}
	return nil
}
