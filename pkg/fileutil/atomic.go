// Package fileutil provides file system utilities including atomic write operations.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// TempName returns the sibling temp file used while replacing path:
// ".<base>.mcpsync-<8 hex>.tmp" in the same directory, so the final rename
// never crosses a filesystem boundary.
func TempName(path string) string {
	id := uuid.NewString()[:8]
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".mcpsync-"+id+".tmp")
}

// AtomicWriteFile writes data to a file atomically using a temp file + rename pattern.
// This ensures interrupted writes leave the original file intact.
//
// The caller is responsible for ensuring the parent directory exists.
// Permissions are applied to the final file via the perm parameter.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileFs(afero.NewOsFs(), path, data, perm)
}

// AtomicWriteFileFs is AtomicWriteFile on an arbitrary afero filesystem.
func AtomicWriteFileFs(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	tmpName := TempName(path)

	f, err := fs.OpenFile(tmpName, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() {
		// Only remove if rename failed (file still exists)
		if _, statErr := fs.Stat(tmpName); statErr == nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	// OpenFile perms are filtered by the umask.
	if err := fs.Chmod(tmpName, perm); err != nil {
		return errors.Wrap(err, "setting file permissions")
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// AtomicWriteYAMLWithPerm writes v as YAML to path atomically with specified permissions.
// Appends a trailing newline for POSIX compliance.
//
// The caller is responsible for ensuring the parent directory exists.
func AtomicWriteYAMLWithPerm(path string, v any, perm os.FileMode) (err error) {
	// yaml.Marshal panics on unmarshalable types; recover and return error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return AtomicWriteFile(path, data, perm)
}

// AtomicWriteYAML writes v as YAML to path atomically.
// The file is created with 0600 permissions since configuration may carry
// remote host names.
func AtomicWriteYAML(path string, v any) error {
	return AtomicWriteYAMLWithPerm(path, v, 0o600)
}
