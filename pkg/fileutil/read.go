package fileutil

import (
	"io"

	"github.com/spf13/afero"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// MaxFileSize is the maximum file size we'll read (16MB). Some tool files,
// ~/.claude.json in particular, accumulate per-project history and grow well
// beyond a typical config.
const MaxFileSize = 16 * 1024 * 1024

// ErrFileTooLarge indicates that a file exceeded MaxFileSize.
var ErrFileTooLarge = errors.Newf("file exceeds maximum size of %d bytes", MaxFileSize)

// ReadFileWithLimit reads a file up to MaxFileSize.
// It returns an error if the file is larger than the limit. The returned
// error keeps the underlying fs error in its chain so callers can test for
// fs.ErrNotExist.
func ReadFileWithLimit(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	// Get file info to fail fast if size is already too large
	info, err := f.Stat()
	if err == nil {
		if info.IsDir() {
			return nil, errors.Newf("%s is a directory", path)
		}
		if info.Size() > MaxFileSize {
			return nil, ErrFileTooLarge
		}
	}

	r := io.LimitReader(f, MaxFileSize+1)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	return data, nil
}
