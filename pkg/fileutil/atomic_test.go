package fileutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestTempName(t *testing.T) {
	got := TempName(filepath.Join("dir", "cfg.json"))
	if filepath.Dir(got) != "dir" {
		t.Errorf("TempName() dir = %q, want sibling of target", filepath.Dir(got))
	}
	re := regexp.MustCompile(`^\.cfg\.json\.mcpsync-[0-9a-f]{8}\.tmp$`)
	if !re.MatchString(filepath.Base(got)) {
		t.Errorf("TempName() = %q, want .cfg.json.mcpsync-xxxxxxxx.tmp", filepath.Base(got))
	}
	if TempName("cfg.json") == TempName("cfg.json") {
		t.Error("TempName() returned the same name twice")
	}
}

func TestAtomicWriteFile(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		perm    os.FileMode
		wantErr bool
	}{
		{
			name:    "successful write",
			data:    []byte("hello world\n"),
			perm:    0644,
			wantErr: false,
		},
		{
			name:    "empty data",
			data:    []byte{},
			perm:    0644,
			wantErr: false,
		},
		{
			name:    "private file",
			data:    []byte(`{"mcpServers":{}}`),
			perm:    0600,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "test-file")

			err := AtomicWriteFile(path, tt.data, tt.perm)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AtomicWriteFile() error = %v, wantErr %v", err, tt.wantErr)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading file: %v", err)
			}
			if string(got) != string(tt.data) {
				t.Errorf("content = %q, want %q", got, tt.data)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stating file: %v", err)
			}
			if gotPerm := info.Mode().Perm(); gotPerm != tt.perm {
				t.Errorf("permissions = %o, want %o", gotPerm, tt.perm)
			}
		})
	}
}

func TestAtomicWriteFileFs_MemMap(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/cfg", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/cfg/a.json", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWriteFileFs(fs, "/cfg/a.json", []byte("new"), 0o644); err != nil {
		t.Fatalf("AtomicWriteFileFs() error = %v", err)
	}

	got, err := afero.ReadFile(fs, "/cfg/a.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}

	entries, err := afero.ReadDir(fs, "/cfg")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestAtomicWriteFile_DirectoryNotExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "subdir", "file.txt")

	err := AtomicWriteFile(path, []byte("data"), 0600)
	if err == nil {
		t.Error("AtomicWriteFile() expected error for nonexistent directory")
	}
}

func TestAtomicWriteFile_NoTempFileLeftOnError(t *testing.T) {
	dir := t.TempDir()
	// Renaming a file over a non-empty directory fails.
	path := filepath.Join(dir, "target")
	if err := os.MkdirAll(filepath.Join(path, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWriteFile(path, []byte("data"), 0600); err == nil {
		t.Fatal("AtomicWriteFile() expected error when target is a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading directory: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestAtomicWriteYAML(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantYAML string
		wantErr  bool
	}{
		{
			name:     "simple struct",
			value:    struct{ Name string }{Name: "test"},
			wantYAML: "name: test\n",
		},
		{
			name:     "map",
			value:    map[string]any{"source_mode": "app-managed"},
			wantYAML: "source_mode: app-managed\n",
		},
		{
			name: "nested map",
			value: map[string]any{
				"backup": map[string]any{"max_backups": 5},
			},
			wantYAML: "backup:\n    max_backups: 5\n",
		},
		{
			name:    "unmarshalable channel",
			value:   make(chan int),
			wantErr: true,
		},
		{
			name:    "unmarshalable func",
			value:   func() {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")

			err := AtomicWriteYAML(path, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AtomicWriteYAML() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				if _, err := os.Stat(path); err == nil {
					t.Error("file should not exist after marshal error")
				}
				return
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading file: %v", err)
			}
			if string(got) != tt.wantYAML {
				t.Errorf("content = %q, want %q", got, tt.wantYAML)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stating file: %v", err)
			}
			if gotPerm := info.Mode().Perm(); gotPerm != 0600 {
				t.Errorf("permissions = %o, want 0600", gotPerm)
			}
		})
	}
}

func TestAtomicWriteYAML_DirectoryNotExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "test.yaml")

	err := AtomicWriteYAML(path, map[string]string{"key": "value"})
	if err == nil {
		t.Error("AtomicWriteYAML() expected error for nonexistent directory")
	}
}
