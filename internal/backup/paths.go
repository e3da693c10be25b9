package backup

import (
	"path/filepath"
	"strconv"
	"strings"
)

// BasePath returns the newest backup path for path: the extension is
// replaced with ".bak", so cfg.json becomes cfg.bak. Names without an
// extension, or dotfiles whose only dot is the leading one, get ".bak"
// appended.
func BasePath(path string) string {
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" || stem == "" {
		stem = name
	}
	return dir + stem + ".bak"
}

// SlotPath returns the path of slot n for a base path: base itself for
// n == 0, base.n otherwise.
func SlotPath(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "." + strconv.Itoa(n)
}
