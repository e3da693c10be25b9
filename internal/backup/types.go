package backup

import (
	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Retention limits.
const (
	// DefaultMaxBackups is the number of backups kept per config file when
	// nothing is configured.
	DefaultMaxBackups = 5

	// MaxSlots is the upper bound on backups per config file.
	MaxSlots = 20
)

// ErrNoBackupsFound indicates no backup exists for the requested file or slot.
var ErrNoBackupsFound = errors.Mark(errors.New("no backups found"), errors.ErrNotFound)

// Policy controls rotation for a single write.
type Policy struct {
	// Enabled turns rotation on. A disabled policy never touches backup slots.
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// MaxBackups is the number of slots kept. Zero disables rotation; values
	// above MaxSlots are clamped.
	MaxBackups int `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// DefaultPolicy keeps DefaultMaxBackups backups.
func DefaultPolicy() Policy {
	return Policy{Enabled: true, MaxBackups: DefaultMaxBackups}
}

// Normalize clamps MaxBackups into [0, MaxSlots].
func (p Policy) Normalize() Policy {
	p.MaxBackups = max(0, min(p.MaxBackups, MaxSlots))
	return p
}

// Active reports whether a write under p rotates backups.
func (p Policy) Active() bool {
	n := p.Normalize()
	return n.Enabled && n.MaxBackups > 0
}

// Slot is one backup file. Index 0 is the most recent (".bak").
type Slot struct {
	Index int    `json:"index" yaml:"index"`
	Path  string `json:"path" yaml:"path"`
}
