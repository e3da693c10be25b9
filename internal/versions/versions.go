// Package versions keeps named snapshots of tool config files in a SQLite
// database.
//
// Snapshots are keyed by (config id, version id). The config id is usually a
// tool id and is sanitized to letters, digits, '-' and '_'. Version ids are
// random UUIDs.
package versions

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/paths"
)

// Snapshot sources.
const (
	SourceManual = "manual"
	SourceAuto   = "auto"
)

// Metadata describes a stored version without its content.
type Metadata struct {
	ID          string    `json:"id" yaml:"id"`
	ConfigID    string    `json:"config_id" yaml:"config_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Source      string    `json:"source" yaml:"source"`
	IsDefault   bool      `json:"is_default" yaml:"is_default"`
}

// Version is a stored snapshot.
type Version struct {
	Metadata `yaml:",inline"`
	Content  string `json:"content" yaml:"content"`
}

// Update lists the metadata fields to change. Nil fields are left alone.
type Update struct {
	Name        *string
	Description *string
	IsDefault   *bool
}

// Store is a SQLite-backed version store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

const schema = `
CREATE TABLE IF NOT EXISTS versions (
	id          TEXT PRIMARY KEY,
	config_id   TEXT NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	source      TEXT NOT NULL,
	is_default  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_versions_config ON versions(config_id, created_at);
`

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := paths.EnsureDir(filepath.Dir(path), 0); err != nil {
			return nil, errors.MarkIO(err, filepath.Dir(path))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.MarkIO(err, path), "opening version store")
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, errors.Wrapf(errors.MarkIO(err, path), "setting %s", p)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.MarkIO(err, path), "creating version schema")
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SanitizeID maps every rune other than a letter, digit, '-' or '_' to '_'.
func SanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, id)
}

// Save stores content as a new version of configID.
func (s *Store) Save(ctx context.Context, configID, name, content, description, source string) (Version, error) {
	if source == "" {
		source = SourceManual
	}
	v := Version{
		Metadata: Metadata{
			ID:          uuid.NewString(),
			ConfigID:    SanitizeID(configID),
			Name:        name,
			Description: description,
			Timestamp:   s.now().UTC(),
			Source:      source,
		},
		Content: content,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO versions (id, config_id, name, description, content, created_at, source, is_default)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		v.ID, v.ConfigID, v.Name, v.Description, v.Content, v.Timestamp.UnixNano(), v.Source)
	if err != nil {
		return Version{}, errors.Wrapf(errors.Mark(err, errors.ErrIO), "saving version of %s", v.ConfigID)
	}

	logging.FromContext(ctx).Debug("saved version",
		slog.String("config", v.ConfigID),
		slog.String("id", v.ID),
		slog.String("source", v.Source),
	)
	return v, nil
}

// List returns the versions of configID, newest first.
func (s *Store) List(ctx context.Context, configID string) ([]Metadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, config_id, name, description, created_at, source, is_default
		 FROM versions WHERE config_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		SanitizeID(configID))
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "listing versions")
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var (
			m  Metadata
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.ConfigID, &m.Name, &m.Description, &ts, &m.Source, &m.IsDefault); err != nil {
			return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "scanning version")
		}
		m.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrIO), "listing versions")
	}
	return out, nil
}

// Load returns one version with its content.
func (s *Store) Load(ctx context.Context, configID, versionID string) (Version, error) {
	var (
		v  Version
		ts int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, config_id, name, description, content, created_at, source, is_default
		 FROM versions WHERE config_id = ? AND id = ?`,
		SanitizeID(configID), versionID,
	).Scan(&v.ID, &v.ConfigID, &v.Name, &v.Description, &v.Content, &ts, &v.Source, &v.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, errors.Wrapf(errors.ErrNotFound, "version %s of %s", versionID, configID)
	}
	if err != nil {
		return Version{}, errors.Wrap(errors.Mark(err, errors.ErrIO), "loading version")
	}
	v.Timestamp = time.Unix(0, ts).UTC()
	return v, nil
}

// Delete removes one version.
func (s *Store) Delete(ctx context.Context, configID, versionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM versions WHERE config_id = ? AND id = ?`,
		SanitizeID(configID), versionID)
	if err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrIO), "deleting version")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "version %s of %s", versionID, configID)
	}
	return nil
}

// Rename sets the display name of a version.
func (s *Store) Rename(ctx context.Context, configID, versionID, name string) (Metadata, error) {
	return s.Update(ctx, configID, versionID, Update{Name: &name})
}

// Update changes version metadata and refreshes its timestamp. Marking a
// version default clears the flag on every other version of the config.
func (s *Store) Update(ctx context.Context, configID, versionID string, u Update) (Metadata, error) {
	v, err := s.Load(ctx, configID, versionID)
	if err != nil {
		return Metadata{}, err
	}
	if u.Name != nil {
		v.Name = *u.Name
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.IsDefault != nil {
		v.IsDefault = *u.IsDefault
	}
	v.Timestamp = s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Metadata{}, errors.Wrap(errors.Mark(err, errors.ErrIO), "updating version")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if v.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE versions SET is_default = 0 WHERE config_id = ? AND id != ?`,
			v.ConfigID, v.ID); err != nil {
			return Metadata{}, errors.Wrap(errors.Mark(err, errors.ErrIO), "clearing default version")
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE versions SET name = ?, description = ?, is_default = ?, created_at = ? WHERE id = ?`,
		v.Name, v.Description, boolInt(v.IsDefault), v.Timestamp.UnixNano(), v.ID); err != nil {
		return Metadata{}, errors.Wrap(errors.Mark(err, errors.ErrIO), "updating version")
	}
	if err := tx.Commit(); err != nil {
		return Metadata{}, errors.Wrap(errors.Mark(err, errors.ErrIO), "updating version")
	}
	return v.Metadata, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
