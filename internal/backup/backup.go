package backup

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/storage"
)

// Manager rotates, lists and restores the numbered backups that sit next to
// a config file.
type Manager struct {
	st     storage.Storage
	policy Policy
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy sets the rotation policy.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// NewManager creates a backup Manager over st with the given options.
func NewManager(st storage.Storage, opts ...Option) *Manager {
	m := &Manager{
		st:     st,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.policy = m.policy.Normalize()
	return m
}

// Policy returns the normalized policy in effect.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Rotate shifts existing backups of path down one slot and copies the
// current file into the newest slot. It does nothing when the policy is
// inactive or path does not exist. After Rotate at most MaxBackups slots
// exist.
//
// With MaxBackups n > 1 the steps are: drop .bak.(n-1), move .bak.k to
// .bak.(k+1) for k = n-2 down to 1, move .bak to .bak.1, copy the file to
// .bak. With n == 1 the file is simply copied over .bak.
func (m *Manager) Rotate(ctx context.Context, path string) error {
	if !m.policy.Active() {
		return nil
	}
	exists, err := m.st.Exists(ctx, path)
	if err != nil {
		return errors.Wrap(err, "checking file before backup")
	}
	if !exists {
		return nil
	}

	base := BasePath(path)
	n := m.policy.MaxBackups

	if err := m.prune(ctx, base, n); err != nil {
		return err
	}
	if n > 1 {
		if err := m.st.Remove(ctx, SlotPath(base, n-1)); err != nil {
			return errors.Wrap(err, "dropping oldest backup")
		}
		for k := n - 2; k >= 0; k-- {
			src := SlotPath(base, k)
			ok, err := m.st.Exists(ctx, src)
			if err != nil {
				return errors.Wrapf(err, "checking backup %s", src)
			}
			if !ok {
				continue
			}
			if err := m.st.Rename(ctx, src, SlotPath(base, k+1)); err != nil {
				return errors.Wrapf(err, "shifting backup %s", src)
			}
		}
	}

	if err := m.st.Copy(ctx, path, base); err != nil {
		return errors.Wrapf(err, "backing up %s", path)
	}
	logging.FromContext(ctx).Debug("rotated backups", slog.String("path", path), slog.Int("max", n))
	return nil
}

// prune removes numbered slots at or beyond n, left over from a larger
// MaxBackups setting.
func (m *Manager) prune(ctx context.Context, base string, n int) error {
	for k := max(n, 1); k <= MaxSlots; k++ {
		slot := SlotPath(base, k)
		ok, err := m.st.Exists(ctx, slot)
		if err != nil {
			return errors.Wrapf(err, "checking backup %s", slot)
		}
		if !ok {
			return nil
		}
		if err := m.st.Remove(ctx, slot); err != nil {
			return errors.Wrapf(err, "removing stale backup %s", slot)
		}
	}
	return nil
}

// List returns the existing backups of path, newest first. It probes .bak
// and then .bak.1 through .bak.20, stopping at the first missing numbered
// slot.
func (m *Manager) List(ctx context.Context, path string) ([]Slot, error) {
	base := BasePath(path)
	var slots []Slot
	for k := 0; k <= MaxSlots; k++ {
		p := SlotPath(base, k)
		ok, err := m.st.Exists(ctx, p)
		if err != nil {
			return nil, errors.Wrapf(err, "checking backup %s", p)
		}
		if !ok {
			if k == 0 {
				continue
			}
			break
		}
		slots = append(slots, Slot{Index: k, Path: p})
	}
	return slots, nil
}

// Load returns the content of backup slot index for path.
func (m *Manager) Load(ctx context.Context, path string, index int) ([]byte, error) {
	if index < 0 || index > MaxSlots {
		return nil, errors.Wrapf(ErrNoBackupsFound, "slot %d out of range", index)
	}
	slot := SlotPath(BasePath(path), index)
	data, err := m.st.Read(ctx, slot)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.Wrapf(ErrNoBackupsFound, "%s", slot)
		}
		return nil, err
	}
	return data, nil
}

// WriteFunc persists content at path, typically through a rotating atomic
// write.
type WriteFunc func(ctx context.Context, path string, content []byte) error

// Restore copies backup slot index back over path using write. The backup
// is read before write runs, since write may rotate the slot away.
func (m *Manager) Restore(ctx context.Context, path string, index int, write WriteFunc) error {
	data, err := m.Load(ctx, path, index)
	if err != nil {
		return err
	}
	if err := write(ctx, path, data); err != nil {
		return errors.Wrapf(err, "restoring %s", path)
	}
	return nil
}
