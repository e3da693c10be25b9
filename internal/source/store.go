package source

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/detect"
	"github.com/thoreinstein/mcpsync/internal/durable"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/format"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/storage"
)

// Store is the app-managed server list, kept as a Standard-format file.
type Store struct {
	st     storage.Storage
	path   string
	policy backup.Policy
	file   format.File
}

// NewStore returns the store backed by path. Writes rotate backups under
// policy.
func NewStore(st storage.Storage, path string, policy backup.Policy) *Store {
	file, _ := format.ForKind(format.KindStandard, "mcpServers")
	return &Store{st: st, path: path, policy: policy, file: file}
}

func (s *Store) Mode() Mode   { return ModeAppManaged }
func (s *Store) Path() string { return s.path }

// Servers returns the stored servers. A missing file is an empty list.
func (s *Store) Servers(ctx context.Context) ([]mcp.Server, error) {
	return readServers(ctx, s.st, s.path, s.file)
}

// Get returns the server named name.
func (s *Store) Get(ctx context.Context, name string) (mcp.Server, error) {
	servers, err := s.Servers(ctx)
	if err != nil {
		return mcp.Server{}, err
	}
	srv, ok := mcp.Find(servers, name)
	if !ok {
		return mcp.Server{}, errors.Wrapf(errors.ErrNotFound, "server %q", name)
	}
	return srv, nil
}

// Add appends server. A server with the same name is ErrDuplicateServer.
func (s *Store) Add(ctx context.Context, server mcp.Server) error {
	if err := mcp.CheckValid([]mcp.Server{server}); err != nil {
		return err
	}
	servers, err := s.Servers(ctx)
	if err != nil {
		return err
	}
	if _, ok := mcp.Find(servers, server.Name); ok {
		return errors.Wrapf(errors.ErrDuplicateServer, "server %q", server.Name)
	}
	return s.save(ctx, append(servers, server))
}

// Update replaces the server named original with server, in place. Renaming
// onto an existing name is ErrDuplicateServer.
func (s *Store) Update(ctx context.Context, original string, server mcp.Server) error {
	if err := mcp.CheckValid([]mcp.Server{server}); err != nil {
		return err
	}
	servers, err := s.Servers(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(servers, func(x mcp.Server) bool { return x.Name == original })
	if i < 0 {
		return errors.Wrapf(errors.ErrNotFound, "server %q", original)
	}
	if server.Name != original {
		if _, ok := mcp.Find(servers, server.Name); ok {
			return errors.Wrapf(errors.ErrDuplicateServer, "server %q", server.Name)
		}
	}
	servers[i] = server
	return s.save(ctx, servers)
}

// Remove deletes the server named name.
func (s *Store) Remove(ctx context.Context, name string) error {
	servers, err := s.Servers(ctx)
	if err != nil {
		return err
	}
	if _, ok := mcp.Find(servers, name); !ok {
		return errors.Wrapf(errors.ErrNotFound, "server %q", name)
	}
	kept := slices.DeleteFunc(servers, func(x mcp.Server) bool { return x.Name == name })
	return s.save(ctx, kept)
}

// Replace overwrites the whole list.
func (s *Store) Replace(ctx context.Context, servers []mcp.Server) error {
	if err := mcp.CheckValid(servers); err != nil {
		return err
	}
	return s.save(ctx, servers)
}

func (s *Store) save(ctx context.Context, servers []mcp.Server) error {
	existing, err := s.st.Read(ctx, s.path)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	out, err := s.file.Render(existing, servers)
	if err != nil {
		return err
	}
	return durable.Write(ctx, s.st, s.path, out, s.policy)
}

// ImportResult reports what an import did.
type ImportResult struct {
	Path    string        `json:"path"`
	Format  detect.Format `json:"format"`
	Added   []string      `json:"added"`
	Skipped []string      `json:"skipped"`
}

// Import detects the format of the file at path and adds every server whose
// name the store does not have yet. Existing names are reported as
// skipped, never overwritten.
func (s *Store) Import(ctx context.Context, path string) (ImportResult, error) {
	content, err := s.st.Read(ctx, path)
	if err != nil {
		return ImportResult{}, err
	}
	res, err := s.ImportContent(ctx, content)
	res.Path = path
	return res, err
}

// ImportContent is Import for in-memory content.
func (s *Store) ImportContent(ctx context.Context, content []byte) (ImportResult, error) {
	found, err := detect.Detect(content)
	if err != nil {
		return ImportResult{}, err
	}
	servers, err := s.Servers(ctx)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Format: found.Format}
	var added []mcp.Server
	for _, srv := range found.Servers {
		if _, ok := mcp.Find(servers, srv.Name); ok {
			res.Skipped = append(res.Skipped, srv.Name)
			continue
		}
		added = append(added, srv)
		res.Added = append(res.Added, srv.Name)
	}
	if len(added) == 0 {
		return res, nil
	}
	// An invalid entry in the source blocks every later sync.
	if err := mcp.CheckValid(added); err != nil {
		return ImportResult{}, errors.Wrap(err, "nothing imported")
	}
	servers = append(servers, added...)
	if err := s.save(ctx, servers); err != nil {
		return ImportResult{}, err
	}
	logging.FromContext(ctx).Info("imported servers",
		slog.String("format", string(found.Format)),
		slog.String("added", strings.Join(res.Added, ",")),
		slog.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}
