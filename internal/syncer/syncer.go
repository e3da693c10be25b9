// Package syncer drives reconciliation for the tools in a catalog: it reads
// each tool's servers, merges them with the source, and writes the result
// back through the durable write path.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/paths"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/safety"
	"github.com/thoreinstein/mcpsync/internal/source"
	"github.com/thoreinstein/mcpsync/internal/storage"
	"github.com/thoreinstein/mcpsync/internal/versions"
)

// Snapshotter records the content a sync is about to replace.
// *versions.Store satisfies it.
type Snapshotter interface {
	Save(ctx context.Context, configID, name, content, description, source string) (versions.Version, error)
}

// Orchestrator syncs source servers into tool config files. It holds no
// state between calls.
type Orchestrator struct {
	catalog   catalog.Catalog
	storage   storage.Storage
	source    source.Provider
	resolver  paths.Resolver
	policy    backup.Policy
	safety    *safety.Classifier
	allowWarn bool
	snapshots Snapshotter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithResolver sets the resolver used to expand tool config paths.
func WithResolver(r paths.Resolver) Option {
	return func(o *Orchestrator) { o.resolver = r }
}

// WithBackupPolicy sets the backup policy applied to every write.
func WithBackupPolicy(p backup.Policy) Option {
	return func(o *Orchestrator) { o.policy = p.Normalize() }
}

// WithSafety gates every write through c. Paths classified Warn are written
// only when allowWarn is set.
func WithSafety(c safety.Classifier, allowWarn bool) Option {
	return func(o *Orchestrator) {
		o.safety = &c
		o.allowWarn = allowWarn
	}
}

// WithSnapshots records the previous content of every synced file.
func WithSnapshots(s Snapshotter) Option {
	return func(o *Orchestrator) { o.snapshots = s }
}

// New returns an Orchestrator for the tools in cat, reading and writing
// their files through st.
func New(cat catalog.Catalog, st storage.Storage, src source.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  cat,
		storage:  st,
		source:   src,
		resolver: paths.DefaultResolver(),
		policy:   backup.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Catalog returns the orchestrator's tool catalog.
func (o *Orchestrator) Catalog() catalog.Catalog { return o.catalog }

// Source returns the source provider.
func (o *Orchestrator) Source() source.Provider { return o.source }

// Storage returns the storage tool files are read from and written to.
func (o *Orchestrator) Storage() storage.Storage { return o.storage }

// BackupPolicy returns the policy applied to writes.
func (o *Orchestrator) BackupPolicy() backup.Policy { return o.policy }

// ToolPath returns the expanded config path of a tool.
func (o *Orchestrator) ToolPath(t catalog.Tool) (string, error) {
	p, err := o.resolver.Expand(t.ConfigPath)
	if err != nil {
		return "", errors.Wrapf(err, "tool %s", t.ID)
	}
	return p, nil
}

// toolFile is a tool's config file as currently on disk.
type toolFile struct {
	tool    catalog.Tool
	path    string
	exists  bool
	content []byte
	servers []mcp.Server
}

// readTool loads a tool's file and parses its servers. A missing file is an
// empty list. Any other read failure is returned so that content that could
// not be read is never overwritten.
func (o *Orchestrator) readTool(ctx context.Context, id string) (toolFile, error) {
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
		return toolFile{}, errors.Wrapf(err, "reading %s config", t.DisplayName)
	}
	tf.exists = true
	tf.content = content

	file, err := t.File()
	if err != nil {
		return toolFile{}, err
	}
	tf.servers, err = file.Read(content)
	if err != nil {
		return toolFile{}, errors.Wrapf(err, "parsing %s config %s", t.DisplayName, path)
	}
	return tf, nil
}

// ReadTool returns the servers currently configured for a tool.
func (o *Orchestrator) ReadTool(ctx context.Context, id string) ([]mcp.Server, error) {
	tf, err := o.readTool(ctx, id)
	if err != nil {
		return nil, err
	}
	return tf.servers, nil
}

func (o *Orchestrator) sourceServers(ctx context.Context) ([]mcp.Server, error) {
	servers, err := o.source.Servers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading source servers")
	}
	if err := mcp.CheckValid(servers); err != nil {
		return nil, errors.Wrapf(err, "source %s", o.source.Path())
	}
	return servers, nil
}

// Preview is the merge of the source with one tool, computed without
// writing anything.
type Preview struct {
	ToolID     string           `json:"tool_id" yaml:"tool_id"`
	ToolName   string           `json:"tool_name" yaml:"tool_name"`
	Path       string           `json:"path" yaml:"path"`
	Exists     bool             `json:"exists" yaml:"exists"`
	Status     reconcile.Status `json:"status" yaml:"status"`
	HasChanges bool             `json:"has_changes" yaml:"has_changes"`
	Result     reconcile.Result `json:"merge" yaml:"merge"`
}

// Preview merges the source into a tool's servers.
func (o *Orchestrator) Preview(ctx context.Context, id string) (Preview, error) {
	src, err := o.sourceServers(ctx)
	if err != nil {
		return Preview{}, err
	}
	tf, err := o.readTool(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	return newPreview(tf, reconcile.Merge(src, tf.servers, tf.tool.ID)), nil
}

func newPreview(tf toolFile, r reconcile.Result) Preview {
	return Preview{
		ToolID:     tf.tool.ID,
		ToolName:   tf.tool.DisplayName,
		Path:       tf.path,
		Exists:     tf.exists,
		Status:     r.Status(),
		HasChanges: r.HasChanges(),
		Result:     r,
	}
}

// ContentPreview holds a tool file before and after a sync.
type ContentPreview struct {
	ToolID   string `json:"tool_id" yaml:"tool_id"`
	Path     string `json:"path" yaml:"path"`
	Current  string `json:"current" yaml:"current"`
	Proposed string `json:"proposed" yaml:"proposed"`
}

// emptyDocument stands in for the content of a missing file.
const emptyDocument = "{}"

// PreviewContent renders the file a sync would write. Conflicts without a
// resolution take the source version. Current is "{}" for a missing file.
func (o *Orchestrator) PreviewContent(ctx context.Context, id string, resolutions []reconcile.Resolution) (ContentPreview, error) {
	src, err := o.sourceServers(ctx)
	if err != nil {
		return ContentPreview{}, err
	}
	tf, err := o.readTool(ctx, id)
	if err != nil {
		return ContentPreview{}, err
	}
	r := reconcile.Merge(src, tf.servers, tf.tool.ID)
	proposed, err := o.render(tf, r, resolutions)
	if err != nil {
		return ContentPreview{}, err
	}

	current := emptyDocument
	if tf.exists {
		current = string(tf.content)
	}
	return ContentPreview{ToolID: tf.tool.ID, Path: tf.path, Current: current, Proposed: string(proposed)}, nil
}

func (o *Orchestrator) render(tf toolFile, r reconcile.Result, resolutions []reconcile.Resolution) ([]byte, error) {
	final, err := reconcile.Apply(r, resolutions)
	if err != nil {
		return nil, err
	}
	file, err := tf.tool.File()
	if err != nil {
		return nil, err
	}
	out, err := file.Render(tf.content, final)
	if err != nil {
		return nil, errors.Wrapf(err, "rendering %s config", tf.tool.DisplayName)
	}
	return out, nil
}

// Outcome is how a single-tool sync ended.
type Outcome string

const (
	// OutcomeSynced means the file was written.
	OutcomeSynced Outcome = "synced"
	// OutcomeUnchanged means the tool already matched the source.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeConflictsPending means conflicts exist and no resolutions were
	// supplied. Nothing was written.
	OutcomeConflictsPending Outcome = "conflicts_pending"
)

// Result reports a single-tool sync.
type Result struct {
	ToolID  string           `json:"tool_id" yaml:"tool_id"`
	Path    string           `json:"path" yaml:"path"`
	Outcome Outcome          `json:"outcome" yaml:"outcome"`
	Written int              `json:"servers_written" yaml:"servers_written"`
	Merge   reconcile.Result `json:"merge" yaml:"merge"`
	Message string           `json:"message" yaml:"message"`
}

// Sync merges the source into one tool and writes the result.
//
// When the merge has conflicts and resolutions is nil, Sync writes nothing
// and returns OutcomeConflictsPending with the conflicts in Result.Merge.
// That is not an error. A non-nil, possibly empty, resolutions slice lets
// unresolved conflicts take the source version.
func (o *Orchestrator) Sync(ctx context.Context, id string, resolutions []reconcile.Resolution) (Result, error) {
	return o.sync(ctx, id, func(reconcile.Result) []reconcile.Resolution { return resolutions })
}

// resolveFunc picks resolutions once the merge is known. Returning nil
// leaves conflicts pending.
type resolveFunc func(reconcile.Result) []reconcile.Resolution

func (o *Orchestrator) sync(ctx context.Context, id string, resolve resolveFunc) (Result, error) {
	logger := logging.FromContext(ctx).With(slog.String("tool", id))

	src, err := o.sourceServers(ctx)
	if err != nil {
		return Result{}, err
	}
	tf, err := o.readTool(ctx, id)
	if err != nil {
		return Result{}, err
	}
	r := reconcile.Merge(src, tf.servers, tf.tool.ID)
	res := Result{ToolID: tf.tool.ID, Path: tf.path, Merge: r}

	resolutions := resolve(r)
	if len(r.Conflicts) > 0 && resolutions == nil {
		res.Outcome = OutcomeConflictsPending
		res.Message = "conflicts detected: " + strings.Join(r.ConflictNames(), ", ")
		logger.Info("sync paused on conflicts", slog.Int("conflicts", len(r.Conflicts)))
		return res, nil
	}

	if !r.HasChanges() {
		res.Outcome = OutcomeUnchanged
		res.Written = len(tf.servers)
		res.Message = "already in sync"
		logger.Debug("nothing to sync")
		return res, nil
	}

	out, err := o.render(tf, r, resolutions)
	if err != nil {
		return Result{}, err
	}
	if err := o.write(ctx, tf, out, "before sync"); err != nil {
		return Result{}, err
	}

	written := len(r.Kept) + len(r.Added) + len(r.Conflicts)
	res.Outcome = OutcomeSynced
	res.Written = written
	res.Message = fmt.Sprintf("synced %d servers (%d added, %d kept, %d resolved)",
		written, len(r.Added), len(r.Kept), len(r.Conflicts))
	logger.Info("synced",
		slog.String("path", tf.path),
		slog.Int("added", len(r.Added)),
		slog.Int("conflicts", len(r.Conflicts)),
	)
	return res, nil
}

// ToolResult is one entry of a SyncAll report.
type ToolResult struct {
	ToolID  string  `json:"tool_id" yaml:"tool_id"`
	Success bool    `json:"success" yaml:"success"`
	Outcome Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Message string  `json:"message" yaml:"message"`
	Count   int     `json:"servers_written" yaml:"servers_written"`
}

// SyncAll syncs every tool in ids whose config file exists. Tools without a
// file are skipped. A failing tool is recorded and the rest still run.
//
// strategy settles every conflict the same way; the empty Choice leaves
// conflicts pending, which is reported as a failure for that tool.
func (o *Orchestrator) SyncAll(ctx context.Context, ids []string, strategy reconcile.Choice) []ToolResult {
	logger := logging.FromContext(ctx)
	resolve := func(r reconcile.Result) []reconcile.Resolution {
		if strategy == "" {
			return nil
		}
		return reconcile.ResolveAll(r, strategy)
	}

	var results []ToolResult
	for _, id := range lo.Uniq(ids) {
		exists, err := o.toolExists(ctx, id)
		if err != nil {
			results = append(results, ToolResult{ToolID: id, Message: err.Error()})
			continue
		}
		if !exists {
			logger.Debug("skipping tool without config", slog.String("tool", id))
			continue
		}

		res, err := o.sync(ctx, id, resolve)
		if err != nil {
			logger.Warn("sync failed", slog.String("tool", id), slog.Any("error", err))
			results = append(results, ToolResult{ToolID: id, Message: err.Error()})
			continue
		}
		results = append(results, ToolResult{
			ToolID:  id,
			Success: res.Outcome != OutcomeConflictsPending,
			Outcome: res.Outcome,
			Message: res.Message,
			Count:   res.Written,
		})
	}
	return results
}

func (o *Orchestrator) toolExists(ctx context.Context, id string) (bool, error) {
	t, err := o.catalog.Lookup(id)
	if err != nil {
		return false, err
	}
	path, err := o.ToolPath(t)
	if err != nil {
		return false, err
	}
	return o.storage.Exists(ctx, path)
}

// ToolStatus describes one catalog tool relative to the source.
type ToolStatus struct {
	ToolID      string           `json:"tool_id" yaml:"tool_id"`
	Name        string           `json:"name" yaml:"name"`
	ConfigPath  string           `json:"config_path" yaml:"config_path"`
	Installed   bool             `json:"installed" yaml:"installed"`
	Status      reconcile.Status `json:"status" yaml:"status"`
	ServerCount int              `json:"server_count" yaml:"server_count"`
	Enabled     bool             `json:"enabled" yaml:"enabled"`
}

// Statuses reports every catalog tool. A tool without a config file is
// NotInstalled. One whose file cannot be read or parsed, or holds no
// servers, is NoMCP.
func (o *Orchestrator) Statuses(ctx context.Context, enabled []string) ([]ToolStatus, error) {
	src, err := o.sourceServers(ctx)
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx)

	tools := o.catalog.All()
	out := make([]ToolStatus, 0, len(tools))
	for _, t := range tools {
		st := ToolStatus{
			ToolID:     t.ID,
			Name:       t.DisplayName,
			ConfigPath: t.ConfigPath,
			Enabled:    lo.Contains(enabled, t.ID),
			Status:     reconcile.StatusNotInstalled,
		}
		tf, err := o.readTool(ctx, t.ID)
		switch {
		case err != nil:
			logger.Debug("tool config unreadable", slog.String("tool", t.ID), slog.Any("error", err))
			st.Installed = true
			st.Status = reconcile.StatusNoMCP
		case tf.exists && len(tf.servers) == 0:
			st.Installed = true
			st.Status = reconcile.StatusNoMCP
		case tf.exists:
			st.Installed = true
			st.ServerCount = len(tf.servers)
			st.Status = reconcile.Merge(src, tf.servers, t.ID).Status()
		}
		out = append(out, st)
	}
	return out, nil
}
