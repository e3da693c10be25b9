package format

import (
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// File pairs an adapter with the codec of the file it lives in.
type File struct {
	Adapter Adapter
	Codec   Codec
}

// ForKind returns the File for kind with servers stored under container.
// An empty container selects the kind's default.
func ForKind(kind Kind, container string, opts ...Option) (File, error) {
	f, err := forKind(kind, container)
	if err != nil {
		return File{}, err
	}
	if a, ok := f.Adapter.(*objectAdapter); ok {
		for _, opt := range opts {
			opt(a)
		}
	}
	return f, nil
}

func forKind(kind Kind, container string) (File, error) {
	switch kind {
	case KindStandard:
		return File{Adapter: NewStandard(container), Codec: JSONCodec{}}, nil
	case KindCopilot:
		if container != "" && container != DefaultContainer(KindCopilot) {
			return File{}, errors.Wrapf(errors.ErrInvalidConfig, "copilot servers always live under %q", DefaultContainer(KindCopilot))
		}
		return File{Adapter: NewCopilot(), Codec: JSONCodec{}}, nil
	case KindOpenCode:
		return File{Adapter: NewOpenCode(container), Codec: JSONCodec{}}, nil
	case KindCodex:
		return File{Adapter: NewCodex(container), Codec: TOMLCodec{}}, nil
	default:
		return File{}, errors.Wrapf(errors.ErrInvalidConfig, "unknown format %q", kind)
	}
}

// Read decodes content and parses its servers.
func (f File) Read(content []byte) ([]mcp.Server, error) {
	doc, err := f.Codec.Decode(content)
	if err != nil {
		return nil, err
	}
	return f.Adapter.Parse(doc)
}

// Render returns existing with its server container replaced by servers.
// existing may be empty for a new file.
func (f File) Render(existing []byte, servers []mcp.Server) ([]byte, error) {
	doc, err := f.Codec.Decode(existing)
	if err != nil {
		return nil, err
	}
	updated, err := f.Adapter.Write(doc, servers)
	if err != nil {
		return nil, err
	}
	return f.Codec.Encode(updated, existing)
}
