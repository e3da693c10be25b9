package format

import (
	"github.com/tidwall/gjson"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// Adapter maps one container shape to and from canonical servers.
type Adapter interface {
	// Kind returns the shape this adapter handles.
	Kind() Kind

	// Parse extracts the servers from a JSON document. An absent container
	// yields no servers; a container that is not an object is an
	// ErrInvalidFormat error.
	Parse(doc []byte) ([]mcp.Server, error)

	// Serialize encodes servers as the container object.
	Serialize(servers []mcp.Server) ([]byte, error)

	// Write replaces the container inside doc with servers.
	Write(doc []byte, servers []mcp.Server) ([]byte, error)
}

// entryCodec converts single server entries for an objectAdapter.
type entryCodec struct {
	decode func(name string, obj gjson.Result) mcp.Server
	encode func(s mcp.Server) *mcp.Object
}

// objectAdapter handles every shape where servers are the properties of one
// JSON object.
type objectAdapter struct {
	kind  Kind
	path  string
	codec entryCodec

	// readPath and writePath pick the container for a given document. They
	// default to path.
	readPath  func(doc []byte) string
	writePath func(doc []byte) string

	// literal writes the container as one root key even when its path
	// contains dots.
	literal bool
}

// Option adjusts an adapter built by ForKind.
type Option func(*objectAdapter)

// LiteralKey stores the container under its full path as a single root key,
// such as "amp.mcpServers", whatever the rest of the document looks like.
func LiteralKey() Option {
	return func(a *objectAdapter) { a.literal = true }
}

func (a *objectAdapter) Kind() Kind { return a.kind }

func (a *objectAdapter) Parse(doc []byte) ([]mcp.Server, error) {
	doc, err := jsonpath.Normalize(doc)
	if err != nil {
		return nil, err
	}
	path := a.path
	if a.readPath != nil {
		path = a.readPath(doc)
	}
	container, _ := jsonpath.Get(doc, path)
	if !container.Exists() {
		return nil, nil
	}
	if !container.IsObject() {
		return nil, errors.Wrapf(errors.ErrInvalidFormat, "%s is not an object", path)
	}

	var servers []mcp.Server
	container.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "" || !value.IsObject() {
			return true
		}
		servers = append(servers, a.codec.decode(key.String(), value))
		return true
	})
	return servers, nil
}

func (a *objectAdapter) Serialize(servers []mcp.Server) ([]byte, error) {
	obj := mcp.NewObject()
	for _, s := range servers {
		obj.Set(s.Name, a.codec.encode(s))
	}
	return mcp.MarshalObject(obj)
}

func (a *objectAdapter) Write(doc []byte, servers []mcp.Server) ([]byte, error) {
	doc, err := jsonpath.Normalize(doc)
	if err != nil {
		return nil, err
	}
	raw, err := a.Serialize(servers)
	if err != nil {
		return nil, err
	}
	path := a.path
	if a.writePath != nil {
		path = a.writePath(doc)
	}
	return jsonpath.SetRaw(doc, path, raw, a.literal)
}
