package mcp

import (
	"maps"
	"slices"
)

// Transport names reported by [Server.Transport].
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Server is the canonical, format-independent MCP server record.
type Server struct {
	// Name is the server's unique key within a list. Never empty.
	Name string

	// Command is the executable for local servers. Empty for URL-only servers.
	Command string

	// Args are the command arguments. Nil means the source had no args key.
	Args []string

	// Env holds environment variables. Nil means the source had no env key.
	Env map[string]string

	// EnvLiterals holds the original JSON of env values that were numbers or
	// booleans. See [Server.EnvValue].
	EnvLiterals Fields

	// Disabled marks a server the tool should not start.
	Disabled bool

	// URL is the endpoint of a remote server.
	URL string

	// Target is a provenance tag stored under the "_target" key.
	Target string

	// Extra holds properties mcpsync does not interpret, in source order.
	Extra Fields
}

// IsRemote reports whether the server is reached over a URL rather than
// spawned locally.
func (s Server) IsRemote() bool {
	return s.URL != ""
}

// Transport returns TransportSSE for remote servers and TransportStdio
// otherwise.
func (s Server) Transport() string {
	if s.IsRemote() {
		return TransportSSE
	}
	return TransportStdio
}

// SameDefinition reports whether two servers launch the same thing: equal
// command, args (order-sensitive), env and url. Disabled, Target and Extra
// are not compared. A nil and an empty args list or env map are equal.
func (s Server) SameDefinition(o Server) bool {
	return s.Command == o.Command &&
		s.URL == o.URL &&
		slices.Equal(s.Args, o.Args) &&
		maps.Equal(s.Env, o.Env)
}

// Clone returns a deep copy of s.
func (s Server) Clone() Server {
	out := s
	if s.Args != nil {
		out.Args = slices.Clone(s.Args)
	}
	if s.Env != nil {
		out.Env = maps.Clone(s.Env)
	}
	out.EnvLiterals = s.EnvLiterals.Clone()
	out.Extra = s.Extra.Clone()
	return out
}

// Names returns the server names in list order.
func Names(servers []Server) []string {
	names := make([]string, len(servers))
	for i, s := range servers {
		names[i] = s.Name
	}
	return names
}

// Find returns the server named name.
func Find(servers []Server, name string) (Server, bool) {
	i := slices.IndexFunc(servers, func(s Server) bool { return s.Name == name })
	if i < 0 {
		return Server{}, false
	}
	return servers[i], true
}
