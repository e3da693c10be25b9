// Package detect identifies which server container shape an arbitrary
// configuration file uses.
package detect

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/format"
	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// Format is a detected file layout.
type Format string

// Detectable layouts, in the order they are tried.
const (
	FormatAmp      Format = "amp"
	FormatOpenCode Format = "opencode"
	FormatCopilot  Format = "copilot"
	FormatStandard Format = "standard"
)

// Detection is the result of a successful Detect.
type Detection struct {
	Format    Format
	Kind      format.Kind
	Container string
	Servers   []mcp.Server
}

type candidate struct {
	format    Format
	container string
	adapter   format.Adapter
	// applies reports whether the candidate may be tried at all.
	applies func(root gjson.Result) bool
}

func always(gjson.Result) bool { return true }

// candidates are ordered from the most specific shape to the most generic
// so that a generic key cannot shadow a more specific sibling.
var candidates = []candidate{
	{
		format:    FormatAmp,
		container: "amp.mcpServers",
		adapter:   format.NewStandard("amp.mcpServers"),
		applies: func(root gjson.Result) bool {
			return root.Get(jsonpath.Escape("amp.mcpServers")).Exists()
		},
	},
	{
		format:    FormatOpenCode,
		container: "mcp.servers",
		adapter:   format.NewOpenCode("mcp.servers"),
		applies:   always,
	},
	{
		format:    FormatCopilot,
		container: "servers",
		adapter:   format.NewCopilot(),
		applies: func(root gjson.Result) bool {
			return !root.Get("mcp").Exists()
		},
	},
	{
		format:    FormatStandard,
		container: "mcpServers",
		adapter:   format.NewStandard("mcpServers"),
		applies:   always,
	},
}

// Detect finds the first candidate whose container is an object holding at
// least one server. It never modifies content.
func Detect(content []byte) (Detection, error) {
	doc, err := jsonpath.Normalize(content)
	if err != nil {
		return Detection{}, err
	}
	root := gjson.ParseBytes(doc)

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tried = append(tried, c.container)
		if !c.applies(root) {
			continue
		}
		container, _ := jsonpath.Get(doc, c.container)
		if !container.IsObject() {
			continue
		}
		servers, err := c.adapter.Parse(doc)
		if err != nil || len(servers) == 0 {
			continue
		}
		return Detection{
			Format:    c.format,
			Kind:      c.adapter.Kind(),
			Container: c.container,
			Servers:   servers,
		}, nil
	}
	return Detection{}, errors.Wrapf(errors.ErrNoRecognizedFormat, "tried %s", strings.Join(tried, ", "))
}
