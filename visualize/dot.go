// Package visualize emits a DOT rendering of a graph.Graph snapshot for
// debug-time inspection of parsing and traversal steps (§6 "Visualization"):
// red edges for setup, blue for cleanup, green for bridge, black for clone.
// Patterned on the teacher's configstack.WriteDot, generalized from a
// single dependency direction to cartgraph's symmetric setup/cleanup edge
// pair and its bridge/clone links.
package visualize

import (
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/node"
)

const dotTemplate = `digraph {
{{- range .Nodes}}
	"{{.}}" ;
{{- end}}
{{- range .SetupEdges}}
	"{{.From}}" -> "{{.To}}" [color=red];
{{- end}}
{{- range .CleanupEdges}}
	"{{.From}}" -> "{{.To}}" [color=blue];
{{- end}}
{{- range .BridgeEdges}}
	"{{.From}}" -> "{{.To}}" [color=green, dir=none];
{{- end}}
{{- range .CloneEdges}}
	"{{.From}}" -> "{{.To}}" [color=black];
{{- end}}
}
`

type edge struct {
	From, To string
}

type dotData struct {
	Nodes        []string
	SetupEdges   []edge
	CleanupEdges []edge
	BridgeEdges  []edge
	CloneEdges   []edge
}

var tmpl = template.Must(template.New("dot").Parse(dotTemplate))

// WriteDot renders g's current node/edge state (including bridge and clone
// links) to w as a DOT digraph, suitable for `dot -Tpng` or similar.
func WriteDot(w io.Writer, g *graph.Graph) error {
	data := dotData{}

	seenBridge := map[string]bool{}
	seenClone := map[string]bool{}

	for _, n := range g.Nodes {
		data.Nodes = append(data.Nodes, n.ID())

		for _, p := range n.Parents() {
			data.SetupEdges = append(data.SetupEdges, edge{From: n.ID(), To: p.ID()})
		}

		for _, c := range n.Children() {
			data.CleanupEdges = append(data.CleanupEdges, edge{From: n.ID(), To: c.ID()})
		}

		for _, peer := range n.BridgedNodes {
			key := bridgeKey(n, peer)
			if seenBridge[key] {
				continue
			}

			seenBridge[key] = true

			data.BridgeEdges = append(data.BridgeEdges, edge{From: n.ID(), To: peer.ID()})
		}

		for _, clone := range n.ClonedNodes {
			key := n.ID() + ">" + clone.ID()
			if seenClone[key] {
				continue
			}

			seenClone[key] = true

			data.CloneEdges = append(data.CloneEdges, edge{From: n.ID(), To: clone.ID()})
		}
	}

	sort.Strings(data.Nodes)
	sortEdges(data.SetupEdges)
	sortEdges(data.CleanupEdges)
	sortEdges(data.BridgeEdges)
	sortEdges(data.CloneEdges)

	if err := tmpl.Execute(w, data); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}

func bridgeKey(a, b *node.Node) string {
	ids := []string{a.ID(), b.ID()}
	sort.Strings(ids)

	return strings.Join(ids, "<->")
}

func sortEdges(edges []edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}

		return edges[i].To < edges[j].To
	})
}
