package visualize_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/cartgraph/cartgraph/visualize"
)

func TestWriteDotRendersSetupCleanupBridgeClone(t *testing.T) {
	t.Parallel()

	net := &object.Object{Suffix: "net1", Kind: object.Net}

	a := node.New("1.net1", []*object.Object{net}, restriction.Dict{"shortname": "install"})
	b := node.New("2.net1", []*object.Object{net}, restriction.Dict{"shortname": "customize"})
	node.AddSetupEdge(a, b, net)

	bridgeTwin := node.New("1.net2", []*object.Object{net}, restriction.Dict{"shortname": "install"})
	node.Bridge(a, bridgeTwin)

	a.ClonedNodes = append(a.ClonedNodes, bridgeTwin)

	g := &graph.Graph{Nodes: []*node.Node{a, b, bridgeTwin}}

	var buf bytes.Buffer
	require.NoError(t, visualize.WriteDot(&buf, g))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph {"))
	assert.Contains(t, out, `"2.net1-" -> "1.net1-" [color=red];`)
	assert.Contains(t, out, `"1.net1-" -> "2.net1-" [color=blue];`)
	assert.Contains(t, out, "[color=green, dir=none];")
	assert.Contains(t, out, "[color=black];")
}
