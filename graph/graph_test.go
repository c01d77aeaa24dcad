package graph_test

import (
	"testing"

	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tutorial1Candidates builds the worked chain from spec §8 scenario 1:
// noop -> install -> customize -> on_customize -> tutorial1, all bound to
// a single vm1 object.
func tutorial1Candidates() []restriction.Candidate {
	step := func(shortname, getState, setState string) restriction.Candidate {
		d := restriction.Dict{
			"shortname": shortname,
			"vms":       "vm1",
			"set_state_vm1": setState,
		}
		if getState != "" {
			d["get_state_vm1"] = getState
		}

		return restriction.Candidate{Dict: d, Tags: []string{shortname}}
	}

	return []restriction.Candidate{
		step("noop", "", "noop"),
		step("install", "root", "install"),
		step("customize", "install", "customize"),
		step("on_customize", "customize", "on_customize"),
		step("tutorial1", "on_customize", "tutorial1"),
	}
}

func singleWorker() *object.Object {
	net := &object.Object{Suffix: "net1", Kind: object.Net}
	vm1 := &object.Object{Suffix: "vm1", Kind: object.VM, Variant: "CentOS.8"}
	net.AddComponent(vm1)

	return net
}

func TestBuildChainsSetupEdges(t *testing.T) {
	t.Parallel()

	cfg := graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     tutorial1Candidates(),
		Workers:        []*object.Object{singleWorker()},
	}

	g, err := graph.Build(cfg)
	require.NoError(t, err)

	var found bool

	for _, n := range g.Nodes {
		if n.Shortname() == "tutorial1" {
			found = true

			parents := n.Parents()
			require.Len(t, parents, 1)
			assert.Equal(t, "on_customize", parents[0].Shortname())
		}
	}

	assert.True(t, found, "expected a tutorial1 node in the graph")
}

func TestBuildRootHasNoParentsAndNeverRuns(t *testing.T) {
	t.Parallel()

	cfg := graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     tutorial1Candidates(),
		Workers:        []*object.Object{singleWorker()},
	}

	g, err := graph.Build(cfg)
	require.NoError(t, err)

	assert.Empty(t, g.Root.Parents())
	assert.False(t, g.Root.EvalShouldRun("w1"))
}

func TestBuildFanInClonesDownstream(t *testing.T) {
	t.Parallel()

	candidates := tutorial1Candidates()
	// A second install variant producing the same "install" state creates a
	// fan-in on customize's dependency.
	candidates = append(candidates, restriction.Candidate{
		Dict: restriction.Dict{
			"shortname":     "install_alt",
			"vms":           "vm1",
			"get_state_vm1": "root",
			"set_state_vm1": "install",
		},
		Tags: []string{"install_alt"},
	})

	cfg := graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     candidates,
		Workers:        []*object.Object{singleWorker()},
	}

	g, err := graph.Build(cfg)
	require.NoError(t, err)

	var customizeClones int

	for _, n := range g.Nodes {
		if n.Shortname() == "customize" && len(n.Parents()) == 1 {
			customizeClones++
		}
	}

	assert.Equal(t, 2, customizeClones, "expected customize to be cloned once per install variant")
}

func TestBuildBridgesAcrossWorkers(t *testing.T) {
	t.Parallel()

	w1 := singleWorker()
	w2 := singleWorker()
	w2.Suffix = "net2"

	cfg := graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     tutorial1Candidates(),
		Workers:        []*object.Object{w1, w2},
	}

	g, err := graph.Build(cfg)
	require.NoError(t, err)

	var bridged bool

	for _, n := range g.Nodes {
		if n.Shortname() == "noop" && len(n.BridgedNodes) > 0 {
			bridged = true
		}
	}

	assert.True(t, bridged, "expected noop nodes across workers to be bridged")
}

func TestBuildSimpleGetParseRejected(t *testing.T) {
	t.Parallel()

	candidates := tutorial1Candidates()

	for i, c := range candidates {
		if c.Dict["shortname"] == "customize" {
			candidates[i].Dict["get_parse"] = "simple"
		}
	}

	cfg := graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     candidates,
		Workers:        []*object.Object{singleWorker()},
	}

	_, err := graph.Build(cfg)
	require.Error(t, err)
	assert.IsType(t, graph.SimpleParseUnsupportedError{}, errorsCause(err))
}

func errorsCause(err error) error {
	type unwrapper interface{ Unwrap() error }

	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}

		err = u.Unwrap()
	}
}
