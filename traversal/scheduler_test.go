package traversal_test

import (
	"context"
	"sync"
	"testing"

	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/cartgraph/cartgraph/statesync"
	"github.com/cartgraph/cartgraph/traversal"
	"github.com/cartgraph/cartgraph/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu    sync.Mutex
	order []string
	fail  map[string]int // shortname -> number of times to FAIL before PASS
}

func (r *recordingExecutor) Run(_ context.Context, params map[string]string) (executor.Status, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := params["shortname"]
	r.order = append(r.order, name)

	if remaining, ok := r.fail[name]; ok && remaining > 0 {
		r.fail[name]--

		return executor.Fail, "", nil
	}

	return executor.Pass, "", nil
}

func chainCandidates() []restriction.Candidate {
	step := func(shortname, getState, setState string) restriction.Candidate {
		d := restriction.Dict{"shortname": shortname, "vms": "vm1", "set_state_vm1": setState}
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

func buildSingleWorkerGraph(t *testing.T) (*graph.Graph, *worker.Worker) {
	t.Helper()

	net := &object.Object{Suffix: "net1", Kind: object.Net}
	vm1 := &object.Object{Suffix: "vm1", Kind: object.VM, Variant: "CentOS.8"}
	net.AddComponent(vm1)

	g, err := graph.Build(graph.Config{
		TopRestriction: "only tutorial1",
		Candidates:     chainCandidates(),
		Workers:        []*object.Object{net},
	})
	require.NoError(t, err)

	return g, worker.New("net1", net, nil)
}

func TestSchedulerRunsChainInOrder(t *testing.T) {
	t.Parallel()

	g, w := buildSingleWorkerGraph(t)

	exec := &recordingExecutor{fail: map[string]int{}}

	sched := &traversal.Scheduler{
		Graph:     g,
		Workers:   []*worker.Worker{w},
		Executor:  exec,
		StatePool: statesync.NewPool(statesync.NewInMemoryBackend(), ""),
	}

	require.NoError(t, sched.Run(context.Background()))

	assert.Equal(t, []string{"noop", "install", "customize", "on_customize", "tutorial1"}, exec.order)
}

func TestSchedulerRetriesUpToAttemptsPlusOne(t *testing.T) {
	t.Parallel()

	g, w := buildSingleWorkerGraph(t)

	var tutorial1 *node.Node

	for _, n := range g.Nodes {
		if n.Shortname() == "tutorial1" && len(n.Objects) > 0 {
			tutorial1 = n
		}
	}

	require.NotNil(t, tutorial1)

	tutorial1.RetryAttempts = 2

	exec := &recordingExecutor{fail: map[string]int{"tutorial1": 2}}

	sched := &traversal.Scheduler{
		Graph:     g,
		Workers:   []*worker.Worker{w},
		Executor:  exec,
		StatePool: statesync.NewPool(statesync.NewInMemoryBackend(), ""),
	}

	require.NoError(t, sched.Run(context.Background()))

	count := 0

	for _, name := range exec.order {
		if name == "tutorial1" {
			count++
		}
	}

	assert.Equal(t, 3, count, "expected exactly retry_attempts+1 invocations")
}
