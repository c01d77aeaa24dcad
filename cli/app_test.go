package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartgraph/cartgraph/cli"
	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/options"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/cartgraph/cartgraph/statesync"
	"github.com/cartgraph/cartgraph/worker"
)

func oneNodeCandidates() []restriction.Candidate {
	d := restriction.Dict{
		"shortname":     "tutorial1",
		"vms":           "vm1",
		"set_state_vm1": "tutorial1",
	}

	return []restriction.Candidate{{Dict: d, Tags: []string{"tutorial1"}}}
}

func singleWorkerObject() *object.Object {
	net := &object.Object{Suffix: "net1", Kind: object.Net}
	vm1 := &object.Object{Suffix: "vm1", Kind: object.VM, Variant: "CentOS.8"}
	net.AddComponent(vm1)

	return net
}

func testHooks() cli.Hooks {
	netObj := singleWorkerObject()

	return cli.Hooks{
		BuildConfig: func(_ *options.Options) (graph.Config, error) {
			return graph.Config{
				TopRestriction: "only tutorial1",
				Candidates:     oneNodeCandidates(),
				Workers:        []*object.Object{netObj},
			}, nil
		},
		Workers: func(_ *graph.Graph, _ *options.Options) []*worker.Worker {
			return []*worker.Worker{worker.New("net1", netObj, nil)}
		},
		Backend:    statesync.NewInMemoryBackend(),
		SharedPath: "/pool",
	}
}

func TestAppRunExecutesGraphAndExitsZero(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer

	opts := options.NewOptionsForTest(t.TempDir())
	opts.Writer = &stdout

	app := cli.NewApp(opts, testHooks())

	err := app.RunContext(context.Background(), []string{"cartgraph", "run"})
	require.NoError(t, err)
}

func TestAppListReportsWouldRunNodes(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer

	opts := options.NewOptionsForTest(t.TempDir())
	opts.Writer = &stdout

	app := cli.NewApp(opts, testHooks())

	err := app.RunContext(context.Background(), []string{"cartgraph", "list"})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "shortname=tutorial1")
}

func TestManualCheckAndSetRoundTrip(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer

	opts := options.NewOptionsForTest(t.TempDir())
	opts.Writer = &stdout

	hooks := testHooks()

	app := cli.NewApp(opts, hooks)

	require.NoError(t, app.RunContext(context.Background(), []string{"cartgraph", "set", "vm1", "customize"}))

	stdout.Reset()
	require.NoError(t, app.RunContext(context.Background(), []string{"cartgraph", "check", "vm1", "customize"}))
	assert.Equal(t, "true\n", stdout.String())
}

func TestGlobalParamFlagOverlaysParams(t *testing.T) {
	t.Parallel()

	opts := options.NewOptionsForTest(t.TempDir())

	app := cli.NewApp(opts, testHooks())

	require.NoError(t, app.RunContext(context.Background(), []string{"cartgraph", "--param", "foo=bar", "noop"}))
	assert.Equal(t, "bar", opts.Params["foo"])
}
