package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/options"
	"github.com/cartgraph/cartgraph/setuplist"
	"github.com/cartgraph/cartgraph/statesync"
	"github.com/cartgraph/cartgraph/traversal"
	"github.com/cartgraph/cartgraph/worker"
)

// runAction implements the `run` command (§6): build the graph with the
// injected config-loading hook, traverse it with one worker per net, and
// translate the outcome into the documented exit codes.
func runAction(c *cli.Context, opts *options.Options, hooks Hooks) error {
	g, workers, err := buildGraphAndWorkers(opts, hooks)
	if err != nil {
		return err
	}

	exec := executor.Func(func(ctx context.Context, params map[string]string) (executor.Status, string, error) {
		status, logDir, err := opts.RunTest(ctx, params)

		return executor.Status(status), logDir, err
	})

	var pool *statesync.Pool
	if hooks.Backend != nil {
		pool = statesync.NewPool(hooks.Backend, hooks.SharedPath)
	}

	sched := &traversal.Scheduler{
		Graph:       g,
		Workers:     workers,
		Executor:    exec,
		StatePool:   pool,
		Logger:      opts.Logger,
		TestTimeout: opts.TestTimeout,
	}

	if opts.Deadline > 0 {
		sched.Deadline = time.Now().Add(opts.Deadline)
	}

	runErr := sched.Run(c.Context)

	if writeErr := persistSetupList(opts, g); writeErr != nil {
		opts.Logger.WithError(writeErr).Warn("failed to persist setup_list")
	}

	if runErr != nil {
		return runErr
	}

	if anyFailed(g) {
		return cli.Exit("one or more tests failed", ExitTestsFailed)
	}

	return nil
}

// listAction implements the `list` command (§6): build the graph and
// report, per node, whether a fresh run would execute it, without invoking
// the executor.
func listAction(c *cli.Context, opts *options.Options, hooks Hooks) error {
	g, _, err := buildGraphAndWorkers(opts, hooks)
	if err != nil {
		return err
	}

	list := setuplist.New()

	for _, n := range g.Nodes {
		if len(n.Objects) == 0 || n == g.Root {
			continue
		}

		wouldRun := wouldRunFresh(c.Context, n, hooks)
		list.Set(n.ID(), wouldRun, true)

		fmt.Fprintf(opts.Writer, "%s run=%t shortname=%s\n", n.ID(), wouldRun, n.Shortname()) //nolint:errcheck
	}

	return persistSetupListValue(opts, list)
}

// buildGraphAndWorkers runs the injected config loader, builds the graph
// per §4.2, and derives the worker set.
func buildGraphAndWorkers(opts *options.Options, hooks Hooks) (*graph.Graph, []*worker.Worker, error) {
	if hooks.BuildConfig == nil {
		return nil, nil, errors.Errorf("cli: no BuildConfig hook configured; cannot load the restriction/candidate configuration")
	}

	cfg, err := hooks.BuildConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	g, err := graph.Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	var workers []*worker.Worker
	if hooks.Workers != nil {
		workers = hooks.Workers(g, opts)
	}

	return g, workers, nil
}

// wouldRunFresh approximates §3's default should_run derivation for list
// mode, without mutating any state: a node that produces no state at all
// always runs; a node whose every produced state is already present in the
// configured backend is skipped, mirroring §8's "running a graph whose
// cached states already satisfy every leaf runs zero executor invocations".
func wouldRunFresh(ctx context.Context, n *node.Node, hooks Hooks) bool {
	if hooks.Backend == nil {
		return true
	}

	produced := false

	for _, obj := range n.Objects {
		state := n.SetState(obj.Suffix)
		if state == "" || state == statesync.RootState {
			continue
		}

		produced = true

		ok, err := hooks.Backend.Check(ctx, string(obj.Kind), obj.Suffix, state, hooks.SharedPath)
		if err != nil || !ok {
			return true
		}
	}

	return !produced
}

func anyFailed(g *graph.Graph) bool {
	for _, n := range g.Nodes {
		for _, r := range n.Results {
			if r.Status.Failed() {
				return true
			}
		}
	}

	return false
}

func persistSetupList(opts *options.Options, g *graph.Graph) error {
	list := setuplist.New()

	for _, n := range g.Nodes {
		if len(n.Objects) == 0 || n == g.Root {
			continue
		}

		list.Set(n.ID(), len(n.Results) > 0, n.FinishedWorker() != "")
	}

	return persistSetupListValue(opts, list)
}

func persistSetupListValue(opts *options.Options, list *setuplist.List) error {
	if opts.SuitePath == "" {
		return nil
	}

	return list.WriteFile(opts.SuitePath + "/setup_list")
}
