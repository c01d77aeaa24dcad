// Package cli assembles the CLI surface §6 specifies: the urfave/cli/v2
// App, its global flags (--auto, repeated key=value overlay params), the
// run/list graph-mode commands, and the manual single-node tools (update,
// boot, shutdown, download, upload, get, set, unset, check, pop, push,
// create, clean, collect, noop). Grounded on the teacher's cli/app.go
// (App wrapping *cli.App, NewApp building commands off Options,
// ExitErrHandler translating errors into the documented exit codes).
package cli

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/options"
	"github.com/cartgraph/cartgraph/statesync"
	"github.com/cartgraph/cartgraph/worker"
)

// AppName is the binary name reported in --version/--help output.
const AppName = "cartgraph"

// Exit codes per §6: 0 all tests OK; 1 one or more tests failed; 2
// configuration error.
const (
	ExitOK          = 0
	ExitTestsFailed = 1
	ExitConfigError = 2
)

// Hooks plugs the out-of-scope collaborators (§1: "the Cartesian
// configuration parser"; "CLI and configuration loading") into the CLI
// surface this package implements. A caller (the real binary, or a test)
// supplies concrete loaders; cartgraph's core never reads a test
// repository or a config file format directly.
type Hooks struct {
	// BuildConfig loads the restriction/candidate/worker inputs
	// graph.Build needs from whatever test-repository format the
	// deployment uses. This is the boundary to the out-of-scope
	// Restriction/Config Adapter collaborator.
	BuildConfig func(opts *options.Options) (graph.Config, error)

	// Workers derives the worker set (one per net object the built graph
	// bound leaves to) that traversal should run with.
	Workers func(g *graph.Graph, opts *options.Options) []*worker.Worker

	// Backend is the State Backend collaborator (§6) the manual tools and
	// the state-sync pool talk to.
	Backend statesync.Backend

	// SharedPath is the shared pool location manual tools and traversal
	// cleanup sync states to.
	SharedPath string
}

// App wraps the urfave/cli/v2 App with the Options and Hooks every command
// action closes over.
type App struct {
	*cli.App
}

// NewApp builds the cartgraph CLI App bound to opts and hooks.
func NewApp(opts *options.Options, hooks Hooks) *App {
	app := &cli.App{
		Name:                 AppName,
		Usage:                "a test orchestrator that derives and traverses a dependency graph of matrix tests over pooled VM states",
		Flags:                globalFlags(),
		Commands:             commands(opts, hooks),
		ExitErrHandler:       exitErrHandler,
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			applyGlobalFlags(c, opts)

			return nil
		},
	}

	return &App{app}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "auto",
			Usage: "run or list in graph mode (build the full dependency graph instead of a single ad-hoc node)",
		},
		&cli.StringSliceFlag{
			Name:  "param",
			Usage: "repeated key=value parameter overlay applied on top of the restriction's own dictionaries",
		},
		&cli.BoolFlag{
			Name:  "non-interactive",
			Usage: "suppress any prompt manual tools might otherwise issue",
		},
	}
}

func applyGlobalFlags(c *cli.Context, opts *options.Options) {
	opts.Auto = c.Bool("auto")
	opts.NonInteractive = c.Bool("non-interactive")

	for _, kv := range c.StringSlice("param") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		if opts.Params == nil {
			opts.Params = map[string]string{}
		}

		opts.Params[k] = v
	}
}

// exitErrHandler translates a command error into the documented process
// exit code (§6): the configuration errors isConfigError recognises exit 2,
// everything else that reaches here exits 1. A command that ran
// tests and observed failures is expected to call cli.Exit itself with
// ExitTestsFailed so those never reach this handler as a Go error.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	if isConfigError(err) {
		cli.HandleExitCoder(cli.Exit(err.Error(), ExitConfigError))

		return
	}

	cli.HandleExitCoder(cli.Exit(err.Error(), ExitTestsFailed))
}
