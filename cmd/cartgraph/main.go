// Command cartgraph is the CLI entry point (§6): it loads Options from the
// environment, wires the out-of-scope collaborators (config loader, state
// backend) through cli.Hooks, and runs the urfave/cli/v2 App, translating
// any resulting error into the documented process exit code.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cartgraph/cartgraph/cli"
	"github.com/cartgraph/cartgraph/options"
	"github.com/cartgraph/cartgraph/statesync"
)

func main() {
	opts, err := options.NewOptions("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitConfigError)
	}

	if opts.RunTest == nil {
		opts.RunTest = func(_ context.Context, params map[string]string) (string, string, error) {
			return "", "", fmt.Errorf("no test executor configured for %q; cartgraph's core leaves this to the deployment", params["name"])
		}
	}

	hooks := cli.Hooks{
		Backend:    statesync.NewInMemoryBackend(),
		SharedPath: opts.SuitePath,
	}

	app := cli.NewApp(opts, hooks)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(opts.ErrWriter, err)
		os.Exit(cli.ExitTestsFailed)
	}
}
