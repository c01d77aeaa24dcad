package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/cartgraph/cartgraph/options"
)

// commands builds the full §6 CLI surface: run, list, plus the manual
// single-node tools.
func commands(opts *options.Options, hooks Hooks) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run",
			Usage: "build the dependency graph and traverse it across a pool of workers",
			Action: func(c *cli.Context) error {
				return runAction(c, opts, hooks)
			},
		},
		{
			Name:  "list",
			Usage: "build the dependency graph and print every node that would run, without executing anything",
			Action: func(c *cli.Context) error {
				return listAction(c, opts, hooks)
			},
		},
		manualCommand("update", opts, hooks, toolUpdate),
		manualCommand("boot", opts, hooks, toolBoot),
		manualCommand("shutdown", opts, hooks, toolShutdown),
		manualCommand("download", opts, hooks, toolDownload),
		manualCommand("upload", opts, hooks, toolUpload),
		manualCommand("get", opts, hooks, toolGet),
		manualCommand("set", opts, hooks, toolSet),
		manualCommand("unset", opts, hooks, toolUnset),
		manualCommand("check", opts, hooks, toolCheck),
		manualCommand("pop", opts, hooks, toolPop),
		manualCommand("push", opts, hooks, toolPush),
		manualCommand("create", opts, hooks, toolCreate),
		manualCommand("clean", opts, hooks, toolClean),
		manualCommand("collect", opts, hooks, toolCollect),
		manualCommand("noop", opts, hooks, toolNoop),
	}
}
