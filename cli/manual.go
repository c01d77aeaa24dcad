// Manual tools (§6 CLI surface): single-object operations that bypass
// graph construction and traversal entirely, operating directly against
// the State Backend / State Sync collaborators and the executor hook.
// Grounded on the teacher's cli/commands package, one *cli.Command per
// verb, each a thin Action closing over Options and Hooks.
package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/options"
	"github.com/cartgraph/cartgraph/setuplist"
	"github.com/cartgraph/cartgraph/statesync"
)

// toolFunc is one manual tool's handler.
type toolFunc func(c *cli.Context, opts *options.Options, hooks Hooks) error

func manualCommand(name string, opts *options.Options, hooks Hooks, fn toolFunc) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: manualUsage[name],
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Value: "vm", Usage: "object kind: image, vm, or net"},
			&cli.StringFlag{Name: "mode", Value: "ff", Usage: "two-char check/set/unset mode from {r,a,i,f}^2"},
			&cli.StringFlag{Name: "location", Usage: "state location; defaults to the shared pool path"},
		},
		Action: func(c *cli.Context) error {
			return fn(c, opts, hooks)
		},
	}
}

var manualUsage = map[string]string{
	"update":   "re-resolve and persist an object's parameter dictionary",
	"boot":     "boot a VM object via the transport, outside the graph",
	"shutdown": "shut down a VM object via the transport",
	"download": "download a file from a VM object",
	"upload":   "upload a file to a VM object",
	"get":      "fetch a named state for an object from its location",
	"set":      "mark a named state as present for an object at its location",
	"unset":    "remove a named state for an object at its location",
	"check":    "report whether a named state exists for an object at its location",
	"pop":      "fetch a state from the shared pool into the local location",
	"push":     "push a locally-produced state into the shared pool",
	"create":   "run the terminal object-root create/install workflow for a VM",
	"clean":    "force-unset a state, mirroring forced node cleanup (§4.7)",
	"collect":  "print the persisted setup_list for the current suite path",
	"noop":     "run the no-op preamble test that anchors an object root",
}

func requireArgs(c *cli.Context, n int, usage string) ([]string, error) {
	args := c.Args().Slice()
	if len(args) < n {
		return nil, errors.Errorf("usage: %s %s", c.Command.Name, usage)
	}

	return args, nil
}

func location(c *cli.Context, fallback string) string {
	if loc := c.String("location"); loc != "" {
		return loc
	}

	return fallback
}

func toolCheck(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	ok, err := hooks.Backend.Check(c.Context, c.String("kind"), args[0], args[1], location(c, hooks.SharedPath))
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Writer, "%t\n", ok) //nolint:errcheck

	return nil
}

func toolGet(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	return hooks.Backend.Get(c.Context, c.String("kind"), args[0], args[1], location(c, hooks.SharedPath), statesync.Mode(c.String("mode")))
}

func toolSet(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	return hooks.Backend.Set(c.Context, c.String("kind"), args[0], args[1], location(c, hooks.SharedPath), statesync.Mode(c.String("mode")))
}

func toolUnset(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	return hooks.Backend.Unset(c.Context, c.String("kind"), args[0], args[1], location(c, hooks.SharedPath), statesync.Mode(c.String("mode")))
}

func toolClean(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	return hooks.Backend.Unset(c.Context, c.String("kind"), args[0], args[1], location(c, hooks.SharedPath), statesync.ModeForceBoth)
}

func toolPush(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	pool := statesync.NewPool(hooks.Backend, hooks.SharedPath)

	return pool.SyncToPool(c.Context, c.String("kind"), args[0], args[1], location(c, opts.WorkingDir))
}

func toolPop(c *cli.Context, opts *options.Options, hooks Hooks) error {
	args, err := requireArgs(c, 2, "<suffix> <state>")
	if err != nil {
		return err
	}

	if hooks.Backend == nil {
		return errors.Errorf("no state backend configured")
	}

	return hooks.Backend.Get(c.Context, c.String("kind"), args[0], args[1], hooks.SharedPath, statesync.ModeForceIfMissing)
}

// toolUpdate, toolBoot, toolShutdown, toolDownload, toolUpload, toolCreate,
// and toolNoop have no distinct core logic: they are transport-level or
// terminal-workflow operations (§1 "the transport", §4.8) that the executor
// hook is the sole collaborator for, so they pass a synthetic parameter
// dictionary through opts.RunTest exactly as the scheduler's §4.6 step 3
// would for an object-root node.
func invokeExecutorTool(c *cli.Context, opts *options.Options, testType string, extra map[string]string) error {
	args := c.Args().Slice()

	params := map[string]string{"type": testType, "_uid": testType}
	if len(args) > 0 {
		params["vms"] = args[0]
	}

	for k, v := range extra {
		params[k] = v
	}

	status, _, err := opts.RunTest(c.Context, params)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Writer, "%s\n", status) //nolint:errcheck

	return nil
}

func toolUpdate(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "update", nil)
}

func toolBoot(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "boot", nil)
}

func toolShutdown(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "shutdown", nil)
}

func toolDownload(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "download", nil)
}

func toolUpload(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "upload", nil)
}

func toolCreate(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "create", map[string]string{"create_permanent_vm": "yes"})
}

func toolNoop(c *cli.Context, opts *options.Options, _ Hooks) error {
	return invokeExecutorTool(c, opts, "noop", nil)
}

func toolCollect(c *cli.Context, opts *options.Options, _ Hooks) error {
	if opts.SuitePath == "" {
		return errors.Errorf("no suite path configured; nothing to collect")
	}

	list, err := loadSetupListForCollect(opts)
	if err != nil {
		return err
	}

	for _, e := range list {
		fmt.Fprintf(opts.Writer, "%s run=%t clean=%t\n", e.Prefix, e.ShouldRun, e.ShouldClean) //nolint:errcheck
	}

	return nil
}

func loadSetupListForCollect(opts *options.Options) ([]setuplist.Entry, error) {
	list, err := setuplist.ReadFile(opts.SuitePath + "/setup_list")
	if err != nil {
		return nil, err
	}

	return list.Entries(), nil
}
