// Package options carries the configuration a cartgraph run is threaded
// through, the same way github.com/gruntwork-io/terragrunt's options.Options
// threads a single value through every command and module. Components never
// read the environment or global flags directly; they read this struct.
package options

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gruntwork-io/go-commons/env"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/pkg/log"
)

// RunTestFunc is the dependency-injected hook to the external test executor
// (§6 Test Executor). Components never invoke the executor directly; they
// call opts.RunTest so tests can stub it, mirroring RunTerragrunt in the
// teacher's options.TerragruntOptions.
type RunTestFunc func(ctx context.Context, params map[string]string) (status string, logDir string, err error)

// Options is the configuration passed down into every component: the
// restriction adapter, the graph builder, each worker's traversal loop, and
// the state-sync layer.
type Options struct {
	// SuitePath points at the configs/controls directories (SUITE_PATH).
	SuitePath string

	// Prefix contributes to the host identifier used to namespace state
	// locations (PREFIX env var, plus a per-worker ordinal suffix).
	Prefix string

	// SSHKeyPath is optional; empty means "use the ambient agent" (SSHKEY).
	SSHKeyPath string

	// WorkingDir is the directory graph construction and the state backend
	// resolve relative paths against.
	WorkingDir string

	// Slots holds the space-separated net-suffix identifiers of the
	// workers. No package reads it; the cli package takes its worker set
	// from cli.Hooks.Workers.
	Slots string

	// Params is the repeated key=value overlay applied on top of whatever
	// the restriction adapter produces.
	Params map[string]string

	// Auto selects graph-mode execution for run/list (--auto).
	Auto bool

	// NonInteractive suppresses any prompt manual tools might otherwise issue.
	NonInteractive bool

	// Deadline bounds the whole job; zero means no deadline.
	Deadline time.Duration

	// TestTimeout is the per-node timeout used to derive the occupancy
	// back-off interval and the StuckOnOccupied threshold (§4.4 step 3).
	TestTimeout time.Duration

	// RetryAttempts and RetryStop hold a retry policy (§4.6 step 4). No
	// package reads them; each node's retry policy is its own
	// node.Node.RetryAttempts/RetryStop.
	RetryAttempts int
	RetryStop     string

	Logger    *log.Logger
	Writer    io.Writer
	ErrWriter io.Writer

	// RunTest is the executor hook; nil until wired by the CLI or a test.
	RunTest RunTestFunc
}

// NewOptions builds Options from the process environment the way the
// teacher's options.NewTerragruntOptions reads PREFIX/SSHKEY/SUITE_PATH.
func NewOptions(workingDir string) (*Options, error) {
	wd := workingDir
	if wd == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}

		wd = dir
	}

	vars := env.Parse(os.Environ())

	opts := &Options{
		SuitePath:     firstNonEmpty(vars["SUITE_PATH"], wd),
		Prefix:        vars["PREFIX"],
		SSHKeyPath:    vars["SSHKEY"],
		WorkingDir:    wd,
		Params:        map[string]string{},
		TestTimeout:   10 * time.Minute,
		RetryAttempts: 0,
		RetryStop:     "none",
		Logger:        log.New(),
		Writer:        os.Stdout,
		ErrWriter:     os.Stderr,
	}

	return opts, nil
}

// NewOptionsForTest builds a minimal Options suitable for unit tests,
// mirroring options.NewTerragruntOptionsForTest: the default logger, output
// writers that discard, no environment dependence, and a RunTest stub that
// always returns PASS.
func NewOptionsForTest(workingDir string) *Options {
	return &Options{
		SuitePath:     workingDir,
		WorkingDir:    workingDir,
		Params:        map[string]string{},
		TestTimeout:   time.Second,
		RetryAttempts: 0,
		RetryStop:     "none",
		Logger:        log.New(),
		Writer:        io.Discard,
		ErrWriter:     io.Discard,
		RunTest: func(_ context.Context, _ map[string]string) (string, string, error) {
			return "PASS", "", nil
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}

// Clone returns a shallow copy of opts with a fresh Params map, used to give
// each worker (§2 Worker & Swarm) its own Options carrying a distinct Prefix.
func (opts *Options) Clone(workerPrefix string) *Options {
	clone := *opts
	clone.Prefix = workerPrefix
	clone.Params = make(map[string]string, len(opts.Params))

	for k, v := range opts.Params {
		clone.Params[k] = v
	}

	return &clone
}
