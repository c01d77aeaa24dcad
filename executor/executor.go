// Package executor defines the Test Executor collaborator interface (§6):
// an external component, opaque to the core, that runs a single parameter
// dictionary and reports a status.
package executor

import "context"

// Status is one of the outcomes §6 enumerates.
type Status string

const (
	Pass        Status = "PASS"
	Warn        Status = "WARN"
	Fail        Status = "FAIL"
	Error       Status = "ERROR"
	Skip        Status = "SKIP"
	Interrupted Status = "INTERRUPTED"
	Cancel      Status = "CANCEL"
)

// Retryable reports whether a status is eligible for retry (§4.6 step 4):
// SKIP, INTERRUPTED, and CANCEL are never retried.
func (s Status) Retryable() bool {
	switch s {
	case Skip, Interrupted, Cancel:
		return false
	default:
		return true
	}
}

// Failed reports whether s represents a test-level failure that feeds the
// retry policy and downstream should_run decisions, without aborting the
// job (§7).
func (s Status) Failed() bool {
	return s == Fail || s == Error
}

// Invocation is one execution attempt of a node.
type Invocation struct {
	UID     string
	Status  Status
	LogDir  string
	Attempt int
}

// Executor runs a resolved parameter dictionary and returns a status plus a
// log directory path. Implementations must be safe to invoke concurrently
// across distinct workers (§6).
type Executor interface {
	Run(ctx context.Context, params map[string]string) (Status, string, error)
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, params map[string]string) (Status, string, error)

func (f Func) Run(ctx context.Context, params map[string]string) (Status, string, error) {
	return f(ctx, params)
}
