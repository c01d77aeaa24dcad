package node

import (
	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/object"
)

// StateChecker is the subset of the State Sync / Pool collaborator the
// default should_run policy consults (§3 "default behaviour derives from
// state availability"): whether a named state for (kind, suffix) is already
// available at location. Scheduler wires this to the real statesync.Backend;
// left nil, the default policy treats every node's output as not yet
// produced (always runs, unless already finished this traversal).
type StateChecker interface {
	Check(kind, suffix, state, location string) bool
}

// EvalShouldRun evaluates the node's run policy for worker, falling back to
// the default derivation described in §3 when no explicit policy was set: a
// node should run unless it has already finished for this worker, or every
// state it would produce is already available at worker's own location (§8
// "running a graph whose cached states already satisfy every leaf runs zero
// executor invocations").
func (n *Node) EvalShouldRun(worker string) bool {
	if n.ShouldRun != nil {
		return n.ShouldRun(worker)
	}

	if n.IsDoneFor(worker) {
		return false
	}

	return !n.isAlreadySatisfied(worker)
}

// isAlreadySatisfied reports whether every state-producing component of n
// already has its output cached at worker. A node that produces no state
// at all (a pure action test with no set_state_*) is never considered
// satisfied this way and always runs.
func (n *Node) isAlreadySatisfied(worker string) bool {
	if n.Checker == nil {
		return false
	}

	produced := false

	for _, obj := range n.Objects {
		if obj.Kind != object.VM {
			continue
		}

		state := n.SetState(obj.Suffix)
		if state == "" {
			continue
		}

		produced = true

		if !n.Checker.Check(string(obj.Kind), obj.Suffix, state, worker) {
			return false
		}
	}

	return produced
}

// EvalShouldClean evaluates the node's cleanup policy for worker, falling
// back to the default: clean whenever at least one result was recorded.
func (n *Node) EvalShouldClean(worker string) bool {
	if n.ShouldClean != nil {
		return n.ShouldClean(worker)
	}

	return len(n.Results) > 0
}

// AddResult appends an execution record for worker's given attempt.
func (n *Node) AddResult(worker string, attempt int, status executor.Status, logDir string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Results = append(n.Results, Result{Worker: worker, Attempt: attempt, Status: status, LogDir: logDir})
}

// ShouldRetry reports whether, given the latest result's status, the retry
// policy calls for another attempt (§4.6 step 4, §8 boundary behaviours):
// at most RetryAttempts+1 total invocations, short-circuiting on RetryStop,
// and never retrying SKIP/INTERRUPTED/CANCEL.
func (n *Node) ShouldRetry(attempt int, status executor.Status) bool {
	if !status.Retryable() {
		return false
	}

	if n.RetryStop.matches(status) {
		return false
	}

	return attempt < n.RetryAttempts
}
