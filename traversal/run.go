package traversal

import (
	"context"
	"strconv"

	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/pkg/log"
	"github.com/cartgraph/cartgraph/statesync"
)

// visit runs n for ws.w, implementing §4.6: result reattachment, state
// location resolution, the should_run decision (including the terminal
// object-root workflow, §4.8), and the retry loop.
func (s *Scheduler) visit(ctx context.Context, ws *workerState, n *node.Node, logger *log.Logger) error {
	nodeLogger := log.WithNode(logger, n.ID())

	if !n.TryAcquire(ws.w.ID) {
		return errors.WithStackTrace(StuckOnOccupiedError{Worker: ws.w.ID, Node: n.ID()})
	}

	defer n.Release(ws.w.ID)

	s.ResultCache.Attach(n)

	if err := s.resolveLocations(ctx, n, ws); err != nil {
		return err
	}

	if err := s.checkPermanentRoots(n); err != nil {
		return err
	}

	if n.EvalShouldRun(ws.w.ID) {
		if err := s.runWithRetries(ctx, n, nodeLogger); err != nil {
			return err
		}
	} else {
		nodeLogger.Debug("skipping, already satisfied")
	}

	s.applyProducedStates(n)
	s.ResultCache.Record(n)

	n.MarkFinished(ws.w.ID)

	if n.AbortOnError {
		if last := lastResult(n); last != nil && last.Status.Failed() {
			s.abortDescendants(n, ws.w.ID)
		}
	}

	return nil
}

// backendChecker adapts statesync.Backend, which takes a context and can
// fail, to node.StateChecker, the synchronous check the default should_run
// policy consults (§3). A failed check is treated as "not available" rather
// than aborting the node's own should_run decision.
type backendChecker struct {
	backend statesync.Backend
	logger  *log.Logger
}

func (c *backendChecker) Check(kind, suffix, state, location string) bool {
	ok, err := c.backend.Check(context.Background(), kind, suffix, state, location)
	if err != nil {
		c.logger.WithField("object", suffix).Warn("state availability check failed: " + err.Error())

		return false
	}

	return ok
}

// resolveLocations is §4.6 step 2.
func (s *Scheduler) resolveLocations(ctx context.Context, n *node.Node, ws *workerState) error {
	if s.StatePool == nil {
		return nil
	}

	for _, obj := range n.Objects {
		if obj.Kind != object.VM {
			continue
		}

		state := n.GetState(obj.Suffix)
		if state == "" {
			continue
		}

		var peers []statesync.Location

		for _, p := range ws.w.Peers() {
			peers = append(peers, statesync.Location{Worker: p.ID, Path: p.ID})
		}

		loc, err := s.StatePool.Resolve(ctx, string(obj.Kind), obj.Suffix, state, ws.w.ID, ws.w.ID, peers)
		if err != nil {
			// A state no location reports yet (typically one a parent
			// just produced on this worker) leaves get_location unset.
			var notAvailable statesync.NotAvailableError
			if errors.As(err, &notAvailable) {
				continue
			}

			return err
		}

		n.Params["get_location_"+obj.Suffix] = loc.String()
	}

	return nil
}

// checkPermanentRoots is §4.8's guard.
func (s *Scheduler) checkPermanentRoots(n *node.Node) error {
	for _, obj := range n.Objects {
		if obj.Kind != object.VM || !obj.Permanent {
			continue
		}

		if !n.IsObjectRootFor(obj.Suffix) {
			continue
		}

		if n.Params["create_permanent_vm"] != "yes" {
			return errors.WithStackTrace(PermanentRootMisconfiguredError{Suffix: obj.Suffix, Node: n.ID()})
		}
	}

	return nil
}

// runWithRetries is §4.6 step 4: up to RetryAttempts+1 invocations,
// short-circuiting on RetryStop.
func (s *Scheduler) runWithRetries(ctx context.Context, n *node.Node, logger *log.Logger) error {
	for attempt := 0; ; attempt++ {
		params := n.Params.Clone()
		params["_uid"] = n.RunID + "#" + strconv.Itoa(attempt)

		status, logDir, err := s.Executor.Run(ctx, params)
		if err != nil {
			return err
		}

		logger.WithField("attempt", attempt).WithField("status", status).Info("ran node")

		n.AddResult("", attempt, status, logDir)

		if !n.ShouldRetry(attempt, status) {
			return nil
		}
	}
}

// applyProducedStates is §4.6 step 5: set_state wins over get_state.
func (s *Scheduler) applyProducedStates(n *node.Node) {
	for _, obj := range n.Objects {
		if obj.Kind != object.VM {
			continue
		}

		if set := n.SetState(obj.Suffix); set != "" {
			obj.Params = obj.Params.Clone()
			obj.Params["current_state"] = set
		} else if get := n.GetState(obj.Suffix); get != "" {
			obj.Params = obj.Params.Clone()
			obj.Params["current_state"] = get
		}
	}
}

func lastResult(n *node.Node) *node.Result {
	if len(n.Results) == 0 {
		return nil
	}

	return &n.Results[len(n.Results)-1]
}

// abortDescendants raises Skip upstream through every unvisited descendant
// of n for worker, per §7's abort_on_error propagation.
func (s *Scheduler) abortDescendants(n *node.Node, worker string) {
	queue := n.Children()
	visited := map[*node.Node]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if visited[cur] {
			continue
		}

		visited[cur] = true

		if cur.EvalShouldRun(worker) {
			cur.AddResult(worker, 0, executor.Skip, "")
		}

		cur.MarkFinished(worker)
		queue = append(queue, cur.Children()...)
	}
}

// cleanup is §4.7: reversing a node once all of its children are consumed
// for worker. Cleanup never fails traversal; it reports and proceeds.
func (s *Scheduler) cleanup(ctx context.Context, ws *workerState, n *node.Node, logger *log.Logger) {
	nodeLogger := log.WithNode(logger, n.ID())

	if !n.EvalShouldClean(ws.w.ID) {
		return
	}

	if s.StatePool == nil {
		return
	}

	for _, obj := range n.Objects {
		if obj.Kind != object.VM {
			continue
		}

		set := n.SetState(obj.Suffix)
		if set == "" {
			continue
		}

		mode := statesync.Mode(n.Params["unset_mode"])
		if mode.Forced() {
			if err := s.StatePool.Backend.Unset(ctx, string(obj.Kind), obj.Suffix, set, ws.w.ID, mode); err != nil {
				nodeLogger.WithField("object", obj.Suffix).Warn("cleanup unset failed: " + err.Error())
			}

			continue
		}

		if err := s.StatePool.SyncToPool(ctx, string(obj.Kind), obj.Suffix, set, ws.w.ID); err != nil {
			nodeLogger.WithField("object", obj.Suffix).Warn("cleanup sync-to-pool failed: " + err.Error())
		}
	}
}
