package node

// TryAcquire attempts to set started_worker to worker, the single-slot
// occupancy lock (§5): it never blocks. It returns false if another worker
// already occupies the node; a worker that already owns it may re-acquire
// (retry loops call traverse again without releasing in between).
func (n *Node) TryAcquire(worker string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.startedWorker != "" && n.startedWorker != worker {
		return false
	}

	n.startedWorker = worker

	return true
}

// Release clears the occupancy lock and records the finishing worker
// (§4.6 step 6: finished_worker <- W; started_worker <- nil).
func (n *Node) Release(worker string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.startedWorker = ""
	n.finishedWorker = worker
}

// OccupiedBy returns the worker currently holding n's occupancy lock, or ""
// if free.
func (n *Node) OccupiedBy() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.startedWorker
}

// MarkFinished records that worker considers n done and propagates that
// fact to every bridged peer, so peer workers observe the completion
// without an explicit broadcast (§5 "Bridged propagation").
func (n *Node) MarkFinished(worker string) {
	n.markFinishedLocal(worker)

	for _, peer := range n.BridgedNodes {
		peer.markFinishedLocal(worker)
	}
}

func (n *Node) markFinishedLocal(worker string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sharedFinishedWorkers[worker] = struct{}{}
}

// IsDoneFor reports whether n is considered finished for worker, either
// because worker ran it directly or because a bridged peer did.
func (n *Node) IsDoneFor(worker string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.finishedWorker == worker {
		return true
	}

	_, ok := n.sharedFinishedWorkers[worker]

	return ok
}

// MarkIncompatible records that n's net requirements could not be satisfied
// for worker (§4.2 step 2, §7 IncompatibleRestriction recovery).
func (n *Node) MarkIncompatible(worker string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.incompatibleWorkers[worker] = struct{}{}
}

// IsIncompatible reports whether worker was recorded as incompatible with n.
func (n *Node) IsIncompatible(worker string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, ok := n.incompatibleWorkers[worker]

	return ok
}

// FinishedWorker returns the last worker recorded as having run n directly
// (not via bridging), or "" if none has.
func (n *Node) FinishedWorker() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.finishedWorker
}
