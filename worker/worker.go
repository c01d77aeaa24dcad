// Package worker implements the Worker & Swarm component (§2, §4.4, §5): a
// worker is an execution environment bound to a net object that drives one
// traversal loop; swarms group workers that share locality or a pool
// location. It also provides the bounded-concurrency task pool the
// traversal scheduler runs workers on, grounded on the teacher's
// internal/worker.WorkerPool.
package worker

import "github.com/cartgraph/cartgraph/object"

// Transport launches work on a worker: a local process, a container, or a
// remote shell (§1 external collaborators). cartgraph's core never speaks
// to a transport directly; the executor does.
type Transport interface {
	Name() string
}

// LocalTransport runs the executor in-process, the default for tests and
// single-machine runs.
type LocalTransport struct{}

func (LocalTransport) Name() string { return "local" }

// Worker is an execution environment: a net object, a transport, and an
// identity string workers use to tag node occupancy and results.
type Worker struct {
	ID        string
	Net       *object.Object
	Transport Transport
	Swarm     *Swarm
}

// New builds a Worker bound to net, identified by id.
func New(id string, net *object.Object, transport Transport) *Worker {
	if transport == nil {
		transport = LocalTransport{}
	}

	return &Worker{ID: id, Net: net, Transport: transport}
}

// Peers returns the other members of w's swarm, or nil if w is unswarmed.
func (w *Worker) Peers() []*Worker {
	if w.Swarm == nil {
		return nil
	}

	return w.Swarm.Others(w)
}
