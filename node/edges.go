package node

import "github.com/cartgraph/cartgraph/object"

// AddSetupEdge records that child depends on parent because of obj,
// maintaining invariant 2 (B in A.setup_nodes iff A in B.cleanup_nodes).
// An edge already induced by a different object simply gains obj to its
// list; the same (parent, obj) pair is not duplicated.
func AddSetupEdge(parent, child *Node, obj *object.Object) {
	child.mu.Lock()
	child.setupNodes[parent] = appendUnique(child.setupNodes[parent], obj)
	child.mu.Unlock()

	parent.mu.Lock()
	parent.cleanupNodes[child] = appendUnique(parent.cleanupNodes[child], obj)
	parent.mu.Unlock()
}

// Parents returns the current parent set (a defensive copy).
func (n *Node) Parents() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, 0, len(n.setupNodes))
	for p := range n.setupNodes {
		out = append(out, p)
	}

	return out
}

// Children returns the current child set (a defensive copy).
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, 0, len(n.cleanupNodes))
	for c := range n.cleanupNodes {
		out = append(out, c)
	}

	return out
}

// ObjectsFor returns the objects that induced the edge to/from peer, or nil
// if peer is not a parent or child of n.
func (n *Node) ObjectsFor(peer *Node) []*object.Object {
	n.mu.Lock()
	defer n.mu.Unlock()

	if objs, ok := n.setupNodes[peer]; ok {
		return objs
	}

	return n.cleanupNodes[peer]
}

// ensureWorkerEdges lazily snapshots the current parent/child sets into the
// per-worker remaining sets the first time worker touches this node
// (§4.4: "per-worker edge consumption").
func (n *Node) ensureWorkerEdges(worker string) *workerEdgeState {
	n.mu.Lock()
	defer n.mu.Unlock()

	if st, ok := n.workerEdges[worker]; ok {
		return st
	}

	st := &workerEdgeState{
		remainingParents:  map[*Node]bool{},
		remainingChildren: map[*Node]bool{},
	}

	for p := range n.setupNodes {
		st.remainingParents[p] = true
	}

	for c := range n.cleanupNodes {
		st.remainingChildren[c] = true
	}

	n.workerEdges[worker] = st

	return st
}

// RemainingParents returns the parents worker has not yet visited.
func (n *Node) RemainingParents(worker string) []*Node {
	st := n.ensureWorkerEdges(worker)

	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, 0, len(st.remainingParents))
	for p, remaining := range st.remainingParents {
		if remaining {
			out = append(out, p)
		}
	}

	return out
}

// RemainingChildren returns the children worker has not yet visited.
func (n *Node) RemainingChildren(worker string) []*Node {
	st := n.ensureWorkerEdges(worker)

	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Node, 0, len(st.remainingChildren))
	for c, remaining := range st.remainingChildren {
		if remaining {
			out = append(out, c)
		}
	}

	return out
}

// IsSetupReady reports that worker has no remaining unvisited parents
// (§4.4 step 5).
func (n *Node) IsSetupReady(worker string) bool {
	return len(n.RemainingParents(worker)) == 0
}

// IsCleanupReady reports that worker has no remaining unvisited children
// (§4.4 step 6).
func (n *Node) IsCleanupReady(worker string) bool {
	return len(n.RemainingChildren(worker)) == 0
}

// DropParent removes parent from n's remaining-parent set for worker only,
// and replicates the removal to every node bridged to n so that peer
// workers observe the same completion without an explicit broadcast
// (§4.4, §5 "Bridged propagation").
func (n *Node) DropParent(worker string, parent *Node) {
	n.dropParentLocal(worker, parent)

	for _, peer := range n.BridgedNodes {
		if equiv := peer.bridgedParentOf(parent); equiv != nil {
			peer.dropParentLocal(worker, equiv)
		}
	}
}

// DropChild removes child from n's remaining-child set for worker only,
// with the same bridged replication as DropParent.
func (n *Node) DropChild(worker string, child *Node) {
	n.dropChildLocal(worker, child)

	for _, peer := range n.BridgedNodes {
		if equiv := peer.bridgedChildOf(child); equiv != nil {
			peer.dropChildLocal(worker, equiv)
		}
	}
}

func (n *Node) dropParentLocal(worker string, parent *Node) {
	st := n.ensureWorkerEdges(worker)

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := st.remainingParents[parent]; ok {
		st.remainingParents[parent] = false
	}
}

func (n *Node) dropChildLocal(worker string, child *Node) {
	st := n.ensureWorkerEdges(worker)

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := st.remainingChildren[child]; ok {
		st.remainingChildren[child] = false
	}
}

// bridgedParentOf finds, among n's own parents, the one that is bridged to
// (or identical to) target, used to replicate an edge-drop across a bridge.
func (n *Node) bridgedParentOf(target *Node) *Node {
	for _, p := range n.Parents() {
		if p == target || isBridgedTo(p, target) {
			return p
		}
	}

	return nil
}

func (n *Node) bridgedChildOf(target *Node) *Node {
	for _, c := range n.Children() {
		if c == target || isBridgedTo(c, target) {
			return c
		}
	}

	return nil
}

func isBridgedTo(a, b *Node) bool {
	for _, peer := range a.BridgedNodes {
		if peer == b {
			return true
		}
	}

	return false
}

// Bridge establishes a symmetric equivalence link between a and b (§4.2
// step 6).
func Bridge(a, b *Node) {
	if a == b {
		return
	}

	a.BridgedNodes = appendUniqueNode(a.BridgedNodes, b)
	b.BridgedNodes = appendUniqueNode(b.BridgedNodes, a)
}

func appendUnique(objs []*object.Object, obj *object.Object) []*object.Object {
	for _, o := range objs {
		if o == obj {
			return objs
		}
	}

	return append(objs, obj)
}

func appendUniqueNode(nodes []*Node, n *Node) []*Node {
	for _, existing := range nodes {
		if existing == n {
			return nodes
		}
	}

	return append(nodes, n)
}
