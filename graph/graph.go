// Package graph implements the Graph Builder (§4.2): it expands a top-level
// restriction into flat leaf nodes, binds each leaf to every compatible
// worker net, resolves parent dependencies by required state, clones
// branches on fan-in, introduces the shared root, and bridges equivalent
// nodes across workers. It is grounded on the teacher's configstack/
// runnerpool dependency-resolution lineage, generalized from a single
// Terraform module graph to an object-state dependency graph.
package graph

import (
	"sort"

	"github.com/gruntwork-io/go-commons/collections"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/cartgraph/cartgraph/statesync"
)

// rootSuffix names the synthetic object used purely to bookkeep the shared
// root's setup edges (invariant 3).
const rootSuffix = "__root__"

// Config is the input to Build: a top restriction, the pool of candidate
// test dictionaries it is evaluated against, and one net object per worker
// with its vm components already resolved by the object package.
type Config struct {
	TopRestriction string
	Candidates     []restriction.Candidate
	Workers        []*object.Object
	Overlay        restriction.Dict
	Adapter        restriction.Adapter
}

// Graph is the output of Build: every node it built, plus the leaves the
// graph was expanded from. Nodes also holds the flat (object-less) leaf and
// candidate-pool nodes, which are not reachable from Root; ByID indexes only
// the nodes bound to objects.
type Graph struct {
	Root   *node.Node
	Nodes  []*node.Node
	Leaves []*node.Node

	byID map[string]*node.Node
}

// ByID looks up a node by its graph-unique ID (§4.3).
func (g *Graph) ByID(id string) *node.Node {
	return g.byID[id]
}

// Build runs the full construction algorithm (§4.2 steps 1-6) and returns
// the resulting graph.
func Build(cfg Config) (*Graph, error) {
	b := newBuilder(cfg)

	if err := b.parseLeaves(); err != nil {
		return nil, err
	}

	for _, worker := range cfg.Workers {
		b.bindLeavesToWorker(worker)
	}

	for _, worker := range cfg.Workers {
		if err := b.closeWorker(worker); err != nil {
			return nil, err
		}
	}

	b.attachRoot()
	b.bridgeAcrossWorkers()
	b.prune()
	b.index()

	return b.graph, nil
}

type builder struct {
	cfg    Config
	prefix *node.PrefixAllocator
	graph  *Graph

	// bound[workerSuffix][leaf] caches the composite node already built for
	// a given (leaf, worker) pair, so repeated dependency resolution never
	// builds the same parent twice.
	bound map[string]map[*node.Node]*node.Node

	superseded map[*node.Node]bool

	// preambles[workerSuffix][objectSuffix] caches the synthetic noop
	// preparation node built ahead of an object root (§4.8, SPEC_FULL §4
	// item 6), so two object-root variants for the same (worker, object)
	// share one preamble instead of each getting their own.
	preambles map[string]map[string]*node.Node

	// pool holds one node per candidate test definition, independent of the
	// top restriction: dependency resolution (§4.2 step 3) searches the
	// whole test repository for a matching parent, not just the entry
	// points the top restriction selected.
	pool []*node.Node
}

func newBuilder(cfg Config) *builder {
	if cfg.Adapter == nil {
		cfg.Adapter = restriction.NewLineAdapter()
	}

	return &builder{
		cfg:        cfg,
		prefix:     node.NewPrefixAllocator(),
		graph:      &Graph{},
		bound:      map[string]map[*node.Node]*node.Node{},
		superseded: map[*node.Node]bool{},
		preambles:  map[string]map[string]*node.Node{},
	}
}

// parseLeaves is §4.2 step 1. It also materializes the full candidate pool
// (independent of the top restriction) that dependency resolution searches.
func (b *builder) parseLeaves() error {
	dicts, err := b.cfg.Adapter.Parse(b.cfg.TopRestriction, b.cfg.Candidates, b.cfg.Overlay)
	if err != nil {
		return err
	}

	for _, d := range dicts {
		leaf := node.New(b.prefix.NextLeaf(), nil, d)
		b.graph.Nodes = append(b.graph.Nodes, leaf)
		b.graph.Leaves = append(b.graph.Leaves, leaf)
	}

	for _, c := range b.cfg.Candidates {
		d := c.Dict.Clone()
		for k, v := range b.cfg.Overlay {
			d[k] = v
		}

		n := node.New(b.prefix.NextLeaf(), nil, d)
		b.graph.Nodes = append(b.graph.Nodes, n)
		b.pool = append(b.pool, n)
	}

	return nil
}

// bindLeavesToWorker is §4.2 step 2.
func (b *builder) bindLeavesToWorker(worker *object.Object) {
	for _, leaf := range b.graph.Leaves {
		b.bindOne(leaf, worker)
	}
}

func (b *builder) bindOne(leaf *node.Node, worker *object.Object) *node.Node {
	if m, ok := b.bound[worker.Suffix]; ok {
		if existing, ok := m[leaf]; ok {
			return existing
		}
	} else {
		b.bound[worker.Suffix] = map[*node.Node]*node.Node{}
	}

	required := object.VMSuffixes(leaf.Params)

	available := make(map[string]*object.Object, len(worker.Components))
	for _, vm := range worker.Components {
		available[vm.Suffix] = vm
	}

	for _, suffix := range required {
		if _, ok := available[suffix]; !ok {
			leaf.MarkIncompatible(worker.Suffix)

			return nil
		}
	}

	objs := []*object.Object{worker}

	for _, suffix := range required {
		vm := available[suffix]
		objs = append(objs, vm)
		objs = append(objs, vm.Components...)
	}

	comp := node.New(leaf.Prefix+"."+worker.Suffix, objs, leaf.Params.Clone())
	b.graph.Nodes = append(b.graph.Nodes, comp)
	b.bound[worker.Suffix][leaf] = comp

	return comp
}

// closeWorker is §4.2 steps 3-4 for a single worker: repeatedly resolve
// get_state_<suffix> dependencies, cloning on fan-in.
func (b *builder) closeWorker(worker *object.Object) error {
	processed := map[*node.Node]map[string]bool{}

	var queue []*node.Node

	for _, comp := range b.bound[worker.Suffix] {
		queue = append(queue, comp)
	}

	for len(queue) > 0 {
		comp := queue[0]
		queue = queue[1:]

		if b.superseded[comp] {
			continue
		}

		if processed[comp] == nil {
			processed[comp] = map[string]bool{}
		}

		for _, compObj := range comp.Objects {
			if compObj.Kind != object.VM {
				continue
			}

			suffix := compObj.Suffix
			if processed[comp][suffix] {
				continue
			}

			processed[comp][suffix] = true

			required := comp.GetState(suffix)
			if required == "" {
				continue
			}

			if comp.Params["get_parse"] == "simple" {
				return errors.WithStackTrace(SimpleParseUnsupportedError{Suffix: suffix})
			}

			// A fan-in clone arrives already wired to its single parent on
			// compObj; resolving it again would clone it once more.
			wired := false
			for _, p := range comp.Parents() {
				for _, o := range comp.ObjectsFor(p) {
					wired = wired || o == compObj
				}
			}

			if wired {
				continue
			}

			if required == statesync.RootState {
				preamble := b.objectRootPreamble(worker, suffix, comp)
				node.AddSetupEdge(preamble, comp, compObj)
				queue = append(queue, preamble)

				continue
			}

			parents, err := b.resolveParents(worker, suffix, required, comp)
			if err != nil {
				return err
			}

			switch len(parents) {
			case 0:
				continue
			case 1:
				node.AddSetupEdge(parents[0], comp, compObj)
				queue = append(queue, parents[0])
			default:
				clones := b.cloneForFanIn(comp, compObj, parents)
				queue = append(queue, parents...)
				queue = append(queue, clones...)
			}
		}
	}

	return nil
}

// resolveParents finds, across the whole candidate pool, every candidate
// whose set_state for suffix matches state, binds it to worker, and returns
// the distinct composite nodes that binding yields.
func (b *builder) resolveParents(worker *object.Object, suffix, state string, requester *node.Node) ([]*node.Node, error) {
	seen := map[*node.Node]bool{}

	var out []*node.Node

	for _, leaf := range b.pool {
		if leaf.Params["set_state_"+suffix] != state {
			continue
		}

		if !collections.ListContainsElement(object.VMSuffixes(leaf.Params), suffix) {
			continue
		}

		comp := b.bindOne(leaf, worker)
		if comp == nil || comp == requester || seen[comp] {
			continue
		}

		seen[comp] = true

		out = append(out, comp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })

	return out, nil
}

// objectRootPreamble returns the synthetic `noop` node that precedes every
// object root for (worker, suffix): §4.8's "preparation node (configure_
// install) followed by the actual install node", implemented as a real
// parent node rather than an inline double-invocation so it is independently
// schedulable, occupiable, and bridgeable like any other node (SPEC_FULL §4
// item 6). Building one per (worker, suffix) means two object-root variants
// for the same component (fan-in on "root") share a single preamble.
func (b *builder) objectRootPreamble(worker *object.Object, suffix string, root *node.Node) *node.Node {
	if b.preambles[worker.Suffix] == nil {
		b.preambles[worker.Suffix] = map[string]*node.Node{}
	}

	if existing, ok := b.preambles[worker.Suffix][suffix]; ok {
		return existing
	}

	params := restriction.Dict{
		"shortname": "noop",
		"vms":       suffix,
		"type":      "configure_install",
	}

	preamble := node.New(node.Parent(root.Prefix), root.Objects, params)
	b.graph.Nodes = append(b.graph.Nodes, preamble)
	b.preambles[worker.Suffix][suffix] = preamble

	return preamble
}

// attachRoot is §4.2 step 5: every node with no parents descends from a
// synthetic root whose should_run is always false.
func (b *builder) attachRoot() {
	rootObj := &object.Object{Suffix: rootSuffix, Kind: object.Net}
	root := node.New("0", []*object.Object{rootObj}, restriction.Dict{"shortname": "root"})
	root.ShouldRun = func(string) bool { return false }

	b.graph.Root = root
	b.graph.Nodes = append(b.graph.Nodes, root)

	for _, n := range b.graph.Nodes {
		if n == root || b.superseded[n] {
			continue
		}

		if len(n.Objects) == 0 {
			continue // unbound flat leaf, never composited with any worker
		}

		if len(n.Parents()) == 0 {
			node.AddSetupEdge(root, n, rootObj)
		}
	}
}

// bridgeAcrossWorkers is §4.2 step 6: nodes with identical setless form
// across different workers are linked so one worker's completion satisfies
// another's dependency.
func (b *builder) bridgeAcrossWorkers() {
	groups := map[string][]*node.Node{}

	for _, n := range b.graph.Nodes {
		if n == b.graph.Root || b.superseded[n] || len(n.Objects) == 0 {
			continue
		}

		key := n.SetlessKey()
		groups[key] = append(groups[key], n)
	}

	for _, members := range groups {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if members[i].Net().Suffix == members[j].Net().Suffix {
					continue // same worker, not a cross-worker bridge
				}

				node.Bridge(members[i], members[j])
			}
		}
	}
}

// prune drops nodes superseded by fan-in cloning (graph/clone.go) from the
// final node list: they are unreachable from the shared root by
// construction, and keeping them around would leave dead orphans in
// Nodes/ByID.
func (b *builder) prune() {
	kept := b.graph.Nodes[:0]

	for _, n := range b.graph.Nodes {
		if b.superseded[n] {
			continue
		}

		kept = append(kept, n)
	}

	b.graph.Nodes = kept
}

func (b *builder) index() {
	b.graph.byID = make(map[string]*node.Node, len(b.graph.Nodes))
	for _, n := range b.graph.Nodes {
		if len(n.Objects) == 0 {
			continue
		}

		b.graph.byID[n.ID()] = n
	}
}
