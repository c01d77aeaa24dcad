package graph

import (
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
)

// cloneForFanIn duplicates the subtree rooted at source (source plus every
// node that depends on it, transitively, through cleanup edges) once per
// parent candidate, so that each clone ends up with exactly one setup edge
// on compObj's suffix (§4.5). The whole original subtree, not just source,
// is marked superseded: every node in it is left unwired and pruned from
// the final graph (they are unreachable from the shared root and would
// otherwise linger as dead orphans in Nodes/ByID).
func (b *builder) cloneForFanIn(source *node.Node, compObj *object.Object, parents []*node.Node) []*node.Node {
	subtree := collectDownstream(source)

	for _, orig := range subtree {
		b.superseded[orig] = true
	}

	clones := make([]*node.Node, len(parents))

	for k, parent := range parents {
		mapping := make(map[*node.Node]*node.Node, len(subtree))

		for _, orig := range subtree {
			prefix := node.Clone(orig.Prefix, k+1)
			params := orig.Params.Clone()

			if orig == source {
				params["get_state_"+compObj.Suffix] = parent.SetState(compObj.Suffix)
			}

			clone := node.New(prefix, orig.Objects, params)
			mapping[orig] = clone
			b.graph.Nodes = append(b.graph.Nodes, clone)
		}

		// Rewire edges internal to the cloned subtree.
		for orig, clone := range mapping {
			for _, child := range orig.Children() {
				childClone, ok := mapping[child]
				if !ok {
					continue
				}

				for _, o := range orig.ObjectsFor(child) {
					node.AddSetupEdge(clone, childClone, o)
				}
			}
		}

		// Preserve edges to parents outside the subtree (other, already
		// resolved, object dependencies untouched by this fan-in).
		for orig, clone := range mapping {
			for _, p := range orig.Parents() {
				if _, inSubtree := mapping[p]; inSubtree {
					continue
				}

				for _, o := range orig.ObjectsFor(p) {
					node.AddSetupEdge(p, clone, o)
				}
			}
		}

		node.AddSetupEdge(parent, mapping[source], compObj)

		source.ClonedNodes = append(source.ClonedNodes, mapping[source])
		clones[k] = mapping[source]
	}

	return clones
}

// collectDownstream returns source plus every node reachable from it via
// cleanup edges (i.e. nodes that depend on source, directly or through a
// chain of dependents).
func collectDownstream(source *node.Node) []*node.Node {
	visited := map[*node.Node]bool{source: true}
	order := []*node.Node{source}

	queue := []*node.Node{source}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, child := range cur.Children() {
			if visited[child] {
				continue
			}

			visited[child] = true
			order = append(order, child)
			queue = append(queue, child)
		}
	}

	return order
}
