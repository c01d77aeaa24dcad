package node

import "sort"

// PickParent returns the next parent worker should descend into, using the
// prefix ordering as an advisory tie-break (§4.3, §4.4 step 5).
func (n *Node) PickParent(worker string) *Node {
	return pickByPrefix(n.RemainingParents(worker))
}

// PickChild returns the next child worker should ascend into (§4.4 step 6).
func (n *Node) PickChild(worker string) *Node {
	return pickByPrefix(n.RemainingChildren(worker))
}

func pickByPrefix(candidates []*Node) *Node {
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return Before(candidates[i].Prefix, candidates[j].Prefix)
	})

	return candidates[0]
}
