package traversal

import (
	"sync"

	"github.com/cartgraph/cartgraph/node"
)

// ResultCache holds prior execution results keyed by a node's setless form,
// so a freshly parsed node can be reattached to history produced by an
// earlier run or a bridged peer before it is first visited (§4.6 step 1,
// SPEC_FULL §4 item 5).
type ResultCache struct {
	mu      sync.Mutex
	history map[string][]node.Result
}

// NewResultCache builds an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{history: map[string][]node.Result{}}
}

// Seed preloads prior results for the node identified by setlessKey, e.g.
// from a persisted run.
func (c *ResultCache) Seed(setlessKey string, results []node.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history[setlessKey] = append(c.history[setlessKey], results...)
}

// Attach copies any cached prior results onto n if n has none yet.
func (c *ResultCache) Attach(n *node.Node) {
	c.mu.Lock()
	prior := c.history[n.SetlessKey()]
	c.mu.Unlock()

	if len(n.Results) > 0 || len(prior) == 0 {
		return
	}

	for _, r := range prior {
		n.AddResult(r.Worker, r.Attempt, r.Status, r.LogDir)
	}
}

// Record stores n's current results back into the cache under its setless
// key, so a later bridged or reparsed node can reattach them.
func (c *ResultCache) Record(n *node.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history[n.SetlessKey()] = n.Results
}
