package node_test

import (
	"testing"

	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVMNode(prefix, shortname string) *node.Node {
	net := &object.Object{Suffix: "net1", Kind: object.Net}
	vm := &object.Object{Suffix: "vm1", Kind: object.VM}
	net.AddComponent(vm)

	return node.New(prefix, []*object.Object{net, vm}, restriction.Dict{"shortname": shortname, "vms": "vm1"})
}

func TestIDIsPrefixPlusVMs(t *testing.T) {
	t.Parallel()

	n := newVMNode("1", "install")
	assert.Equal(t, "1-vm1", n.ID())
}

func TestSetupCleanupInvariant(t *testing.T) {
	t.Parallel()

	parent := newVMNode("1", "install")
	child := newVMNode("1a", "customize")
	obj := child.Objects[1]

	node.AddSetupEdge(parent, child, obj)

	assert.Contains(t, child.Parents(), parent)
	assert.Contains(t, parent.Children(), child)
}

func TestSetupReadyAfterDroppingAllParents(t *testing.T) {
	t.Parallel()

	parent := newVMNode("1", "install")
	child := newVMNode("1a", "customize")
	node.AddSetupEdge(parent, child, child.Objects[1])

	require.False(t, child.IsSetupReady("w1"))

	child.DropParent("w1", parent)

	assert.True(t, child.IsSetupReady("w1"))
}

func TestOccupancyIsSingleWriter(t *testing.T) {
	t.Parallel()

	n := newVMNode("1", "install")

	require.True(t, n.TryAcquire("w1"))
	assert.False(t, n.TryAcquire("w2"))
	assert.True(t, n.TryAcquire("w1")) // same worker may re-acquire

	n.Release("w1")
	assert.True(t, n.TryAcquire("w2"))
}

func TestBridgedFinishPropagates(t *testing.T) {
	t.Parallel()

	a := newVMNode("1", "connect")
	b := newVMNode("1b1", "connect")
	node.Bridge(a, b)

	a.MarkFinished("w1")

	assert.True(t, b.IsDoneFor("w1"))
}

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	n := newVMNode("1", "flaky")
	n.RetryAttempts = 2

	assert.True(t, n.ShouldRetry(0, executor.Fail))
	assert.True(t, n.ShouldRetry(1, executor.Fail))
	assert.False(t, n.ShouldRetry(2, executor.Fail))
	assert.False(t, n.ShouldRetry(0, executor.Skip))
}

func TestRetryStopShortCircuits(t *testing.T) {
	t.Parallel()

	n := newVMNode("1", "flaky")
	n.RetryAttempts = 5
	n.RetryStop = node.RetryStopFail

	assert.False(t, n.ShouldRetry(0, executor.Fail))
}
