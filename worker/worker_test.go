package worker_test

import (
	"sync/atomic"
	"testing"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	t.Parallel()

	p := worker.NewPool(4)
	defer p.Stop()

	var counter int32

	for range 10 {
		p.Submit(func() error {
			atomic.AddInt32(&counter, 1)
			return nil
		})
	}

	require.NoError(t, p.Wait())
	assert.Equal(t, int32(10), atomic.LoadInt32(&counter))
}

func TestPoolAggregatesErrors(t *testing.T) {
	t.Parallel()

	p := worker.NewPool(3)
	defer p.Stop()

	for i := range 4 {
		i := i
		p.Submit(func() error {
			if i%2 == 0 {
				return errors.New("boom")
			}

			return nil
		})
	}

	require.Error(t, p.Wait())
}

func TestSwarmMembership(t *testing.T) {
	t.Parallel()

	s := worker.NewSwarm("rack1", "/pool/rack1")

	net1 := &object.Object{Suffix: "net1", Kind: object.Net}
	net2 := &object.Object{Suffix: "net2", Kind: object.Net}

	w1 := worker.New("w1", net1, nil)
	w2 := worker.New("w2", net2, nil)

	s.Add(w1)
	s.Add(w2)

	assert.Equal(t, []*worker.Worker{w2}, w1.Peers())
	assert.Equal(t, "local", w1.Transport.Name())
}
