package traversal

import (
	"time"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/node"
	"github.com/cartgraph/cartgraph/pkg/log"
)

const defaultTestTimeout = 10 * time.Minute

const minBackoff = 100 * time.Millisecond

// backOff implements §4.4 step 3: a worker that finds next occupied by
// someone else resets its path to the root and suspends instead of
// busy-spinning, raising StuckOnOccupied if it has been stuck too long.
func (s *Scheduler) backOff(ws *workerState, next *node.Node, logger *log.Logger) error {
	timeout := s.backoffInterval()

	if ws.occupiedOn != next {
		ws.occupiedOn = next
		ws.occupiedWait = 0
	}

	ws.occupiedWait += timeout

	if ws.occupiedWait > s.effectiveTestTimeout() {
		return errors.WithStackTrace(StuckOnOccupiedError{Worker: ws.w.ID, Node: next.ID()})
	}

	log.WithNode(logger, next.ID()).Warn("node occupied, backing off")

	ws.path = []*node.Node{s.Graph.Root}

	time.Sleep(timeout)

	return nil
}

func (s *Scheduler) effectiveTestTimeout() time.Duration {
	if s.TestTimeout <= 0 {
		return defaultTestTimeout
	}

	return s.TestTimeout
}

func (s *Scheduler) backoffInterval() time.Duration {
	interval := s.effectiveTestTimeout() / 1000
	if interval < minBackoff {
		return minBackoff
	}

	return interval
}
