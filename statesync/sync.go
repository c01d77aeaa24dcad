package statesync

import (
	"context"

	"github.com/cartgraph/cartgraph/internal/errors"
)

// Location is where a state was found, formatted as "<worker-id>:<path>"
// per §6.
type Location struct {
	Worker string
	Path   string
}

func (l Location) String() string {
	return l.Worker + ":" + l.Path
}

// NotAvailableError means no self, peer, or pool copy of the requested
// state could be found.
type NotAvailableError struct {
	Suffix string
	State  string
}

func (e NotAvailableError) Error() string {
	return "state " + e.State + " for object " + e.Suffix + " is not available on self, any peer, or the shared pool"
}

// Pool resolves where a required state is obtained from and requests the
// transfer via Backend (§2 State Sync / Pool, §4.6 step 2).
type Pool struct {
	Backend    Backend
	SharedPath string
}

// NewPool builds a Pool around backend, using sharedPath as the shared
// pool's location path.
func NewPool(backend Backend, sharedPath string) *Pool {
	return &Pool{Backend: backend, SharedPath: sharedPath}
}

// Resolve decides where the state for (kind, suffix, stateName) should be
// read from, preferring self, then a same-swarm peer that already finished
// the producing node, then the shared pool, and requests whatever transfer
// that location implies. selfWorker is the requesting worker's id,
// selfPath its local state directory; peers is the ordered list of other
// workers known to already have the state (closest/same-swarm first).
func (p *Pool) Resolve(ctx context.Context, kind, suffix, stateName string, selfWorker, selfPath string, peers []Location) (Location, error) {
	if stateName == RootState {
		return Location{Worker: selfWorker, Path: selfPath}, nil
	}

	if ok, err := p.Backend.Check(ctx, kind, suffix, stateName, selfPath); err != nil {
		return Location{}, err
	} else if ok {
		return Location{Worker: selfWorker, Path: selfPath}, nil
	}

	for _, peer := range peers {
		ok, err := p.Backend.Check(ctx, kind, suffix, stateName, peer.Path)
		if err != nil {
			return Location{}, err
		}

		if ok {
			if err := p.Backend.Get(ctx, kind, suffix, stateName, peer.Path, ModeForceIfMissing); err != nil {
				return Location{}, err
			}

			return peer, nil
		}
	}

	if p.SharedPath != "" {
		ok, err := p.Backend.Check(ctx, kind, suffix, stateName, p.SharedPath)
		if err != nil {
			return Location{}, err
		}

		if ok {
			if err := p.Backend.Get(ctx, kind, suffix, stateName, p.SharedPath, ModeForceIfMissing); err != nil {
				return Location{}, err
			}

			return Location{Worker: "pool", Path: p.SharedPath}, nil
		}
	}

	return Location{}, errors.WithStackTrace(NotAvailableError{Suffix: suffix, State: stateName})
}

// SyncToPool pushes a just-produced state to the shared pool when
// configured to do so (§4.7 cleanup, non-forced path).
func (p *Pool) SyncToPool(ctx context.Context, kind, suffix, stateName, selfPath string) error {
	if p.SharedPath == "" {
		return nil
	}

	return p.Backend.Set(ctx, kind, suffix, stateName, p.SharedPath, ModeIgnoreIfPresent)
}
