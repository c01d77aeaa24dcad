package worker

// Swarm is a named group of workers that share locality or a shared pool
// location (GLOSSARY "Swarm"). State Sync prefers a same-swarm peer over a
// cross-swarm shared-pool fetch.
type Swarm struct {
	Name       string
	SharedPath string
	Members    []*Worker
}

// NewSwarm builds an empty swarm named name, sharing sharedPath.
func NewSwarm(name, sharedPath string) *Swarm {
	return &Swarm{Name: name, SharedPath: sharedPath}
}

// Add enrolls w into the swarm.
func (s *Swarm) Add(w *Worker) {
	w.Swarm = s
	s.Members = append(s.Members, w)
}

// Others returns every swarm member other than w.
func (s *Swarm) Others(w *Worker) []*Worker {
	out := make([]*Worker, 0, len(s.Members))

	for _, m := range s.Members {
		if m != w {
			out = append(out, m)
		}
	}

	return out
}
