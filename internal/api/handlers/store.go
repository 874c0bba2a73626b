package handlers

import (
	"sort"
	"sync"

	"dayahead-sim/internal/simulation"
)

// RunStore keeps finished runs in memory, evicting the oldest once full.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*simulation.Run
	order []string
	max   int
}

// NewRunStore keeps at most max runs; max <= 0 means 32.
func NewRunStore(max int) *RunStore {
	if max <= 0 {
		max = 32
	}
	return &RunStore{runs: make(map[string]*simulation.Run), max: max}
}

func (s *RunStore) Put(r *simulation.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.runs[r.ID] = r
	for len(s.order) > s.max {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *RunStore) Get(id string) (*simulation.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

// List returns the stored runs, newest first.
func (s *RunStore) List() []*simulation.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*simulation.Run, 0, len(s.runs))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	return out
}
