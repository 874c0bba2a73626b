package scenario

import (
	"context"
	"fmt"
	"sync"
)

type memKey struct {
	scenario string
	filter   Filter
}

// MemorySource is a DataSource held entirely in memory. File based sources
// decode into one; tests and the demo build one directly.
type MemorySource struct {
	mu       sync.RWMutex
	yearly   map[memKey]map[int]float64
	profiles map[memKey]map[int][]float64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		yearly:   make(map[memKey]map[int]float64),
		profiles: make(map[memKey]map[int][]float64),
	}
}

// PutYearly stores one yearly sample.
func (m *MemorySource) PutYearly(scenarioID string, f Filter, year int, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{scenarioID, f}
	if m.yearly[k] == nil {
		m.yearly[k] = make(map[int]float64)
	}
	m.yearly[k][year] = v
}

// PutProfile stores one hourly profile. The slice is retained, not copied.
func (m *MemorySource) PutProfile(scenarioID string, f Filter, year int, p []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memKey{scenarioID, f}
	if m.profiles[k] == nil {
		m.profiles[k] = make(map[int][]float64)
	}
	m.profiles[k][year] = p
}

func (m *MemorySource) FetchYearlySamples(_ context.Context, scenarioID string, f Filter) (map[int]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.yearly[memKey{scenarioID, f}]
	if len(src) == 0 {
		return nil, fmt.Errorf("memory: %s %s: %w", scenarioID, f, ErrDataUnavailable)
	}
	out := make(map[int]float64, len(src))
	for y, v := range src {
		out[y] = v
	}
	return out, nil
}

func (m *MemorySource) FetchHourlyProfile(_ context.Context, scenarioID string, f Filter) (map[int][]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.profiles[memKey{scenarioID, f}]
	if len(src) == 0 {
		return nil, fmt.Errorf("memory: %s %s: %w", scenarioID, f, ErrDataUnavailable)
	}
	out := make(map[int][]float64, len(src))
	for y, p := range src {
		out[y] = p
	}
	return out, nil
}

// Entries calls fn for every stored series. Used by importers that copy a
// scenario into another backend.
func (m *MemorySource) Entries(fn func(scenarioID string, f Filter, yearly map[int]float64, profiles map[int][]float64) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.yearly {
		if err := fn(k.scenario, k.filter, v, nil); err != nil {
			return err
		}
	}
	for k, v := range m.profiles {
		if err := fn(k.scenario, k.filter, nil, v); err != nil {
			return err
		}
	}
	return nil
}
