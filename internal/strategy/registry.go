package strategy

import (
	"sort"
	"sync"

	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// Registry manages all available strategies.
type Registry interface {
	Register(s Strategy) error
	Get(name string) (Strategy, error)
	List() []Strategy
	// Snapshot resolves the named strategies into an immutable ordered
	// list for one run. An empty name list selects every registered
	// strategy. The engine only ever sees snapshots, never the live
	// registry.
	Snapshot(names []string) ([]Strategy, error)
}

// RegistryV1 manages all available strategies.
type RegistryV1 struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewRegistry creates a new empty strategy registry.
func NewRegistry() Registry {
	return &RegistryV1{
		strategies: make(map[string]Strategy),
		mu:         sync.RWMutex{},
	}
}

// Register adds a strategy to the registry.
func (r *RegistryV1) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.strategies[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %s already registered", name)
	}

	r.strategies[name] = s

	return nil
}

// Get retrieves a strategy by name.
func (r *RegistryV1) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.strategies[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s not found", name)
	}

	return s, nil
}

// List returns all registered strategies sorted by name.
func (r *RegistryV1) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		strategies = append(strategies, s)
	}

	sort.Slice(strategies, func(i, j int) bool {
		return strategies[i].Name() < strategies[j].Name()
	})

	return strategies
}

// Snapshot implements Registry.
func (r *RegistryV1) Snapshot(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return r.List(), nil
	}

	snapshot := make([]Strategy, 0, len(names))

	for _, name := range names {
		s, err := r.Get(name)
		if err != nil {
			return nil, err
		}

		snapshot = append(snapshot, s)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Name() < snapshot[j].Name()
	})

	return snapshot, nil
}
