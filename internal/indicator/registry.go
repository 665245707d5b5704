package indicator

import (
	"sort"
	"sync"

	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// Registry manages all available indicators.
type Registry interface {
	Register(indicator Indicator) error
	Get(name string) (Indicator, error)
	List() []Indicator
	Remove(name string) error
}

// RegistryV1 manages all available indicators.
type RegistryV1 struct {
	indicators map[string]Indicator
	mu         sync.RWMutex
}

// NewRegistry creates a new empty indicator registry.
func NewRegistry() Registry {
	return &RegistryV1{
		indicators: make(map[string]Indicator),
		mu:         sync.RWMutex{},
	}
}

// Register adds an indicator to the registry.
func (r *RegistryV1) Register(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// Get retrieves an indicator by name.
func (r *RegistryV1) Get(name string) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	return indicator, nil
}

// List returns all registered indicators sorted by name, so computed
// rows and persisted output are deterministic across runs.
func (r *RegistryV1) List() []Indicator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicators := make([]Indicator, 0, len(r.indicators))
	for _, ind := range r.indicators {
		indicators = append(indicators, ind)
	}

	sort.Slice(indicators, func(i, j int) bool {
		return indicators[i].Name() < indicators[j].Name()
	})

	return indicators
}

// Remove removes an indicator from the registry.
func (r *RegistryV1) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}

// MaxMinBars returns the largest window any registered indicator needs.
func MaxMinBars(r Registry) int {
	maxBars := 0

	for _, ind := range r.List() {
		if ind.MinBars() > maxBars {
			maxBars = ind.MinBars()
		}
	}

	return maxBars
}
