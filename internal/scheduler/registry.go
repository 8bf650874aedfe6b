package scheduler

import (
	"fmt"
	"strings"
	"sync"
)

// CollectorRegistry maps platform names to collectors. Registration happens
// at wiring time; lookups are concurrency safe because ticks may overlap a
// late registration in tests.
type CollectorRegistry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewCollectorRegistry creates an empty registry.
func NewCollectorRegistry() *CollectorRegistry {
	return &CollectorRegistry{collectors: make(map[string]Collector)}
}

// Register binds a collector to a platform name, case-insensitive.
func (r *CollectorRegistry) Register(platform string, collector Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[strings.ToLower(platform)] = collector
}

// For returns the collector registered for a platform.
func (r *CollectorRegistry) For(platform string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collector, ok := r.collectors[strings.ToLower(platform)]
	if !ok {
		return nil, fmt.Errorf(errFmtNoCollector, platform)
	}

	return collector, nil
}
