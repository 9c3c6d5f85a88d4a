package model

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver performs the real work behind a lifecycle transition. The engine
// calls Build before a server becomes RUNNING and Teardown before it becomes
// DESTROYED; an error leaves the server where it is.
type Driver interface {
	Label() string
	Build(ctx context.Context, server Server) error
	Teardown(ctx context.Context, server Server) error
}

// DriverFactory creates a new instance of a Driver.
type DriverFactory func() Driver

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DriverFactory)
)

// RegisterDriver registers a factory for a given driver name.
// e.g. RegisterDriver("simulated", func() Driver { return &SimulatedDriver{} })
func RegisterDriver(name string, factory DriverFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("RegisterDriver called twice for " + name)
	}
	registry[name] = factory
}

// GetDriver creates a new instance of the driver by name.
func GetDriver(name string) (Driver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("driver '%s' not found in registry", name)
	}
	return factory(), nil
}

// DriverNames returns the registered driver names in sorted order.
func DriverNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
