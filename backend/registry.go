package backend

import (
	"fmt"
	"sync"

	"github.com/mbucchia/vrsinject/gpu"
)

// registry holds registered backend factories.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// wgpu generates on the GPU; software is the fallback.
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a device through the named backend.
// Returns ErrBackendNotAvailable if the backend is not registered.
func Get(name string, cfg Config) (gpu.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, name)
	}
	return factory(cfg)
}

// Default creates a device through the best available backend based on
// priority. Backends that fail to adopt the configuration are skipped, so a
// host without hal handles falls through to the software backend.
func Default(cfg Config) (gpu.Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var firstErr error
	tried := make(map[string]bool, len(backends))
	for _, name := range backendPriority {
		factory, ok := backends[name]
		if !ok {
			continue
		}
		tried[name] = true
		dev, err := factory(cfg)
		if err == nil {
			slogger().Debug("selected backend", "name", name)
			return dev, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		slogger().Debug("backend unavailable", "name", name, "error", err)
	}

	// Fallback: try backends outside the priority list.
	for name, factory := range backends {
		if tried[name] {
			continue
		}
		dev, err := factory(cfg)
		if err == nil {
			slogger().Debug("selected backend", "name", name)
			return dev, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrBackendNotAvailable
}
