// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"sync"

	"github.com/gogpu/batch/gpucore"
)

// ErrNotAvailable is returned when no registered adapter can be created.
var ErrNotAvailable = errors.New("backend: no adapter available")

// Well-known adapter names.
const (
	NameWGPU      = "wgpu"
	NameNative    = "native"
	NameRecording = "recording"
)

// Factory creates a new adapter instance. Factories that need hardware may
// fail at creation time rather than registration time.
type Factory func() (gpucore.Adapter, error)

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Factory)
	// Priority order for adapter selection (first that creates wins).
	// "native" is absent: it needs a host-provided HAL device, so hosts
	// that want it in the running must Register it themselves.
	priority = []string{NameWGPU, NameRecording}
)

// Register registers an adapter factory with the given name. This is
// typically called from init() functions in adapter packages. Registering
// an existing name replaces the factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[name] = factory
}

// Unregister removes an adapter from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(adapters, name)
}

// Available returns the registered adapter names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks whether an adapter with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := adapters[name]
	return ok
}

// Get returns the factory registered under name, or nil.
func Get(name string) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return adapters[name]
}

// Default creates the best available adapter in priority order, falling
// back to any registered one. Returns ErrNotAvailable when every factory
// fails or none is registered.
func Default() (gpucore.Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range priority {
		factory, ok := adapters[name]
		if !ok {
			continue
		}
		if a, err := factory(); err == nil {
			return a, nil
		}
	}
	for name, factory := range adapters {
		inPriority := false
		for _, p := range priority {
			if p == name {
				inPriority = true
				break
			}
		}
		if inPriority {
			continue
		}
		if a, err := factory(); err == nil {
			return a, nil
		}
	}
	return nil, ErrNotAvailable
}
