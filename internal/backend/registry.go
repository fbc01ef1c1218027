package backend

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

var (
	ErrBackendNotFound   = errors.New("backend not found")
	ErrBackendRegistered = errors.New("backend already registered")
	ErrBackendInvalid    = errors.New("backend name is required")
)

// Config carries what a factory needs to reach its server.
type Config struct {
	Host       string
	HTTPClient *http.Client
}

// Factory builds a backend from connection settings.
type Factory func(cfg Config) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a backend factory to the registry by name.
func Register(name string, factory Factory) error {
	if strings.TrimSpace(name) == "" {
		return ErrBackendInvalid
	}
	if factory == nil {
		return errors.New("backend factory is nil")
	}

	key := strings.ToLower(strings.TrimSpace(name))
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[key]; exists {
		return ErrBackendRegistered
	}

	registry[key] = factory
	return nil
}

// Get returns a backend factory by name.
func Get(name string) (Factory, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, false
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := registry[key]
	return factory, ok
}

// Open builds the named backend.
func Open(name string, cfg Config) (Backend, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName()
	}
	factory, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, name)
	}
	return factory(cfg)
}

// Names returns all registered backend names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultName returns the default backend name.
func DefaultName() string {
	return "ollama"
}
