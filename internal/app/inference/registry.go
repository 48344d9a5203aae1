package inference

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"speech-transcription/internal/config"
)

// Factory builds a Loader for one backend from the process configuration.
type Factory func(cfg *config.Config, logger *zap.Logger) (Loader, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available by name. Backends call it from init;
// registering the same name twice panics.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("inference: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("inference: Register called twice for backend " + name)
	}
	factories[name] = factory
}

// Backends lists registered backend names in sorted order
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewLoader builds the Loader for cfg.Engine.Backend
func NewLoader(cfg *config.Config, logger *zap.Logger) (Loader, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Engine.Backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown inference backend %q (registered: %v)", cfg.Engine.Backend, Backends())
	}
	return factory(cfg, logger)
}
