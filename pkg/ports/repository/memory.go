// Package repository implements ports.DiagramRepositoryPort: an in-memory
// store for tests and short-lived runs, and a SQLite-backed store for
// durable diagram libraries, grounded on the same sql.DB pattern the
// engine's checkpoint store uses.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dipeo/execengine/pkg/types"
)

// Memory is an in-process DiagramRepositoryPort backed by a map. Safe for
// concurrent use.
type Memory struct {
	mu       sync.RWMutex
	diagrams map[string]types.Diagram
}

// NewMemory builds an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{diagrams: make(map[string]types.Diagram)}
}

func (m *Memory) Load(ctx context.Context, name string) (types.Diagram, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.diagrams[name]
	if !ok {
		return types.Diagram{}, fmt.Errorf("repository: diagram %q not found", name)
	}
	return d, nil
}

func (m *Memory) Save(ctx context.Context, name string, d types.Diagram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagrams[name] = d
	return nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.diagrams))
	for name := range m.diagrams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.diagrams[name]; !ok {
		return fmt.Errorf("repository: diagram %q not found", name)
	}
	delete(m.diagrams, name)
	return nil
}
