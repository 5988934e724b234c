// Package adapter defines the storage-engine interface the schema builder
// resolves against, and the registry engines are looked up from.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/contentgraph/contentgraph/internal/model"
)

// ErrUnknownEngine is returned when a collection declares a storage engine
// no adapter was registered for.
var ErrUnknownEngine = errors.New("unknown storage engine")

// Criteria narrows a fetch. Where matches attribute values exactly; Start
// and End bound the record creation time when set.
type Criteria struct {
	Where map[string]interface{}
	Limit int
	Skip  int
	Sort  string
	Start string
	End   string
}

// Adapter is the per-storage-engine data access surface. Implementations
// are external collaborators; the builder only dispatches to them.
type Adapter interface {
	// GetCollectionIdentity reports the identity the engine stores the
	// collection under.
	GetCollectionIdentity(collection *model.Collection) string

	Fetch(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) (map[string]interface{}, error)
	FetchAll(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error)
	FetchLatest(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error)
	FetchFirst(ctx context.Context, identity string, collection *model.Collection, criteria Criteria) ([]map[string]interface{}, error)
	Count(ctx context.Context, identity string, collection *model.Collection) (int, error)

	Create(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error)
}

// Registry maps storage-engine identifiers to adapters. It is populated at
// process start and injected into the schema builder.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Adapter)}
}

// Register installs an adapter under an engine identifier, replacing any
// previous registration.
func (r *Registry) Register(engine string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[engine] = adapter
}

// Get resolves an engine identifier to its adapter.
func (r *Registry) Get(engine string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.engines[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, engine)
	}
	return adapter, nil
}
