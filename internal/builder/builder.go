// Package builder synthesizes a GraphQL schema from a runtime-discovered
// set of collection definitions. Each collection produces an object type,
// a set of query fields and a set of mutation fields, all wired to the
// storage adapter registered for the collection's engine and gated by the
// policy gate.
package builder

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/model"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// Options control optional parts of the generated schema.
type Options struct {
	// IgnoreMutations omits the mutation root entirely.
	IgnoreMutations bool
	// UsefulQueries adds the getLatest*/getFirst*/count* query variants.
	UsefulQueries bool
}

// DefaultOptions enables useful queries and mutations.
func DefaultOptions() Options {
	return Options{UsefulQueries: true}
}

// Builder builds schemas. It is safe to reuse across builds; every Build
// call works on its own build context.
type Builder struct {
	registry  *adapter.Registry
	gate      policy.Gate
	scaffolds *policy.ScaffoldWriter
	logger    zerolog.Logger
}

// New creates a schema builder. scaffolds may be nil to disable the policy
// scaffold side effect.
func New(registry *adapter.Registry, gate policy.Gate, scaffolds *policy.ScaffoldWriter, logger zerolog.Logger) *Builder {
	return &Builder{
		registry:  registry,
		gate:      gate,
		scaffolds: scaffolds,
		logger:    logger,
	}
}

// buildContext accumulates one build's state. It is created per Build call,
// populated strictly in pass order and frozen into the returned schema;
// concurrent builds never share one.
type buildContext struct {
	collections map[string]*model.Collection
	names       []string

	engines  map[string]adapter.Adapter // by engine identifier
	adapters map[string]adapter.Adapter // by collection name

	node  *graphql.Interface
	types map[string]*graphql.Object // by identity

	queryFields    graphql.Fields
	mutationFields graphql.Fields
	queryNames     []string
	mutationNames  []string
}

func newBuildContext(collections map[string]*model.Collection) *buildContext {
	return &buildContext{
		collections:    collections,
		names:          model.SortedNames(collections),
		engines:        make(map[string]adapter.Adapter),
		adapters:       make(map[string]adapter.Adapter),
		types:          make(map[string]*graphql.Object),
		queryFields:    graphql.Fields{},
		mutationFields: graphql.Fields{},
	}
}

// target resolves a relation's target collection by model name.
func (bc *buildContext) target(name string) (*model.Collection, error) {
	collection, ok := bc.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return collection, nil
}

// Build runs the four passes (engines, types, queries, mutations) over the
// full collection set and assembles the root schema. After the schema is
// handed back, the policy scaffold side effect runs detached; its failures
// are logged and never reach the caller.
func (b *Builder) Build(ctx context.Context, collections map[string]*model.Collection, opts Options) (*graphql.Schema, error) {
	if len(collections) == 0 {
		return nil, ErrEmptyModelSet
	}

	bc := newBuildContext(collections)

	if err := checkIdentities(bc); err != nil {
		return nil, err
	}
	if err := b.resolveEngines(bc); err != nil {
		return nil, err
	}
	if err := b.buildTypes(bc); err != nil {
		return nil, err
	}
	if err := b.buildQueries(bc, opts); err != nil {
		return nil, err
	}
	if !opts.IgnoreMutations {
		if err := b.buildMutations(bc); err != nil {
			return nil, err
		}
	}

	schemaConfig := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: bc.queryFields,
		}),
	}
	if !opts.IgnoreMutations && len(bc.mutationFields) > 0 {
		schemaConfig.Mutation = graphql.NewObject(graphql.ObjectConfig{
			Name:   "Mutation",
			Fields: bc.mutationFields,
		})
	}
	for _, name := range bc.names {
		schemaConfig.Types = append(schemaConfig.Types, bc.types[bc.collections[name].Identity()])
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble schema: %w", err)
	}

	if b.scaffolds != nil {
		go b.scaffolds.Write(context.WithoutCancel(ctx), collections, bc.queryNames, bc.mutationNames)
	}

	return &schema, nil
}

// checkIdentities rejects model sets whose derived field names collide.
func checkIdentities(bc *buildContext) error {
	seen := make(map[string]string, len(bc.names))
	for _, name := range bc.names {
		identity := bc.collections[name].Identity()
		if prev, ok := seen[identity]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateIdentity, prev, name)
		}
		seen[identity] = name
	}
	return nil
}

// resolveEngines is pass one: resolve each collection's storage engine to
// an adapter, once per distinct engine.
func (b *Builder) resolveEngines(bc *buildContext) error {
	for _, name := range bc.names {
		collection := bc.collections[name]
		engine, ok := bc.engines[collection.Engine]
		if !ok {
			resolved, err := b.registry.Get(collection.Engine)
			if err != nil {
				return fmt.Errorf("collection %q: %w", name, err)
			}
			engine = resolved
			bc.engines[collection.Engine] = engine
		}
		bc.adapters[name] = engine
	}
	return nil
}
