package policy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/contentgraph/contentgraph/internal/model"
)

// Scaffold is the persisted policy configuration for one collection.
type Scaffold struct {
	GraphQL ScaffoldGraphQL `json:"graphql"`
}

// ScaffoldGraphQL maps generated operation names to their check lists.
type ScaffoldGraphQL struct {
	Queries   map[string][]string `json:"queries"`
	Mutations map[string][]string `json:"mutations"`
}

// ScaffoldWriter persists per-collection policy scaffolds after a schema
// build. Failures are logged, never returned to the build caller.
type ScaffoldWriter struct {
	dir    string
	logger zerolog.Logger
}

// NewScaffoldWriter creates a writer targeting dir.
func NewScaffoldWriter(dir string, logger zerolog.Logger) *ScaffoldWriter {
	return &ScaffoldWriter{dir: dir, logger: logger}
}

// Write persists one scaffold per collection. Each collection receives the
// generated query and mutation field names that reference its identity,
// each initialized to an empty check list, merged with any pre-existing
// file and the collection's own graphql overrides. Per-collection writes
// run concurrently; one failure does not block the others.
func (w *ScaffoldWriter) Write(ctx context.Context, collections map[string]*model.Collection, queryFields, mutationFields []string) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.dir).Msg("failed to create policy directory")
		return
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, name := range model.SortedNames(collections) {
		collection := collections[name]
		group.Go(func() error {
			if err := w.writeOne(collection, queryFields, mutationFields); err != nil {
				w.logger.Warn().Err(err).Str("collection", collection.Name()).Msg("failed to persist policy scaffold")
			}
			return nil
		})
	}
	_ = group.Wait()
}

func (w *ScaffoldWriter) writeOne(collection *model.Collection, queryFields, mutationFields []string) error {
	scaffold := Scaffold{
		GraphQL: ScaffoldGraphQL{
			Queries:   operationsFor(collection, queryFields),
			Mutations: operationsFor(collection, mutationFields),
		},
	}

	path := filepath.Join(w.dir, collection.Name()+".settings.json")

	if data, err := os.ReadFile(path); err == nil {
		var existing Scaffold
		if err := json.Unmarshal(data, &existing); err == nil {
			mergeChecks(scaffold.GraphQL.Queries, existing.GraphQL.Queries)
			mergeChecks(scaffold.GraphQL.Mutations, existing.GraphQL.Mutations)
		}
	}

	if override := collection.GraphQL; override != nil {
		mergeChecks(scaffold.GraphQL.Queries, override.Queries)
		mergeChecks(scaffold.GraphQL.Mutations, override.Mutations)
	}

	data, err := json.MarshalIndent(scaffold, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// operationsFor selects the field names referencing the collection's
// identity, matched case-insensitively by substring.
func operationsFor(collection *model.Collection, fields []string) map[string][]string {
	identity := strings.ToLower(collection.Identity())
	ops := make(map[string][]string)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), identity) {
			ops[field] = []string{}
		}
	}
	return ops
}

// mergeChecks overlays src check lists onto dst for operations dst knows.
func mergeChecks(dst map[string][]string, src map[string][]string) {
	for op, checks := range src {
		if _, ok := dst[op]; ok && len(checks) > 0 {
			dst[op] = checks
		}
	}
}
