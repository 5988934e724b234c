package builder

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"golang.org/x/sync/errgroup"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// newNodeInterface builds the Node capability every generated type
// implements. Concrete type dispatch reads the stamped type field off the
// resolved record.
func newNodeInterface(bc *buildContext) *graphql.Interface {
	return graphql.NewInterface(graphql.InterfaceConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"type": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			record, ok := p.Value.(map[string]interface{})
			if !ok {
				return nil
			}
			typeName, _ := record["type"].(string)
			return bc.types[typeName]
		},
	})
}

// nodeField is the global-by-id lookup. It fans out one fetch per known
// collection, joins on all of them, and requires exactly one match: zero
// matches fail with ErrNodeNotFound, several with ErrAmbiguousNode. The
// single match is returned with its type field stamped from the matching
// collection.
func (b *Builder) nodeField(bc *buildContext) *graphql.Field {
	return &graphql.Field{
		Type: bc.node,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id := p.Args["id"]

			results := make([]map[string]interface{}, len(bc.names))
			group, ctx := errgroup.WithContext(p.Context)
			for i, name := range bc.names {
				collection := bc.collections[name]
				engine := bc.adapters[name]
				group.Go(func() error {
					// Collections the gate rejects cannot match.
					if err := b.gate.Check(ctx, policy.CategoryQueries, collection.Identity(), collection.SingularField()); err != nil {
						return nil
					}
					record, err := engine.Fetch(ctx, engine.GetCollectionIdentity(collection), collection, adapter.Criteria{
						Where: map[string]interface{}{collection.PrimaryKey: id},
					})
					if err != nil {
						b.logger.Warn().Err(err).Str("collection", name).Msg("node lookup fetch failed")
						return nil
					}
					results[i] = record
					return nil
				})
			}
			_ = group.Wait()

			var match map[string]interface{}
			var matchedType string
			for i, record := range results {
				if record == nil {
					continue
				}
				if match != nil {
					return nil, fmt.Errorf("%w: %v", ErrAmbiguousNode, id)
				}
				match = record
				matchedType = bc.collections[bc.names[i]].Identity()
			}
			if match == nil {
				return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, id)
			}

			match["type"] = matchedType
			return match, nil
		},
	}
}
