package builder

import (
	"github.com/graphql-go/graphql"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// buildQueries is pass three: the singular getter, the plural lister and,
// when enabled, the latest/first/count variants per collection, plus the
// global node lookup. Every field except the singular getter receives the
// injected start/end time-range arguments.
func (b *Builder) buildQueries(bc *buildContext, opts Options) error {
	for _, name := range bc.names {
		collection := bc.collections[name]
		engine := bc.adapters[name]
		object := bc.types[collection.Identity()]
		identity := collection.Identity()
		storageIdentity := engine.GetCollectionIdentity(collection)

		singular := collection.SingularField()
		b.addQueryField(bc, singular, &graphql.Field{
			Type: object,
			Args: graphql.FieldConfigArgument{
				// The public contract is a string identifier regardless of
				// the native primary-key type.
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: b.guarded(policy.CategoryQueries, identity, singular, func(p graphql.ResolveParams) (interface{}, error) {
				record, err := engine.Fetch(p.Context, storageIdentity, collection, adapter.Criteria{
					Where: map[string]interface{}{collection.PrimaryKey: p.Args["id"]},
				})
				if err != nil {
					return nil, err
				}
				if record == nil {
					return nil, nil
				}
				return record, nil
			}),
		})

		plural := collection.PluralField()
		pluralField := &graphql.Field{
			Type: graphql.NewList(object),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				"skip":  &graphql.ArgumentConfig{Type: graphql.Int},
				"sort":  &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: b.guarded(policy.CategoryQueries, identity, plural, func(p graphql.ResolveParams) (interface{}, error) {
				return engine.FetchAll(p.Context, storageIdentity, collection, criteriaFromArgs(p.Args))
			}),
		}
		injectTimeRange(pluralField)
		b.addQueryField(bc, plural, pluralField)

		if !opts.UsefulQueries {
			continue
		}

		latest := "getLatest" + identity + "s"
		latestField := &graphql.Field{
			Type: graphql.NewList(object),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: b.guarded(policy.CategoryQueries, identity, latest, func(p graphql.ResolveParams) (interface{}, error) {
				return engine.FetchLatest(p.Context, storageIdentity, collection, criteriaFromArgs(p.Args))
			}),
		}
		injectTimeRange(latestField)
		b.addQueryField(bc, latest, latestField)

		first := "getFirst" + identity + "s"
		firstField := &graphql.Field{
			Type: graphql.NewList(object),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			},
			Resolve: b.guarded(policy.CategoryQueries, identity, first, func(p graphql.ResolveParams) (interface{}, error) {
				return engine.FetchFirst(p.Context, storageIdentity, collection, criteriaFromArgs(p.Args))
			}),
		}
		injectTimeRange(firstField)
		b.addQueryField(bc, first, firstField)

		count := "count" + identity + "s"
		countField := &graphql.Field{
			Type: graphql.Int,
			Resolve: b.guarded(policy.CategoryQueries, identity, count, func(p graphql.ResolveParams) (interface{}, error) {
				return engine.Count(p.Context, storageIdentity, collection)
			}),
		}
		injectTimeRange(countField)
		b.addQueryField(bc, count, countField)
	}

	b.addQueryField(bc, "node", b.nodeField(bc))
	return nil
}

func (b *Builder) addQueryField(bc *buildContext, name string, field *graphql.Field) {
	bc.queryFields[name] = field
	bc.queryNames = append(bc.queryNames, name)
}

// injectTimeRange adds the start/end string arguments after a field's own
// arguments are defined. Fields without arguments get an empty argument
// map first.
func injectTimeRange(field *graphql.Field) {
	if field.Args == nil {
		field.Args = graphql.FieldConfigArgument{}
	}
	field.Args["start"] = &graphql.ArgumentConfig{Type: graphql.String}
	field.Args["end"] = &graphql.ArgumentConfig{Type: graphql.String}
}
