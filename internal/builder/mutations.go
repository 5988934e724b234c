package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/model"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// buildMutations is pass four: create, update and delete per collection.
// Scalar attributes become arguments split on required-ness; relation
// attributes take the primitive type of the target's primary key. Update
// and delete merge the primary key in as a non-null argument after the
// partitioning.
func (b *Builder) buildMutations(bc *buildContext) error {
	for _, name := range bc.names {
		collection := bc.collections[name]
		engine := bc.adapters[name]
		object := bc.types[collection.Identity()]
		identity := collection.Identity()
		storageIdentity := engine.GetCollectionIdentity(collection)

		args, err := b.mutationArgs(bc, collection)
		if err != nil {
			return err
		}

		pkType, err := primaryKeyType(collection)
		if err != nil {
			return fmt.Errorf("collection %q primary key: %w", name, err)
		}
		pkArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(pkType)}

		create := "create" + identity
		bc.mutationFields[create] = &graphql.Field{
			Type:    object,
			Args:    args,
			Resolve: b.mutationResolver(collection, engine, storageIdentity, create, engine.Create),
		}
		bc.mutationNames = append(bc.mutationNames, create)

		updateArgs := cloneArgs(args)
		updateArgs[collection.PrimaryKey] = pkArg
		update := "update" + identity
		bc.mutationFields[update] = &graphql.Field{
			Type:    object,
			Args:    updateArgs,
			Resolve: b.mutationResolver(collection, engine, storageIdentity, update, engine.Update),
		}
		bc.mutationNames = append(bc.mutationNames, update)

		deleteName := "delete" + identity
		bc.mutationFields[deleteName] = &graphql.Field{
			Type: object,
			Args: graphql.FieldConfigArgument{
				collection.PrimaryKey: pkArg,
			},
			Resolve: b.mutationResolver(collection, engine, storageIdentity, deleteName, engine.Delete),
		}
		bc.mutationNames = append(bc.mutationNames, deleteName)
	}
	return nil
}

// mutationArgs partitions a collection's attributes into the argument set
// shared by create and update.
func (b *Builder) mutationArgs(bc *buildContext, collection *model.Collection) (graphql.FieldConfigArgument, error) {
	args := graphql.FieldConfigArgument{}

	for _, name := range collection.AttributeNames() {
		attr := collection.Attributes[name]

		var argType graphql.Input
		switch attr.Kind() {
		case model.KindScalar:
			scalar, err := scalarType(attr.Type)
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			argType = scalar

		case model.KindBelongsTo:
			target, err := bc.target(strings.ToLower(attr.Model))
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			scalar, err := relationArgType(target)
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			argType = scalar

		case model.KindHasMany:
			target, err := bc.target(strings.ToLower(attr.Collection))
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			scalar, err := relationArgType(target)
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			argType = graphql.NewList(scalar)

		default:
			return nil, fmt.Errorf("collection %q attribute %q has no valid variant", collection.Name(), name)
		}

		if attr.Required {
			argType = graphql.NewNonNull(argType)
		}
		args[name] = &graphql.ArgumentConfig{Type: argType}
	}

	return args, nil
}

// mutationOp matches the adapter's Create, Update and Delete methods.
type mutationOp func(ctx context.Context, identity string, collection *model.Collection, values map[string]interface{}) (map[string]interface{}, error)

// mutationResolver dispatches a mutation's resolved arguments to one
// adapter operation, behind the policy gate.
func (b *Builder) mutationResolver(collection *model.Collection, engine adapter.Adapter, storageIdentity, operation string, op mutationOp) graphql.FieldResolveFn {
	return b.guarded(policy.CategoryMutations, collection.Identity(), operation, func(p graphql.ResolveParams) (interface{}, error) {
		values := make(map[string]interface{}, len(p.Args))
		for k, v := range p.Args {
			values[k] = v
		}
		record, err := op(p.Context, storageIdentity, collection, values)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, nil
		}
		return record, nil
	})
}

func cloneArgs(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	out := make(graphql.FieldConfigArgument, len(args)+1)
	for name, arg := range args {
		out[name] = arg
	}
	return out
}
