package builder

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/model"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// buildTypes is pass two: one object type per collection. Objects are
// created first so relation fields can reference each other, then the
// attribute fields are attached.
func (b *Builder) buildTypes(bc *buildContext) error {
	bc.node = newNodeInterface(bc)

	for _, name := range bc.names {
		collection := bc.collections[name]
		bc.types[collection.Identity()] = b.newObjectShell(bc, collection)
	}

	for _, name := range bc.names {
		if err := b.addAttributeFields(bc, bc.collections[name]); err != nil {
			return err
		}
	}
	return nil
}

// newObjectShell creates the object type with the synthetic id and type
// fields every generated type carries for the Node capability.
func (b *Builder) newObjectShell(bc *buildContext, collection *model.Collection) *graphql.Object {
	identity := collection.Identity()
	primaryKey := collection.PrimaryKey

	return graphql.NewObject(graphql.ObjectConfig{
		Name:       identity,
		Interfaces: []*graphql.Interface{bc.node},
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					parent := sourceMap(p)
					if parent == nil || parent[primaryKey] == nil {
						return nil, nil
					}
					return fmt.Sprint(parent[primaryKey]), nil
				},
			},
			"type": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if parent := sourceMap(p); parent != nil {
						if stamped, ok := parent["type"].(string); ok && stamped != "" {
							return stamped, nil
						}
					}
					return identity, nil
				},
			},
		},
	})
}

// addAttributeFields attaches one field per attribute. Scalars map through
// the type mapper, relations resolve on demand against the target
// collection's adapter.
func (b *Builder) addAttributeFields(bc *buildContext, collection *model.Collection) error {
	object := bc.types[collection.Identity()]

	for _, name := range collection.AttributeNames() {
		// The Node contract owns id and type; a same-named attribute must
		// not weaken them to a nullable scalar. Its value stays reachable
		// through the synthetic field.
		if isSyntheticField(name) {
			continue
		}
		attr := collection.Attributes[name]

		var field *graphql.Field
		var err error
		switch attr.Kind() {
		case model.KindScalar:
			field, err = scalarField(attr)
		case model.KindBelongsTo:
			field, err = b.belongsToField(bc, name, attr)
		case model.KindHasMany:
			field, err = b.hasManyField(bc, collection, attr)
		default:
			err = fmt.Errorf("collection %q attribute %q has no valid variant", collection.Name(), name)
		}
		if err != nil {
			return fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
		}

		object.AddFieldConfig(name, field)
	}
	return nil
}

// isSyntheticField reports whether a field name is reserved for the
// synthetic Node fields every generated type carries.
func isSyntheticField(name string) bool {
	return name == "id" || name == "type"
}

func scalarField(attr model.Attribute) (*graphql.Field, error) {
	scalar, err := scalarType(attr.Type)
	if err != nil {
		return nil, err
	}
	var fieldType graphql.Output = scalar
	if attr.Required {
		fieldType = graphql.NewNonNull(scalar)
	}
	return &graphql.Field{Type: fieldType}, nil
}

// belongsToField types the field as the target object and re-queries the
// target by the key value already present on the fetched parent.
func (b *Builder) belongsToField(bc *buildContext, name string, attr model.Attribute) (*graphql.Field, error) {
	target, err := bc.target(strings.ToLower(attr.Model))
	if err != nil {
		return nil, err
	}

	targetAdapter := bc.adapters[target.Name()]
	identity := target.Identity()

	resolve := func(p graphql.ResolveParams) (interface{}, error) {
		parent := sourceMap(p)
		if parent == nil {
			return nil, nil
		}
		key := parent[name]
		if related, ok := key.(map[string]interface{}); ok {
			key = related[target.PrimaryKey]
		}
		if key == nil {
			return nil, nil
		}

		record, err := targetAdapter.Fetch(p.Context, targetAdapter.GetCollectionIdentity(target), target, adapter.Criteria{
			Where: map[string]interface{}{target.PrimaryKey: key},
		})
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, nil
		}
		return record, nil
	}

	return &graphql.Field{
		Type:    bc.types[identity],
		Resolve: b.guarded(policy.CategoryQueries, identity, target.SingularField(), resolve),
	}, nil
}

// hasManyField lists the target records whose declared inverse field equals
// the parent's primary key.
func (b *Builder) hasManyField(bc *buildContext, collection *model.Collection, attr model.Attribute) (*graphql.Field, error) {
	target, err := bc.target(strings.ToLower(attr.Collection))
	if err != nil {
		return nil, err
	}

	targetAdapter := bc.adapters[target.Name()]
	identity := target.Identity()
	inverse := attr.Via
	primaryKey := collection.PrimaryKey

	resolve := func(p graphql.ResolveParams) (interface{}, error) {
		parent := sourceMap(p)
		if parent == nil || parent[primaryKey] == nil {
			return nil, nil
		}
		return targetAdapter.FetchAll(p.Context, targetAdapter.GetCollectionIdentity(target), target, adapter.Criteria{
			Where: map[string]interface{}{inverse: parent[primaryKey]},
		})
	}

	return &graphql.Field{
		Type:    graphql.NewList(bc.types[identity]),
		Resolve: b.guarded(policy.CategoryQueries, identity, target.PluralField(), resolve),
	}, nil
}
