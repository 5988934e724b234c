package builder

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/contentgraph/contentgraph/internal/model"
)

// scalarKinds maps declared attribute kinds to GraphQL scalars. JSON and
// the temporal kinds travel as serialized strings.
var scalarKinds = map[string]*graphql.Scalar{
	"string":    graphql.String,
	"text":      graphql.String,
	"richtext":  graphql.String,
	"email":     graphql.String,
	"password":  graphql.String,
	"uid":       graphql.String,
	"enum":      graphql.String,
	"json":      graphql.String,
	"date":      graphql.String,
	"datetime":  graphql.String,
	"time":      graphql.String,
	"timestamp": graphql.String,
	"integer":   graphql.Int,
	"float":     graphql.Float,
	"decimal":   graphql.Float,
	"boolean":   graphql.Boolean,
}

// scalarType maps a declared scalar kind to its GraphQL type.
func scalarType(kind string) (*graphql.Scalar, error) {
	scalar, ok := scalarKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAttributeKind, kind)
	}
	return scalar, nil
}

// relationArgType maps a relation attribute to the primitive type of the
// target collection's primary key. Mutations accept identifiers, never
// nested object graphs.
func relationArgType(target *model.Collection) (*graphql.Scalar, error) {
	return primaryKeyType(target)
}

// primaryKeyType resolves the scalar type of a collection's primary key.
// A primary key not declared among the attributes is treated as a string.
func primaryKeyType(collection *model.Collection) (*graphql.Scalar, error) {
	attr, ok := collection.Attributes[collection.PrimaryKey]
	if !ok || attr.Kind() != model.KindScalar {
		return graphql.String, nil
	}
	return scalarType(attr.Type)
}
