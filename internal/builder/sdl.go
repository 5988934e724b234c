package builder

import (
	"fmt"
	"strings"

	"github.com/contentgraph/contentgraph/internal/model"
)

// SDL renders the schema Build produces for the same collection set and
// options as a GraphQL schema document. The gateway parses the document
// before serving it as the schema export.
func SDL(collections map[string]*model.Collection, opts Options) (string, error) {
	if len(collections) == 0 {
		return "", ErrEmptyModelSet
	}
	names := model.SortedNames(collections)

	var sb strings.Builder

	sb.WriteString("schema {\n")
	sb.WriteString("  query: Query\n")
	if !opts.IgnoreMutations {
		sb.WriteString("  mutation: Mutation\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("interface Node {\n")
	sb.WriteString("  id: String!\n")
	sb.WriteString("  type: String!\n")
	sb.WriteString("}\n\n")

	for _, name := range names {
		if err := writeObjectType(&sb, collections, collections[name]); err != nil {
			return "", err
		}
	}

	if err := writeQueryType(&sb, collections, names, opts); err != nil {
		return "", err
	}
	if !opts.IgnoreMutations {
		if err := writeMutationType(&sb, collections, names); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

func writeObjectType(sb *strings.Builder, collections map[string]*model.Collection, collection *model.Collection) error {
	fmt.Fprintf(sb, "type %s implements Node {\n", collection.Identity())
	sb.WriteString("  id: String!\n")
	sb.WriteString("  type: String!\n")

	for _, name := range collection.AttributeNames() {
		if isSyntheticField(name) {
			continue
		}
		attr := collection.Attributes[name]
		switch attr.Kind() {
		case model.KindScalar:
			scalar, err := scalarType(attr.Type)
			if err != nil {
				return fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			suffix := ""
			if attr.Required {
				suffix = "!"
			}
			fmt.Fprintf(sb, "  %s: %s%s\n", name, scalar.Name(), suffix)

		case model.KindBelongsTo:
			target, ok := collections[strings.ToLower(attr.Model)]
			if !ok {
				return fmt.Errorf("collection %q attribute %q: %w: %s", collection.Name(), name, ErrUnknownTarget, attr.Model)
			}
			fmt.Fprintf(sb, "  %s: %s\n", name, target.Identity())

		case model.KindHasMany:
			target, ok := collections[strings.ToLower(attr.Collection)]
			if !ok {
				return fmt.Errorf("collection %q attribute %q: %w: %s", collection.Name(), name, ErrUnknownTarget, attr.Collection)
			}
			fmt.Fprintf(sb, "  %s: [%s]\n", name, target.Identity())
		}
	}

	sb.WriteString("}\n\n")
	return nil
}

func writeQueryType(sb *strings.Builder, collections map[string]*model.Collection, names []string, opts Options) error {
	sb.WriteString("type Query {\n")
	for _, name := range names {
		collection := collections[name]
		identity := collection.Identity()

		fmt.Fprintf(sb, "  %s(id: String!): %s\n", collection.SingularField(), identity)
		fmt.Fprintf(sb, "  %s(limit: Int, skip: Int, sort: String, start: String, end: String): [%s]\n", collection.PluralField(), identity)
		if opts.UsefulQueries {
			fmt.Fprintf(sb, "  getLatest%ss(limit: Int, start: String, end: String): [%s]\n", identity, identity)
			fmt.Fprintf(sb, "  getFirst%ss(limit: Int, start: String, end: String): [%s]\n", identity, identity)
			fmt.Fprintf(sb, "  count%ss(start: String, end: String): Int\n", identity)
		}
	}
	sb.WriteString("  node(id: String!): Node\n")
	sb.WriteString("}\n\n")
	return nil
}

func writeMutationType(sb *strings.Builder, collections map[string]*model.Collection, names []string) error {
	sb.WriteString("type Mutation {\n")
	for _, name := range names {
		collection := collections[name]
		identity := collection.Identity()

		args, err := sdlMutationArgs(collections, collection)
		if err != nil {
			return err
		}
		pkType, err := primaryKeyType(collection)
		if err != nil {
			return fmt.Errorf("collection %q primary key: %w", name, err)
		}

		fmt.Fprintf(sb, "  create%s(%s): %s\n", identity, strings.Join(args, ", "), identity)

		// The primary key replaces any same-named attribute argument; it is
		// always non-null on update.
		updateArgs := make([]string, 0, len(args)+1)
		for _, arg := range args {
			if strings.HasPrefix(arg, collection.PrimaryKey+":") {
				continue
			}
			updateArgs = append(updateArgs, arg)
		}
		updateArgs = append(updateArgs, fmt.Sprintf("%s: %s!", collection.PrimaryKey, pkType.Name()))
		fmt.Fprintf(sb, "  update%s(%s): %s\n", identity, strings.Join(updateArgs, ", "), identity)

		fmt.Fprintf(sb, "  delete%s(%s: %s!): %s\n", identity, collection.PrimaryKey, pkType.Name(), identity)
	}
	sb.WriteString("}\n")
	return nil
}

func sdlMutationArgs(collections map[string]*model.Collection, collection *model.Collection) ([]string, error) {
	var args []string
	for _, name := range collection.AttributeNames() {
		attr := collection.Attributes[name]

		var typeName string
		switch attr.Kind() {
		case model.KindScalar:
			scalar, err := scalarType(attr.Type)
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			typeName = scalar.Name()

		case model.KindBelongsTo, model.KindHasMany:
			targetName := attr.Model
			if attr.Kind() == model.KindHasMany {
				targetName = attr.Collection
			}
			target, ok := collections[strings.ToLower(targetName)]
			if !ok {
				return nil, fmt.Errorf("collection %q attribute %q: %w: %s", collection.Name(), name, ErrUnknownTarget, targetName)
			}
			scalar, err := relationArgType(target)
			if err != nil {
				return nil, fmt.Errorf("collection %q attribute %q: %w", collection.Name(), name, err)
			}
			typeName = scalar.Name()
			if attr.Kind() == model.KindHasMany {
				typeName = "[" + typeName + "]"
			}
		}

		if attr.Required {
			typeName += "!"
		}
		args = append(args, fmt.Sprintf("%s: %s", name, typeName))
	}
	return args, nil
}
