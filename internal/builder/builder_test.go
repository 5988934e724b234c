package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/model"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// articleAuthorModels is the reference model set: articles with a required
// title, authors with a required name and a has-many relation back to
// their articles.
func articleAuthorModels() map[string]*model.Collection {
	return map[string]*model.Collection{
		"article": {
			Info:       model.Info{Name: "article"},
			PrimaryKey: "id",
			Engine:     "memory",
			Attributes: map[string]model.Attribute{
				"id":       {Type: "string"},
				"title":    {Type: "string", Required: true},
				"authorId": {Type: "string"},
				"author":   {Model: "author"},
			},
		},
		"author": {
			Info:       model.Info{Name: "author"},
			PrimaryKey: "id",
			Engine:     "memory",
			Attributes: map[string]model.Attribute{
				"id":       {Type: "string"},
				"name":     {Type: "string", Required: true},
				"articles": {Collection: "article", Via: "authorId"},
			},
		},
	}
}

// countingAdapter wraps another adapter and records calls.
type countingAdapter struct {
	adapter.Adapter

	mu         sync.Mutex
	fetchCalls int
	fetchAll   []adapter.Criteria
}

func (c *countingAdapter) Fetch(ctx context.Context, identity string, collection *model.Collection, criteria adapter.Criteria) (map[string]interface{}, error) {
	c.mu.Lock()
	c.fetchCalls++
	c.mu.Unlock()
	return c.Adapter.Fetch(ctx, identity, collection, criteria)
}

func (c *countingAdapter) FetchAll(ctx context.Context, identity string, collection *model.Collection, criteria adapter.Criteria) ([]map[string]interface{}, error) {
	c.mu.Lock()
	c.fetchAll = append(c.fetchAll, criteria)
	c.mu.Unlock()
	return c.Adapter.FetchAll(ctx, identity, collection, criteria)
}

func newTestBuilder(t *testing.T, gate policy.Gate) (*Builder, *countingAdapter) {
	t.Helper()

	memory := &countingAdapter{Adapter: adapter.NewMemory()}
	registry := adapter.NewRegistry()
	registry.Register("memory", memory)

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return New(registry, gate, nil, logger), memory
}

func buildTestSchema(t *testing.T, gate policy.Gate, opts Options) (*graphql.Schema, *countingAdapter) {
	t.Helper()

	b, memory := newTestBuilder(t, gate)
	schema, err := b.Build(context.Background(), articleAuthorModels(), opts)
	require.NoError(t, err)
	require.NotNil(t, schema)
	return schema, memory
}

func TestBuild_EmptyModelSet(t *testing.T) {
	b, _ := newTestBuilder(t, policy.AllowAll())

	_, err := b.Build(context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyModelSet)
}

func TestBuild_UnknownEngine(t *testing.T) {
	b, _ := newTestBuilder(t, policy.AllowAll())

	collections := articleAuthorModels()
	collections["article"].Engine = "cassandra"

	_, err := b.Build(context.Background(), collections, DefaultOptions())
	assert.ErrorIs(t, err, adapter.ErrUnknownEngine)
}

func TestBuild_DuplicateIdentity(t *testing.T) {
	b, _ := newTestBuilder(t, policy.AllowAll())

	collections := articleAuthorModels()
	collections["other"] = &model.Collection{
		Info:       model.Info{Name: "Article"},
		PrimaryKey: "id",
		Engine:     "memory",
		Attributes: map[string]model.Attribute{"id": {Type: "string"}},
	}

	_, err := b.Build(context.Background(), collections, DefaultOptions())
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestBuild_UnsupportedAttributeKind(t *testing.T) {
	b, _ := newTestBuilder(t, policy.AllowAll())

	collections := articleAuthorModels()
	collections["article"].Attributes["weird"] = model.Attribute{Type: "tensor"}

	_, err := b.Build(context.Background(), collections, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedAttributeKind)
}

func TestBuild_GeneratedFieldNames(t *testing.T) {
	// Test plan:
	// - build the reference schema with useful queries enabled
	// - verify the derived query and mutation field names per collection

	schema, _ := buildTestSchema(t, policy.AllowAll(), DefaultOptions())

	queryFields := schema.QueryType().Fields()
	for _, name := range []string{
		"article", "articles", "getLatestArticles", "getFirstArticles", "countArticles",
		"author", "authors", "getLatestAuthors", "getFirstAuthors", "countAuthors",
		"node",
	} {
		assert.Contains(t, queryFields, name)
	}

	require.NotNil(t, schema.MutationType())
	mutationFields := schema.MutationType().Fields()
	for _, name := range []string{
		"createArticle", "updateArticle", "deleteArticle",
		"createAuthor", "updateAuthor", "deleteAuthor",
	} {
		assert.Contains(t, mutationFields, name)
	}
}

func TestBuild_UsefulQueriesDisabled(t *testing.T) {
	schema, _ := buildTestSchema(t, policy.AllowAll(), Options{UsefulQueries: false})

	queryFields := schema.QueryType().Fields()
	assert.Contains(t, queryFields, "article")
	assert.Contains(t, queryFields, "articles")
	for _, name := range []string{
		"getLatestArticles", "getFirstArticles", "countArticles",
		"getLatestAuthors", "getFirstAuthors", "countAuthors",
	} {
		assert.NotContains(t, queryFields, name)
	}
}

func TestBuild_IgnoreMutations(t *testing.T) {
	schema, _ := buildTestSchema(t, policy.AllowAll(), Options{IgnoreMutations: true, UsefulQueries: true})
	assert.Nil(t, schema.MutationType())
}

func TestBuild_AttributesNamedAfterNodeFields(t *testing.T) {
	// Test plan:
	// - a collection declaring id and type attributes still builds
	// - the generated object keeps the non-null Node fields

	b, _ := newTestBuilder(t, policy.AllowAll())

	collections := articleAuthorModels()
	collections["article"].Attributes["type"] = model.Attribute{Type: "string"}

	schema, err := b.Build(context.Background(), collections, DefaultOptions())
	require.NoError(t, err)

	article, ok := schema.Type("Article").(*graphql.Object)
	require.True(t, ok)

	for _, name := range []string{"id", "type"} {
		field := article.Fields()[name]
		require.NotNil(t, field, name)

		nonNull, ok := field.Type.(*graphql.NonNull)
		require.True(t, ok, name)
		assert.Equal(t, graphql.String, nonNull.OfType, name)
	}
}

func TestBuild_SingularGetterTakesStringID(t *testing.T) {
	// The public contract is always a string identifier, whatever the
	// native primary-key type.
	schema, _ := buildTestSchema(t, policy.AllowAll(), DefaultOptions())

	field := schema.QueryType().Fields()["article"]
	require.NotNil(t, field)
	require.Len(t, field.Args, 1)
	assert.Equal(t, "id", field.Args[0].Name())

	nonNull, ok := field.Args[0].Type.(*graphql.NonNull)
	require.True(t, ok)
	assert.Equal(t, graphql.String, nonNull.OfType)
}

func TestBuild_TimeRangeArgsInjected(t *testing.T) {
	// Test plan:
	// - every non-singular query field carries start and end string args,
	//   including countArticles which declares no args of its own

	schema, _ := buildTestSchema(t, policy.AllowAll(), DefaultOptions())
	queryFields := schema.QueryType().Fields()

	for _, name := range []string{"articles", "getLatestArticles", "getFirstArticles", "countArticles"} {
		field := queryFields[name]
		require.NotNil(t, field, name)

		found := map[string]bool{}
		for _, arg := range field.Args {
			if arg.Name() == "start" || arg.Name() == "end" {
				assert.Equal(t, graphql.String, arg.Type, "%s.%s", name, arg.Name())
				found[arg.Name()] = true
			}
		}
		assert.True(t, found["start"], "%s is missing start", name)
		assert.True(t, found["end"], "%s is missing end", name)
	}

	// The singular getter keeps only its id argument.
	for _, arg := range queryFields["article"].Args {
		assert.NotContains(t, []string{"start", "end"}, arg.Name())
	}
}

func mutationArg(t *testing.T, schema *graphql.Schema, field, arg string) graphql.Input {
	t.Helper()
	def := schema.MutationType().Fields()[field]
	require.NotNil(t, def, field)
	for _, a := range def.Args {
		if a.Name() == arg {
			return a.Type
		}
	}
	t.Fatalf("mutation %s has no argument %s", field, arg)
	return nil
}

func TestBuild_MutationArgumentNullability(t *testing.T) {
	// Test plan:
	// - required scalar attributes become non-null create args
	// - optional scalars stay nullable
	// - update and delete require the primary key as non-null

	schema, _ := buildTestSchema(t, policy.AllowAll(), DefaultOptions())

	nonNull, ok := mutationArg(t, schema, "createAuthor", "name").(*graphql.NonNull)
	require.True(t, ok)
	assert.Equal(t, graphql.String, nonNull.OfType)

	assert.Equal(t, graphql.String, mutationArg(t, schema, "createArticle", "authorId"))

	for _, field := range []string{"updateArticle", "deleteArticle"} {
		nonNull, ok := mutationArg(t, schema, field, "id").(*graphql.NonNull)
		require.True(t, ok, field)
		assert.Equal(t, graphql.String, nonNull.OfType, field)
	}
}

func TestBuild_RelationArgsUseTargetPrimaryKeyType(t *testing.T) {
	// Relation arguments accept identifiers, never nested object types.
	schema, _ := buildTestSchema(t, policy.AllowAll(), DefaultOptions())

	assert.Equal(t, graphql.String, mutationArg(t, schema, "createArticle", "author"))

	list, ok := mutationArg(t, schema, "createAuthor", "articles").(*graphql.List)
	require.True(t, ok)
	assert.Equal(t, graphql.String, list.OfType)
}

func execute(t *testing.T, schema *graphql.Schema, query string) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:        *schema,
		RequestString: query,
		Context:       context.Background(),
	})
}

func TestResolvers_EndToEnd(t *testing.T) {
	// Test plan:
	// - create an author and two articles through mutations
	// - fetch the author and resolve its has-many relation
	// - resolve an article's belongs-to relation back to the author

	schema, memory := buildTestSchema(t, policy.AllowAll(), DefaultOptions())

	result := execute(t, schema, `mutation {
		createAuthor(id: "a1", name: "Ann") { id name }
	}`)
	require.Empty(t, result.Errors)

	for i, title := range []string{"first", "second"} {
		result = execute(t, schema, fmt.Sprintf(`mutation {
			createArticle(id: "p%d", title: %q, authorId: "a1", author: "a1") { id }
		}`, i+1, title))
		require.Empty(t, result.Errors)
	}

	result = execute(t, schema, `{
		author(id: "a1") {
			name
			articles { title }
		}
	}`)
	require.Empty(t, result.Errors)

	data := result.Data.(map[string]interface{})
	author := data["author"].(map[string]interface{})
	assert.Equal(t, "Ann", author["name"])

	articles := author["articles"].([]interface{})
	require.Len(t, articles, 2)

	// The has-many resolver queries the target filtered by the inverse
	// field equal to the parent's primary key.
	memory.mu.Lock()
	var sawInverse bool
	for _, criteria := range memory.fetchAll {
		if criteria.Where != nil && criteria.Where["authorId"] == "a1" {
			sawInverse = true
		}
	}
	memory.mu.Unlock()
	assert.True(t, sawInverse, "expected a FetchAll filtered on authorId")

	result = execute(t, schema, `{
		article(id: "p1") {
			title
			author { name }
		}
	}`)
	require.Empty(t, result.Errors)

	article := result.Data.(map[string]interface{})["article"].(map[string]interface{})
	assert.Equal(t, "first", article["title"])
	assert.Equal(t, "Ann", article["author"].(map[string]interface{})["name"])
}

func TestResolvers_PolicyRejectionReturnsNull(t *testing.T) {
	// Test plan:
	// - gate rejects article queries
	// - the singular getter resolves to null without touching the adapter
	// - the response carries no protocol-level error

	gate := policy.GateFunc(func(ctx context.Context, category policy.Category, identity, operation string) error {
		if identity == "Article" {
			return errors.New("forbidden")
		}
		return nil
	})
	schema, memory := buildTestSchema(t, gate, DefaultOptions())

	result := execute(t, schema, `{ article(id: "p1") { title } }`)
	assert.Empty(t, result.Errors)

	data := result.Data.(map[string]interface{})
	assert.Nil(t, data["article"])

	memory.mu.Lock()
	defer memory.mu.Unlock()
	assert.Zero(t, memory.fetchCalls, "rejected resolver must not call the adapter")
}

func TestResolvers_AdapterFailureReturnsNull(t *testing.T) {
	registry := adapter.NewRegistry()
	registry.Register("memory", failingAdapter{})
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	b := New(registry, policy.AllowAll(), nil, logger)

	schema, err := b.Build(context.Background(), articleAuthorModels(), DefaultOptions())
	require.NoError(t, err)

	result := execute(t, schema, `{ articles { title } }`)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.Data.(map[string]interface{})["articles"])
}

// failingAdapter errors on every operation.
type failingAdapter struct{}

func (failingAdapter) GetCollectionIdentity(c *model.Collection) string { return c.Identity() }

func (failingAdapter) Fetch(context.Context, string, *model.Collection, adapter.Criteria) (map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) FetchAll(context.Context, string, *model.Collection, adapter.Criteria) ([]map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) FetchLatest(context.Context, string, *model.Collection, adapter.Criteria) ([]map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) FetchFirst(context.Context, string, *model.Collection, adapter.Criteria) ([]map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) Count(context.Context, string, *model.Collection) (int, error) {
	return 0, errors.New("storage down")
}

func (failingAdapter) Create(context.Context, string, *model.Collection, map[string]interface{}) (map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) Update(context.Context, string, *model.Collection, map[string]interface{}) (map[string]interface{}, error) {
	return nil, errors.New("storage down")
}

func (failingAdapter) Delete(context.Context, string, *model.Collection, map[string]interface{}) (map[string]interface{}, error) {
	return nil, errors.New("storage down")
}
