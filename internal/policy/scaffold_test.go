package policy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentgraph/contentgraph/internal/model"
)

var testQueryFields = []string{
	"article", "articles", "getLatestArticles", "getFirstArticles", "countArticles",
	"author", "authors", "node",
}

var testMutationFields = []string{
	"createArticle", "updateArticle", "deleteArticle",
	"createAuthor", "updateAuthor", "deleteAuthor",
}

func testCollections() map[string]*model.Collection {
	return map[string]*model.Collection{
		"article": {
			Info:       model.Info{Name: "article"},
			PrimaryKey: "id",
			Engine:     "memory",
		},
		"author": {
			Info:       model.Info{Name: "author"},
			PrimaryKey: "id",
			Engine:     "memory",
		},
	}
}

func readScaffold(t *testing.T, dir, name string) Scaffold {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name+".settings.json"))
	require.NoError(t, err)

	var s Scaffold
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestScaffoldWriter_Write(t *testing.T) {
	// Test plan:
	// - write scaffolds for two collections
	// - each file holds only the operations whose names reference the
	//   collection's identity, initialized to empty check lists

	dir := t.TempDir()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	writer := NewScaffoldWriter(dir, logger)

	writer.Write(context.Background(), testCollections(), testQueryFields, testMutationFields)

	article := readScaffold(t, dir, "article")
	for _, op := range []string{"article", "articles", "getLatestArticles", "countArticles"} {
		checks, ok := article.GraphQL.Queries[op]
		assert.True(t, ok, op)
		assert.Empty(t, checks, op)
	}
	assert.NotContains(t, article.GraphQL.Queries, "author")
	assert.NotContains(t, article.GraphQL.Queries, "node")
	assert.Contains(t, article.GraphQL.Mutations, "createArticle")
	assert.NotContains(t, article.GraphQL.Mutations, "createAuthor")

	author := readScaffold(t, dir, "author")
	assert.Contains(t, author.GraphQL.Queries, "authors")
	assert.NotContains(t, author.GraphQL.Queries, "articles")
}

func TestScaffoldWriter_MergesExistingFile(t *testing.T) {
	// A pre-existing check list survives a rewrite; stale operations are
	// dropped.
	dir := t.TempDir()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	writer := NewScaffoldWriter(dir, logger)

	existing := Scaffold{
		GraphQL: ScaffoldGraphQL{
			Queries: map[string][]string{
				"article":      {"isAuthenticated"},
				"oldOperation": {"legacy"},
			},
			Mutations: map[string][]string{},
		},
	}
	data, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "article.settings.json"), data, 0644))

	writer.Write(context.Background(), testCollections(), testQueryFields, testMutationFields)

	got := readScaffold(t, dir, "article")
	assert.Equal(t, []string{"isAuthenticated"}, got.GraphQL.Queries["article"])
	assert.NotContains(t, got.GraphQL.Queries, "oldOperation")
}

func TestScaffoldWriter_CollectionOverrides(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	writer := NewScaffoldWriter(dir, logger)

	collections := testCollections()
	collections["article"].GraphQL = &model.PolicyConfig{
		Queries: map[string][]string{"articles": {"rateLimit"}},
	}

	writer.Write(context.Background(), collections, testQueryFields, testMutationFields)

	got := readScaffold(t, dir, "article")
	assert.Equal(t, []string{"rateLimit"}, got.GraphQL.Queries["articles"])
}

func TestScaffoldWriter_UnwritableDirDoesNotPanic(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	writer := NewScaffoldWriter(filepath.Join(string(os.PathSeparator), "proc", "no-such-place"), logger)

	// Failures are logged only.
	writer.Write(context.Background(), testCollections(), testQueryFields, testMutationFields)
}

func TestGateFunc(t *testing.T) {
	var gotCategory Category
	gate := GateFunc(func(ctx context.Context, category Category, identity, operation string) error {
		gotCategory = category
		return nil
	})

	require.NoError(t, gate.Check(context.Background(), CategoryMutations, "Article", "createArticle"))
	assert.Equal(t, CategoryMutations, gotCategory)

	assert.NoError(t, AllowAll().Check(context.Background(), CategoryQueries, "Article", "article"))
}
