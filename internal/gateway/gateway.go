// Package gateway serves a built schema over HTTP: query execution, a
// playground page and the SDL export.
package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
)

// graphqlRequest is the standard GraphQL HTTP request envelope.
type graphqlRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   interface{}    `json:"data,omitempty"`
	Errors []graphqlError `json:"errors,omitempty"`
}

// compiledSchema pairs an executable schema with its SDL export.
type compiledSchema struct {
	schema *graphql.Schema
	sdl    string
}

// Gateway holds the currently served schema. UpdateSchema swaps it
// atomically, so rebuilds never disturb in-flight queries.
type Gateway struct {
	compiled atomic.Value // holds *compiledSchema
	logger   zerolog.Logger
}

// New creates a gateway with no schema installed yet.
func New(logger zerolog.Logger) *Gateway {
	return &Gateway{logger: logger}
}

// UpdateSchema validates the SDL export and swaps in the new schema. The
// document is parsed before the swap so a malformed export never replaces
// a serving schema.
func (g *Gateway) UpdateSchema(schema *graphql.Schema, sdl string) error {
	_, report := astparser.ParseGraphqlDocumentString(sdl)
	if report.HasErrors() {
		return fmt.Errorf("failed to parse schema document: %s", report.Error())
	}

	g.compiled.Store(&compiledSchema{schema: schema, sdl: sdl})
	g.logger.Info().Msg("schema updated")
	return nil
}

// Handler returns the HTTP handler for the GraphQL endpoint.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", g.serveGraphQL)
	mux.HandleFunc("/graphql/schema", g.serveSchema)
	return mux
}

func (g *Gateway) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		g.servePlayground(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	compiled := g.current()
	if compiled == nil {
		http.Error(w, "Schema not initialized", http.StatusServiceUnavailable)
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         *compiled.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		g.logger.Warn().Err(err).Msg("failed to encode graphql response")
	}
}

func (g *Gateway) serveSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	compiled := g.current()
	if compiled == nil {
		http.Error(w, "Schema not initialized", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, compiled.sdl)
}

// SDL returns the SDL export of the currently served schema, or an empty
// string when no schema is installed.
func (g *Gateway) SDL() string {
	if compiled := g.current(); compiled != nil {
		return compiled.sdl
	}
	return ""
}

func (g *Gateway) current() *compiledSchema {
	compiled, _ := g.compiled.Load().(*compiledSchema)
	return compiled
}

// servePlayground serves the GraphiQL page.
func (g *Gateway) servePlayground(w http.ResponseWriter, r *http.Request) {
	playgroundHTML := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <title>contentgraph playground</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
  <style>
    body {
      height: 100%%;
      margin: 0;
      width: 100%%;
      overflow: hidden;
    }
    #graphiql {
      height: 100vh;
    }
  </style>
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({
      url: '%s',
    });

    const root = ReactDOM.createRoot(document.getElementById('graphiql'));
    root.render(React.createElement(GraphiQL, { fetcher: fetcher }));
  </script>
</body>
</html>
`, r.URL.Path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(playgroundHTML))
}
