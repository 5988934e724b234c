package builder

import (
	"github.com/graphql-go/graphql"

	"github.com/contentgraph/contentgraph/internal/adapter"
	"github.com/contentgraph/contentgraph/internal/policy"
)

// guarded wraps a resolver with the policy gate and the null-collapse
// policy: a gate rejection skips the adapter entirely, and both rejection
// and adapter failure resolve to null instead of a field error. Clients
// depend on receiving null here, so changing error visibility means
// changing this one function.
func (b *Builder) guarded(category policy.Category, identity, operation string, resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if err := b.gate.Check(p.Context, category, identity, operation); err != nil {
			b.logger.Debug().Err(err).
				Str("category", string(category)).
				Str("identity", identity).
				Str("operation", operation).
				Msg("policy gate rejected operation")
			return nil, nil
		}

		value, err := resolve(p)
		if err != nil {
			b.logger.Warn().Err(err).
				Str("identity", identity).
				Str("operation", operation).
				Msg("adapter call failed")
			return nil, nil
		}
		return value, nil
	}
}

// criteriaFromArgs reads the lister arguments plus the injected time-range
// arguments out of a resolved argument map.
func criteriaFromArgs(args map[string]interface{}) adapter.Criteria {
	criteria := adapter.Criteria{}
	if limit, ok := args["limit"].(int); ok {
		criteria.Limit = limit
	}
	if skip, ok := args["skip"].(int); ok {
		criteria.Skip = skip
	}
	if sort, ok := args["sort"].(string); ok {
		criteria.Sort = sort
	}
	if start, ok := args["start"].(string); ok {
		criteria.Start = start
	}
	if end, ok := args["end"].(string); ok {
		criteria.End = end
	}
	return criteria
}

// sourceMap extracts the parent record of a field resolution.
func sourceMap(p graphql.ResolveParams) map[string]interface{} {
	parent, _ := p.Source.(map[string]interface{})
	return parent
}
