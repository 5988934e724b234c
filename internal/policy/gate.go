// Package policy provides the authorization gate consulted before every
// generated resolver runs, and the per-collection policy scaffold files.
package policy

import "context"

// Category partitions gated operations.
type Category string

const (
	CategoryQueries   Category = "queries"
	CategoryMutations Category = "mutations"
)

// Gate resolves the checks configured for an operation and rejects the
// operation if any check fails. Implementations are external collaborators.
type Gate interface {
	Check(ctx context.Context, category Category, identity, operation string) error
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, category Category, identity, operation string) error

func (f GateFunc) Check(ctx context.Context, category Category, identity, operation string) error {
	return f(ctx, category, identity, operation)
}

// AllowAll returns a gate that accepts every operation.
func AllowAll() Gate {
	return GateFunc(func(context.Context, Category, string, string) error {
		return nil
	})
}
