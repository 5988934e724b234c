package builder

import "errors"

var (
	// ErrEmptyModelSet is returned when Build is called with no collections.
	ErrEmptyModelSet = errors.New("no collections to build a schema from")

	// ErrUnsupportedAttributeKind is returned for a scalar kind the type
	// mapper does not know.
	ErrUnsupportedAttributeKind = errors.New("unsupported attribute kind")

	// ErrUnknownTarget is returned when a relation references a collection
	// absent from the model set.
	ErrUnknownTarget = errors.New("relation references unknown collection")

	// ErrDuplicateIdentity is returned when two collections derive the same
	// identity and would generate colliding field names.
	ErrDuplicateIdentity = errors.New("collections derive the same identity")

	// ErrNodeNotFound is returned by the node lookup when no collection
	// holds a record with the requested id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrAmbiguousNode is returned by the node lookup when more than one
	// collection holds a record with the requested id.
	ErrAmbiguousNode = errors.New("node id matches multiple collections")
)
