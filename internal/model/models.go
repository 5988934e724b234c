// Package model defines content-model (collection) definitions and their
// on-disk JSON settings format.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// AttributeKind discriminates the three attribute variants.
type AttributeKind int

const (
	KindInvalid AttributeKind = iota
	KindScalar
	KindBelongsTo
	KindHasMany
)

// Attribute is one attribute rule of a collection. Exactly one variant is
// set: Type for scalars, Model for belongs-to relations, Collection (+Via)
// for has-many relations.
type Attribute struct {
	Type       string `json:"type,omitempty"`
	Model      string `json:"model,omitempty"`
	Collection string `json:"collection,omitempty"`
	Via        string `json:"via,omitempty"`
	Required   bool   `json:"required,omitempty"`
}

// Kind reports which variant the attribute is, or KindInvalid when the
// variants are ambiguous or absent.
func (a Attribute) Kind() AttributeKind {
	set := 0
	if a.Type != "" {
		set++
	}
	if a.Model != "" {
		set++
	}
	if a.Collection != "" {
		set++
	}
	if set != 1 {
		return KindInvalid
	}
	switch {
	case a.Type != "":
		return KindScalar
	case a.Model != "":
		return KindBelongsTo
	default:
		return KindHasMany
	}
}

// Info carries collection identity metadata.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PolicyConfig is the collection's own graphql policy overrides, merged into
// the persisted policy scaffold.
type PolicyConfig struct {
	Queries   map[string][]string `json:"queries,omitempty"`
	Mutations map[string][]string `json:"mutations,omitempty"`
}

// Collection is one content-model definition as loaded from a
// <name>.settings.json file. Read-only to the schema builder.
type Collection struct {
	Info       Info                 `json:"info"`
	PrimaryKey string               `json:"primaryKey"`
	Engine     string               `json:"engine"`
	Attributes map[string]Attribute `json:"attributes"`
	GraphQL    *PolicyConfig        `json:"graphql,omitempty"`
}

// Name returns the declared model name, lowercased.
func (c *Collection) Name() string {
	return strings.ToLower(c.Info.Name)
}

// Identity is the capitalized model name used for type names and derived
// field-name suffixes.
func (c *Collection) Identity() string {
	name := c.Name()
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// SingularField derives the singular query field name.
func (c *Collection) SingularField() string {
	return c.Name()
}

// PluralField derives the plural query field name.
func (c *Collection) PluralField() string {
	return c.Name() + "s"
}

// AttributeNames returns the attribute names in deterministic order.
func (c *Collection) AttributeNames() []string {
	names := make([]string, 0, len(c.Attributes))
	for name := range c.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks structural soundness of a single collection.
func (c *Collection) Validate() error {
	if c.Info.Name == "" {
		return fmt.Errorf("collection is missing info.name")
	}
	if c.PrimaryKey == "" {
		return fmt.Errorf("collection %q is missing a primary key", c.Info.Name)
	}
	if c.Engine == "" {
		return fmt.Errorf("collection %q is missing a storage engine", c.Info.Name)
	}
	for name, attr := range c.Attributes {
		if attr.Kind() == KindInvalid {
			return fmt.Errorf("collection %q attribute %q must declare exactly one of type, model or collection", c.Info.Name, name)
		}
		if attr.Kind() == KindHasMany && attr.Via == "" {
			return fmt.Errorf("collection %q attribute %q declares a has-many relation without an inverse field", c.Info.Name, name)
		}
	}
	return nil
}

// SortedNames returns the collection names of a model set in deterministic
// order. Build passes iterate collections in this order.
func SortedNames(collections map[string]*Collection) []string {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
