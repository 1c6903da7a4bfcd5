// Package fetchable describes the shape of GraphQL object, connection and edge types
// as seen by fetchers.
package fetchable

import (
	"fmt"
	"sync"
)

// Category is the role a Type plays when fetched.
type Category string

const (
	CategoryObject     Category = "OBJECT"
	CategoryConnection Category = "CONNECTION"
	CategoryEdge       Category = "EDGE"
)

// TypeError is returned when a type declaration breaks a shape invariant.
type TypeError struct {
	TypeName string
	Reason   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("illegal fetchable type %q: %s", e.TypeName, e.Reason)
}

// Type is an immutable fetchable type. Instances are created once when the schema is
// bound and shared by every fetcher of that type.
type Type struct {
	name           string
	category       Category
	superTypes     []*Type
	declaredFields map[string]*Field
	declaredOrder  []string

	fieldsOnce sync.Once
	fields     map[string]*Field
	fieldOrder []string
}

// NewType declares a type and validates connection/edge shapes.
func NewType(name string, category Category, superTypes []*Type, declaredFields ...FieldSpec) (*Type, error) {
	if category == "" {
		category = CategoryObject
	}
	t := &Type{
		name:           name,
		category:       category,
		superTypes:     append([]*Type(nil), superTypes...),
		declaredFields: make(map[string]*Field, len(declaredFields)),
		declaredOrder:  make([]string, 0, len(declaredFields)),
	}

	for _, spec := range declaredFields {
		d := spec.descriptor()
		if d.Name == "" {
			return nil, &TypeError{TypeName: name, Reason: "field name must not be empty"}
		}
		if _, ok := t.declaredFields[d.Name]; ok {
			return nil, &TypeError{TypeName: name, Reason: fmt.Sprintf("duplicate field %q", d.Name)}
		}
		t.declaredFields[d.Name] = newField(t, d)
		t.declaredOrder = append(t.declaredOrder, d.Name)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// MustNewType is like NewType but panics on error.
func MustNewType(name string, category Category, superTypes []*Type, declaredFields ...FieldSpec) *Type {
	t, err := NewType(name, category, superTypes, declaredFields...)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Type) validate() error {
	switch t.category {
	case CategoryObject:
		return nil
	case CategoryConnection:
		if len(t.superTypes) > 0 {
			return &TypeError{TypeName: t.name, Reason: "connection type cannot have super types"}
		}
		edges, ok := t.declaredFields["edges"]
		if !ok || edges.category != FieldCategoryList {
			return &TypeError{TypeName: t.name, Reason: `connection type must declare a list field "edges"`}
		}
	case CategoryEdge:
		if len(t.superTypes) > 0 {
			return &TypeError{TypeName: t.name, Reason: "edge type cannot have super types"}
		}
		node, ok := t.declaredFields["node"]
		if !ok || node.category != FieldCategoryReference {
			return &TypeError{TypeName: t.name, Reason: `edge type must declare a reference field "node"`}
		}
		if cursor, ok := t.declaredFields["cursor"]; ok && cursor.category != FieldCategoryScalar {
			return &TypeError{TypeName: t.name, Reason: `field "cursor" of edge type must be scalar`}
		}
	default:
		return &TypeError{TypeName: t.name, Reason: fmt.Sprintf("unknown category %q", t.category)}
	}

	return nil
}

func (t *Type) Name() string       { return t.name }
func (t *Type) Category() Category { return t.category }

// SuperTypes returns the direct super types in declaration order.
func (t *Type) SuperTypes() []*Type {
	return append([]*Type(nil), t.superTypes...)
}

// DeclaredField returns a field declared directly on t.
func (t *Type) DeclaredField(name string) (*Field, bool) {
	f, ok := t.declaredFields[name]
	return f, ok
}

// DeclaredFieldNames returns the names of fields declared directly on t, in declaration order.
func (t *Type) DeclaredFieldNames() []string {
	return append([]string(nil), t.declaredOrder...)
}

// Field looks a field up in the full closure of t.
func (t *Type) Field(name string) (*Field, bool) {
	t.initFields()
	f, ok := t.fields[name]

	return f, ok
}

// Fields returns every field of t, declared and inherited. Own fields take precedence;
// then supertypes are searched depth first in declaration order and the first hit wins.
func (t *Type) Fields() map[string]*Field {
	t.initFields()
	fields := make(map[string]*Field, len(t.fields))
	for name, f := range t.fields {
		fields[name] = f
	}

	return fields
}

// FieldNames returns the names of Fields in resolution order.
func (t *Type) FieldNames() []string {
	t.initFields()
	return append([]string(nil), t.fieldOrder...)
}

func (t *Type) initFields() {
	t.fieldsOnce.Do(func() {
		t.fields = make(map[string]*Field)
		t.collectFields(t)
	})
}

func (t *Type) collectFields(from *Type) {
	for _, name := range from.declaredOrder {
		if _, ok := t.fields[name]; ok {
			continue
		}
		t.fields[name] = from.declaredFields[name]
		t.fieldOrder = append(t.fieldOrder, name)
	}
	for _, superType := range from.superTypes {
		t.collectFields(superType)
	}
}

// DeclaringTypeNames returns the types that declare field. A type declaring the field
// itself ends the search on that branch; otherwise every super type is searched, so a
// field declared on two sibling super types yields both.
func (t *Type) DeclaringTypeNames(field string) []string {
	var names []string
	seen := make(map[string]struct{})
	t.collectDeclaringTypeNames(field, seen, &names)

	return names
}

func (t *Type) collectDeclaringTypeNames(field string, seen map[string]struct{}, names *[]string) {
	if _, ok := t.declaredFields[field]; ok {
		if _, dup := seen[t.name]; !dup {
			seen[t.name] = struct{}{}
			*names = append(*names, t.name)
		}
		return
	}
	for _, superType := range t.superTypes {
		superType.collectDeclaringTypeNames(field, seen, names)
	}
}

// Closure returns t followed by all of its transitive super types, without duplicates.
func (t *Type) Closure() []*Type {
	var types []*Type
	seen := make(map[*Type]struct{})
	var walk func(*Type)
	walk = func(current *Type) {
		if _, ok := seen[current]; ok {
			return
		}
		seen[current] = struct{}{}
		types = append(types, current)
		for _, superType := range current.superTypes {
			walk(superType)
		}
	}
	walk(t)

	return types
}

func (t *Type) String() string {
	return t.name
}
