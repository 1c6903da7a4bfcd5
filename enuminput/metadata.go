// Package enuminput describes the enum and input object types that fetcher arguments
// refer to.
package enuminput

import (
	"errors"
	"fmt"
	"slices"
)

type Kind string

const (
	KindEnum  Kind = "ENUM"
	KindInput Kind = "INPUT"
)

// ErrUndeclaredType is wrapped by Build when an input field refers to a type that
// was never added.
var ErrUndeclaredType = errors.New("undeclared type")

// MetaType is a built enum or input type. Fields of an input type point at other
// built MetaTypes, possibly forming cycles. A MetaType is read-only once built.
type MetaType struct {
	name   string
	kind   Kind
	fields map[string]*MetaType
}

func (t *MetaType) Name() string { return t.name }
func (t *MetaType) Kind() Kind   { return t.kind }

// Field returns the enum or input type of the input field name.
func (t *MetaType) Field(name string) (*MetaType, bool) {
	field, ok := t.fields[name]
	return field, ok
}

// FieldNames returns the names of the enum and input fields, sorted. Enums have none.
func (t *MetaType) FieldNames() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// FieldDecl declares an input field whose type is an enum or input type.
type FieldDecl struct {
	Name     string
	TypeName string
}

type declaration struct {
	input  bool
	fields []FieldDecl
}

// Builder collects declarations in any order. Forward references are resolved by Build.
type Builder struct {
	declarations map[string]declaration
	built        bool
}

func NewBuilder() *Builder {
	return &Builder{declarations: make(map[string]declaration)}
}

// Add declares an enum when no fields are given and an input object otherwise.
func (b *Builder) Add(name string, fields ...FieldDecl) *Builder {
	b.declarations[name] = declaration{input: len(fields) > 0, fields: fields}
	return b
}

// AddInput declares an input object, even one without enum or input fields.
func (b *Builder) AddInput(name string, fields ...FieldDecl) *Builder {
	b.declarations[name] = declaration{input: true, fields: fields}
	return b
}

// Build resolves every declaration. A MetaType is memoized before its fields are
// resolved, so self-referencing and mutually referencing inputs resolve to shared
// pointers instead of recursing forever. Build may only be called once.
func (b *Builder) Build() (*Metadata, error) {
	if b.built {
		panic("enuminput: Build called twice")
	}
	b.built = true

	md := &Metadata{types: make(map[string]*MetaType, len(b.declarations))}
	names := make([]string, 0, len(b.declarations))
	for name := range b.declarations {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if _, err := b.resolve(md, name); err != nil {
			return nil, err
		}
	}

	return md, nil
}

func (b *Builder) resolve(md *Metadata, name string) (*MetaType, error) {
	if t, ok := md.types[name]; ok {
		return t, nil
	}
	decl, ok := b.declarations[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUndeclaredType, name)
	}

	if !decl.input {
		t := &MetaType{name: name, kind: KindEnum}
		md.types[name] = t
		return t, nil
	}

	t := &MetaType{name: name, kind: KindInput, fields: make(map[string]*MetaType, len(decl.fields))}
	md.types[name] = t
	for _, field := range decl.fields {
		fieldType, err := b.resolve(md, field.TypeName)
		if err != nil {
			return nil, fmt.Errorf("field %q of input type %q: %w", field.Name, name, err)
		}
		t.fields[field.Name] = fieldType
	}

	return t, nil
}

// Metadata is the immutable result of Builder.Build.
type Metadata struct {
	types map[string]*MetaType
}

// Type returns the named type, or false when it was never declared.
func (md *Metadata) Type(name string) (*MetaType, bool) {
	if md == nil {
		return nil, false
	}
	t, ok := md.types[name]

	return t, ok
}

// Names returns every declared type name, sorted.
func (md *Metadata) Names() []string {
	names := make([]string, 0, len(md.types))
	for name := range md.types {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
