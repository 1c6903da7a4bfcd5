// Package binding turns a validated gqlparser schema into fetchable types and
// enum/input metadata.
package binding

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/Yamashou/gqlfetcher/enuminput"
	"github.com/Yamashou/gqlfetcher/fetchable"
	"github.com/Yamashou/gqlfetcher/fetcher"
)

// Schema is a bound schema. It is immutable and safe to share.
type Schema struct {
	source   *ast.Schema
	types    map[string]*fetchable.Type
	metadata *enuminput.Metadata
}

// Type returns the fetchable type with the given name.
func (s *Schema) Type(name string) (*fetchable.Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// TypeNames returns the names of every bound fetchable type, sorted.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Fetcher returns an empty fetcher of the named type.
func (s *Schema) Fetcher(name string) (*fetcher.Fetcher, bool) {
	t, ok := s.types[name]
	if !ok {
		return nil, false
	}

	return fetcher.New(t), true
}

// OperationFetcher returns an empty fetcher of the root type of operation.
func (s *Schema) OperationFetcher(operation ast.Operation) (*fetcher.Fetcher, bool) {
	var root *ast.Definition
	switch operation {
	case ast.Query:
		root = s.source.Query
	case ast.Mutation:
		root = s.source.Mutation
	case ast.Subscription:
		root = s.source.Subscription
	}
	if root == nil {
		return nil, false
	}

	return s.Fetcher(root.Name)
}

// Metadata returns the enum and input type registry of the schema.
func (s *Schema) Metadata() *enuminput.Metadata {
	return s.metadata
}

// Source returns the schema the binding was made from.
func (s *Schema) Source() *ast.Schema {
	return s.source
}

type binder struct {
	schema      *ast.Schema
	types       map[string]*fetchable.Type
	resolving   map[string]struct{}
	connections map[string]connection
	edges       map[string]struct{}
}

type connection struct {
	edgeTypeName string
	nodeTypeName string
}

// Bind binds every object, interface and union of schema. Connections are
// recognized by shape: an object with a list field "edges" whose element type
// has a field "node".
func Bind(schema *ast.Schema) (*Schema, error) {
	b := &binder{
		schema:      schema,
		types:       make(map[string]*fetchable.Type),
		resolving:   make(map[string]struct{}),
		connections: make(map[string]connection),
		edges:       make(map[string]struct{}),
	}
	b.findConnections()

	names := make([]string, 0, len(schema.Types))
	for name := range schema.Types {
		names = append(names, name)
	}
	slices.Sort(names)

	metadata := enuminput.NewBuilder()
	for _, name := range names {
		def := schema.Types[name]
		if def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		switch def.Kind {
		case ast.Object, ast.Interface, ast.Union:
			if _, err := b.resolve(name); err != nil {
				return nil, err
			}
		case ast.Enum:
			metadata.Add(name)
		case ast.InputObject:
			metadata.AddInput(name, b.inputFields(def)...)
		}
	}

	md, err := metadata.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build enum/input metadata: %w", err)
	}

	return &Schema{source: schema, types: b.types, metadata: md}, nil
}

func (b *binder) findConnections() {
	for name, def := range b.schema.Types {
		if def.Kind != ast.Object || def.BuiltIn {
			continue
		}
		edges := def.Fields.ForName("edges")
		if edges == nil || edges.Type.Elem == nil {
			continue
		}
		edgeDef := b.schema.Types[edges.Type.Name()]
		if edgeDef == nil || edgeDef.Kind != ast.Object {
			continue
		}
		node := edgeDef.Fields.ForName("node")
		if node == nil || node.Type.Elem != nil {
			continue
		}
		b.connections[name] = connection{edgeTypeName: edgeDef.Name, nodeTypeName: node.Type.Name()}
		b.edges[edgeDef.Name] = struct{}{}
	}
}

func (b *binder) resolve(name string) (*fetchable.Type, error) {
	if t, ok := b.types[name]; ok {
		return t, nil
	}
	if _, ok := b.resolving[name]; ok {
		return nil, fmt.Errorf("type %q inherits from itself", name)
	}
	def, ok := b.schema.Types[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	b.resolving[name] = struct{}{}
	defer delete(b.resolving, name)

	category := fetchable.CategoryObject
	if _, ok := b.connections[name]; ok {
		category = fetchable.CategoryConnection
	} else if _, ok := b.edges[name]; ok {
		category = fetchable.CategoryEdge
	}

	var superTypes []*fetchable.Type
	if category == fetchable.CategoryObject {
		for _, interfaceName := range def.Interfaces {
			superType, err := b.resolve(interfaceName)
			if err != nil {
				return nil, fmt.Errorf("super type of %q: %w", name, err)
			}
			superTypes = append(superTypes, superType)
		}
	}

	fields := make([]fetchable.FieldSpec, 0, len(def.Fields))
	for _, fd := range def.Fields {
		if strings.HasPrefix(fd.Name, "__") || inherited(superTypes, fd.Name) {
			continue
		}
		fields = append(fields, b.field(fd))
	}

	t, err := fetchable.NewType(name, category, superTypes, fields...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind type %q: %w", name, err)
	}
	b.types[name] = t

	return t, nil
}

func (b *binder) field(fd *ast.FieldDefinition) fetchable.FieldDescriptor {
	d := fetchable.FieldDescriptor{
		Name:        fd.Name,
		Category:    fetchable.FieldCategoryScalar,
		Undefinable: !fd.Type.NonNull,
	}
	for _, arg := range fd.Arguments {
		d.Args = append(d.Args, fetchable.Arg{Name: arg.Name, GraphQLType: arg.Type.String()})
	}

	targetName := fd.Type.Name()
	target := b.schema.Types[targetName]
	if target == nil {
		return d
	}

	switch {
	case target.Kind == ast.Scalar || target.Kind == ast.Enum:
		if targetName == "ID" && fd.Type.Elem == nil {
			d.Category = fetchable.FieldCategoryID
		}
	case fd.Type.Elem == nil && b.isConnection(targetName):
		c := b.connections[targetName]
		d.Category = fetchable.FieldCategoryConnection
		d.ConnectionTypeName = targetName
		d.EdgeTypeName = c.edgeTypeName
		d.TargetTypeName = c.nodeTypeName
	case fd.Type.Elem != nil:
		d.Category = fetchable.FieldCategoryList
		d.TargetTypeName = targetName
	default:
		d.Category = fetchable.FieldCategoryReference
		d.TargetTypeName = targetName
	}

	return d
}

// inherited reports whether an interface already declares name. Implementations
// must repeat interface fields in SDL; the interface stays their declaring type.
func inherited(superTypes []*fetchable.Type, name string) bool {
	for _, superType := range superTypes {
		if _, ok := superType.Field(name); ok {
			return true
		}
	}

	return false
}

func (b *binder) isConnection(name string) bool {
	_, ok := b.connections[name]
	return ok
}

func (b *binder) inputFields(def *ast.Definition) []enuminput.FieldDecl {
	var fields []enuminput.FieldDecl
	for _, fd := range def.Fields {
		target := b.schema.Types[fd.Type.Name()]
		if target == nil || target.BuiltIn {
			continue
		}
		if target.Kind == ast.Enum || target.Kind == ast.InputObject {
			fields = append(fields, enuminput.FieldDecl{Name: fd.Name, TypeName: target.Name})
		}
	}

	return fields
}
