// Package introspection turns the result of an introspection query into a
// gqlparser schema, for endpoints whose SDL is not available locally.
package introspection

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

const defaultDeprecationReason = "No longer supported"

type schemaParser struct {
	position *ast.Position
}

// ParseIntrospectionQuery converts query into a schema document. Introspection
// types (names starting with "__") are left out. url names the source in positions.
func ParseIntrospectionQuery(url string, query Query) *ast.SchemaDocument {
	p := schemaParser{position: &ast.Position{Src: &ast.Source{Name: url}}}

	return p.document(query.Schema)
}

// LoadSchema parses query, adds the GraphQL prelude and validates the result.
func LoadSchema(url string, query Query) (*ast.Schema, error) {
	prelude, gqlErr := parser.ParseSchema(validator.Prelude)
	if gqlErr != nil {
		return nil, fmt.Errorf("failed to parse prelude: %w", gqlErr)
	}

	doc := ParseIntrospectionQuery(url, query)
	omitPrelude(doc, prelude)
	doc.Merge(prelude)

	schema, validationErr := validator.ValidateSchemaDocument(doc)
	if validationErr != nil {
		return nil, fmt.Errorf("validation error: %w", validationErr)
	}

	return schema, nil
}

// omitPrelude drops the definitions every server reports but the prelude already declares.
func omitPrelude(doc, prelude *ast.SchemaDocument) {
	definitions := doc.Definitions[:0]
	for _, def := range doc.Definitions {
		if prelude.Definitions.ForName(def.Name) == nil {
			definitions = append(definitions, def)
		}
	}
	doc.Definitions = definitions

	directives := doc.Directives[:0]
	for _, dir := range doc.Directives {
		if prelude.Directives.ForName(dir.Name) == nil {
			directives = append(directives, dir)
		}
	}
	doc.Directives = directives
}

func (p *schemaParser) document(schema Schema) *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}

	schemaDef := &ast.SchemaDefinition{Position: p.position}
	operations := []struct {
		operation ast.Operation
		ref       *NamedTypeRef
	}{
		{ast.Query, schema.QueryType},
		{ast.Mutation, schema.MutationType},
		{ast.Subscription, schema.SubscriptionType},
	}
	for _, op := range operations {
		if op.ref != nil && op.ref.Name != "" {
			schemaDef.OperationTypes = append(schemaDef.OperationTypes, &ast.OperationTypeDefinition{
				Operation: op.operation,
				Type:      op.ref.Name,
				Position:  p.position,
			})
		}
	}
	doc.Schema = append(doc.Schema, schemaDef)

	for _, typ := range schema.Types {
		if typ == nil || strings.HasPrefix(typ.Name, "__") {
			continue
		}
		if def := p.definition(typ); def != nil {
			doc.Definitions = append(doc.Definitions, def)
		}
	}

	for _, dir := range schema.Directives {
		doc.Directives = append(doc.Directives, p.directiveDefinition(dir))
	}

	return doc
}

func (p *schemaParser) definition(typ *FullType) *ast.Definition {
	def := &ast.Definition{
		Name:        typ.Name,
		Description: deref(typ.Description),
		Position:    p.position,
	}

	switch typ.Kind {
	case TypeKindScalar:
		def.Kind = ast.Scalar
	case TypeKindObject, TypeKindInterface:
		def.Kind = ast.Object
		if typ.Kind == TypeKindInterface {
			def.Kind = ast.Interface
		}
		for _, ref := range typ.Interfaces {
			def.Interfaces = append(def.Interfaces, refName(ref))
		}
		for _, field := range typ.Fields {
			def.Fields = append(def.Fields, p.fieldDefinition(field))
		}
	case TypeKindUnion:
		def.Kind = ast.Union
		for _, ref := range typ.PossibleTypes {
			def.Types = append(def.Types, refName(ref))
		}
	case TypeKindEnum:
		def.Kind = ast.Enum
		for _, value := range typ.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        value.Name,
				Description: deref(value.Description),
				Directives:  p.deprecation(value.IsDeprecated, value.DeprecationReason),
				Position:    p.position,
			})
		}
	case TypeKindInputObject:
		def.Kind = ast.InputObject
		for _, field := range typ.InputFields {
			arg := p.argumentDefinition(field)
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         arg.Name,
				Description:  arg.Description,
				DefaultValue: arg.DefaultValue,
				Type:         arg.Type,
				Position:     p.position,
			})
		}
	default:
		return nil
	}

	return def
}

func (p *schemaParser) fieldDefinition(field *FieldValue) *ast.FieldDefinition {
	fd := &ast.FieldDefinition{
		Name:        field.Name,
		Description: deref(field.Description),
		Type:        p.typeRef(&field.Type),
		Directives:  p.deprecation(field.IsDeprecated, field.DeprecationReason),
		Position:    p.position,
	}
	for _, arg := range field.Args {
		fd.Arguments = append(fd.Arguments, p.argumentDefinition(arg))
	}

	return fd
}

func (p *schemaParser) argumentDefinition(input *InputValue) *ast.ArgumentDefinition {
	return &ast.ArgumentDefinition{
		Name:         input.Name,
		Description:  deref(input.Description),
		Type:         p.typeRef(&input.Type),
		DefaultValue: p.defaultValue(input.DefaultValue),
		Position:     p.position,
	}
}

func (p *schemaParser) directiveDefinition(dir *DirectiveType) *ast.DirectiveDefinition {
	def := &ast.DirectiveDefinition{
		Name:         dir.Name,
		Description:  deref(dir.Description),
		IsRepeatable: dir.IsRepeatable,
		Position:     p.position,
	}
	for _, location := range dir.Locations {
		def.Locations = append(def.Locations, ast.DirectiveLocation(location))
	}
	for _, arg := range dir.Args {
		def.Arguments = append(def.Arguments, p.argumentDefinition(arg))
	}

	return def
}

func (p *schemaParser) typeRef(ref *TypeRef) *ast.Type {
	if ref == nil {
		return &ast.Type{Position: p.position}
	}

	switch ref.Kind {
	case TypeKindNonNull:
		t := p.typeRef(ref.OfType)
		t.NonNull = true
		return t
	case TypeKindList:
		return &ast.Type{Elem: p.typeRef(ref.OfType), Position: p.position}
	default:
		return &ast.Type{NamedType: deref(ref.Name), Position: p.position}
	}
}

// defaultValue parses a default value, which introspection reports as GraphQL
// source text.
func (p *schemaParser) defaultValue(raw *string) *ast.Value {
	if raw == nil {
		return nil
	}

	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: "{f(v: " + *raw + ")}"})
	if gqlErr != nil || len(doc.Operations) != 1 || len(doc.Operations[0].SelectionSet) != 1 {
		return nil
	}
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	if !ok || len(field.Arguments) != 1 {
		return nil
	}

	return field.Arguments[0].Value
}

func (p *schemaParser) deprecation(deprecated bool, reason *string) ast.DirectiveList {
	if !deprecated {
		return nil
	}

	message := defaultDeprecationReason
	if reason != nil {
		message = *reason
	}

	return ast.DirectiveList{{
		Name: "deprecated",
		Arguments: ast.ArgumentList{{
			Name:     "reason",
			Value:    &ast.Value{Raw: message, Kind: ast.StringValue, Position: p.position},
			Position: p.position,
		}},
		Position: p.position,
	}}
}

func refName(ref *TypeRef) string {
	for ref != nil && ref.Name == nil {
		ref = ref.OfType
	}
	if ref == nil {
		return ""
	}

	return *ref.Name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
