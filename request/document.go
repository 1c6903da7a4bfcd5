// Package request assembles complete GraphQL operation documents from fetchers.
package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Yamashou/gqlfetcher/fetcher"
	"github.com/Yamashou/gqlfetcher/textwriter"
)

// ReservedPrefix starts names that operation variables may not use.
const ReservedPrefix = "__"

var (
	ErrEmptySelection    = errors.New("empty selection")
	ErrReservedVariable  = errors.New("reserved variable name")
	ErrVariableConflict  = errors.New("conflicting variable types")
	ErrUnknownArgument   = errors.New("unknown argument")
	ErrDuplicateFragment = errors.New("duplicate fragment name")
)

// VariableDefinition is a variable declared by an operation.
type VariableDefinition struct {
	Name        string
	GraphQLType string
}

// Document is a rendered operation with the fragments it spreads.
type Document struct {
	Operation ast.Operation
	Name      string
	Variables []VariableDefinition
	Fragments []*fetcher.Fragment
	Text      string
}

func (d *Document) String() string {
	return d.Text
}

// Build renders operation over the selection of f. When name is empty it is derived
// from the first selected root field, e.g. "EmployeeQuery".
func Build(operation ast.Operation, name string, f *fetcher.Fetcher) (*Document, error) {
	fields := f.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("failed to build %s: %w", operation, ErrEmptySelection)
	}
	if name == "" {
		name = defaultName(operation, f, fields[0])
	}

	c := &collector{
		variables: make(map[string]string),
		fragments: NewFragmentSet(),
		visited:   make(map[*fetcher.Fetcher]struct{}),
	}
	if err := c.collect(f); err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", operation, name, err)
	}

	doc := &Document{
		Operation: operation,
		Name:      name,
		Variables: c.definitions,
		Fragments: c.fragments.Fragments(),
	}
	doc.Text = render(doc, f)

	return doc, nil
}

func defaultName(operation ast.Operation, f *fetcher.Fetcher, first fetcher.Field) string {
	base := first.Name
	if strings.HasPrefix(base, fetcher.SpreadPrefix) && f.Type() != nil {
		base = f.Type().Name()
	}
	title := cases.Title(language.Und, cases.NoLower)

	return title.String(base) + title.String(string(operation))
}

func render(doc *Document, f *fetcher.Fetcher) string {
	w := textwriter.New("\t")
	w.Text(string(doc.Operation) + " " + doc.Name)
	if len(doc.Variables) > 0 {
		w.Scope(textwriter.Scope{Type: textwriter.Arguments}, func() {
			for _, v := range doc.Variables {
				w.Separator()
				w.Text("$" + v.Name + ": " + v.GraphQLType)
			}
		})
	}
	w.Text(" ")
	w.Text(f.String())

	for _, fragment := range doc.Fragments {
		w.Text("\n\nfragment " + fragment.Name() + " on " + fragment.TypeName() + " ")
		w.Text(fragment.Fetcher().String())
	}

	return w.String()
}

type collector struct {
	definitions []VariableDefinition
	variables   map[string]string
	fragments   *FragmentSet
	visited     map[*fetcher.Fetcher]struct{}
}

func (c *collector) collect(f *fetcher.Fetcher) error {
	if _, ok := c.visited[f]; ok {
		return nil
	}
	c.visited[f] = struct{}{}

	for _, field := range f.Fields() {
		if err := c.arguments(f, field); err != nil {
			return err
		}
		if field.Fragment != nil {
			if err := c.fragments.Add(field.Fragment); err != nil {
				return err
			}
		}
		if field.Child != nil {
			if err := c.collect(field.Child); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *collector) arguments(f *fetcher.Fetcher, field fetcher.Field) error {
	for _, arg := range field.Args {
		variable, ok := arg.Value.(fetcher.Variable)
		if !ok {
			continue
		}
		name := string(variable)
		if strings.HasPrefix(name, ReservedPrefix) {
			return fmt.Errorf("%w: $%s", ErrReservedVariable, name)
		}

		graphQLType, err := argumentType(f, field.Name, arg.Name)
		if err != nil {
			return err
		}
		if existing, ok := c.variables[name]; ok {
			if existing != graphQLType {
				return fmt.Errorf("%w: $%s is both %s and %s", ErrVariableConflict, name, existing, graphQLType)
			}
			continue
		}
		c.variables[name] = graphQLType
		c.definitions = append(c.definitions, VariableDefinition{Name: name, GraphQLType: graphQLType})
	}

	return nil
}

func argumentType(f *fetcher.Fetcher, fieldName, argName string) (string, error) {
	if f.Type() == nil {
		return "", fmt.Errorf("%w: %s(%s) on untyped fetcher", ErrUnknownArgument, fieldName, argName)
	}
	def, ok := f.Type().Field(fieldName)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s(%s)", ErrUnknownArgument, f.Type().Name(), fieldName, argName)
	}
	graphQLType, ok := def.ArgType(argName)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s(%s)", ErrUnknownArgument, f.Type().Name(), fieldName, argName)
	}

	return graphQLType, nil
}
