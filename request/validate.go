package request

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// Validate parses doc and validates it against schema.
func Validate(schema *ast.Schema, doc *Document) (*ast.QueryDocument, error) {
	queryDocument, gqlErr := parser.ParseQuery(&ast.Source{Name: doc.Name, Input: doc.Text})
	if gqlErr != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", doc.Name, gqlErr)
	}

	if errs := validator.Validate(schema, queryDocument); errs != nil {
		return nil, fmt.Errorf("invalid %s: %w", doc.Name, errs)
	}

	return queryDocument, nil
}
