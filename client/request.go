package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Yamashou/gqlfetcher/request"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Payload is the body of a GraphQL over HTTP POST.
type Payload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// NewRequest builds the POST request executing doc. Every non-null variable the
// document declares must be present in variables.
func NewRequest(ctx context.Context, endpoint string, doc *request.Document, variables map[string]any) (*http.Request, error) {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, errors.New("empty document")
	}
	for _, v := range doc.Variables {
		if _, ok := variables[v.Name]; !ok && strings.HasSuffix(v.GraphQLType, "!") {
			return nil, fmt.Errorf("%s: missing value for non-null variable $%s of type %s", doc.Name, v.Name, v.GraphQLType)
		}
	}

	body, err := json.Marshal(&Payload{Query: doc.Text, OperationName: doc.Name, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode %s variables: %w", doc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/graphql-response+json, application/json")

	return req, nil
}
