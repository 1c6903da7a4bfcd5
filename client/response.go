package client

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// HTTPError is returned for a non-2xx status whose body is not a GraphQL response
// carrying errors.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// GraphQLError is returned when the server answered with GraphQL errors. Any data
// sent along has already been decoded into the caller's value.
type GraphQLError struct {
	Operation  string
	StatusCode int
	Errors     gqlerror.List
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Errors.Error())
}

// Unwrap exposes every *gqlerror.Error to errors.As.
func (e *GraphQLError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, err := range e.Errors {
		errs = append(errs, err)
	}

	return errs
}

type envelope struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors gqlerror.List       `json:"errors"`
}

func (e *envelope) hasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// decodeResponse reads the response of operation and decodes its data into out.
func decodeResponse(operation string, resp *http.Response, out any) error {
	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("decode gzip: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		}
		return fmt.Errorf("decode %s response: %w", operation, err)
	}

	if env.hasData() && out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", operation, err)
		}
	}

	switch {
	case len(env.Errors) > 0:
		return &GraphQLError{Operation: operation, StatusCode: resp.StatusCode, Errors: env.Errors}
	case !ok:
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return nil
}
