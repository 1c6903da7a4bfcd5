// Package client executes assembled GraphQL documents over HTTP.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Yamashou/gqlfetcher/request"
)

const tracerName = "github.com/Yamashou/gqlfetcher/client"

type Client struct {
	client   *http.Client
	endpoint string
	tracer   trace.Tracer
}

// NewClient creates a new http client wrapper
func NewClient(endpoint string, options ...Option) *Client {
	client := &Client{
		client:   http.DefaultClient,
		endpoint: endpoint,
		tracer:   otel.Tracer(tracerName),
	}
	for _, option := range options {
		option(client)
	}

	return client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.client = httpClient
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = provider.Tracer(tracerName)
	}
}

// Execute sends doc with variables and decodes the response data into out. GraphQL
// errors are returned as *GraphQLError, non-2xx statuses without them as *HTTPError.
func (c *Client) Execute(ctx context.Context, doc *request.Document, variables map[string]any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "graphql.client", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if doc == nil {
		return errors.New("nil document")
	}
	span.SetAttributes(attribute.String("graphql.operation.name", doc.Name))
	if doc.Operation != "" {
		span.SetAttributes(attribute.String("graphql.operation.type", string(doc.Operation)))
	}

	req, err := NewRequest(ctx, c.endpoint, doc, variables)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", doc.Name, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return decodeResponse(doc.Name, resp, out)
}
