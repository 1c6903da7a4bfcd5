// Package config loads the gqlfetcher configuration file and the schema it points to.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/Yamashou/gqlfetcher/binding"
	"github.com/Yamashou/gqlfetcher/client"
	"github.com/Yamashou/gqlfetcher/introspection"
	"github.com/Yamashou/gqlfetcher/request"
)

// DefaultFilenames are searched, in order, by FindConfigFile.
var DefaultFilenames = []string{".gqlfetcher.yml", "gqlfetcher.yml", ".gqlfetcher.yaml", "gqlfetcher.yaml"}

// Config is the gqlfetcher configuration file.
type Config struct {
	SchemaFilename StringList      `yaml:"schema"`
	Endpoint       *EndpointConfig `yaml:"endpoint,omitempty"`

	// Filled by Init.
	Schema  *ast.Schema     `yaml:"-"`
	Binding *binding.Schema `yaml:"-"`
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (a *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*a = StringList{single}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*a = list

	return nil
}

// Has checks if the strings array has a give value
func (a StringList) Has(file string) bool {
	return slices.Contains(a, file)
}

// EndpointConfig are the allowed options for the 'endpoint' config
type EndpointConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Load reads filename, expands environment variables and resolves schema globs.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}

	var cfg Config
	confContent := []byte(os.ExpandEnv(string(b)))
	if err := yaml.UnmarshalWithOptions(confContent, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	if len(cfg.SchemaFilename) == 0 {
		if cfg.Endpoint == nil || cfg.Endpoint.URL == "" {
			return nil, errors.New("neither 'schema' nor 'endpoint' specified. Use schema to load from local files, use endpoint to load from a remote server (using introspection)")
		}

		return &cfg, nil
	}

	cfg.SchemaFilename, err = schemaFilenames(cfg.SchemaFilename)
	if err != nil {
		return nil, err
	}
	if len(cfg.SchemaFilename) == 0 {
		return nil, errors.New("'schema' does not match any file")
	}

	return &cfg, nil
}

// Init loads the schema from the schema files, or by introspecting the endpoint
// when none are configured, and binds it.
func (c *Config) Init(ctx context.Context) error {
	var schema *ast.Schema
	if len(c.SchemaFilename) > 0 {
		s, err := c.loadLocalSchema()
		if err != nil {
			return fmt.Errorf("load local schema failed: %w", err)
		}
		schema = s
	} else {
		s, err := c.loadRemoteSchema(ctx)
		if err != nil {
			return fmt.Errorf("load remote schema failed: %w", err)
		}
		schema = s
	}
	c.Schema = schema

	bound, err := binding.Bind(schema)
	if err != nil {
		return fmt.Errorf("bind schema failed: %w", err)
	}
	c.Binding = bound

	slog.DebugContext(ctx, "schema loaded",
		slog.Any("files", []string(c.SchemaFilename)),
		slog.Int("types", len(bound.TypeNames())),
	)

	return nil
}

func (c *Config) loadLocalSchema() (*ast.Schema, error) {
	sources, err := schemaFileSources(c.SchemaFilename)
	if err != nil {
		return nil, err
	}

	schema, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}

	return schema, nil
}

func (c *Config) loadRemoteSchema(ctx context.Context) (*ast.Schema, error) {
	gqlclient, err := c.NewClient()
	if err != nil {
		return nil, err
	}

	var res introspection.Query
	doc := &request.Document{Operation: ast.Query, Name: "IntrospectionQuery", Text: introspection.Introspection}
	if err := gqlclient.Execute(ctx, doc, nil, &res); err != nil {
		return nil, fmt.Errorf("introspection query failed: %w", err)
	}

	schema, err := introspection.LoadSchema(c.Endpoint.URL, res)
	if err != nil {
		return nil, err
	}

	return schema, nil
}

// NewClient returns a client for the configured endpoint. Configured headers are
// added to every request.
func (c *Config) NewClient(options ...client.Option) (*client.Client, error) {
	if c.Endpoint == nil || c.Endpoint.URL == "" {
		return nil, errors.New("'endpoint.url' is not specified")
	}

	httpClient := &http.Client{Transport: newHeaderTransport(c.Endpoint.Headers, nil)}

	return client.NewClient(c.Endpoint.URL, append([]client.Option{client.WithHTTPClient(httpClient)}, options...)...), nil
}
