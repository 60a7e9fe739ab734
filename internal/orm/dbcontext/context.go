// Package dbcontext ties a metadata registry and a connection manager
// together and hands out repositories and migration runners bound to both.
package dbcontext

import (
	"context"

	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/orm/connection"
	"github.com/apolon-health/apolon/internal/orm/crud"
	"github.com/apolon-health/apolon/internal/orm/migrate"
	"github.com/apolon-health/apolon/internal/orm/schema"
)

// Context owns the shared registry and connection pool of one database
type Context struct {
	registry *schema.Registry
	manager  *connection.Manager
	logger   *zap.Logger
	validate bool
}

// Option configures a Context
type Option func(*Context)

// WithLogger sets the logger passed to repositories and runners
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithRegistry shares an existing registry instead of creating one
func WithRegistry(registry *schema.Registry) Option {
	return func(c *Context) {
		c.registry = registry
	}
}

// WithValidation makes every repository check column facets before writes
func WithValidation() Option {
	return func(c *Context) {
		c.validate = true
	}
}

// New creates a context over an open manager
func New(manager *connection.Manager, opts ...Option) *Context {
	c := &Context{
		registry: schema.NewRegistry(),
		manager:  manager,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to url and creates a context over the new pool
func Open(ctx context.Context, url string, connOpts connection.Options, opts ...Option) (*Context, error) {
	manager, err := connection.Open(ctx, url, connOpts)
	if err != nil {
		return nil, err
	}
	return New(manager, opts...), nil
}

// Registry returns the shared metadata registry
func (c *Context) Registry() *schema.Registry {
	return c.registry
}

// Manager returns the connection manager
func (c *Context) Manager() *connection.Manager {
	return c.manager
}

// Logger returns the context logger
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Runner returns a migration runner on this database
func (c *Context) Runner(opts ...migrate.RunnerOption) *migrate.Runner {
	opts = append([]migrate.RunnerOption{migrate.WithLogger(c.logger.Named("migrate"))}, opts...)
	return migrate.NewRunner(c.manager, c.registry, opts...)
}

// Close closes the connection pool
func (c *Context) Close() error {
	return c.manager.Close()
}

// Set returns a repository for T bound to the context registry and pool
func Set[T any](c *Context) (*crud.Repository[T], error) {
	opts := []crud.Option{crud.WithLogger(c.logger.Named("crud"))}
	if c.validate {
		opts = append(opts, crud.WithValidation())
	}
	return crud.NewRepository[T](c.registry, c.manager, opts...)
}
