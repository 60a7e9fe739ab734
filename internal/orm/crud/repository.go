// Package crud provides generic create, read, update and delete operations
// over entities described by schema metadata.
package crud

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/orm/connection"
	"github.com/apolon-health/apolon/internal/orm/query"
	"github.com/apolon-health/apolon/internal/orm/schema"
	"github.com/apolon-health/apolon/internal/orm/validation"
)

// Repository runs CRUD statements for entity type T. Every call acquires its
// own connection through the executor and releases it before returning.
type Repository[T any] struct {
	meta     *schema.EntityMetadata
	builder  *query.Builder
	exec     connection.Executor
	logger   *zap.Logger
	validate bool
}

// Option configures a Repository
type Option func(*options)

type options struct {
	logger   *zap.Logger
	validate bool
}

// WithLogger sets the logger that receives per-field mapping failures at debug level
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithValidation checks not-null and max length facets before Add and
// Update. Failures wrap validation.ErrValidation.
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// NewRepository creates a repository for T using metadata from registry
func NewRepository[T any](registry *schema.Registry, exec connection.Executor, opts ...Option) (*Repository[T], error) {
	meta, err := schema.For[T](registry)
	if err != nil {
		return nil, err
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{
		meta:     meta,
		builder:  query.New(meta),
		exec:     exec,
		logger:   o.logger,
		validate: o.validate,
	}, nil
}

// Metadata returns the metadata of T
func (r *Repository[T]) Metadata() *schema.EntityMetadata {
	return r.meta
}

// Find returns the entity with the given primary key, or nil if there is none
func (r *Repository[T]) Find(ctx context.Context, id interface{}) (*T, error) {
	stmt, args := r.builder.SelectByID(id)
	entities, err := r.fetch(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", r.meta.Name, err)
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

// Where returns every entity matching a raw filter fragment. Values must be
// bound through args; an empty fragment selects all rows.
func (r *Repository[T]) Where(ctx context.Context, where string, args query.Args) ([]*T, error) {
	stmt, args := r.builder.Select(where, args)
	entities, err := r.fetch(ctx, stmt, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.meta.Name, err)
	}
	return entities, nil
}

// GetAll returns every entity
func (r *Repository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.Where(ctx, "", nil)
}

// Count returns the number of rows matching an optional filter fragment
func (r *Repository[T]) Count(ctx context.Context, where string, args query.Args) (int64, error) {
	stmt, args := r.builder.Count(where, args)
	count, err := connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) (int64, error) {
		var n int64
		err := conn.QueryRowContext(ctx, stmt, query.ArgList(args)...).Scan(&n)
		return n, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.meta.Name, ConvertDBError(err))
	}
	return count, nil
}

// Exists reports whether an entity with the given primary key exists
func (r *Repository[T]) Exists(ctx context.Context, id interface{}) (bool, error) {
	stmt, args := r.builder.Exists(id)
	exists, err := connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) (bool, error) {
		var ok bool
		err := conn.QueryRowContext(ctx, stmt, query.ArgList(args)...).Scan(&ok)
		return ok, err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", r.meta.Name, ConvertDBError(err))
	}
	return exists, nil
}

// Add inserts entity. When the primary key is auto-increment the generated
// key is converted to the key type and stored on entity, which is returned.
func (r *Repository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("failed to add %s: %w", r.meta.Name, ErrNilEntity)
	}
	if r.validate {
		if err := validation.Validate(r.meta, entity, validation.OperationInsert); err != nil {
			return nil, err
		}
	}

	stmt, args := r.builder.Insert(entity)
	generated, err := connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) (interface{}, error) {
		var key interface{}
		err := conn.QueryRowContext(ctx, stmt, query.ArgList(args)...).Scan(&key)
		return key, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", r.meta.Name, ConvertDBError(err))
	}

	pk := r.meta.PrimaryKey
	if pk.AutoIncrement {
		key, err := convertValue(generated, pk.Base)
		if err != nil {
			return nil, fmt.Errorf("failed to assign generated key of %s: %w", r.meta.Name, err)
		}
		if err := pk.Assign(entity, key); err != nil {
			return nil, fmt.Errorf("failed to assign generated key of %s: %w", r.meta.Name, err)
		}
	}
	return entity, nil
}

// Update writes every non-key column of entity, keyed by its primary key
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("failed to update %s: %w", r.meta.Name, ErrNilEntity)
	}
	if r.validate {
		if err := validation.Validate(r.meta, entity, validation.OperationUpdate); err != nil {
			return err
		}
	}

	stmt, args, err := r.builder.Update(entity)
	if err != nil {
		return err
	}
	if err := r.execute(ctx, stmt, args); err != nil {
		return fmt.Errorf("failed to update %s: %w", r.meta.Name, err)
	}
	return nil
}

// Delete removes the entity with the given primary key
func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	stmt, args := r.builder.Delete(id)
	if err := r.execute(ctx, stmt, args); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.meta.Name, err)
	}
	return nil
}

func (r *Repository[T]) execute(ctx context.Context, stmt string, args query.Args) error {
	err := r.exec.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		_, err := conn.ExecContext(ctx, stmt, query.ArgList(args)...)
		return err
	})
	return ConvertDBError(err)
}

func (r *Repository[T]) fetch(ctx context.Context, stmt string, args query.Args) ([]*T, error) {
	entities, err := connection.Query(ctx, r.exec, func(ctx context.Context, conn connection.Conn) ([]*T, error) {
		rows, err := conn.QueryContext(ctx, stmt, query.ArgList(args)...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return r.scanAll(rows)
	})
	return entities, ConvertDBError(err)
}

func (r *Repository[T]) scanAll(rows *sql.Rows) ([]*T, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	m := newRowMapper(r.meta, columns, r.logger)

	entities := make([]*T, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		entity := new(T)
		m.mapRow(entity, values)
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}
