package query

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nhath/ezgrid/internal/schema"
)

// FetchSchema reads the table's fields from src and builds column schemas.
// When columns is non-empty only those columns are kept, in the given
// order.
func FetchSchema(ctx context.Context, src Source, table string, columns []string) ([]schema.ColumnSchema, error) {
	fields, err := src.FetchSchema(ctx, table)
	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		out := make([]schema.ColumnSchema, len(fields))
		for i, f := range fields {
			out[i] = schema.NewColumnSchema(f.Column, f.SQLType)
		}
		return out, nil
	}

	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Column] = f
	}
	out := make([]schema.ColumnSchema, 0, len(columns))
	for _, name := range columns {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("table %s has no column %q: %w", table, name, ErrUnknownColumn)
		}
		out = append(out, schema.NewColumnSchema(f.Column, f.SQLType))
	}
	return out, nil
}

// DefaultSchemaCacheSize bounds how many tables' schemas a SchemaCache keeps
const DefaultSchemaCacheSize = 64

// SchemaCache is a Source that remembers FetchSchema results per table, so
// reopening a table does not go back to the backend. Count and row queries
// pass straight through.
type SchemaCache struct {
	Source
	cache *lru.Cache[string, []Field]
}

// NewSchemaCache wraps src. size <= 0 uses DefaultSchemaCacheSize.
func NewSchemaCache(src Source, size int) (*SchemaCache, error) {
	if size <= 0 {
		size = DefaultSchemaCacheSize
	}
	cache, err := lru.New[string, []Field](size)
	if err != nil {
		return nil, err
	}
	return &SchemaCache{Source: src, cache: cache}, nil
}

// FetchSchema returns the cached fields for table, fetching them on a miss.
// Failures are not cached.
func (c *SchemaCache) FetchSchema(ctx context.Context, table string) ([]Field, error) {
	if fields, ok := c.cache.Get(table); ok {
		return fields, nil
	}
	fields, err := c.Source.FetchSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	c.cache.Add(table, fields)
	return fields, nil
}

// Invalidate drops the cached schema for table
func (c *SchemaCache) Invalidate(table string) {
	c.cache.Remove(table)
}

// Len returns the number of cached schemas
func (c *SchemaCache) Len() int { return c.cache.Len() }
