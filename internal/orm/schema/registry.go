package schema

import (
	"reflect"
	"sync"
)

// Registry caches entity metadata per type. Lookups after the first are
// lock-free; concurrent first requests for one type may each build metadata,
// but only one result is kept and returned to all of them.
type Registry struct {
	cache sync.Map // reflect.Type -> *EntityMetadata
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the metadata for entity, which may be a struct value, a pointer
// to one or a reflect.Type
func (r *Registry) Get(entity interface{}) (*EntityMetadata, error) {
	t, ok := entity.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(entity)
	}
	return r.Type(t)
}

// Type returns the metadata for the struct type t
func (r *Registry) Type(t reflect.Type) (*EntityMetadata, error) {
	t = indirectType(t)
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*EntityMetadata), nil
	}

	meta, err := Build(t)
	if err != nil {
		return nil, err
	}

	actual, _ := r.cache.LoadOrStore(t, meta)
	return actual.(*EntityMetadata), nil
}

// Clear drops every cached entry
func (r *Registry) Clear() {
	r.cache.Clear()
}

// For returns the metadata for T
func For[T any](r *Registry) (*EntityMetadata, error) {
	return r.Type(reflect.TypeFor[T]())
}
