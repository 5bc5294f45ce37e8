// Package domainmap provides an enumerable domain id keyed table backed by a
// collections map. Enumeration and membership are derived from the same
// store, so a domain is listed iff it has a value.
package domainmap

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	collcodec "cosmossdk.io/collections/codec"
)

type Map[V any] struct {
	values collections.Map[uint32, V]
}

func New[V any](sb *collections.SchemaBuilder, prefix collections.Prefix, name string, vc collcodec.ValueCodec[V]) Map[V] {
	return Map[V]{values: collections.NewMap(sb, prefix, name, collections.Uint32Key, vc)}
}

// Set writes the value for domain and reports whether the domain was newly
// added.
func (m Map[V]) Set(ctx context.Context, domain uint32, value V) (bool, error) {
	exists, err := m.values.Has(ctx, domain)
	if err != nil {
		return false, err
	}
	if err := m.values.Set(ctx, domain, value); err != nil {
		return false, err
	}
	return !exists, nil
}

// Remove deletes domain and reports whether it was present.
func (m Map[V]) Remove(ctx context.Context, domain uint32) (bool, error) {
	exists, err := m.values.Has(ctx, domain)
	if err != nil || !exists {
		return false, err
	}
	return true, m.values.Remove(ctx, domain)
}

// Get returns the value for domain, found is false when the domain is unset.
func (m Map[V]) Get(ctx context.Context, domain uint32) (value V, found bool, err error) {
	value, err = m.values.Get(ctx, domain)
	if errors.Is(err, collections.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (m Map[V]) Contains(ctx context.Context, domain uint32) (bool, error) {
	return m.values.Has(ctx, domain)
}

// Domains lists every domain in ascending order.
func (m Map[V]) Domains(ctx context.Context) ([]uint32, error) {
	iter, err := m.values.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return iter.Keys()
}

// Len is the number of domains with a value.
func (m Map[V]) Len(ctx context.Context) (int, error) {
	domains, err := m.Domains(ctx)
	return len(domains), err
}
