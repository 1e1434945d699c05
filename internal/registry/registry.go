// Package registry holds the entities built during one load, indexed by
// entity kind and natural key. A registry is never shared between loads.
package registry

import (
	"strings"

	"pdxgraph/pkg/domain"
)

// Kind identifies a registry bucket.
type Kind = domain.EntityType

// Key is a composite natural key.
type Key string

// NoKey addresses the single entry of a load-scoped singleton bucket.
const NoKey Key = "\x00"

const keySep = "\x1f"

// NewKey joins natural key parts into a Key.
func NewKey(parts ...string) Key {
	return Key(strings.Join(parts, keySep))
}

// Parts splits k back into its natural key parts.
func (k Key) Parts() []string {
	if k == NoKey {
		return nil
	}
	return strings.Split(string(k), keySep)
}

func (k Key) String() string {
	if k == NoKey {
		return "<none>"
	}
	return strings.Join(k.Parts(), "/")
}

// Bucket maps keys of one kind to entities, remembering insertion order.
type Bucket[T any] struct {
	kind  Kind
	order []Key
	items map[Key]T
}

// NewBucket returns an empty bucket for kind.
func NewBucket[T any](kind Kind) *Bucket[T] {
	return &Bucket[T]{kind: kind, items: make(map[Key]T)}
}

// Kind returns the entity kind stored in the bucket.
func (b *Bucket[T]) Kind() Kind { return b.kind }

// Put stores v under key, overwriting any previous entry in place.
func (b *Bucket[T]) Put(key Key, v T) {
	if _, ok := b.items[key]; !ok {
		b.order = append(b.order, key)
	}
	b.items[key] = v
}

// Get returns the entity under key and whether it was present.
func (b *Bucket[T]) Get(key Key) (T, bool) {
	v, ok := b.items[key]
	return v, ok
}

// GetOrCreate returns the entity under key, building and storing it when
// absent. The boolean reports whether build was called.
func (b *Bucket[T]) GetOrCreate(key Key, build func() (T, error)) (T, bool, error) {
	if v, ok := b.items[key]; ok {
		return v, false, nil
	}
	v, err := build()
	if err != nil {
		var zero T
		return zero, false, err
	}
	b.Put(key, v)
	return v, true, nil
}

// Len returns the number of stored entities.
func (b *Bucket[T]) Len() int { return len(b.order) }

// Keys returns keys in insertion order.
func (b *Bucket[T]) Keys() []Key {
	return append([]Key(nil), b.order...)
}

// Values returns entities in insertion order.
func (b *Bucket[T]) Values() []T {
	out := make([]T, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.items[k])
	}
	return out
}

// Registry is the per-load entity index.
type Registry struct {
	Providers   *Bucket[*domain.Provider]
	Patients    *Bucket[*domain.Patient]
	Models      *Bucket[*domain.ModelCreation]
	Platforms   *Bucket[*domain.Platform]
	Terms       *Bucket[*domain.Term]
	HostStrains *Bucket[*domain.HostStrain]
	URLs        *Bucket[*domain.ExternalURL]
	Groups      *Bucket[*domain.Group]
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		Providers:   NewBucket[*domain.Provider](domain.EntityProvider),
		Patients:    NewBucket[*domain.Patient](domain.EntityPatient),
		Models:      NewBucket[*domain.ModelCreation](domain.EntityModel),
		Platforms:   NewBucket[*domain.Platform](domain.EntityPlatform),
		Terms:       NewBucket[*domain.Term](domain.EntityTerm),
		HostStrains: NewBucket[*domain.HostStrain](domain.EntityHostStrain),
		URLs:        NewBucket[*domain.ExternalURL](domain.EntityExternalURL),
		Groups:      NewBucket[*domain.Group](domain.EntityGroup),
	}
}

// Provider returns the load-scoped provider, if registered.
func (r *Registry) Provider() (*domain.Provider, bool) {
	return r.Providers.Get(NoKey)
}

// Counts reports the number of entities per kind.
func (r *Registry) Counts() map[Kind]int {
	return map[Kind]int{
		domain.EntityProvider:    r.Providers.Len(),
		domain.EntityPatient:     r.Patients.Len(),
		domain.EntityModel:       r.Models.Len(),
		domain.EntityPlatform:    r.Platforms.Len(),
		domain.EntityTerm:        r.Terms.Len(),
		domain.EntityHostStrain:  r.HostStrains.Len(),
		domain.EntityExternalURL: r.URLs.Len(),
		domain.EntityGroup:       r.Groups.Len(),
	}
}
