package ecs

import (
	"fmt"
	"reflect"

	"github.com/rotisserie/eris"
)

// Registry maps a component's Go type to the one store that holds it,
// so callers can look a store up by type instead of threading store
// pointers through application code by hand. Each type is registered
// exactly once, as exactly one of Dense, Shared, or Grouped.
type Registry struct {
	stores map[reflect.Type]any
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[reflect.Type]any)}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var errAlreadyRegistered = eris.New("registry: type already registered")

// RegisterDense creates and registers a DenseStore[T], keyed by T.
func RegisterDense[T any](r *Registry) (*DenseStore[T], error) {
	t := typeKey[T]()
	if _, exists := r.stores[t]; exists {
		return nil, eris.Wrapf(errAlreadyRegistered, "%s", t)
	}
	s := NewDenseStore[T]()
	r.stores[t] = s
	return s, nil
}

// RegisterShared creates and registers a SharedStore[T], keyed by T.
func RegisterShared[T comparable](r *Registry) (*SharedStore[T], error) {
	t := typeKey[T]()
	if _, exists := r.stores[t]; exists {
		return nil, eris.Wrapf(errAlreadyRegistered, "%s", t)
	}
	s := NewSharedStore[T]()
	r.stores[t] = s
	return s, nil
}

// RegisterGrouped creates and registers a GroupedStore[T], keyed by T.
func RegisterGrouped[T comparable](r *Registry) (*GroupedStore[T], error) {
	t := typeKey[T]()
	if _, exists := r.stores[t]; exists {
		return nil, eris.Wrapf(errAlreadyRegistered, "%s", t)
	}
	s := NewGroupedStore[T]()
	r.stores[t] = s
	return s, nil
}

var errNotRegistered = eris.New("registry: type not registered")
var errWrongKind = eris.New("registry: type registered as a different store kind")

// Dense returns the DenseStore[T] previously registered for T.
func Dense[T any](r *Registry) (*DenseStore[T], error) {
	t := typeKey[T]()
	v, ok := r.stores[t]
	if !ok {
		return nil, eris.Wrapf(errNotRegistered, "%s", t)
	}
	s, ok := v.(*DenseStore[T])
	if !ok {
		return nil, eris.Wrapf(errWrongKind, "%s", t)
	}
	return s, nil
}

// Shared returns the SharedStore[T] previously registered for T.
func Shared[T comparable](r *Registry) (*SharedStore[T], error) {
	t := typeKey[T]()
	v, ok := r.stores[t]
	if !ok {
		return nil, eris.Wrapf(errNotRegistered, "%s", t)
	}
	s, ok := v.(*SharedStore[T])
	if !ok {
		return nil, eris.Wrapf(errWrongKind, "%s", t)
	}
	return s, nil
}

// Grouped returns the GroupedStore[T] previously registered for T.
func Grouped[T comparable](r *Registry) (*GroupedStore[T], error) {
	t := typeKey[T]()
	v, ok := r.stores[t]
	if !ok {
		return nil, eris.Wrapf(errNotRegistered, "%s", t)
	}
	s, ok := v.(*GroupedStore[T])
	if !ok {
		return nil, eris.Wrapf(errWrongKind, "%s", t)
	}
	return s, nil
}

// Types returns every component type currently registered, for
// diagnostics.
func (r *Registry) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(r.stores))
	for t := range r.stores {
		out = append(out, t)
	}
	return out
}

// Forget drops e from every store the Registry manages that implements
// Indexed, ignoring stores e isn't present in. Returns the number of
// stores e was actually removed from.
func (r *Registry) Forget(e Entity) int {
	removed := 0
	for _, v := range r.stores {
		remover, ok := v.(interface{ removeEntity(Entity) bool })
		if !ok {
			continue
		}
		if remover.removeEntity(e) {
			removed++
		}
	}
	return removed
}

func (d *DenseStore[T]) removeEntity(e Entity) bool {
	if !d.Contains(e) {
		return false
	}
	_, _ = d.Remove(e)
	return true
}

func (s *SharedStore[T]) removeEntity(e Entity) bool {
	if !s.Contains(e) {
		return false
	}
	_, _ = s.Remove(e)
	return true
}

func (g *GroupedStore[T]) removeEntity(e Entity) bool {
	if !g.Contains(e) {
		return false
	}
	_, _ = g.Remove(e)
	return true
}

func (r *Registry) String() string {
	return fmt.Sprintf("Registry{%d types}", len(r.stores))
}
