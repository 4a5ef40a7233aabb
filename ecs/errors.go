package ecs

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Sentinel error kinds, per the five kinds a storage operation can fail
// with. Call sites wrap these with eris.Wrapf to attach the offending
// entity/operation; errors.Is still matches the sentinel through the
// wrap.
var (
	// ErrInvalidID is returned when an id <= 0 is passed to Insert,
	// directly or through a store's Set or LinkTo. Remove, PositionOf and
	// the other operations on an existing entry do not return it: they
	// report an id <= 0 as ErrNotPresent.
	ErrInvalidID = errors.New("ecs: invalid entity id")

	// ErrNotPresent is returned by fallible lookups/removals of an id
	// that is not a member of the set.
	ErrNotPresent = errors.New("ecs: entity not present")

	// ErrEmpty is returned by PopLast on an empty SparseSet.
	ErrEmpty = errors.New("ecs: set is empty")

	// ErrParentMissing is returned by GroupedStore.LinkTo when the parent
	// entity is not present in the store.
	ErrParentMissing = errors.New("ecs: parent entity not present")

	// ErrIteratorInvalidated is returned by the debug mutation guard when
	// a store is mutated while an iteration over it is in flight.
	ErrIteratorInvalidated = errors.New("ecs: iterator invalidated by mutation")
)

func wrapInvalidID(id Entity) error {
	return eris.Wrapf(ErrInvalidID, "entity %d", id)
}

func wrapNotPresent(id Entity) error {
	return eris.Wrapf(ErrNotPresent, "entity %d", id)
}

func wrapParentMissing(parent Entity) error {
	return eris.Wrapf(ErrParentMissing, "parent entity %d", parent)
}
