package ecs

import (
	"iter"

	"github.com/rotisserie/eris"
)

// SharedStore is a value-interning store: entity -> packed position ->
// index into a deduplicated slice of distinct values. Suited to
// components where the number of distinct values is small relative to
// the number of entities holding one; Set is O(|shared|) because it
// linear-scans for an existing equal value, so a large shared slice is
// an anti-pattern rather than a supported scale.
type SharedStore[T comparable] struct {
	indices *SparseSet
	data    []int
	shared  []T

	lastIterErr error // set by the guard when the last Iterate was cut short
}

// NewSharedStore returns an empty SharedStore.
func NewSharedStore[T comparable]() *SharedStore[T] {
	return &SharedStore[T]{indices: NewSparseSet()}
}

// Len returns the number of entities with a value in the store.
func (s *SharedStore[T]) Len() int {
	return s.indices.Len()
}

// IsEmpty reports whether the store holds no entities.
func (s *SharedStore[T]) IsEmpty() bool {
	return s.indices.IsEmpty()
}

// Contains reports whether e has a value in the store.
func (s *SharedStore[T]) Contains(e Entity) bool {
	return s.indices.Contains(e)
}

// Indices exposes the backing SparseSet.
func (s *SharedStore[T]) Indices() *SparseSet {
	return s.indices
}

// DistinctValues returns the number of distinct values currently
// interned. Useful for callers deciding whether SharedStore is still an
// appropriate choice for a component.
func (s *SharedStore[T]) DistinctValues() int {
	return len(s.shared)
}

// Get returns the value stored for e, or ErrNotPresent.
func (s *SharedStore[T]) Get(e Entity) (T, error) {
	pos, err := s.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.shared[s.data[pos]], nil
}

// MustGet panics instead of returning ErrNotPresent.
func (s *SharedStore[T]) MustGet(e Entity) T {
	v, err := s.Get(e)
	if err != nil {
		panic(err)
	}
	return v
}

func (s *SharedStore[T]) internIndex(v T) int {
	for i, existing := range s.shared {
		if existing == v {
			return i
		}
	}
	s.shared = append(s.shared, v)
	return len(s.shared) - 1
}

// Set writes v for e, inserting e if it was absent. v is interned: if an
// equal value is already present in shared, e points at that slot
// instead of growing shared. Overwriting e's value releases the slot of
// its previous value when no other entity still refers to it.
func (s *SharedStore[T]) Set(e Entity, v T) error {
	idx := s.internIndex(v)
	if s.indices.Contains(e) {
		pos := s.indices.MustPositionOf(e)
		oldIdx := s.data[pos]
		s.data[pos] = idx
		if oldIdx != idx && !s.indexStillReferenced(oldIdx) {
			s.compactShared(oldIdx)
		}
		return nil
	}
	if err := s.indices.Insert(e); err != nil {
		return err
	}
	s.data = append(s.data, idx)
	return nil
}

// Remove deletes e's value via swap-remove and returns it. If the
// removed index is no longer referenced by any remaining entity, its
// slot in shared is compacted away and every data entry pointing past it
// is decremented to keep indices dense and contiguous.
func (s *SharedStore[T]) Remove(e Entity) (T, error) {
	pos, err := s.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	removedIdx := s.data[pos]
	removedValue := s.shared[removedIdx]

	last := len(s.data) - 1
	s.data[pos] = s.data[last]
	s.data = s.data[:last]

	if err := s.indices.Remove(e); err != nil {
		return removedValue, err
	}

	if !s.indexStillReferenced(removedIdx) {
		s.compactShared(removedIdx)
	}
	return removedValue, nil
}

func (s *SharedStore[T]) indexStillReferenced(idx int) bool {
	for _, i := range s.data {
		if i == idx {
			return true
		}
	}
	return false
}

func (s *SharedStore[T]) compactShared(removedIdx int) {
	s.shared = append(s.shared[:removedIdx], s.shared[removedIdx+1:]...)
	for i, idx := range s.data {
		if idx > removedIdx {
			s.data[i] = idx - 1
		}
	}
}

// SwapPositions exchanges the packed positions of e1 and e2.
func (s *SharedStore[T]) SwapPositions(e1, e2 Entity) error {
	p1, err := s.indices.PositionOf(e1)
	if err != nil {
		return err
	}
	p2, err := s.indices.PositionOf(e2)
	if err != nil {
		return err
	}
	if err := s.indices.SwapPositions(e1, e2); err != nil {
		return err
	}
	s.data[p1], s.data[p2] = s.data[p2], s.data[p1]
	return nil
}

// Permute reorders both the SparseSet and the data slice by perm, where
// perm[newPos] == oldPos.
func (s *SharedStore[T]) Permute(perm []int) error {
	if len(perm) != len(s.data) {
		return eris.New("permute: length mismatch between perm and data")
	}
	reordered := make([]int, len(s.data))
	for newPos, oldPos := range perm {
		reordered[newPos] = s.data[oldPos]
	}
	if err := s.indices.Permute(perm); err != nil {
		return err
	}
	s.data = reordered
	return nil
}

// Clear empties the store, including interned values.
func (s *SharedStore[T]) Clear() {
	s.indices.Clear()
	s.data = nil
	s.shared = nil
}

// Iterate yields (entity, value) pairs in packed order, guarded against
// mutation of the store mid-iteration; see Err.
func (s *SharedStore[T]) Iterate() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for pos, id := range guardedPositions(s.indices, "SharedStore", &s.lastIterErr) {
			if !yield(id, s.shared[s.data[pos]]) {
				return
			}
		}
	}
}

// Err reports the error, if any, that cut short the most recent Iterate
// range over s.
func (s *SharedStore[T]) Err() error {
	return s.lastIterErr
}

// SharedStoresEqual reports whether a and b resolve every entity to an
// equal value, independent of how values happen to be numbered in each
// store's own shared slice. Equality is element type, length, and
// resolved contents; above hashShortcutThreshold entries, an
// order-insensitive content hash is compared first.
func SharedStoresEqual[T comparable](a, b *SharedStore[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() > hashShortcutThreshold && SharedStoreHash(a) != SharedStoreHash(b) {
		return false
	}
	for id, v := range a.Iterate() {
		bv, err := b.Get(id)
		if err != nil || bv != v {
			return false
		}
	}
	return true
}

// SharedStoreHash computes an order-insensitive content hash of s's
// resolved (entity, value) contents, ignoring the shared-slice numbering
// entirely.
func SharedStoreHash[T comparable](s *SharedStore[T]) uint64 {
	var acc uint64
	for id, v := range s.Iterate() {
		acc ^= hashEntity(id) ^ hashValue(v)
	}
	return acc ^ uint64(s.Len())
}
