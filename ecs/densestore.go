package ecs

import (
	"fmt"
	"hash/fnv"
	"iter"

	"github.com/rotisserie/eris"
)

// DenseStore pairs a SparseSet with a parallel slice of values: entity
// -> packed position -> value. Reads and positional writes are O(1);
// Remove is a swap-remove kept in lockstep with the SparseSet's own
// swap-remove so the two never drift apart.
type DenseStore[T any] struct {
	indices *SparseSet
	data    []T

	lastIterErr error // set by the guard when the last Iterate was cut short
}

// NewDenseStore returns an empty DenseStore.
func NewDenseStore[T any]() *DenseStore[T] {
	return &DenseStore[T]{indices: NewSparseSet()}
}

// Len returns the number of entities with a value in the store.
func (d *DenseStore[T]) Len() int {
	return d.indices.Len()
}

// IsEmpty reports whether the store holds no entities.
func (d *DenseStore[T]) IsEmpty() bool {
	return d.indices.IsEmpty()
}

// Contains reports whether e has a value in the store.
func (d *DenseStore[T]) Contains(e Entity) bool {
	return d.indices.Contains(e)
}

// Indices exposes the backing SparseSet, satisfying the Indexed
// interface JoinIterator consumes.
func (d *DenseStore[T]) Indices() *SparseSet {
	return d.indices
}

// Get returns the value stored for e, or ErrNotPresent.
func (d *DenseStore[T]) Get(e Entity) (T, error) {
	pos, err := d.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	return d.data[pos], nil
}

// MustGet panics instead of returning ErrNotPresent.
func (d *DenseStore[T]) MustGet(e Entity) T {
	v, err := d.Get(e)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes v for e, inserting e if it was absent. The new entity's
// position is always len(data)-1 after insertion, matching the
// SparseSet's own append-at-the-end behavior.
func (d *DenseStore[T]) Set(e Entity, v T) error {
	if d.indices.Contains(e) {
		pos := d.indices.MustPositionOf(e)
		d.data[pos] = v
		return nil
	}
	if err := d.indices.Insert(e); err != nil {
		return err
	}
	d.data = append(d.data, v)
	return nil
}

// Remove deletes e's value via swap-remove, returning the value that was
// removed. Returns ErrNotPresent if e is absent.
func (d *DenseStore[T]) Remove(e Entity) (T, error) {
	pos, err := d.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	removed := d.data[pos]
	last := len(d.data) - 1
	d.data[pos] = d.data[last]
	d.data = d.data[:last]
	if err := d.indices.Remove(e); err != nil {
		return removed, err
	}
	return removed, nil
}

// SwapPositions exchanges the packed positions of e1 and e2 in both the
// SparseSet and the parallel data slice.
func (d *DenseStore[T]) SwapPositions(e1, e2 Entity) error {
	p1, err := d.indices.PositionOf(e1)
	if err != nil {
		return err
	}
	p2, err := d.indices.PositionOf(e2)
	if err != nil {
		return err
	}
	if err := d.indices.SwapPositions(e1, e2); err != nil {
		return err
	}
	d.data[p1], d.data[p2] = d.data[p2], d.data[p1]
	return nil
}

// Permute reorders both the SparseSet and the data slice by perm, where
// perm[newPos] == oldPos.
func (d *DenseStore[T]) Permute(perm []int) error {
	if len(perm) != len(d.data) {
		return eris.New("permute: length mismatch between perm and data")
	}
	reordered := make([]T, len(d.data))
	for newPos, oldPos := range perm {
		reordered[newPos] = d.data[oldPos]
	}
	if err := d.indices.Permute(perm); err != nil {
		return err
	}
	d.data = reordered
	return nil
}

// Clear empties the store.
func (d *DenseStore[T]) Clear() {
	d.indices.Clear()
	d.data = nil
}

// Iterate yields (entity, value) pairs in packed order, guarded against
// mutation of the store mid-iteration; see Err.
func (d *DenseStore[T]) Iterate() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for pos, id := range guardedPositions(d.indices, "DenseStore", &d.lastIterErr) {
			if !yield(id, d.data[pos]) {
				return
			}
		}
	}
}

// Err reports the error, if any, that cut short the most recent Iterate
// range over d.
func (d *DenseStore[T]) Err() error {
	return d.lastIterErr
}

// guardedPositions pairs each yielded entity with its packed position,
// under the debug iteration guard shared across the store kinds. errOut,
// when non-nil, is cleared at the start and set to the guard's failure
// on an early stop, exactly like guardedIterate.
func guardedPositions(set *SparseSet, name string, errOut *error) iter.Seq2[int, Entity] {
	if errOut != nil {
		*errOut = nil
	}
	guard := newIterationGuard(set, name)
	return func(yield func(int, Entity) bool) {
		for pos, id := range enumerate(set.rawIterate()) {
			if err := guard.check(); err != nil {
				if errOut != nil {
					*errOut = err
				}
				return
			}
			if !yield(pos, id) {
				return
			}
		}
	}
}

func enumerate(seq iter.Seq[Entity]) iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		i := 0
		for id := range seq {
			if !yield(i, id) {
				return
			}
			i++
		}
	}
}

// DenseStoresEqual reports whether a and b contain the same entities
// mapped to equal values. Requires T comparable: equality is element
// type, length, and contents; above hashShortcutThreshold entries, an
// order-insensitive content hash is compared first so an inequality can
// often be decided without walking every entry.
func DenseStoresEqual[T comparable](a, b *DenseStore[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() > hashShortcutThreshold && DenseStoreHash(a) != DenseStoreHash(b) {
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

// DenseStoreHash computes an order-insensitive content hash of d: a
// function of its length and (entity, value) contents only. Each entry's
// entity hash is combined with a hash of its value (via its %#v
// formatting, since T is only constrained to comparable) and folded into
// the running total with XOR so iteration order never affects the
// result.
func DenseStoreHash[T comparable](d *DenseStore[T]) uint64 {
	var acc uint64
	for id, v := range d.Iterate() {
		acc ^= hashEntity(id) ^ hashValue(v)
	}
	return acc ^ uint64(d.Len())
}

func hashValue(v any) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%#v", v)
	return h.Sum64()
}
