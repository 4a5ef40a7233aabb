package ecs

import (
	"iter"

	"github.com/rotisserie/eris"
)

// SparseSet is a paged sparse-set index: O(1) membership, insertion,
// removal, and position lookup for positive integer entity ids, with the
// present ids packed densely in insertion order for cache-friendly
// iteration.
//
// The zero value is a valid empty SparseSet.
type SparseSet struct {
	packed   []Entity
	reverse  []page
	counters []int

	generation int // bumped on every mutation; backs the debug iteration guard

	lastIterErr error // set by the guard when the last Iterate was cut short
}

// NewSparseSet returns an empty SparseSet. Exists alongside the valid
// zero value for symmetry with the other store constructors.
func NewSparseSet() *SparseSet {
	return &SparseSet{}
}

// Len returns the number of present entities.
func (s *SparseSet) Len() int {
	return len(s.packed)
}

// IsEmpty reports whether the set has no present entities.
func (s *SparseSet) IsEmpty() bool {
	return len(s.packed) == 0
}

// Indices satisfies the Indexed interface consumed by JoinIterator: a
// SparseSet is its own index.
func (s *SparseSet) Indices() *SparseSet {
	return s
}

// Contains reports whether id is present. Never fails; an invalid or
// out-of-range id simply is not a member.
func (s *SparseSet) Contains(id Entity) bool {
	if id <= 0 {
		return false
	}
	p := pageOf(id)
	if p >= len(s.reverse) {
		return false
	}
	pg := &s.reverse[p]
	if !pg.live {
		return false
	}
	return pg.slots[offsetOf(id)] != 0
}

// PositionOf returns the 0-based packed position of id, or ErrNotPresent.
func (s *SparseSet) PositionOf(id Entity) (int, error) {
	if !s.Contains(id) {
		return -1, wrapNotPresent(id)
	}
	return s.slotOf(id) - 1, nil
}

// MustPositionOf panics on an absent id instead of returning an error,
// for call sites that have already established presence.
func (s *SparseSet) MustPositionOf(id Entity) int {
	pos, err := s.PositionOf(id)
	if err != nil {
		panic(err)
	}
	return pos
}

func (s *SparseSet) slotOf(id Entity) int {
	return s.reverse[pageOf(id)].slots[offsetOf(id)]
}

func (s *SparseSet) writeSlot(id Entity, pos int) {
	s.reverse[pageOf(id)].slots[offsetOf(id)] = pos + 1
}

func (s *SparseSet) growTo(p int) {
	for len(s.reverse) <= p {
		s.reverse = append(s.reverse, nullPage)
		s.counters = append(s.counters, 0)
	}
}

// Insert adds id to the set. Idempotent: inserting an already-present id
// is a no-op. Fails with ErrInvalidID if id <= 0.
func (s *SparseSet) Insert(id Entity) error {
	if id <= 0 {
		return wrapInvalidID(id)
	}
	if s.Contains(id) {
		return nil
	}

	p := pageOf(id)
	s.growTo(p)
	pg := &s.reverse[p]
	if !pg.live {
		*pg = newLivePage()
	}

	pos := len(s.packed)
	s.packed = append(s.packed, id)
	pg.slots[offsetOf(id)] = pos + 1
	s.counters[p]++
	s.generation++
	return nil
}

// removeAt performs the swap-remove of id, which must currently sit at
// packed position pos, and reclaims its page if it is now empty.
func (s *SparseSet) removeAt(id Entity, pos int) {
	n := len(s.packed)
	last := n - 1
	tail := s.packed[last]

	s.packed[pos] = tail
	if tail != id {
		s.writeSlot(tail, pos)
	}

	p := pageOf(id)
	s.reverse[p].slots[offsetOf(id)] = 0
	s.counters[p]--
	s.packed = s.packed[:last]

	if s.counters[p] == 0 {
		s.reverse[p] = nullPage
	}
	s.generation++
}

// Remove deletes id via swap-remove: the last packed entity takes id's
// former slot. Returns ErrNotPresent if id is absent.
func (s *SparseSet) Remove(id Entity) error {
	pos, err := s.PositionOf(id)
	if err != nil {
		return err
	}
	s.removeAt(id, pos)
	return nil
}

// MustRemove panics instead of returning ErrNotPresent.
func (s *SparseSet) MustRemove(id Entity) {
	if err := s.Remove(id); err != nil {
		panic(err)
	}
}

// PopLast removes and returns the entity at the last packed position.
// After a Remove, SwapPositions or Permute this need not be the most
// recently inserted entity. Returns ErrEmpty if the set has no entities.
func (s *SparseSet) PopLast() (Entity, error) {
	if len(s.packed) == 0 {
		return InvalidEntity, eris.Wrap(ErrEmpty, "pop_last")
	}
	last := len(s.packed) - 1
	id := s.packed[last]
	s.removeAt(id, last)
	return id, nil
}

// SwapPositions exchanges the packed positions of a and b, repairing
// both reverse slots. Used to co-sort a SparseSet with parallel storage
// such as DenseStore's data slice.
func (s *SparseSet) SwapPositions(a, b Entity) error {
	pa, err := s.PositionOf(a)
	if err != nil {
		return err
	}
	pb, err := s.PositionOf(b)
	if err != nil {
		return err
	}
	if pa == pb {
		return nil
	}
	s.packed[pa], s.packed[pb] = s.packed[pb], s.packed[pa]
	s.writeSlot(a, pb)
	s.writeSlot(b, pa)
	s.generation++
	return nil
}

// Permute reorders packed according to perm, where perm[newPos] ==
// oldPos, and repairs every reverse slot so it again equals its new
// position+1. perm must be a permutation of [0, Len()).
func (s *SparseSet) Permute(perm []int) error {
	if len(perm) != len(s.packed) {
		return eris.New("permute: length mismatch between perm and packed")
	}
	reordered := make([]Entity, len(s.packed))
	for newPos, oldPos := range perm {
		reordered[newPos] = s.packed[oldPos]
	}
	s.packed = reordered
	for pos, id := range s.packed {
		s.writeSlot(id, pos)
	}
	s.generation++
	return nil
}

// Clear empties the set and releases every page back to missing state.
func (s *SparseSet) Clear() {
	s.packed = nil
	s.reverse = nil
	s.counters = nil
	s.generation++
}

// Iterate yields present entities in packed (insertion) order, guarded
// against mutation of s mid-iteration. If a mutation is detected the
// range stops early and the failure becomes visible through Err.
func (s *SparseSet) Iterate() iter.Seq[Entity] {
	return guardedIterate(s, "SparseSet", &s.lastIterErr)
}

// rawIterate yields present entities with no mutation guard. Kept
// separate from Iterate so guardedIterate, which Iterate itself calls,
// has an unguarded sequence to wrap instead of recursing into Iterate.
func (s *SparseSet) rawIterate() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, id := range s.packed {
			if !yield(id) {
				return
			}
		}
	}
}

// Err reports the error, if any, that cut short the most recent Iterate
// range. Call it after the range completes; a range that runs to
// natural completion leaves it nil.
func (s *SparseSet) Err() error {
	return s.lastIterErr
}

// Packed returns the underlying packed slice. Callers must not retain or
// mutate it across a mutating SparseSet call.
func (s *SparseSet) Packed() []Entity {
	return s.packed
}

// PageCount reports how many pages (live or reclaimed-to-null) the set's
// reverse index currently spans. Mostly useful for diagnostics: tests
// checking page reclamation, and the stress CLI's memory reporting.
func (s *SparseSet) PageCount() int {
	return len(s.reverse)
}

// LivePageCount reports how many pages currently hold at least one entry.
func (s *SparseSet) LivePageCount() int {
	n := 0
	for _, pg := range s.reverse {
		if pg.live {
			n++
		}
	}
	return n
}
