package ecs

import "hash/fnv"

// hashShortcutThreshold is the length above which Equal compares a
// cheap order-insensitive hash before falling back to the full
// membership walk.
const hashShortcutThreshold = 20

// Union returns a fresh SparseSet containing every entity present in a
// or b.
func Union(a, b *SparseSet) *SparseSet {
	out := NewSparseSet()
	for id := range a.Iterate() {
		_ = out.Insert(id)
	}
	for id := range b.Iterate() {
		_ = out.Insert(id)
	}
	return out
}

// Intersect returns a fresh SparseSet containing every entity present in
// both a and b, built by filtering a's members through b.Contains.
func Intersect(a, b *SparseSet) *SparseSet {
	out := NewSparseSet()
	for id := range a.Iterate() {
		if b.Contains(id) {
			_ = out.Insert(id)
		}
	}
	return out
}

// Difference returns a fresh SparseSet containing every entity present
// in a but not in b.
func Difference(a, b *SparseSet) *SparseSet {
	out := NewSparseSet()
	for id := range a.Iterate() {
		if !b.Contains(id) {
			_ = out.Insert(id)
		}
	}
	return out
}

// Equal reports whether a and b contain exactly the same entities.
// Position within packed is insertion-order and therefore not part of
// set identity. For large sets, an order-insensitive hash is compared
// first so an inequality can often be decided without a full membership
// walk.
func Equal(a, b *SparseSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() > hashShortcutThreshold && Hash(a) != Hash(b) {
		return false
	}
	for id := range a.Iterate() {
		if !b.Contains(id) {
			return false
		}
	}
	return true
}

// IsSubset reports whether every entity in a is also in b. Implemented
// as Equal(a, Intersect(a, b)) rather than a bespoke membership loop:
// that identity holds exactly when a ⊆ b.
func IsSubset(a, b *SparseSet) bool {
	return Equal(a, Intersect(a, b))
}

// Hash computes an order-insensitive content hash of a SparseSet: a
// function of its length and membership only, not of insertion history.
// Implemented as a commutative (XOR) combination of per-entity hashes so
// that iteration order never affects the result, which is what lets
// Equal use it as a short-circuit.
func Hash(s *SparseSet) uint64 {
	var acc uint64
	for id := range s.Iterate() {
		acc ^= hashEntity(id)
	}
	return acc ^ uint64(s.Len())
}

func hashEntity(id Entity) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	v := uint64(id)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
