package ecs

import (
	"iter"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// JoinIterator drives iteration over the candidate entities of whichever
// collaborator is cheapest to scan, testing the full predicate against
// each candidate with O(1) Contains calls rather than materializing an
// intersection.
type JoinIterator struct {
	predicate Predicate

	lastIterErr error // set by the guard when the last Iterate was cut short
}

// ErrNoDriver is returned by NewJoinIterator when the predicate names no
// positive conjunct and no disjunct to drive from — a predicate built
// entirely out of Not/And/Or with no top-level AllOf or AnyOf clause.
var ErrNoDriver = eris.New("join: predicate has no conjunct or disjunct to drive from")

// NewJoinIterator builds a JoinIterator over the conjunction of clauses.
// At least one clause must be a Has/AllOf conjunct or an AnyOf disjunct
// group, or there is nothing to drive iteration from.
func NewJoinIterator(clauses ...Term) (*JoinIterator, error) {
	p := NewPredicate(clauses...)
	if len(p.conjuncts) == 0 && len(p.disjuncts) == 0 {
		return nil, ErrNoDriver
	}
	return &JoinIterator{predicate: p}, nil
}

// driver picks the iteration source: the shortest positive conjunct if
// any exist, otherwise a union of the disjuncts built once per call.
func (j *JoinIterator) driver() Indexed {
	if len(j.predicate.conjuncts) > 0 {
		shortest := j.predicate.conjuncts[0]
		for _, c := range j.predicate.conjuncts[1:] {
			if c.Indices().Len() < shortest.Indices().Len() {
				shortest = c
			}
		}
		return shortest
	}
	return unionOf(j.predicate.disjuncts)
}

// unionOf merges the disjuncts' indices into one fresh SparseSet. Each
// disjunct can be large and they may overlap heavily, so membership
// while accumulating is tested against an intmap set rather than
// re-deriving it from the output SparseSet on every candidate — a single
// open-addressed probe per candidate instead of a page-table dereference.
func unionOf(disjuncts []Indexed) Indexed {
	seen := intmap.New[Entity, struct{}](64)
	out := NewSparseSet()
	for _, s := range disjuncts {
		for id := range s.Indices().Iterate() {
			if _, ok := seen.Get(id); ok {
				continue
			}
			seen.Put(id, struct{}{})
			_ = out.Insert(id)
		}
	}
	return out
}

// Iterate yields, in the driver's packed order, every candidate entity
// that satisfies the full predicate. Lazy and single-pass: each yielded
// entity costs one driver step plus one O(1) Contains call per store
// named in the predicate. Guarded against mutation of the driver's
// backing SparseSet mid-iteration; see Err.
func (j *JoinIterator) Iterate() iter.Seq[Entity] {
	driver := j.driver()
	return func(yield func(Entity) bool) {
		for id := range guardedIterate(driver.Indices(), "JoinIterator", &j.lastIterErr) {
			if !j.predicate.eval(id) {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// Err reports the error, if any, that cut short the most recent Iterate
// range.
func (j *JoinIterator) Err() error {
	return j.lastIterErr
}

// Collect drains Iterate into a slice. Convenience for tests and callers
// that need random access rather than a single pass.
func (j *JoinIterator) Collect() []Entity {
	var out []Entity
	for id := range j.Iterate() {
		out = append(out, id)
	}
	return out
}
