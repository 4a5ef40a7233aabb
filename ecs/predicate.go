package ecs

// Indexed is what JoinIterator needs from a collaborator: its own
// packed index, and O(1) membership testing. SparseSet and every store
// kind satisfy it through their Indices and Contains methods.
type Indexed interface {
	Indices() *SparseSet
	Contains(Entity) bool
}

// Term is a node in a boolean predicate over component presence, built
// up from the small set of combinators below (Has, AllOf, AnyOf, Not,
// And, Or) instead of parsing an expression syntax.
type Term interface {
	eval(e Entity) bool
}

// storesTerm is the leaf shape shared by AllOf and AnyOf: a list of
// stores combined either by conjunction or disjunction.
type storesTerm struct {
	stores []Indexed
	any    bool // false: AND (all must be present); true: OR (at least one)
}

func (t storesTerm) eval(e Entity) bool {
	if t.any {
		for _, s := range t.stores {
			if s.Contains(e) {
				return true
			}
		}
		return len(t.stores) == 0
	}
	for _, s := range t.stores {
		if !s.Contains(e) {
			return false
		}
	}
	return true
}

// Has builds a single-store presence term, the conjunct case of one.
func Has(s Indexed) Term {
	return storesTerm{stores: []Indexed{s}}
}

// AllOf builds a conjunction over store presence: every store must
// contain the candidate entity. Used as a top-level predicate clause,
// each store it names is a positive conjunct that JoinIterator can
// drive from.
func AllOf(stores ...Indexed) Term {
	return storesTerm{stores: stores}
}

// AnyOf builds a disjunction over store presence: at least one store
// must contain the candidate entity. Used as a top-level predicate
// clause, its stores are the disjuncts JoinIterator unions as a
// fallback driver when there are no positive conjuncts.
func AnyOf(stores ...Indexed) Term {
	return storesTerm{stores: stores, any: true}
}

// notTerm negates an arbitrary term. Negated terms are evaluated as part
// of the predicate but never drive iteration.
type notTerm struct{ inner Term }

func (t notTerm) eval(e Entity) bool {
	return !t.inner.eval(e)
}

// Not negates t.
func Not(t Term) Term {
	return notTerm{inner: t}
}

type andTerm struct{ terms []Term }

func (t andTerm) eval(e Entity) bool {
	for _, sub := range t.terms {
		if !sub.eval(e) {
			return false
		}
	}
	return true
}

// And combines arbitrary terms by conjunction. Unlike AllOf, the terms
// here are opaque to driver extraction — use And to nest boolean
// structure inside a Not or another And/Or, not as a top-level
// predicate clause.
func And(terms ...Term) Term {
	return andTerm{terms: terms}
}

type orTerm struct{ terms []Term }

func (t orTerm) eval(e Entity) bool {
	for _, sub := range t.terms {
		if sub.eval(e) {
			return true
		}
	}
	return false
}

// Or combines arbitrary terms by disjunction. Same caveat as And: opaque
// to driver extraction.
func Or(terms ...Term) Term {
	return orTerm{terms: terms}
}

// Predicate is a top-level conjunction of clauses, each of which may be
// a plain conjunct (Has/AllOf), a disjunct group (AnyOf), or a negation
// (Not) — the three shapes JoinIterator distinguishes for driver
// selection. Arbitrary And/Or nesting is still evaluated correctly; it
// just isn't inspected for driver candidates beyond the top level.
type Predicate struct {
	clauses   []Term
	conjuncts []Indexed
	disjuncts []Indexed
}

// NewPredicate builds a predicate as the conjunction of clauses,
// extracting positive conjuncts and disjuncts from the top-level clause
// shapes for JoinIterator's driver selection.
func NewPredicate(clauses ...Term) Predicate {
	p := Predicate{clauses: clauses}
	for _, clause := range clauses {
		switch t := clause.(type) {
		case storesTerm:
			if t.any {
				p.disjuncts = append(p.disjuncts, t.stores...)
			} else {
				p.conjuncts = append(p.conjuncts, t.stores...)
			}
		}
	}
	return p
}

func (p Predicate) eval(e Entity) bool {
	for _, clause := range p.clauses {
		if !clause.eval(e) {
			return false
		}
	}
	return true
}
