package ecs

import (
	"iter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DebugIterationGuard turns on the runtime check that detects mutation
// of a store during an in-flight iteration over it, returning
// ErrIteratorInvalidated when it fires. It defaults to on; a release
// build that has already established its callers are well-behaved can
// turn it off to skip the generation check entirely.
var DebugIterationGuard = true

// debugLog is the package's zerolog sink. Storage internals otherwise
// never log — logging policy belongs to the caller — but the
// invalidation guard is diagnostic, not domain, output.
var debugLog = log.Logger.With().Str("component", "ecs").Logger()

// iterationGuard snapshots a SparseSet's mutation generation at the
// start of an iteration and can later check whether a mutation slipped
// in before the iteration finished.
type iterationGuard struct {
	set  *SparseSet
	name string
	gen  int
}

func newIterationGuard(set *SparseSet, name string) iterationGuard {
	if !DebugIterationGuard || set == nil {
		return iterationGuard{}
	}
	return iterationGuard{set: set, name: name, gen: set.generation}
}

// check reports ErrIteratorInvalidated if the guarded set's generation
// has advanced since the guard was taken.
func (g iterationGuard) check() error {
	if g.set == nil {
		return nil
	}
	if g.set.generation != g.gen {
		debugLog.Debug().
			Str("store", g.name).
			Int("generation_at_start", g.gen).
			Int("generation_now", g.set.generation).
			Msg("mutation detected during iteration")
		return ErrIteratorInvalidated
	}
	return nil
}

// guardedIterate wraps set.rawIterate with the debug mutation guard: on
// detecting a mutation mid-iteration it logs and stops yielding rather
// than continuing over a structure that moved under it. errOut, when
// non-nil, is cleared at the start of iteration and set to the guard's
// failure so the caller can observe it via its own Err method after
// ranging — iter.Seq has no error channel of its own to carry it.
func guardedIterate(set *SparseSet, name string, errOut *error) iter.Seq[Entity] {
	if errOut != nil {
		*errOut = nil
	}
	guard := newIterationGuard(set, name)
	return func(yield func(Entity) bool) {
		for id := range set.rawIterate() {
			if err := guard.check(); err != nil {
				if errOut != nil {
					*errOut = err
				}
				return
			}
			if !yield(id) {
				return
			}
		}
	}
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
