package ecs

import "iter"

// GroupedStore organizes entities into equivalence classes ("groups")
// that share one value slot, with explicit parent-linking: LinkTo(e,
// parent) puts e in whatever group parent currently belongs to, so
// moving the parent's group later moves every linked child's visible
// value too (via SetGroup).
type GroupedStore[T comparable] struct {
	indices   *SparseSet
	group     []int // per packed position: group id
	groupSize []int // per group id: member count
	data      []T   // per group id: shared value

	lastIterErr error // set by the guard when the last Iterate/IterGroup was cut short
}

// NewGroupedStore returns an empty GroupedStore.
func NewGroupedStore[T comparable]() *GroupedStore[T] {
	return &GroupedStore[T]{indices: NewSparseSet()}
}

// Len returns the number of entities in the store.
func (g *GroupedStore[T]) Len() int {
	return g.indices.Len()
}

// IsEmpty reports whether the store holds no entities.
func (g *GroupedStore[T]) IsEmpty() bool {
	return g.indices.IsEmpty()
}

// Contains reports whether e has a value in the store.
func (g *GroupedStore[T]) Contains(e Entity) bool {
	return g.indices.Contains(e)
}

// Indices exposes the backing SparseSet.
func (g *GroupedStore[T]) Indices() *SparseSet {
	return g.indices
}

// GroupCount returns the number of live groups.
func (g *GroupedStore[T]) GroupCount() int {
	return len(g.data)
}

// GroupOf returns the group id e currently belongs to.
func (g *GroupedStore[T]) GroupOf(e Entity) (int, error) {
	pos, err := g.indices.PositionOf(e)
	if err != nil {
		return -1, err
	}
	return g.group[pos], nil
}

// GroupSize returns the member count of group gid.
func (g *GroupedStore[T]) GroupSize(gid int) int {
	if gid < 0 || gid >= len(g.groupSize) {
		return 0
	}
	return g.groupSize[gid]
}

// Get returns the value shared by e's group.
func (g *GroupedStore[T]) Get(e Entity) (T, error) {
	pos, err := g.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	return g.data[g.group[pos]], nil
}

// MustGet panics instead of returning ErrNotPresent.
func (g *GroupedStore[T]) MustGet(e Entity) T {
	v, err := g.Get(e)
	if err != nil {
		panic(err)
	}
	return v
}

func (g *GroupedStore[T]) newSingletonGroup(v T) int {
	gid := len(g.data)
	g.groupSize = append(g.groupSize, 1)
	g.data = append(g.data, v)
	return gid
}

// Set assigns e its own value. If e is absent, it is inserted into a
// fresh singleton group. If e already sits alone in its group, the
// group's value is overwritten in place. If e shares a group with
// others, it is detached into a new singleton group with value v,
// leaving the old group's shared value untouched for its remaining
// members.
func (g *GroupedStore[T]) Set(e Entity, v T) error {
	if !g.indices.Contains(e) {
		gid := g.newSingletonGroup(v)
		if err := g.indices.Insert(e); err != nil {
			return err
		}
		g.group = append(g.group, gid)
		return nil
	}

	pos := g.indices.MustPositionOf(e)
	gid := g.group[pos]
	if g.groupSize[gid] == 1 {
		g.data[gid] = v
		return nil
	}

	g.groupSize[gid]--
	newGid := g.newSingletonGroup(v)
	g.group[pos] = newGid
	return nil
}

// LinkTo puts e in whatever group parent currently belongs to. parent
// must already be present, or this fails with ErrParentMissing. If e was
// previously alone in its own group, that now-empty group is deleted; if
// e shared a group with others, it simply leaves, decrementing that
// group's size.
func (g *GroupedStore[T]) LinkTo(e, parent Entity) error {
	parentPos, err := g.indices.PositionOf(parent)
	if err != nil {
		return wrapParentMissing(parent)
	}
	pg := g.group[parentPos]

	if !g.indices.Contains(e) {
		if err := g.indices.Insert(e); err != nil {
			return err
		}
		g.group = append(g.group, pg)
		g.groupSize[pg]++
		return nil
	}

	pos := g.indices.MustPositionOf(e)
	eg := g.group[pos]
	if eg == pg {
		return nil
	}

	if g.groupSize[eg] == 1 {
		g.deleteGroup(eg)
		// deleteGroup shifts every group id above eg down by one;
		// positions are untouched, so re-read pg at the same parentPos.
		pg = g.group[parentPos]
	} else {
		g.groupSize[eg]--
	}

	g.group[pos] = pg
	g.groupSize[pg]++
	return nil
}

// deleteGroup removes group gid's data/groupSize slot entirely (it must
// already be at size 0 or about to become unreferenced) and decrements
// every position's group id that pointed past it, keeping group ids
// contiguous in [0, len(data)).
func (g *GroupedStore[T]) deleteGroup(gid int) {
	g.data = append(g.data[:gid], g.data[gid+1:]...)
	g.groupSize = append(g.groupSize[:gid], g.groupSize[gid+1:]...)
	for i, gv := range g.group {
		if gv > gid {
			g.group[i] = gv - 1
		}
	}
}

// SetGroup overwrites the value shared by e's entire group, visible to
// every member at once.
func (g *GroupedStore[T]) SetGroup(e Entity, v T) error {
	pos, err := g.indices.PositionOf(e)
	if err != nil {
		return err
	}
	g.data[g.group[pos]] = v
	return nil
}

// Remove deletes e from the store, shrinking or deleting its group as
// appropriate, and returns the value e held.
func (g *GroupedStore[T]) Remove(e Entity) (T, error) {
	pos, err := g.indices.PositionOf(e)
	if err != nil {
		var zero T
		return zero, err
	}
	gid := g.group[pos]
	value := g.data[gid]

	last := len(g.group) - 1
	g.group[pos] = g.group[last]
	g.group = g.group[:last]

	if err := g.indices.Remove(e); err != nil {
		return value, err
	}

	g.groupSize[gid]--
	if g.groupSize[gid] == 0 {
		g.deleteGroup(gid)
	}
	return value, nil
}

// MakeUnique folds any groups that happen to hold equal values into one
// another, then compacts away the now-empty slots. Idempotent, and
// preserves Get(e) for every entity: only group identity changes, never
// which value an entity resolves to.
func (g *GroupedStore[T]) MakeUnique() {
	for g0 := 0; g0 < len(g.data); g0++ {
		if g.groupSize[g0] == 0 {
			continue
		}
		for gid := g0 + 1; gid < len(g.data); gid++ {
			if g.groupSize[gid] == 0 {
				continue
			}
			if g.data[gid] != g.data[g0] {
				continue
			}
			g.groupSize[g0] += g.groupSize[gid]
			g.groupSize[gid] = 0
			for j, gv := range g.group {
				if gv == gid {
					g.group[j] = g0
				}
			}
		}
	}
	g.compact()
}

func (g *GroupedStore[T]) compact() {
	remap := make([]int, len(g.data))
	newData := make([]T, 0, len(g.data))
	newSizes := make([]int, 0, len(g.groupSize))
	for gid := range g.data {
		if g.groupSize[gid] == 0 {
			remap[gid] = -1
			continue
		}
		remap[gid] = len(newData)
		newData = append(newData, g.data[gid])
		newSizes = append(newSizes, g.groupSize[gid])
	}
	for j, gv := range g.group {
		g.group[j] = remap[gv]
	}
	g.data = newData
	g.groupSize = newSizes
}

// Clear empties the store.
func (g *GroupedStore[T]) Clear() {
	g.indices.Clear()
	g.group = nil
	g.groupSize = nil
	g.data = nil
}

// Iterate yields (entity, value) pairs in packed order, guarded against
// mutation of the store mid-iteration; see Err.
func (g *GroupedStore[T]) Iterate() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		for pos, id := range guardedPositions(g.indices, "GroupedStore", &g.lastIterErr) {
			if !yield(id, g.data[g.group[pos]]) {
				return
			}
		}
	}
}

// IterGroup yields every entity currently assigned to group gid, in
// packed order, guarded against mutation of the store mid-iteration;
// see Err.
func (g *GroupedStore[T]) IterGroup(gid int) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for pos, id := range guardedPositions(g.indices, "GroupedStore", &g.lastIterErr) {
			if g.group[pos] != gid {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// Err reports the error, if any, that cut short the most recent
// Iterate or IterGroup range over g.
func (g *GroupedStore[T]) Err() error {
	return g.lastIterErr
}

// GroupedStoresEqual reports whether a and b resolve every entity to an
// equal value, independent of group numbering: two stores that partition
// entities into differently-numbered groups but agree on every entity's
// resolved value are equal. Equality is element type, length, and
// resolved contents; above hashShortcutThreshold entries, an
// order-insensitive content hash is compared first.
func GroupedStoresEqual[T comparable](a, b *GroupedStore[T]) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() > hashShortcutThreshold && GroupedStoreHash(a) != GroupedStoreHash(b) {
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

// GroupedStoreHash computes an order-insensitive content hash of g's
// resolved (entity, value) contents, ignoring group numbering entirely.
func GroupedStoreHash[T comparable](g *GroupedStore[T]) uint64 {
	var acc uint64
	for id, v := range g.Iterate() {
		acc ^= hashEntity(id) ^ hashValue(v)
	}
	return acc ^ uint64(g.Len())
}
