package ecs_test

import (
	"testing"

	"github.com/nullpage/sparseset/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValue struct{ X int }

func TestGroupedStoreSetGet(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 42))
	v, err := g.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGroupedStoreLinking(t *testing.T) {
	g := ecs.NewGroupedStore[testValue]()
	require.NoError(t, g.Set(1, testValue{X: 1})) // p1
	require.NoError(t, g.Set(2, testValue{X: 2})) // p2

	for i := ecs.Entity(3); i <= 10; i++ {
		if i%2 == 1 {
			require.NoError(t, g.LinkTo(i, 1))
		} else {
			require.NoError(t, g.LinkTo(i, 2))
		}
	}

	g1, _ := g.GroupOf(1)
	g2, _ := g.GroupOf(2)
	assert.Equal(t, 5, g.GroupSize(g1))
	assert.Equal(t, 5, g.GroupSize(g2))
	assert.Equal(t, 2, g.GroupCount())

	sum := 0
	for e := ecs.Entity(1); e <= 10; e++ {
		v, err := g.Get(e)
		require.NoError(t, err)
		sum += v.X
	}
	assert.Equal(t, 15, sum)
}

func TestGroupedStoreDetachmentOnOverwrite(t *testing.T) {
	g := ecs.NewGroupedStore[testValue]()
	require.NoError(t, g.Set(1, testValue{X: 1})) // p1
	require.NoError(t, g.Set(2, testValue{X: 2})) // p2
	for i := ecs.Entity(3); i <= 10; i++ {
		if i%2 == 1 {
			require.NoError(t, g.LinkTo(i, 1))
		} else {
			require.NoError(t, g.LinkTo(i, 2))
		}
	}

	require.NoError(t, g.Set(2, testValue{X: 2})) // p2's group has size 5: detach

	g1, err := g.GroupOf(1)
	require.NoError(t, err)
	gp2, err := g.GroupOf(2)
	require.NoError(t, err)
	assert.Equal(t, 5, g.GroupSize(g1))
	assert.NotEqual(t, g1, gp2)
	assert.Equal(t, 1, g.GroupSize(gp2))

	// The four remaining members of the old group still share size 4.
	var remainingGroup int
	for _, e := range []ecs.Entity{4, 6, 8, 10} {
		gid, gerr := g.GroupOf(e)
		require.NoError(t, gerr)
		remainingGroup = gid
	}
	assert.Equal(t, 4, g.GroupSize(remainingGroup))
}

func TestGroupedStoreLinkToMissingParentFails(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 1))
	err := g.LinkTo(2, 99)
	assert.Error(t, err)
}

func TestGroupedStoreLinkToNoopWhenAlreadySameGroup(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 1))
	require.NoError(t, g.LinkTo(2, 1))
	before, _ := g.GroupOf(2)
	require.NoError(t, g.LinkTo(2, 1))
	after, _ := g.GroupOf(2)
	assert.Equal(t, before, after)
	assert.Equal(t, 2, g.GroupSize(before))
}

func TestGroupedStoreLinkToLeavesSingletonGroupDeleted(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 1)) // group A, size 1
	require.NoError(t, g.Set(2, 2)) // group B, size 1
	require.NoError(t, g.LinkTo(1, 2))

	assert.Equal(t, 1, g.GroupCount())
	gb, _ := g.GroupOf(2)
	assert.Equal(t, 2, g.GroupSize(gb))
	assert.Equal(t, 2, g.MustGet(1))
}

func TestGroupedStoreSetGroupUpdatesEveryMember(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 1))
	require.NoError(t, g.LinkTo(2, 1))
	require.NoError(t, g.SetGroup(1, 99))
	assert.Equal(t, 99, g.MustGet(1))
	assert.Equal(t, 99, g.MustGet(2))
}

func TestGroupedStoreRemove(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 1))
	require.NoError(t, g.LinkTo(2, 1))

	v, err := g.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, g.Contains(2))
	assert.Equal(t, 1, g.GroupCount())

	_, err = g.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, 0, g.GroupCount())
}

func TestGroupedStoreMakeUniqueIsIdempotentAndPreservesGet(t *testing.T) {
	g := ecs.NewGroupedStore[int]()
	require.NoError(t, g.Set(1, 5))
	require.NoError(t, g.Set(2, 5))
	require.NoError(t, g.Set(3, 6))

	g1, _ := g.GroupOf(1)
	g2, _ := g.GroupOf(2)
	assert.NotEqual(t, g1, g2)

	g.MakeUnique()

	ng1, _ := g.GroupOf(1)
	ng2, _ := g.GroupOf(2)
	assert.Equal(t, ng1, ng2)
	assert.Equal(t, 2, g.GroupCount())
	assert.Equal(t, 5, g.MustGet(1))
	assert.Equal(t, 5, g.MustGet(2))
	assert.Equal(t, 6, g.MustGet(3))

	before := g.GroupCount()
	g.MakeUnique()
	assert.Equal(t, before, g.GroupCount())
	assert.Equal(t, 5, g.MustGet(1))
	assert.Equal(t, 5, g.MustGet(2))
	assert.Equal(t, 6, g.MustGet(3))
}

func TestGroupedStoreIterGroup(t *testing.T) {
	g := ecs.NewGroupedStore[string]()
	require.NoError(t, g.Set(1, "team"))
	require.NoError(t, g.LinkTo(2, 1))
	require.NoError(t, g.LinkTo(3, 1))

	gid, _ := g.GroupOf(1)
	var members []ecs.Entity
	for e := range g.IterGroup(gid) {
		members = append(members, e)
	}
	assert.ElementsMatch(t, []ecs.Entity{1, 2, 3}, members)
}

func TestGroupedStoresEqualIgnoresGroupNumbering(t *testing.T) {
	a := ecs.NewGroupedStore[int]()
	require.NoError(t, a.Set(1, 5))
	require.NoError(t, a.LinkTo(2, 1))
	require.NoError(t, a.Set(3, 6))

	b := ecs.NewGroupedStore[int]()
	require.NoError(t, b.Set(3, 6)) // different group ids, same resolved values
	require.NoError(t, b.Set(1, 5))
	require.NoError(t, b.LinkTo(2, 1))

	assert.True(t, ecs.GroupedStoresEqual(a, b))

	require.NoError(t, b.SetGroup(1, 99))
	assert.False(t, ecs.GroupedStoresEqual(a, b))
}

func TestGroupedStoresEqualAboveHashShortcutThreshold(t *testing.T) {
	a := ecs.NewGroupedStore[int]()
	b := ecs.NewGroupedStore[int]()
	for i := ecs.Entity(1); i <= 30; i++ {
		require.NoError(t, a.Set(i, int(i)%4))
	}
	for i := ecs.Entity(30); i >= 1; i-- {
		require.NoError(t, b.Set(i, int(i)%4))
	}
	assert.True(t, ecs.GroupedStoresEqual(a, b))

	require.NoError(t, b.SetGroup(30, 999))
	assert.False(t, ecs.GroupedStoresEqual(a, b))
}
