package ecs_test

import (
	"testing"

	"github.com/nullpage/sparseset/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchFlushAppliesInOrder(t *testing.T) {
	set := ecs.NewSparseSet()
	b := ecs.NewBatch()
	b.QueueInsert(set, 1)
	b.QueueInsert(set, 2)
	b.QueueRemove(set, 1)

	assert.Equal(t, 0, set.Len(), "nothing applies before Flush")

	b.Flush()
	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(1))
	assert.Equal(t, 0, b.Len(), "Flush empties the queue")
}

func TestBatchQueueSetOnDenseStore(t *testing.T) {
	store := ecs.NewDenseStore[int]()
	b := ecs.NewBatch()
	ecs.QueueSet(b, store, 1, 42)
	assert.False(t, store.Contains(1))

	b.Flush()
	v, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBatchQueueLinkToOnGroupedStore(t *testing.T) {
	store := ecs.NewGroupedStore[string]()
	require.NoError(t, store.Set(1, "team"))

	b := ecs.NewBatch()
	ecs.QueueLinkTo(b, store, 2, 1)
	b.Flush()

	assert.Equal(t, "team", store.MustGet(2))
}

func TestBatchDefer(t *testing.T) {
	b := ecs.NewBatch()
	ran := false
	b.Defer(func() { ran = true })
	assert.False(t, ran)
	b.Flush()
	assert.True(t, ran)
}
