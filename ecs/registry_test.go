package ecs_test

import (
	"testing"

	"github.com/nullpage/sparseset/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := ecs.NewRegistry()

	positions, err := ecs.RegisterDense[position](r)
	require.NoError(t, err)
	require.NoError(t, positions.Set(1, position{X: 1, Y: 2}))

	got, err := ecs.Dense[position](r)
	require.NoError(t, err)
	assert.Same(t, positions, got)
}

func TestRegistryDuplicateRegistrationFails(t *testing.T) {
	r := ecs.NewRegistry()
	_, err := ecs.RegisterShared[string](r)
	require.NoError(t, err)
	_, err = ecs.RegisterShared[string](r)
	assert.Error(t, err)
}

func TestRegistryLookupUnregisteredFails(t *testing.T) {
	r := ecs.NewRegistry()
	_, err := ecs.Dense[position](r)
	assert.Error(t, err)
}

func TestRegistryLookupWrongKindFails(t *testing.T) {
	r := ecs.NewRegistry()
	_, err := ecs.RegisterDense[int](r)
	require.NoError(t, err)
	_, err = ecs.Shared[int](r)
	assert.Error(t, err)
}

func TestRegistryForgetRemovesFromEveryStore(t *testing.T) {
	r := ecs.NewRegistry()
	positions, err := ecs.RegisterDense[position](r)
	require.NoError(t, err)
	tags, err := ecs.RegisterShared[string](r)
	require.NoError(t, err)

	require.NoError(t, positions.Set(1, position{X: 1, Y: 1}))
	require.NoError(t, tags.Set(1, "alpha"))

	removed := r.Forget(1)
	assert.Equal(t, 2, removed)
	assert.False(t, positions.Contains(1))
	assert.False(t, tags.Contains(1))
}
