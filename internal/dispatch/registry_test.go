package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidmesh/worldgen/internal/voxel"
)

func TestRegistry_JoinAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry()
	a := r.Join(voxel.ChunkPos{X: 0, Z: 0}, 4)
	b := r.Join(voxel.ChunkPos{X: 1, Z: 1}, 4)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Snapshot_FirstCallIsJustJoined(t *testing.T) {
	r := NewRegistry()
	id := r.Join(voxel.ChunkPos{X: 0, Z: 0}, 2)

	viewers := r.Snapshot()
	require.Len(t, viewers, 1)
	assert.Equal(t, id, viewers[0].ID)
	assert.True(t, viewers[0].JustJoined)
	assert.Nil(t, viewers[0].PreviousView)
}

func TestRegistry_Snapshot_SecondCallCarriesPreviousView(t *testing.T) {
	r := NewRegistry()
	r.Join(voxel.ChunkPos{X: 0, Z: 0}, 2)

	first := r.Snapshot()
	second := r.Snapshot()

	require.Len(t, second, 1)
	assert.False(t, second[0].JustJoined)
	assert.Equal(t, first[0].Wanted(), second[0].PreviousView)
}

func TestRegistry_Leave_RemovesViewer(t *testing.T) {
	r := NewRegistry()
	id := r.Join(voxel.ChunkPos{X: 0, Z: 0}, 2)
	r.Leave(id)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_Move_UpdatesCentreWithoutRejoining(t *testing.T) {
	r := NewRegistry()
	id := r.Join(voxel.ChunkPos{X: 0, Z: 0}, 2)
	r.Snapshot() // clears just-joined

	r.Move(id, voxel.ChunkPos{X: 5, Z: 5}, 2)
	viewers := r.Snapshot()

	require.Len(t, viewers, 1)
	assert.Equal(t, voxel.ChunkPos{X: 5, Z: 5}, viewers[0].ViewCentre)
	assert.False(t, viewers[0].JustJoined)
}
