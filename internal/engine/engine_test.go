package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidmesh/worldgen/internal/noise"
	"github.com/voidmesh/worldgen/internal/terrain"
	"github.com/voidmesh/worldgen/internal/voxel"
)

func settleEngine(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.Dispatcher.PendingLen() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not settle: %d pending", e.Dispatcher.PendingLen())
		}
		time.Sleep(time.Millisecond)
		e.Tick()
	}
}

func newTestEngine(t *testing.T, params terrain.Params, cacheCapacity int) *Engine {
	t.Helper()
	e := New(params, cacheCapacity, t.TempDir())
	t.Cleanup(e.Close)
	return e
}

func TestEngine_Pregenerate_S1Baseline(t *testing.T) {
	params := terrain.DefaultParams(1)
	e := newTestEngine(t, params, 64)

	require.NoError(t, e.Pregenerate(context.Background(), params, -2, 2, nil))
	assert.Equal(t, 25, e.Cache.Len())

	chunk, ok := e.Cache.Get(voxel.ChunkPos{X: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, voxel.Air, chunk.BlockAt(0, voxel.Height-1, 0))
}

func TestEngine_Pregenerate_RangeExceedingCapacityIsConfigInvalid(t *testing.T) {
	params := terrain.DefaultParams(1)
	e := newTestEngine(t, params, 4)

	err := e.Pregenerate(context.Background(), params, -2, 2, nil)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestEngine_Pregenerate_S2SpawnSelection(t *testing.T) {
	params := terrain.DefaultParams(1)
	e := newTestEngine(t, params, 64)
	require.NoError(t, e.Pregenerate(context.Background(), params, -2, 2, nil))

	fields := noise.NewFields(params.Seed)
	reference := terrain.Generate(params, fields, voxel.ChunkPos{X: 0, Z: 0})

	firstNonAir := -1
	for y := voxel.Height - 1; y >= 0; y-- {
		if !reference.BlockAt(0, y, 0).IsAir() {
			firstNonAir = y
			break
		}
	}
	require.NotEqual(t, -1, firstNonAir, "test assumes a non-air column at (0,0,0)")

	spawn := e.Spawn()
	assert.Equal(t, int32(0), spawn.X)
	assert.Equal(t, int32(0), spawn.Z)
	assert.Equal(t, int32(firstNonAir-50), spawn.Y)
}

func TestEngine_Pregenerate_ExplicitSpawnOverridesScan(t *testing.T) {
	params := terrain.DefaultParams(1)
	e := newTestEngine(t, params, 64)
	explicit := &Spawn{X: 7, Y: 200, Z: -3}

	require.NoError(t, e.Pregenerate(context.Background(), params, -2, 2, explicit))
	assert.Equal(t, *explicit, e.Spawn())
}

func TestEngine_Reconfigure_S4CacheCoherence(t *testing.T) {
	// Testable Property #5: after SetParams(p') is applied, any subsequent
	// GenerateChunk(pos) returns a chunk equal to generate(p', fields_from(p'.seed), pos).
	params1 := terrain.DefaultParams(1)
	e := newTestEngine(t, params1, 64)

	e.Registry.Join(voxel.ChunkPos{X: 0, Z: 0}, 1)
	e.Tick()
	settleEngine(t, e)

	_, ok := e.Dispatcher.Chunk(voxel.ChunkPos{X: 0, Z: 0})
	require.True(t, ok)

	params2 := terrain.DefaultParams(2)
	e.Reconfigure(params2)
	assert.Equal(t, params2, e.Pool.Params())

	settleEngine(t, e)

	chunk, ok := e.Dispatcher.Chunk(voxel.ChunkPos{X: 0, Z: 0})
	require.True(t, ok)

	fields2 := noise.NewFields(params2.Seed)
	expected := terrain.Generate(params2, fields2, voxel.ChunkPos{X: 0, Z: 0})
	assert.True(t, chunk.Equal(expected))
}
