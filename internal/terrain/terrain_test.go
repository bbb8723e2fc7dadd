package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidmesh/worldgen/internal/noise"
	"github.com/voidmesh/worldgen/internal/voxel"
)

func TestGenerate_Determinism(t *testing.T) {
	params := DefaultParams(1)
	fields := noise.NewFields(params.Seed)
	pos := voxel.ChunkPos{X: 0, Z: 0}

	first := Generate(params, fields, pos)
	second := Generate(params, noise.NewFields(params.Seed), pos)

	assert.True(t, first.Equal(second), "generation must be bit-identical for the same (params, pos) across fresh fields")
}

func TestGenerate_SeedLocality(t *testing.T) {
	params1 := DefaultParams(1)
	params2 := DefaultParams(2)
	pos := voxel.ChunkPos{X: 0, Z: 0}

	a := Generate(params1, noise.NewFields(params1.Seed), pos)
	b := Generate(params2, noise.NewFields(params2.Seed), pos)

	assert.False(t, a.Equal(b), "different seeds must produce different terrain somewhere in the chunk")
}

func TestGenerate_AllFlagsOffYieldsTrivialWorld(t *testing.T) {
	// Scenario S6: with every block layer disabled, every cell must be AIR.
	params := Params{
		Seed:              1,
		SandOffset:        5,
		StonePointScaling: 15.0,
		GravelHeight:      DefaultGravelHeight(),
		SandHeight:        DefaultSandHeight(),
	}
	fields := noise.NewFields(params.Seed)
	pos := voxel.ChunkPos{X: 3, Z: -4}

	chunk := Generate(params, fields, pos)

	for offsetX := 0; offsetX < 16; offsetX++ {
		for offsetZ := 0; offsetZ < 16; offsetZ++ {
			for y := 0; y < voxel.Height; y++ {
				require.Equal(t, voxel.Air, chunk.BlockAt(offsetX, y, offsetZ),
					"expected AIR at (%d,%d,%d)", offsetX, y, offsetZ)
			}
		}
	}
}

func TestGenerate_PregenBaselineTopOfColumnIsAir(t *testing.T) {
	// Scenario S1: seed=1, all flags true, default fbm, sand_offset=5,
	// stone_scaling=15; column 0 of chunk (0,0) at world-y = 383 (the top,
	// Height-1) must be AIR.
	params := DefaultParams(1)
	fields := noise.NewFields(params.Seed)

	chunk := Generate(params, fields, voxel.ChunkPos{X: 0, Z: 0})
	assert.Equal(t, voxel.Air, chunk.BlockAt(0, voxel.Height-1, 0))
}

func TestHasTerrainAt_MonotonicNearBedrock(t *testing.T) {
	fields := noise.NewFields(1)
	params := DefaultParams(1)
	// Far below the hilly-adjusted lower bound, terrain must always be present.
	assert.True(t, hasTerrainAt(params, fields, noise.Point{X: 0, Y: 0, Z: 0}))
}

func TestHasTerrainAt_FalseHighAboveHills(t *testing.T) {
	fields := noise.NewFields(1)
	params := DefaultParams(1)
	// Far above any plausible hilly upper bound, terrain must be absent.
	assert.False(t, hasTerrainAt(params, fields, noise.Point{X: 0, Y: 380, Z: 0}))
}

func TestLerpAndLerpstep(t *testing.T) {
	assert.Equal(t, 0.0, lerp(0, 10, 0))
	assert.Equal(t, 10.0, lerp(0, 10, 1))
	assert.Equal(t, 5.0, lerp(0, 10, 0.5))

	assert.Equal(t, 0.0, lerpstep(0, 10, -5))
	assert.Equal(t, 1.0, lerpstep(0, 10, 50))
	assert.Equal(t, 0.5, lerpstep(0, 10, 5))
}

func TestGenerate_DecorationPassDoesNotReadBelowY0(t *testing.T) {
	// Regression guard for the documented open question: the decoration
	// pass must never read y-1 at y=0, so generation at y=0 must not panic
	// and column 0 at y=0 must be a well-defined, non-crash result.
	params := DefaultParams(1)
	fields := noise.NewFields(params.Seed)

	require.NotPanics(t, func() {
		Generate(params, fields, voxel.ChunkPos{X: 0, Z: 0})
	})
}
