// Package terrain implements the deterministic pure function that turns a
// chunk position, a parameter set, and the noise fields derived from its
// seed into a fully populated chunk.
package terrain

import (
	"math"

	"github.com/voidmesh/worldgen/internal/noise"
	"github.com/voidmesh/worldgen/internal/voxel"
)

// WaterHeight is the world-y below which Case D emits water instead of air.
const WaterHeight = 120

// Generate produces a fully populated chunk at pos deterministically from
// params and fields. It is side-effect free beyond the returned chunk, and
// each block layer can be toggled independently via params.Enable*.
func Generate(params Params, fields *noise.Fields, pos voxel.ChunkPos) *voxel.Chunk {
	chunk := voxel.NewChunk(pos)

	for offsetZ := 0; offsetZ < 16; offsetZ++ {
		for offsetX := 0; offsetX < 16; offsetX++ {
			x := int32(offsetX) + pos.X*16
			z := int32(offsetZ) + pos.Z*16
			genColumn(params, fields, chunk, x, z, offsetX, offsetZ)
		}
	}

	return chunk
}

func genColumn(params Params, fields *noise.Fields, chunk *voxel.Chunk, x, z int32, offsetX, offsetZ int) {
	inTerrain := false
	depth := 0

	for y := voxel.Height - 1; y >= 0; y-- {
		p := noise.Point{X: float64(x), Y: float64(y), Z: float64(z)}

		gravelFBM := noise.FBM(fields.Gravel, p.Scale(params.GravelHeight.PointScaling), params.GravelHeight.Octaves, params.GravelHeight.Lacunarity, params.GravelHeight.Persistence)
		gravelHeight := int32(WaterHeight) - 1 - int32(math.Floor(gravelFBM*6.0))

		sandFBM := noise.FBM(fields.Gravel, p.Scale(params.SandHeight.PointScaling), params.SandHeight.Octaves, params.SandHeight.Lacunarity, params.SandHeight.Persistence)
		sandHeight := gravelHeight + params.SandOffset + int32(math.Floor(sandFBM*6.0))

		var block voxel.BlockState

		if hasTerrainAt(params, fields, p) {
			switch {
			case inTerrain && depth > 0:
				// Case A
				depth--
				switch {
				case int32(y) < gravelHeight && params.EnableGravel:
					block = voxel.Gravel
				case params.EnableGrass:
					block = voxel.Dirt
				default:
					block = voxel.Air
				}
			case inTerrain:
				// Case B
				if params.EnableStone {
					block = voxel.Stone
				} else {
					block = voxel.Air
				}
			default:
				// Case C: surface
				inTerrain = true
				n := noise.Noise01(fields.Stone, p.Scale(params.StonePointScaling))
				depth = int(math.Round(n * 5.0))

				switch {
				case int32(y) < gravelHeight && params.EnableGravel:
					block = voxel.Gravel
				case int32(y) >= gravelHeight && int32(y) < sandHeight && params.EnableSand:
					block = voxel.Sand
				case params.EnableGrass:
					block = voxel.GrassBlock
				default:
					block = voxel.Air
				}
			}
		} else {
			// Case D
			inTerrain = false
			depth = 0
			if int32(y) < WaterHeight && params.EnableWater {
				block = voxel.Water
			} else {
				block = voxel.Air
			}
		}

		chunk.SetBlockAt(offsetX, y, offsetZ, block)
	}

	decorateColumn(params, fields, chunk, x, z, offsetX, offsetZ)
}

// hasTerrainAt evaluates the terrain predicate at p.
func hasTerrainAt(params Params, fields *noise.Fields, p noise.Point) bool {
	hillyRaw := lerp(0.1, 1.0, noise.Noise01(fields.Hilly, p.Scale(400.0)))
	hilly := hillyRaw * hillyRaw

	lower := 64.0 + 100.0*hilly
	upper := lower + 100.0*hilly

	if p.Y <= lower {
		return true
	}
	if p.Y >= upper {
		return false
	}

	density := 1.0 - lerpstep(lower, upper, p.Y)
	n := noise.FBM(fields.Density, p.Scale(100.0), 4, 2.0, 0.5)

	return n < density
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func lerpstep(edge0, edge1, x float64) float64 {
	if x <= edge0 {
		return 0.0
	}
	if x >= edge1 {
		return 1.0
	}
	return (x - edge0) / (edge1 - edge0)
}

// decorateColumn runs the second top-down pass that places grass and
// seagrass on top of exposed surface blocks. It must not read y-1 at y=0.
func decorateColumn(params Params, fields *noise.Fields, chunk *voxel.Chunk, x, z int32, offsetX, offsetZ int) {
	if !params.EnableGrass && !(params.EnableWater && params.EnableGravel) {
		return
	}

	for y := voxel.Height - 1; y >= 1; y-- {
		below := chunk.BlockAt(offsetX, y-1, offsetZ)
		here := chunk.BlockAt(offsetX, y, offsetZ)

		switch {
		case params.EnableGrass && here.IsAir() && below == voxel.GrassBlock:
			p := noise.Point{X: float64(x), Y: float64(y), Z: float64(z)}
			density := noise.FBM(fields.Grass, p.Scale(5.0), 4, 2.0, 0.7)
			if density > 0.55 {
				if density > 0.7 && chunk.BlockAt(offsetX, y+1, offsetZ).IsAir() {
					chunk.SetBlockAt(offsetX, y+1, offsetZ, voxel.TallGrassUpper)
					chunk.SetBlockAt(offsetX, y, offsetZ, voxel.TallGrassLower)
				} else {
					chunk.SetBlockAt(offsetX, y, offsetZ, voxel.Grass)
				}
			}

		case params.EnableWater && params.EnableGravel && here.IsLiquid() && below == voxel.Gravel:
			p := noise.Point{X: float64(x), Y: float64(y), Z: float64(z)}
			density := noise.FBM(fields.Grass, p.Scale(5.0), 4, 2.0, 0.7)
			if density > 0.55 {
				if density > 0.7 && chunk.BlockAt(offsetX, y+1, offsetZ).IsLiquid() {
					chunk.SetBlockAt(offsetX, y+1, offsetZ, voxel.TallSeagrassUpper)
					chunk.SetBlockAt(offsetX, y, offsetZ, voxel.TallSeagrassLower)
				} else {
					chunk.SetBlockAt(offsetX, y, offsetZ, voxel.Seagrass)
				}
			}
		}
	}
}
