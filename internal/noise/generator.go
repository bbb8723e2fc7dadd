// Package noise provides the five deterministic gradient-noise fields the
// terrain function samples, plus the noise01/fbm primitives built on top of
// them.
package noise

import (
	"github.com/aquilax/go-perlin"
)

// Field is a single deterministic gradient-noise field returning values in
// [-1, 1].
type Field struct {
	perlin *perlin.Perlin
}

// newField constructs a field seeded deterministically from the given
// 32-bit seed. alpha=2, beta=2, n=3 are tuned for terrain-like output.
func newField(seed uint32) *Field {
	return &Field{perlin: perlin.NewPerlin(2, 2, 3, int64(seed))}
}

// Sample evaluates the raw gradient noise at the given point, in [-1, 1].
func (f *Field) Sample(x, y, z float64) float64 {
	return f.perlin.Noise3D(x, y, z)
}

// Point is a 3D sample location in noise space.
type Point struct {
	X, Y, Z float64
}

// Scale divides every component by s, used throughout the terrain function
// to convert world-space coordinates into a field's sampling frequency.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s, Z: p.Z / s}
}

// Mul multiplies every component by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// Fields holds the five independent noise fields the terrain function
// reads from, seeded from a base seed plus fixed offsets {0..4} using
// wrapping addition.
type Fields struct {
	Density *Field
	Hilly   *Field
	Stone   *Field
	Gravel  *Field
	Grass   *Field
}

// NewFields derives five fields from seed, seed+1, ..., seed+4.
func NewFields(seed uint32) *Fields {
	return &Fields{
		Density: newField(seed),
		Hilly:   newField(seed + 1),
		Stone:   newField(seed + 2),
		Gravel:  newField(seed + 3),
		Grass:   newField(seed + 4),
	}
}

// Noise01 maps a field's [-1, 1] output into [0, 1].
func Noise01(field *Field, p Point) float64 {
	return (field.Sample(p.X, p.Y, p.Z) + 1) / 2
}

// FBM evaluates the fractional-Brownian-motion composite: an
// amplitude-weighted sum of octaves sj = Noise01(field, p*lacunarity^j),
// normalised by the sum of amplitude weights persistence^j. octaves must be
// >= 1; with octaves == 1 this reduces to Noise01(field, p).
func FBM(field *Field, p Point, octaves uint32, lacunarity, persistence float64) float64 {
	freq := 1.0
	amp := 1.0
	ampSum := 0.0
	sum := 0.0

	for i := uint32(0); i < octaves; i++ {
		n := Noise01(field, p.Mul(freq))
		sum += n * amp
		ampSum += amp

		freq *= lacunarity
		amp *= persistence
	}

	return sum / ampSum
}
