package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFields_DerivesFromWrappingOffsets(t *testing.T) {
	fields := NewFields(42)
	require.NotNil(t, fields)
	assert.NotNil(t, fields.Density)
	assert.NotNil(t, fields.Hilly)
	assert.NotNil(t, fields.Stone)
	assert.NotNil(t, fields.Gravel)
	assert.NotNil(t, fields.Grass)

	p := Point{X: 1.5, Y: 2.5, Z: 3.5}
	assert.Equal(t, Noise01(newField(42), p), Noise01(fields.Density, p))
	assert.Equal(t, Noise01(newField(46), p), Noise01(fields.Grass, p))
}

func TestNewFields_WrapsSeedAtUint32Max(t *testing.T) {
	// seed+4 must wrap rather than overflow into a different width.
	fields := NewFields(^uint32(0) - 1)
	require.NotNil(t, fields)

	p := Point{X: 1.5, Y: 2.5, Z: 3.5}
	assert.Equal(t, Noise01(newField(0), p), Noise01(fields.Stone, p), "seed+2 wraps to 0")
	assert.Equal(t, Noise01(newField(2), p), Noise01(fields.Grass, p), "seed+4 wraps to 2")
}

func TestNoise01_IsInUnitRange(t *testing.T) {
	field := newField(7)
	tests := []Point{
		{X: 0, Y: 0, Z: 0},
		{X: 10.5, Y: 20.7, Z: -3.1},
		{X: -15.3, Y: -8.9, Z: 100},
		{X: 1_000_000, Y: 2_000_000, Z: 3_000_000},
	}

	for _, p := range tests {
		v := Noise01(field, p)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNoise01_DeterministicForSameSeedAndPoint(t *testing.T) {
	a := newField(123)
	b := newField(123)
	p := Point{X: 12.25, Y: -4, Z: 99}

	assert.Equal(t, Noise01(a, p), Noise01(b, p))
}

func TestNoise01_DifferentSeedsDiffer(t *testing.T) {
	a := newField(1)
	b := newField(2)
	p := Point{X: 5, Y: 5, Z: 5}

	assert.NotEqual(t, Noise01(a, p), Noise01(b, p))
}

func TestFBM_OneOctaveReducesToNoise01(t *testing.T) {
	field := newField(55)
	p := Point{X: 3, Y: 4, Z: 5}

	assert.Equal(t, Noise01(field, p), FBM(field, p, 1, 2.0, 0.5))
}

func TestFBM_IsInUnitRange(t *testing.T) {
	field := newField(99)
	p := Point{X: 10, Y: -20, Z: 30}

	v := FBM(field, p, 4, 2.0, 0.5)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestFBM_Deterministic(t *testing.T) {
	field := newField(7)
	p := Point{X: 1.5, Y: 2.5, Z: 3.5}

	first := FBM(field, p, 4, 2.0, 0.5)
	second := FBM(field, p, 4, 2.0, 0.5)
	assert.Equal(t, first, second)
}

func TestPointScaleAndMul(t *testing.T) {
	p := Point{X: 10, Y: 20, Z: 30}
	assert.Equal(t, Point{X: 5, Y: 10, Z: 15}, p.Scale(2))
	assert.Equal(t, Point{X: 20, Y: 40, Z: 60}, p.Mul(2))
}
