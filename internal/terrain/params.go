package terrain

// FbmParams configures one fractional-Brownian-motion evaluation.
type FbmParams struct {
	PointScaling float64
	Octaves      uint32
	Lacunarity   float64
	Persistence  float64
}

// DefaultGravelHeight is the default fbm configuration for the
// gravel-height band.
func DefaultGravelHeight() FbmParams {
	return FbmParams{PointScaling: 10.0, Octaves: 3, Lacunarity: 2.0, Persistence: -1.5}
}

// DefaultSandHeight is the default fbm configuration for the sand-height
// band.
func DefaultSandHeight() FbmParams {
	return FbmParams{PointScaling: 10.0, Octaves: 1, Lacunarity: 2.0, Persistence: 0.5}
}

// Params is the full set of terrain-generation parameters. Equality is
// structural (a plain == works because every field is comparable).
type Params struct {
	Seed uint32

	EnableGravel bool
	EnableSand   bool
	EnableStone  bool
	EnableGrass  bool
	EnableWater  bool

	SandOffset        int32
	StonePointScaling float64

	GravelHeight FbmParams
	SandHeight   FbmParams
}

// DefaultParams returns the default terrain configuration, with all block
// layers enabled.
func DefaultParams(seed uint32) Params {
	return Params{
		Seed:              seed,
		EnableGravel:      true,
		EnableSand:        true,
		EnableStone:       true,
		EnableGrass:       true,
		EnableWater:       true,
		SandOffset:        5,
		StonePointScaling: 15.0,
		GravelHeight:      DefaultGravelHeight(),
		SandHeight:        DefaultSandHeight(),
	}
}
