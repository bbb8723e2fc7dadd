// Package engine wires the cache, region store, worker pool, and dispatcher
// into the reconfiguration controller and pregeneration driver, and exposes
// the single per-tick entry point a host process drives.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/voidmesh/worldgen/internal/cache"
	"github.com/voidmesh/worldgen/internal/dispatch"
	"github.com/voidmesh/worldgen/internal/logging"
	"github.com/voidmesh/worldgen/internal/noise"
	"github.com/voidmesh/worldgen/internal/region"
	"github.com/voidmesh/worldgen/internal/terrain"
	"github.com/voidmesh/worldgen/internal/voxel"
	"github.com/voidmesh/worldgen/internal/worker"
)

// ErrConfigInvalid reports a startup configuration the core refuses to run
// with, e.g. a pregeneration range that would overflow the chunk cache.
var ErrConfigInvalid = errors.New("engine: configuration invalid")

// Spawn is the published spawn position, in block coordinates.
type Spawn struct {
	X, Y, Z int32
}

// Engine is the top-level handle an embedding host constructs once and
// drives on a tick loop. It owns the cache, store, worker channels,
// pending map, and viewer state.
type Engine struct {
	Cache      *cache.Cache
	Store      *region.Store
	Pool       *worker.Pool
	Dispatcher *dispatch.Dispatcher
	Registry   *dispatch.Registry

	logger *log.Logger
	spawn  Spawn
}

// New constructs an engine with a freshly seeded worker pool, chunk cache,
// and region store rooted at worldDir.
func New(params terrain.Params, cacheCapacity int, worldDir string) *Engine {
	c := cache.New(cacheCapacity)
	store := region.NewStore(worldDir)
	pool := worker.New(params, c, store)

	return &Engine{
		Cache:      c,
		Store:      store,
		Pool:       pool,
		Dispatcher: dispatch.New(pool),
		Registry:   dispatch.NewRegistry(),
		logger:     logging.Component("engine"),
	}
}

// Pregenerate validates the square range [a..=b] against the cache's
// capacity, generates every chunk in it on a bounded data-parallel pool
// (bypassing the worker request channel entirely), and selects the spawn
// position.
func (e *Engine) Pregenerate(ctx context.Context, params terrain.Params, a, b int32, explicitSpawn *Spawn) error {
	side := int64(b) - int64(a) + 1
	if side < 0 {
		side = 0
	}
	total := side * side
	if total > int64(e.Cache.Capacity()) {
		return fmt.Errorf("%w: pregen range %d..=%d needs %d cache slots, capacity is %d",
			ErrConfigInvalid, a, b, total, e.Cache.Capacity())
	}

	fields := noise.NewFields(params.Seed)

	group, groupCtx := errgroup.WithContext(ctx)
	for x := a; x <= b; x++ {
		x := x
		group.Go(func() error {
			for z := a; z <= b; z++ {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				pos := voxel.ChunkPos{X: x, Z: z}
				e.Cache.Insert(pos, terrain.Generate(params, fields, pos))
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("pregenerate range %d..=%d: %w", a, b, err)
	}

	spawn := e.selectSpawn(params, fields, explicitSpawn)
	e.spawn = spawn
	e.logger.Info("pregeneration complete", "from", a, "to", b, "chunks", total, "spawn_x", spawn.X, "spawn_y", spawn.Y, "spawn_z", spawn.Z)

	return nil
}

// Spawn returns the spawn position published by the most recent
// Pregenerate call.
func (e *Engine) Spawn() Spawn {
	return e.spawn
}

func (e *Engine) selectSpawn(params terrain.Params, fields *noise.Fields, explicit *Spawn) Spawn {
	if explicit != nil {
		return *explicit
	}

	origin := voxel.ChunkPos{X: 0, Z: 0}
	chunk, ok := e.Cache.Get(origin)
	if !ok {
		chunk = terrain.Generate(params, fields, origin)
	}

	for y := voxel.Height - 1; y >= 0; y-- {
		if !chunk.BlockAt(0, y, 0).IsAir() {
			return Spawn{X: 0, Y: int32(y) - 50, Z: 0}
		}
	}
	return Spawn{X: 0, Y: 0, Z: 0}
}

// Tick drives one demand-tracker and dispatch cycle using the registry's
// current viewer snapshot.
func (e *Engine) Tick() {
	e.Dispatcher.Tick(e.Registry.Snapshot())
}

// Reconfigure runs the reconfiguration protocol: SetParams and block until
// ParamsApplied is observed, then clear the world, re-queue every connected
// viewer's current view, and dispatch. The caller should notify
// collaborators that terrain has regenerated once this returns.
func (e *Engine) Reconfigure(params terrain.Params) {
	e.Dispatcher.ApplyParams(params, e.Registry.Snapshot())
}

// Close shuts down the worker pool, waiting for in-flight work to drain.
func (e *Engine) Close() {
	e.Pool.Close()
}
