package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/voidmesh/worldgen/internal/config"
	"github.com/voidmesh/worldgen/internal/engine"
	"github.com/voidmesh/worldgen/internal/logging"
	"github.com/voidmesh/worldgen/internal/terrain"
)

func main() {
	cfg, err := config.Load("./world.yaml")
	if err != nil {
		log.Fatal("failed to load configuration", "error", err)
	}

	logging.Init(cfg.Process.LogLevel)
	logger := logging.Get()
	logger.Debug("configuration loaded", "world_dir", cfg.Process.WorldDir, "tick_interval", cfg.Process.TickInterval, "log_level", cfg.Process.LogLevel)

	seed := cfg.World.World.ResolveSeed(rand.Uint32())
	params := terrain.DefaultParams(seed)
	logger.Info("resolved terrain parameters", "seed", seed)

	eng := engine.New(params, cfg.World.World.ChunksCached, cfg.Process.WorldDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var explicitSpawn *engine.Spawn
	if cfg.World.World.Spawn != nil {
		s := cfg.World.World.Spawn
		explicitSpawn = &engine.Spawn{X: s[0], Y: s[1], Z: s[2]}
	}

	logger.Info("pregenerating world", "from", cfg.World.World.PregenMin, "to", cfg.World.World.PregenMax)
	if err := eng.Pregenerate(ctx, params, cfg.World.World.PregenMin, cfg.World.World.PregenMax, explicitSpawn); err != nil {
		logger.Fatal("pregeneration failed", "error", err)
	}

	spawn := eng.Spawn()
	logger.Info("spawn position published", "x", spawn.X, "y", spawn.Y, "z", spawn.Z)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runTickLoop(ctx, eng, cfg.Process.TickInterval, logger)
	}()

	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	select {
	case <-done:
		logger.Debug("tick loop stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("tick loop did not stop before shutdown timeout")
	}

	eng.Close()
	logger.Info("worldgen engine exited")
}

// runTickLoop drives the engine once per tick interval until ctx is
// cancelled.
func runTickLoop(ctx context.Context, eng *engine.Engine, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("tick loop running", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("tick loop stopped")
			return
		case <-ticker.C:
			eng.Tick()
		}
	}
}
