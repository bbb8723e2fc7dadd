// Package dispatch implements the per-tick demand tracker and priority
// dispatcher that decide which chunks to request from the worker pool and
// in what order, and the reconfiguration protocol that re-drives every
// viewer after terrain parameters change.
package dispatch

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/voidmesh/worldgen/internal/logging"
	"github.com/voidmesh/worldgen/internal/terrain"
	"github.com/voidmesh/worldgen/internal/voxel"
	"github.com/voidmesh/worldgen/internal/worker"
)

// Viewer is one connected viewer's visibility as of this tick. PreviousView
// is supplied by the host (it owns viewer lifecycle); a nil PreviousView is
// treated the same as JustJoined since there is nothing to diff against.
type Viewer struct {
	ID           string
	ViewCentre   voxel.ChunkPos
	ViewRadius   int32
	JustJoined   bool
	PreviousView map[voxel.ChunkPos]struct{}
}

// Wanted returns every chunk position within Chebyshev distance ViewRadius
// of ViewCentre.
func (v Viewer) Wanted() map[voxel.ChunkPos]struct{} {
	wanted := make(map[voxel.ChunkPos]struct{}, (2*v.ViewRadius+1)*(2*v.ViewRadius+1))
	for dx := -v.ViewRadius; dx <= v.ViewRadius; dx++ {
		for dz := -v.ViewRadius; dz <= v.ViewRadius; dz++ {
			wanted[voxel.ChunkPos{X: v.ViewCentre.X + dx, Z: v.ViewCentre.Z + dz}] = struct{}{}
		}
	}
	return wanted
}

// squaredDistance is the priority function: minimum squared Euclidean
// distance in chunk units from a viewer's view centre to a chunk position.
func squaredDistance(a, b voxel.ChunkPos) uint64 {
	dx := int64(a.X) - int64(b.X)
	dz := int64(a.Z) - int64(b.Z)
	return uint64(dx*dx + dz*dz)
}

// Dispatcher owns the world's chunk set and the PendingMap. It is driven
// once per tick by the host's main loop and is not safe to drive
// concurrently from multiple goroutines without external serialisation
// beyond what its own mutex provides for read accessors.
type Dispatcher struct {
	mu      sync.Mutex
	world   map[voxel.ChunkPos]*voxel.Chunk
	pending map[voxel.ChunkPos]*uint64

	pool      *worker.Pool
	responses chan worker.Response
	logger    *log.Logger
}

// New returns a dispatcher with an empty world, submitting GenerateChunk
// requests to pool and receiving completions on an internally owned
// response channel.
func New(pool *worker.Pool) *Dispatcher {
	return &Dispatcher{
		world:     make(map[voxel.ChunkPos]*voxel.Chunk),
		pending:   make(map[voxel.ChunkPos]*uint64),
		pool:      pool,
		responses: make(chan worker.Response, 4096),
		logger:    logging.Component("dispatcher"),
	}
}

// Chunk returns the chunk at pos from the world set, if present.
func (d *Dispatcher) Chunk(pos voxel.ChunkPos) (*voxel.Chunk, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.world[pos]
	return c, ok
}

// WorldLen returns the number of chunks currently held in the world set.
func (d *Dispatcher) WorldLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.world)
}

// PendingLen returns the number of entries in the PendingMap.
func (d *Dispatcher) PendingLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// PendingInFlight reports whether pos has an in-flight (None) entry.
func (d *Dispatcher) PendingInFlight(pos voxel.ChunkPos) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.pending[pos]
	return ok && v == nil
}

// Tick runs one demand-tracker + dispatch cycle: folds each viewer's newly
// wanted chunks into the PendingMap, drains completed responses into the
// world, dispatches the next batch of GenerateChunk requests in priority
// order, and reaps chunks no longer observed by any viewer.
func (d *Dispatcher) Tick(viewers []Viewer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wantedByViewer := make([]map[voxel.ChunkPos]struct{}, len(viewers))
	for i, v := range viewers {
		wantedByViewer[i] = v.Wanted()
	}

	for i, v := range viewers {
		wanted := wantedByViewer[i]

		var toConsider map[voxel.ChunkPos]struct{}
		if v.JustJoined || v.PreviousView == nil {
			toConsider = wanted
		} else {
			toConsider = make(map[voxel.ChunkPos]struct{}, len(wanted))
			for pos := range wanted {
				if _, inPrev := v.PreviousView[pos]; !inPrev {
					toConsider[pos] = struct{}{}
				}
			}
		}

		d.insertWanted(v.ViewCentre, toConsider)
	}

	d.drainResponses()
	d.dispatchPending()
	d.reap(wantedByViewer)
}

// insertWanted applies the PendingMap update rule to each position in
// positions not already present in the world: min-update an existing
// Some(priority) entry, leave an existing None (in-flight) entry alone, or
// insert a fresh Some(priority) entry.
func (d *Dispatcher) insertWanted(viewCentre voxel.ChunkPos, positions map[voxel.ChunkPos]struct{}) {
	for pos := range positions {
		if _, present := d.world[pos]; present {
			continue
		}

		dist := squaredDistance(viewCentre, pos)
		existing, exists := d.pending[pos]
		switch {
		case exists && existing != nil:
			if dist < *existing {
				*existing = dist
			}
		case exists && existing == nil:
			// in flight; leave untouched
		default:
			val := dist
			d.pending[pos] = &val
		}
	}
}

// drainResponses empties the response channel without blocking, inserting
// every delivered chunk into the world and removing its PendingMap entry.
func (d *Dispatcher) drainResponses() {
	for {
		select {
		case resp := <-d.responses:
			if resp.Kind != worker.ChunkReady {
				continue
			}
			if _, ok := d.pending[resp.Pos]; !ok {
				d.logger.Warn("chunk delivered with no pending entry", "pos", resp.Pos)
			}
			d.world[resp.Pos] = resp.Chunk
			delete(d.pending, resp.Pos)
		default:
			return
		}
	}
}

type pendingEntry struct {
	pos      voxel.ChunkPos
	priority uint64
}

// dispatchPending submits GenerateChunk for every Some(priority) entry in
// ascending (priority, pos) order, then marks each dispatched entry None.
func (d *Dispatcher) dispatchPending() {
	var entries []pendingEntry
	for pos, pri := range d.pending {
		if pri != nil {
			entries = append(entries, pendingEntry{pos: pos, priority: *pri})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].pos.Less(entries[j].pos)
	})

	for _, e := range entries {
		d.pool.Submit(worker.Request{Kind: worker.GenerateChunk, Pos: e.pos, Reply: d.responses})
		d.pending[e.pos] = nil
	}
}

// reap removes every world chunk not present in the union of this tick's
// wanted sets ("retain only viewed chunks").
func (d *Dispatcher) reap(wantedByViewer []map[voxel.ChunkPos]struct{}) {
	stillWanted := make(map[voxel.ChunkPos]struct{})
	for _, w := range wantedByViewer {
		for pos := range w {
			stillWanted[pos] = struct{}{}
		}
	}

	for pos := range d.world {
		if _, ok := stillWanted[pos]; !ok {
			delete(d.world, pos)
		}
	}
}

// ApplyParams runs the reconfiguration protocol: send SetParams and block
// until ParamsApplied is observed, then clear the world, force every
// viewer's full current view back into the PendingMap, and dispatch. Waiting
// for ParamsApplied first means every request dispatched here resolves
// against the new parameters and the cleared cache; once ApplyParams returns
// the caller can notify collaborators that terrain has regenerated.
//
// If ApplyParams is called again before a prior call returns, only the last
// one matters; intermediate cache clears are harmless. Callers are expected
// to serialise their own reconfiguration requests (the main loop is
// single-threaded).
func (d *Dispatcher) ApplyParams(params terrain.Params, viewers []Viewer) {
	reply := make(chan worker.Response, 1)
	d.pool.Submit(worker.Request{Kind: worker.SetParams, Params: params, Reply: reply})
	<-reply

	d.mu.Lock()
	d.world = make(map[voxel.ChunkPos]*voxel.Chunk)

	for _, v := range viewers {
		d.insertWanted(v.ViewCentre, v.Wanted())
	}

	d.drainResponses()
	d.dispatchPending()
	d.mu.Unlock()
}
