// Package worker implements the fixed-size pool of goroutines that resolve
// chunk requests against the cache, then the region store, then the
// terrain function, persisting newly generated chunks back asynchronously.
package worker

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/voidmesh/worldgen/internal/cache"
	"github.com/voidmesh/worldgen/internal/logging"
	"github.com/voidmesh/worldgen/internal/noise"
	"github.com/voidmesh/worldgen/internal/region"
	"github.com/voidmesh/worldgen/internal/terrain"
	"github.com/voidmesh/worldgen/internal/voxel"
)

// RequestKind is the message kind sent to a worker.
type RequestKind int

const (
	GenerateChunk RequestKind = iota
	EmptyCache
	QueryParams
	SetParams
)

// Request is one message sent to the pool. Reply may be nil for fire-and-
// forget EmptyCache calls; every other kind expects a reply.
type Request struct {
	Kind   RequestKind
	Pos    voxel.ChunkPos
	Params terrain.Params
	Reply  chan Response
}

// ResponseKind is the kind of message a worker sends back.
type ResponseKind int

const (
	ChunkReady ResponseKind = iota
	ParamsReport
	ParamsApplied
)

// Response is what a worker sends back on a Request's Reply channel.
type Response struct {
	Kind   ResponseKind
	Pos    voxel.ChunkPos
	Chunk  *voxel.Chunk
	Params terrain.Params
}

// sharedState is the mutable terrain configuration every worker reads from;
// guarded separately from the cache/store since SetParams can race a
// concurrent GenerateChunk resolving against the old params.
type sharedState struct {
	mu     sync.RWMutex
	params terrain.Params
	fields *noise.Fields
}

func (s *sharedState) snapshot() (terrain.Params, *noise.Fields) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params, s.fields
}

// Pool is the fixed-size worker pool. All workers share one request channel,
// one cache, and one store; terrain parameters and noise fields are held in
// sharedState so a SetParams call is visible to every worker immediately.
type Pool struct {
	requests chan Request
	cache    *cache.Cache
	store    *region.Store
	state    *sharedState
	logger   *log.Logger

	wg sync.WaitGroup
}

// New starts a pool sized to runtime.GOMAXPROCS(0), sharing cache and store.
func New(params terrain.Params, chunkCache *cache.Cache, store *region.Store) *Pool {
	p := &Pool{
		requests: make(chan Request, 4096),
		cache:    chunkCache,
		store:    store,
		state:    &sharedState{params: params, fields: noise.NewFields(params.Seed)},
		logger:   logging.Component("worker-pool"),
	}

	workerCount := runtime.GOMAXPROCS(0)
	if workerCount < 1 {
		workerCount = 1
	}
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

// Submit enqueues req for processing by the next free worker.
func (p *Pool) Submit(req Request) {
	p.requests <- req
}

// Close stops accepting new requests and waits for every in-flight request
// to finish draining.
func (p *Pool) Close() {
	close(p.requests)
	p.wg.Wait()
}

// Params returns the pool's current terrain parameters without going
// through the request channel, for callers that need a synchronous read.
func (p *Pool) Params() terrain.Params {
	params, _ := p.state.snapshot()
	return params
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for req := range p.requests {
		switch req.Kind {
		case GenerateChunk:
			p.handleGenerateChunk(req)
		case EmptyCache:
			p.cache.Clear()
			p.reply(req, Response{Kind: ParamsApplied})
		case QueryParams:
			params, _ := p.state.snapshot()
			p.reply(req, Response{Kind: ParamsReport, Params: params})
		case SetParams:
			p.handleSetParams(req)
		}
	}
}

func (p *Pool) handleGenerateChunk(req Request) {
	params, fields := p.state.snapshot()

	if chunk, ok := p.cache.Get(req.Pos); ok {
		p.reply(req, Response{Kind: ChunkReady, Pos: req.Pos, Chunk: chunk})
		return
	}

	if chunk, ok := p.loadFromStore(req.Pos, params); ok {
		p.cache.Insert(req.Pos, chunk)
		p.reply(req, Response{Kind: ChunkReady, Pos: req.Pos, Chunk: chunk})
		return
	}

	chunk := terrain.Generate(params, fields, req.Pos)
	p.cache.Insert(req.Pos, chunk.Clone())
	p.reply(req, Response{Kind: ChunkReady, Pos: req.Pos, Chunk: chunk})

	go func() {
		if err := p.store.SaveChunk(chunk, req.Pos, params); err != nil {
			p.logger.Warn("failed to persist generated chunk", "pos", req.Pos, "error", err)
		}
	}()
}

func (p *Pool) loadFromStore(pos voxel.ChunkPos, params terrain.Params) (*voxel.Chunk, bool) {
	regionPos := voxel.RegionPosOf(pos)
	r, err := p.store.LoadRegion(regionPos, params)
	if err != nil {
		return nil, false
	}
	for _, saved := range r.Chunks {
		if saved.Pos == pos {
			return saved.ToChunk(), true
		}
	}
	return nil, false
}

func (p *Pool) handleSetParams(req Request) {
	p.state.mu.Lock()
	if p.state.params.Seed != req.Params.Seed {
		p.state.fields = noise.NewFields(req.Params.Seed)
	}
	p.state.params = req.Params
	p.state.mu.Unlock()

	p.cache.Clear()

	p.reply(req, Response{Kind: ParamsApplied, Params: req.Params})
}

func (p *Pool) reply(req Request, resp Response) {
	if req.Reply != nil {
		req.Reply <- resp
	}
}
