package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voidmesh/worldgen/internal/voxel"
)

// Registry tracks connected viewers across ticks, assigning each a UUID and
// remembering the view it was given last tick so Tick can diff against it
// (the demand-tracker update rule only considers wanted(V) \ previous_view(V)
// once a viewer is no longer just-joined).
type Registry struct {
	mu      sync.Mutex
	viewers map[string]*registeredViewer
}

type registeredViewer struct {
	centre   voxel.ChunkPos
	radius   int32
	previous map[voxel.ChunkPos]struct{}
	joined   bool
}

// NewRegistry returns an empty viewer registry.
func NewRegistry() *Registry {
	return &Registry{viewers: make(map[string]*registeredViewer)}
}

// Join registers a new viewer and returns its assigned ID.
func (r *Registry) Join(centre voxel.ChunkPos, radius int32) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.viewers[id] = &registeredViewer{centre: centre, radius: radius, joined: true}
	return id
}

// Move updates a registered viewer's view centre and radius ahead of the
// next tick. A viewer moving does not count as rejoining.
func (r *Registry) Move(id string, centre voxel.ChunkPos, radius int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.viewers[id]
	if !ok {
		return
	}
	v.centre = centre
	v.radius = radius
}

// Leave removes a viewer from the registry.
func (r *Registry) Leave(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, id)
}

// Len returns the number of registered viewers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

// Snapshot returns the Viewer slice to feed into Dispatcher.Tick, recording
// each viewer's just-computed wanted set as its "previous view" for the
// next call and clearing the just-joined flag.
func (r *Registry) Snapshot() []Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()

	viewers := make([]Viewer, 0, len(r.viewers))
	for id, v := range r.viewers {
		viewer := Viewer{
			ID:           id,
			ViewCentre:   v.centre,
			ViewRadius:   v.radius,
			JustJoined:   v.joined,
			PreviousView: v.previous,
		}
		viewers = append(viewers, viewer)

		v.previous = viewer.Wanted()
		v.joined = false
	}
	return viewers
}
