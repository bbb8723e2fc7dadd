// Package region implements on-disk persistence of generated chunks,
// grouped 16x16 chunks per region file and tagged with the terrain
// parameters that produced them.
package region

import (
	"bytes"
	"compress/zlib"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/voidmesh/worldgen/internal/logging"
	"github.com/voidmesh/worldgen/internal/terrain"
	"github.com/voidmesh/worldgen/internal/voxel"
)

// Sentinel errors mirroring the engine's StoreMissing/StoreCorrupt/
// StoreParamsMismatch error kinds. Generation always proceeds past any of
// these; they are never fatal to a live GenerateChunk request.
var (
	ErrNotFound       = errors.New("region: not found")
	ErrCorrupt        = errors.New("region: corrupt file")
	ErrParamsMismatch = errors.New("region: params mismatch")
)

// Block is one stored block within a SavedChunk. Only blocks that are not
// AIR are stored; omission means AIR.
type Block struct {
	X, Y, Z int
	Kind    uint16
}

// SavedChunk is the on-disk representation of a single chunk's non-air
// blocks.
type SavedChunk struct {
	Pos    voxel.ChunkPos
	Blocks []Block
}

// Region is the on-disk representation of a 16x16 block of chunks, tagged
// with the TerrainParams that produced them.
type Region struct {
	Pos    voxel.RegionPos
	Params terrain.Params
	Chunks []SavedChunk
}

// Store is the authoritative on-disk persistence layer. Regions are encoded
// with gob and compressed with zlib, written to a temp file and atomically
// renamed into place, and named by their region position. Concurrent saves
// to the same region are serialised via a per-region lock.
type Store struct {
	dir string

	locksMu sync.Mutex
	locks   map[voxel.RegionPos]*sync.Mutex

	logger *log.Logger
}

// NewStore returns a store rooted at dir (typically "./world").
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		locks:  make(map[voxel.RegionPos]*sync.Mutex),
		logger: logging.Component("region-store"),
	}
}

func (s *Store) lockFor(pos voxel.RegionPos) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[pos]
	if !ok {
		l = &sync.Mutex{}
		s.locks[pos] = l
	}
	return l
}

func (s *Store) path(pos voxel.RegionPos) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%d.region", pos.X, pos.Z))
}

// LoadRegion reads the region file at region.X,region.Z and rejects it if
// its embedded params do not match currentParams. A missing file returns
// ErrNotFound; a file that fails to decode returns ErrCorrupt; neither is
// ever surfaced to the caller of GenerateChunk as anything but "no saved
// chunk".
func (s *Store) LoadRegion(pos voxel.RegionPos, currentParams terrain.Params) (*Region, error) {
	data, err := os.ReadFile(s.path(pos))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	region, err := decodeRegion(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if region.Params != currentParams {
		return nil, ErrParamsMismatch
	}

	return region, nil
}

// SaveChunk loads the containing region (or creates an empty one tagged
// with params when none is readable or the existing one was written with
// different params), upserts chunk by ChunkPos equality, and atomically
// rewrites the file.
func (s *Store) SaveChunk(chunk *voxel.Chunk, pos voxel.ChunkPos, params terrain.Params) error {
	regionPos := voxel.RegionPosOf(pos)
	lock := s.lockFor(regionPos)
	lock.Lock()
	defer lock.Unlock()

	region, err := s.loadRegionLocked(regionPos, params)
	if err != nil || region.Params != params {
		region = &Region{Pos: regionPos, Params: params}
	}

	saved := toSavedChunk(chunk, pos)

	replaced := false
	for i := range region.Chunks {
		if region.Chunks[i].Pos == pos {
			region.Chunks[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		region.Chunks = append(region.Chunks, saved)
	}

	if err := s.writeRegion(region); err != nil {
		return fmt.Errorf("save chunk %v to region %v: %w", pos, regionPos, err)
	}
	return nil
}

// loadRegionLocked reads a region file ignoring the params-mismatch check,
// since SaveChunk must be able to start a fresh region when the existing
// one belongs to a stale parameter set.
func (s *Store) loadRegionLocked(pos voxel.RegionPos, params terrain.Params) (*Region, error) {
	data, err := os.ReadFile(s.path(pos))
	if err != nil {
		return nil, err
	}
	return decodeRegion(data)
}

// OverwriteRegions groups chunks by region position and rewrites each
// region file entirely.
func (s *Store) OverwriteRegions(chunks map[voxel.ChunkPos]*voxel.Chunk, params terrain.Params) error {
	byRegion := make(map[voxel.RegionPos]*Region)

	for pos, chunk := range chunks {
		regionPos := voxel.RegionPosOf(pos)
		region, ok := byRegion[regionPos]
		if !ok {
			region = &Region{Pos: regionPos, Params: params}
			byRegion[regionPos] = region
		}
		region.Chunks = append(region.Chunks, toSavedChunk(chunk, pos))
	}

	for regionPos, region := range byRegion {
		lock := s.lockFor(regionPos)
		lock.Lock()
		err := s.writeRegion(region)
		lock.Unlock()
		if err != nil {
			return fmt.Errorf("overwrite region %v: %w", regionPos, err)
		}
	}
	return nil
}

// LoadRegions enumerates every *.region file under the store's directory.
func (s *Store) LoadRegions() ([]*Region, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list region directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".region") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var regions []*Region
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("failed to read region file", "file", name, "error", err)
			continue
		}
		region, err := decodeRegion(data)
		if err != nil {
			s.logger.Warn("failed to decode region file", "file", name, "error", err)
			continue
		}
		regions = append(regions, region)
	}

	return regions, nil
}

// writeRegion performs the create-or-truncate-then-full-write, via a
// temp-file-then-rename sequence so readers never observe a torn file.
func (s *Store) writeRegion(region *Region) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create world directory: %w", err)
	}

	path := s.path(region.Pos)
	tmp := path + ".tmp." + strconv.Itoa(os.Getpid())

	encoded, err := encodeRegion(region)
	if err != nil {
		return fmt.Errorf("encode region: %w", err)
	}

	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write temp region file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace region file: %w", err)
	}

	return nil
}

func encodeRegion(region *Region) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(region); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRegion(data []byte) (*Region, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var region Region
	if err := gob.NewDecoder(zr).Decode(&region); err != nil && err != io.EOF {
		return nil, err
	}
	return &region, nil
}

// toSavedChunk extracts only the non-air blocks of chunk into the on-disk
// representation.
func toSavedChunk(chunk *voxel.Chunk, pos voxel.ChunkPos) SavedChunk {
	saved := SavedChunk{Pos: pos}
	for offsetX := 0; offsetX < 16; offsetX++ {
		for offsetZ := 0; offsetZ < 16; offsetZ++ {
			for y := 0; y < voxel.Height; y++ {
				block := chunk.BlockAt(offsetX, y, offsetZ)
				if block.IsAir() {
					continue
				}
				saved.Blocks = append(saved.Blocks, Block{X: offsetX, Y: y, Z: offsetZ, Kind: uint16(block)})
			}
		}
	}
	return saved
}

// ToChunk materialises a Chunk from its on-disk representation, with every
// omitted block implicitly AIR.
func (sc SavedChunk) ToChunk() *voxel.Chunk {
	chunk := voxel.NewChunk(sc.Pos)
	for _, b := range sc.Blocks {
		chunk.SetBlockAt(b.X, b.Y, b.Z, voxel.BlockState(b.Kind))
	}
	return chunk
}
