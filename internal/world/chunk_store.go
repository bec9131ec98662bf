package world

import (
	"sort"
	"sync"

	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
)

// ChunkStore manages generated chunk buffers and tracks which need rebuilding.
type ChunkStore struct {
	world *World

	// Map of chunks indexed by their coordinates
	chunks   map[ChunkCoord]*ChunkBuf
	dirty    map[ChunkCoord]struct{}
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

// NewChunkStore creates a new chunk store backed by w.
func NewChunkStore(w *World) *ChunkStore {
	return &ChunkStore{
		world:  w,
		chunks: make(map[ChunkCoord]*ChunkBuf),
		dirty:  make(map[ChunkCoord]struct{}),
	}
}

// Get returns the chunk buffer if it is loaded.
func (cs *ChunkStore) Get(coord ChunkCoord) (*ChunkBuf, bool) {
	cs.mu.RLock()
	buf, ok := cs.chunks[coord]
	cs.mu.RUnlock()
	return buf, ok
}

// Has reports whether coord is loaded.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	_, ok := cs.Get(coord)
	return ok
}

// GetOrGenerate returns the loaded buffer or generates and stores it.
func (cs *ChunkStore) GetOrGenerate(coord ChunkCoord) *ChunkBuf {
	if buf, ok := cs.Get(coord); ok {
		return buf
	}
	buf := cs.world.GenerateChunk(coord)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// Double-check locking: another goroutine might have stored it while we were generating
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	cs.chunks[coord] = buf
	cs.dirty[coord] = struct{}{}
	cs.modCount++
	return buf
}

// BlockAt reads loaded buffers first and falls back to the world.
func (cs *ChunkStore) BlockAt(wx, wy, wz int) registry.Block {
	coord := cs.world.ChunkOf(wx, wz)
	if buf, ok := cs.Get(coord); ok {
		cs.mu.RLock()
		b, in := buf.GetWorld(wx, wy, wz)
		cs.mu.RUnlock()
		if in {
			return b
		}
	}
	return cs.world.BlockAt(wx, wy, wz)
}

// SetBlock records an edit, updates the loaded buffer and marks border neighbors dirty.
func (cs *ChunkStore) SetBlock(wx, wy, wz int, b registry.Block) {
	cs.world.SetBlock(wx, wy, wz, b)
	coord := cs.world.ChunkOf(wx, wz)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if buf, ok := cs.chunks[coord]; ok && buf.ContainsWorld(wx, wy, wz) {
		buf.SetLocal(wx-buf.BaseX(), wy, wz-buf.BaseZ(), b)
	}
	cs.markDirtyLocked(coord)

	// Mark neighbor chunks dirty if we touched a border block
	lx := Mod(wx, cs.world.ChunkSizeX)
	lz := Mod(wz, cs.world.ChunkSizeZ)
	if lx == 0 {
		cs.markDirtyLocked(coord.Offset(-1, 0))
	} else if lx == cs.world.ChunkSizeX-1 {
		cs.markDirtyLocked(coord.Offset(1, 0))
	}
	if lz == 0 {
		cs.markDirtyLocked(coord.Offset(0, -1))
	} else if lz == cs.world.ChunkSizeZ-1 {
		cs.markDirtyLocked(coord.Offset(0, 1))
	}
}

func (cs *ChunkStore) markDirtyLocked(coord ChunkCoord) {
	if _, ok := cs.chunks[coord]; ok {
		cs.dirty[coord] = struct{}{}
	}
}

// MarkDirty flags a loaded chunk for rebuild.
func (cs *ChunkStore) MarkDirty(coord ChunkCoord) {
	cs.mu.Lock()
	cs.markDirtyLocked(coord)
	cs.mu.Unlock()
}

// TakeDirty returns and clears the dirty set, sorted for deterministic scheduling.
func (cs *ChunkStore) TakeDirty() []ChunkCoord {
	cs.mu.Lock()
	out := make([]ChunkCoord, 0, len(cs.dirty))
	for c := range cs.dirty {
		out = append(out, c)
	}
	cs.dirty = make(map[ChunkCoord]struct{})
	cs.mu.Unlock()
	sortCoords(out)
	return out
}

// Coords returns all loaded coordinates, sorted.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for c := range cs.chunks {
		out = append(out, c)
	}
	cs.mu.RUnlock()
	sortCoords(out)
	return out
}

func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// Evict removes chunks outside radius (in chunks) of center.
// Returns number of removed chunks.
func (cs *ChunkStore) Evict(center ChunkCoord, radius int) int {
	defer profiling.Track("world.Evict")()
	removed := 0
	cs.mu.Lock()
	for coord := range cs.chunks {
		dx := coord.CX - center.CX
		dz := coord.CZ - center.CZ
		if dx*dx+dz*dz > radius*radius {
			delete(cs.chunks, coord)
			delete(cs.dirty, coord)
			cs.modCount++
			removed++
		}
	}
	cs.mu.Unlock()
	return removed
}

func sortCoords(cs []ChunkCoord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CX != cs[j].CX {
			return cs[i].CX < cs[j].CX
		}
		return cs[i].CZ < cs[j].CZ
	})
}
