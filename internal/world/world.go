package world

import (
	"sync"

	"voxelcore/internal/registry"
)

// BlockPos is a world-space block position.
type BlockPos struct {
	X, Y, Z int
}

// EditStore overlays player or tool edits on top of generated terrain.
type EditStore struct {
	mu    sync.RWMutex
	edits map[BlockPos]registry.Block
}

func NewEditStore() *EditStore {
	return &EditStore{edits: make(map[BlockPos]registry.Block)}
}

func (e *EditStore) Get(p BlockPos) (registry.Block, bool) {
	e.mu.RLock()
	b, ok := e.edits[p]
	e.mu.RUnlock()
	return b, ok
}

func (e *EditStore) Set(p BlockPos, b registry.Block) {
	e.mu.Lock()
	e.edits[p] = b
	e.mu.Unlock()
}

// Len returns the number of recorded edits.
func (e *EditStore) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.edits)
}

// ApplyTo writes every edit that falls inside buf into it.
func (e *EditStore) ApplyTo(buf *ChunkBuf) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bx, bz := buf.BaseX(), buf.BaseZ()
	for p, b := range e.edits {
		if buf.ContainsWorld(p.X, p.Y, p.Z) {
			buf.SetLocal(p.X-bx, p.Y, p.Z-bz, b)
		}
	}
}

// World is generated terrain plus edits. It is safe for concurrent reads and edits.
type World struct {
	gen   TerrainGenerator
	edits *EditStore

	ChunkSizeX, ChunkSizeY, ChunkSizeZ int
}

func New(gen TerrainGenerator, sx, sy, sz int) *World {
	return &World{gen: gen, edits: NewEditStore(), ChunkSizeX: sx, ChunkSizeY: sy, ChunkSizeZ: sz}
}

func (w *World) Edits() *EditStore { return w.edits }

// BlockAt prefers recorded edits over generated terrain.
func (w *World) BlockAt(wx, wy, wz int) registry.Block {
	if b, ok := w.edits.Get(BlockPos{wx, wy, wz}); ok {
		return b
	}
	return w.gen.BlockAt(wx, wy, wz)
}

func (w *World) SetBlock(wx, wy, wz int, b registry.Block) {
	w.edits.Set(BlockPos{wx, wy, wz}, b)
}

// GenerateChunk produces the buffer for coord with edits applied.
func (w *World) GenerateChunk(coord ChunkCoord) *ChunkBuf {
	buf := w.gen.FillChunk(coord, w.ChunkSizeX, w.ChunkSizeY, w.ChunkSizeZ)
	w.edits.ApplyTo(buf)
	return buf
}

// ChunkOf returns the column containing world X,Z.
func (w *World) ChunkOf(wx, wz int) ChunkCoord {
	return ChunkCoord{CX: FloorDiv(wx, w.ChunkSizeX), CZ: FloorDiv(wz, w.ChunkSizeZ)}
}
