package meshing

import (
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// axisGrid holds the face cells perpendicular to one axis.
type axisGrid struct {
	parity *bitset.BitSet // set where the face cell is a boundary
	orient *bitset.BitSet // set when the boundary faces the positive direction
	keys   []uint32       // face key per cell, 0 when none
}

func newAxisGrid(n int) axisGrid {
	return axisGrid{
		parity: bitset.New(uint(n)),
		orient: bitset.New(uint(n)),
		keys:   make([]uint32, n),
	}
}

func (a *axisGrid) reset() {
	a.parity.ClearAll()
	a.orient.ClearAll()
	clear(a.keys)
}

// toggle flips the parity of cell i. A cell left as a boundary takes key and orientation
// from this toggle; a cancelled cell loses its key.
func (a *axisGrid) toggle(i int, pos bool, key uint32) {
	a.parity.Flip(uint(i))
	if a.parity.Test(uint(i)) {
		a.keys[i] = key
		a.orient.SetTo(uint(i), pos)
		return
	}
	a.keys[i] = 0
}

// FaceGrids are the three parity grids of one chunk at micro scale S. The X grid has
// S*SX+1 planes, likewise Y and Z.
type FaceGrids struct {
	S, SX, SY, SZ int

	X, Y, Z axisGrid
}

func NewFaceGrids(s, sx, sy, sz int) *FaceGrids {
	wx, wy, wz := s*sx, s*sy, s*sz
	return &FaceGrids{
		S: s, SX: sx, SY: sy, SZ: sz,
		X: newAxisGrid((wx + 1) * wy * wz),
		Y: newAxisGrid(wx * (wy + 1) * wz),
		Z: newAxisGrid(wx * wy * (wz + 1)),
	}
}

func (g *FaceGrids) idxX(ix, iy, iz int) int {
	return (ix*(g.S*g.SY)+iy)*(g.S*g.SZ) + iz
}

func (g *FaceGrids) idxY(ix, iy, iz int) int {
	return (iy*(g.S*g.SZ)+iz)*(g.S*g.SX) + ix
}

func (g *FaceGrids) idxZ(ix, iy, iz int) int {
	return (iz*(g.S*g.SY)+iy)*(g.S*g.SX) + ix
}

// Reset clears every face cell.
func (g *FaceGrids) Reset() {
	g.X.reset()
	g.Y.reset()
	g.Z.reset()
}

type gridKey struct {
	s, sx, sy, sz int
}

// ScratchPool recycles FaceGrids between chunk builds. Grids are keyed by scale and chunk
// dimensions; a request with new dimensions allocates.
type ScratchPool struct {
	mu   sync.Mutex
	free map[gridKey][]*FaceGrids

	reused    atomic.Uint64
	allocated atomic.Uint64
}

func NewScratchPool() *ScratchPool {
	return &ScratchPool{free: make(map[gridKey][]*FaceGrids)}
}

// Get returns cleared grids for the given scale and dimensions. A nil pool always allocates.
func (p *ScratchPool) Get(s, sx, sy, sz int) *FaceGrids {
	if p == nil {
		return NewFaceGrids(s, sx, sy, sz)
	}
	k := gridKey{s, sx, sy, sz}
	p.mu.Lock()
	list := p.free[k]
	var g *FaceGrids
	if n := len(list); n > 0 {
		g = list[n-1]
		p.free[k] = list[:n-1]
	}
	p.mu.Unlock()

	if g == nil {
		p.allocated.Add(1)
		return NewFaceGrids(s, sx, sy, sz)
	}
	p.reused.Add(1)
	g.Reset()
	return g
}

// Put hands grids back for reuse.
func (p *ScratchPool) Put(g *FaceGrids) {
	if p == nil || g == nil {
		return
	}
	k := gridKey{g.S, g.SX, g.SY, g.SZ}
	p.mu.Lock()
	p.free[k] = append(p.free[k], g)
	p.mu.Unlock()
}

// Stats returns how many Gets were served from the free lists and how many allocated.
func (p *ScratchPool) Stats() (reused, allocated uint64) {
	return p.reused.Load(), p.allocated.Load()
}
