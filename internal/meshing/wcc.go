package meshing

import (
	"voxelcore/internal/lighting"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

type faceKey struct {
	mat   registry.MaterialID
	light uint8
}

// keyTable interns (material, light) pairs as small keys. Key 0 means no face. At most
// 2^16 materials times 256 light levels exist, so keys stay below 2^24 and fit a face code.
type keyTable struct {
	items []faceKey
	index map[faceKey]uint32
}

func newKeyTable() *keyTable {
	return &keyTable{items: []faceKey{{}}, index: make(map[faceKey]uint32)}
}

func (k *keyTable) ensure(mat registry.MaterialID, light uint8) uint32 {
	fk := faceKey{mat, light}
	if id, ok := k.index[fk]; ok {
		return id
	}
	id := uint32(len(k.items))
	k.items = append(k.items, fk)
	k.index[fk] = id
	return id
}

func (k *keyTable) get(id uint32) faceKey { return k.items[id] }

// NeighborsLoaded says which horizontal neighbor chunks are resident. A loaded +X or +Z
// neighbor owns the shared boundary plane.
type NeighborsLoaded struct {
	NegX, PosX, NegZ, PosZ bool
}

// WccMesher accumulates boundary faces of one chunk on parity grids at micro scale s and
// emits them as merged rectangles. Interior faces cancel because every solid cell toggles all
// six of its faces.
type WccMesher struct {
	s, sx, sy, sz int
	bx, bz        int

	buf       *world.ChunkBuf
	light     *lighting.LightGrid
	reg       *registry.Registry
	sampler   world.BlockSampler
	neighbors NeighborsLoaded

	pool  *ScratchPool
	grids *FaceGrids
	keys  *keyTable
	scan  rectScanner

	waterID  registry.BlockID
	hasWater bool
}

// NewWccMesher prepares a mesher for buf at scale s (1 or 2). sampler answers blocks
// outside the buffer; grids come from pool, which may be nil.
func NewWccMesher(buf *world.ChunkBuf, light *lighting.LightGrid, reg *registry.Registry, s int, sampler world.BlockSampler, neighbors NeighborsLoaded, pool *ScratchPool) *WccMesher {
	if s < 1 {
		s = 1
	}
	m := &WccMesher{
		s: s, sx: buf.SX, sy: buf.SY, sz: buf.SZ,
		bx: buf.BaseX(), bz: buf.BaseZ(),
		buf: buf, light: light, reg: reg, sampler: sampler, neighbors: neighbors,
		pool:  pool,
		grids: pool.Get(s, buf.SX, buf.SY, buf.SZ),
		keys:  newKeyTable(),
	}
	m.waterID, m.hasWater = reg.IDByName("water")
	return m
}

// Release returns the grids to the pool. The mesher must not be used afterwards.
func (m *WccMesher) Release() {
	m.pool.Put(m.grids)
	m.grids = nil
}

// Scale returns the micro scale.
func (m *WccMesher) Scale() int { return m.s }

func (m *WccMesher) isWater(b registry.Block) bool {
	return m.hasWater && b.ID == m.waterID
}

// worldBlock reads the buffer first, then the sampler. Above and below the column is air.
func (m *WccMesher) worldBlock(wx, wy, wz int) registry.Block {
	if b, ok := m.buf.GetWorld(wx, wy, wz); ok {
		return b
	}
	if wy < 0 || wy >= m.sy || m.sampler == nil {
		return registry.Air
	}
	return m.sampler.BlockAt(wx, wy, wz)
}

func (m *WccMesher) lightBin(x, y, z int, face registry.Face) uint8 {
	if m.light == nil {
		return VisualLightMin
	}
	return max(m.light.SampleFace(x, y, z, face), VisualLightMin)
}

// materialFor resolves the material of b on face, using the unknown block when b's type
// is missing or has nothing assigned.
func (m *WccMesher) materialFor(b registry.Block, face registry.Face) registry.MaterialID {
	return materialFor(m.reg, b, face)
}

func materialFor(reg *registry.Registry, b registry.Block, face registry.Face) registry.MaterialID {
	if ty, ok := reg.Get(b.ID); ok {
		if mid := ty.MaterialForCached(face.Role(), b.State); mid != registry.NoMaterial {
			return mid
		}
	}
	unk, _ := reg.Get(reg.UnknownBlockIDOrPanic())
	return unk.MaterialForCached(face.Role(), 0)
}

func (m *WccMesher) toggleX(ix, y0, y1, z0, z1 int, pos bool, mid registry.MaterialID, l uint8) {
	key := m.keys.ensure(mid, l)
	for iy := y0; iy < y1; iy++ {
		for iz := z0; iz < z1; iz++ {
			m.grids.X.toggle(m.grids.idxX(ix, iy, iz), pos, key)
		}
	}
}

func (m *WccMesher) toggleY(iy, x0, x1, z0, z1 int, pos bool, mid registry.MaterialID, l uint8) {
	key := m.keys.ensure(mid, l)
	for iz := z0; iz < z1; iz++ {
		for ix := x0; ix < x1; ix++ {
			m.grids.Y.toggle(m.grids.idxY(ix, iy, iz), pos, key)
		}
	}
}

func (m *WccMesher) toggleZ(iz, x0, x1, y0, y1 int, pos bool, mid registry.MaterialID, l uint8) {
	key := m.keys.ensure(mid, l)
	for iy := y0; iy < y1; iy++ {
		for ix := x0; ix < x1; ix++ {
			m.grids.Z.toggle(m.grids.idxZ(ix, iy, iz), pos, key)
		}
	}
}

// microBox is a box in micro-grid coordinates, half-open on every axis.
type microBox struct {
	x0, y0, z0, x1, y1, z1 int
}

// toggleFace toggles one face of box, lit from macro cell (x,y,z).
func (m *WccMesher) toggleFace(x, y, z int, bx microBox, b registry.Block, face registry.Face) {
	mid := m.materialFor(b, face)
	l := m.lightBin(x, y, z, face)
	switch face {
	case registry.FacePosX:
		m.toggleX(bx.x1, bx.y0, bx.y1, bx.z0, bx.z1, true, mid, l)
	case registry.FaceNegX:
		m.toggleX(bx.x0, bx.y0, bx.y1, bx.z0, bx.z1, false, mid, l)
	case registry.FacePosY:
		m.toggleY(bx.y1, bx.x0, bx.x1, bx.z0, bx.z1, true, mid, l)
	case registry.FaceNegY:
		m.toggleY(bx.y0, bx.x0, bx.x1, bx.z0, bx.z1, false, mid, l)
	case registry.FacePosZ:
		m.toggleZ(bx.z1, bx.x0, bx.x1, bx.y0, bx.y1, true, mid, l)
	case registry.FaceNegZ:
		m.toggleZ(bx.z0, bx.x0, bx.x1, bx.y0, bx.y1, false, mid, l)
	}
}

func (m *WccMesher) toggleBox(x, y, z int, bx microBox, b registry.Block) {
	for _, f := range registry.AllFaces {
		m.toggleFace(x, y, z, bx, b, f)
	}
}

func (m *WccMesher) cellBox(x, y, z int) microBox {
	s := m.s
	return microBox{x * s, y * s, z * s, (x + 1) * s, (y + 1) * s, (z + 1) * s}
}

// AddCube inserts the full cube at local (x,y,z).
func (m *WccMesher) AddCube(x, y, z int, b registry.Block) {
	m.toggleBox(x, y, z, m.cellBox(x, y, z), b)
}

// AddMicro inserts the sub-boxes of occ at local (x,y,z). At scale 1 any non-empty
// occupancy counts as a full cube.
func (m *WccMesher) AddMicro(x, y, z int, b registry.Block, occ uint8) {
	if occ == 0 {
		return
	}
	if m.s == 1 {
		m.AddCube(x, y, z, b)
		return
	}
	ox, oy, oz := x*m.s, y*m.s, z*m.s
	for _, mb := range registry.Occ8ToBoxes(occ) {
		m.toggleBox(x, y, z, microBox{
			ox + int(mb[0]), oy + int(mb[1]), oz + int(mb[2]),
			ox + int(mb[3]), oy + int(mb[4]), oz + int(mb[5]),
		}, b)
	}
}

// SeedNeighborSeams toggles the faces neighbor blocks expose onto our boundary planes so
// they cancel against our own faces. The -X and -Z planes are always seeded; +X and +Z only
// when that neighbor is not loaded, since a loaded neighbor seeds them itself. On those
// planes only our own faces are emitted.
func (m *WccMesher) SeedNeighborSeams() {
	m.seedSeamX(registry.FaceNegX)
	m.seedSeamZ(registry.FaceNegZ)
	if !m.neighbors.PosX {
		m.seedSeamX(registry.FacePosX)
	}
	if !m.neighbors.PosZ {
		m.seedSeamZ(registry.FacePosZ)
	}
}

// seamSkip reports whether nb contributes nothing across the seam next to here. Water only
// shows its face toward air.
func (m *WccMesher) seamSkip(here, nb registry.Block) bool {
	if nb == registry.Air {
		return true
	}
	if m.isWater(nb) {
		return here != registry.Air
	}
	if ht, ok := m.reg.Get(here.ID); ok && ht.Seam.DontOccludeSame && here.ID == nb.ID {
		return true
	}
	return false
}

// seedSeamX seeds the X boundary plane on side, our face toward the neighbor.
func (m *WccMesher) seedSeamX(side registry.Face) {
	lx, ix, nbx, mx := 0, 0, m.bx-1, 1
	if side == registry.FacePosX {
		lx, ix, nbx, mx = m.sx-1, m.s*m.sx, m.bx+m.sx, 0
	}
	nbFace := side.Opposite()
	pos := nbFace.IsPositive()
	for ly := 0; ly < m.sy; ly++ {
		for lz := 0; lz < m.sz; lz++ {
			nb := m.worldBlock(nbx, ly, m.bz+lz)
			if m.seamSkip(m.buf.GetLocal(lx, ly, lz), nb) {
				continue
			}
			mid := m.materialFor(nb, nbFace)
			l := m.lightBin(lx, ly, lz, side)
			y0, z0 := ly*m.s, lz*m.s
			if m.reg.IsFullCube(nb) || m.isWater(nb) {
				m.toggleX(ix, y0, y0+m.s, z0, z0+m.s, pos, mid, l)
				continue
			}
			m.seedPartial(func(i0, i1 int) bool {
				return m.reg.MicroCellSolid(nb, mx, i0, i1)
			}, func(a0, a1, b0, b1 int) {
				m.toggleX(ix, y0+a0, y0+a1, z0+b0, z0+b1, pos, mid, l)
			})
		}
	}
}

func (m *WccMesher) seedSeamZ(side registry.Face) {
	lz, iz, nbz, mz := 0, 0, m.bz-1, 1
	if side == registry.FacePosZ {
		lz, iz, nbz, mz = m.sz-1, m.s*m.sz, m.bz+m.sz, 0
	}
	nbFace := side.Opposite()
	pos := nbFace.IsPositive()
	for ly := 0; ly < m.sy; ly++ {
		for lx := 0; lx < m.sx; lx++ {
			nb := m.worldBlock(m.bx+lx, ly, nbz)
			if m.seamSkip(m.buf.GetLocal(lx, ly, lz), nb) {
				continue
			}
			mid := m.materialFor(nb, nbFace)
			l := m.lightBin(lx, ly, lz, side)
			x0, y0 := lx*m.s, ly*m.s
			if m.reg.IsFullCube(nb) || m.isWater(nb) {
				m.toggleZ(iz, x0, x0+m.s, y0, y0+m.s, pos, mid, l)
				continue
			}
			m.seedPartial(func(i0, i1 int) bool {
				return m.reg.MicroCellSolid(nb, i1, i0, mz)
			}, func(a0, a1, b0, b1 int) {
				m.toggleZ(iz, x0+b0, x0+b1, y0+a0, y0+a1, pos, mid, l)
			})
		}
	}
}

// seedPartial toggles the facing micro cells of a partial neighbor. i0 is the vertical
// micro index and i1 the in-plane one. At scale 2 a row with both cells solid is toggled as
// one span; at scale 1 any solid facing cell fills the whole face cell.
func (m *WccMesher) seedPartial(solid func(i0, i1 int) bool, toggle func(a0, a1, b0, b1 int)) {
	if m.s == 1 {
		for i0 := 0; i0 < 2; i0++ {
			for i1 := 0; i1 < 2; i1++ {
				if solid(i0, i1) {
					toggle(0, 1, 0, 1)
					return
				}
			}
		}
		return
	}
	for i0 := 0; i0 < 2; i0++ {
		a, b := solid(i0, 0), solid(i0, 1)
		switch {
		case a && b:
			toggle(i0, i0+1, 0, 2)
		case a:
			toggle(i0, i0+1, 0, 1)
		case b:
			toggle(i0, i0+1, 1, 2)
		}
	}
}
