package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/registry"
)

const (
	paneHalf   = 0.0625
	fenceHalf  = 0.125
	railLow    = 0.375
	railHigh   = 0.625
	gateBar    = 0.125
	carpetRise = 0.0625
)

// boxFilter decides per face whether a box face is skipped.
type boxFilter func(face registry.Face) bool

func noOcclusion(registry.Face) bool { return false }

// AddDynamicShapes emits the thin per-instance shapes (panes, fences, gates and carpets)
// straight into builds. Shapes with micro occupancy went through the grids already.
func (m *WccMesher) AddDynamicShapes(builds Builds) {
	for z := 0; z < m.sz; z++ {
		for y := 0; y < m.sy; y++ {
			for x := 0; x < m.sx; x++ {
				here := m.buf.GetLocal(x, y, z)
				ty, ok := m.reg.Get(here.ID)
				if !ok || ty.Variant(here.State).HasOccupancy {
					continue
				}
				switch ty.Shape.Kind {
				case registry.ShapePane:
					m.addPane(builds, x, y, z, here)
				case registry.ShapeFence:
					m.addFence(builds, x, y, z, here)
				case registry.ShapeGate:
					m.addGate(builds, x, y, z, here, ty)
				case registry.ShapeCarpet:
					m.addCarpet(builds, x, y, z, here)
				}
			}
		}
	}
}

// cellOrigin returns the world-space minimum corner of local cell (x,y,z).
func (m *WccMesher) cellOrigin(x, y, z int) mgl32.Vec3 {
	return mgl32.Vec3{float32(m.bx + x), float32(y), float32(m.bz + z)}
}

// connects reports whether the horizontal neighbor of (x,y,z) in direction face has one of
// the given shape kinds.
func (m *WccMesher) connects(x, y, z int, face registry.Face, kinds ...registry.ShapeKind) bool {
	dx, _, dz := face.Delta()
	nb := m.worldBlock(m.bx+x+dx, y, m.bz+z+dz)
	ty, ok := m.reg.Get(nb.ID)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if ty.Shape.Kind == k {
			return true
		}
	}
	return false
}

// occluder returns the per-face occlusion test for the block at (x,y,z).
func (m *WccMesher) occluder(x, y, z int, here registry.Block) boxFilter {
	return func(face registry.Face) bool {
		dx, dy, dz := face.Delta()
		return m.isOccluder(here, face, m.bx+x+dx, y+dy, m.bz+z+dz)
	}
}

// isOccluder reports whether the block at world (nx,ny,nz) fully covers the face of here
// pointing at it. Non-solid blocks are never occluded.
func (m *WccMesher) isOccluder(here registry.Block, face registry.Face, nx, ny, nz int) bool {
	if !m.reg.IsSolidBlock(here) {
		return false
	}
	nb := m.worldBlock(nx, ny, nz)
	if ht, ok := m.reg.Get(here.ID); ok && ht.Seam.DontOccludeSame && here.ID == nb.ID {
		return false
	}
	nt, ok := m.reg.Get(nb.ID)
	if !ok {
		return false
	}
	return nt.OcclusionMaskCached(nb.State)>>face&1 == 1
}

// emitBoxClipped clips a world-space box to the chunk column and emits its faces with the
// block's materials and light, skipping faces the filter rejects.
func (m *WccMesher) emitBoxClipped(builds Builds, x, y, z int, here registry.Block, lo, hi mgl32.Vec3, skip boxFilter) {
	lo = mgl32.Vec3{
		max(lo.X(), float32(m.bx)),
		max(lo.Y(), 0),
		max(lo.Z(), float32(m.bz)),
	}
	hi = mgl32.Vec3{
		min(hi.X(), float32(m.bx+m.sx)),
		min(hi.Y(), float32(m.sy)),
		min(hi.Z(), float32(m.bz+m.sz)),
	}
	if !(lo.X() < hi.X() && lo.Y() < hi.Y() && lo.Z() < hi.Z()) {
		return
	}
	addBox(builds, lo, hi, func(face registry.Face) (registry.MaterialID, [4]uint8, bool) {
		if skip(face) {
			return 0, [4]uint8{}, false
		}
		return m.materialFor(here, face), lightRGBA(m.lightBin(x, y, z, face)), true
	})
}

// addPane emits a full-width slab when the pane stands alone, else a post with arms toward
// each neighboring pane.
func (m *WccMesher) addPane(builds Builds, x, y, z int, here registry.Block) {
	o := m.cellOrigin(x, y, z)
	t := float32(paneHalf)
	nx := m.connects(x, y, z, registry.FaceNegX, registry.ShapePane)
	px := m.connects(x, y, z, registry.FacePosX, registry.ShapePane)
	nz := m.connects(x, y, z, registry.FaceNegZ, registry.ShapePane)
	pz := m.connects(x, y, z, registry.FacePosZ, registry.ShapePane)
	occ := m.occluder(x, y, z, here)

	if !nx && !px && !nz && !pz {
		m.emitBoxClipped(builds, x, y, z, here,
			o.Add(mgl32.Vec3{0.5 - t, 0, 0}), o.Add(mgl32.Vec3{0.5 + t, 1, 1}), occ)
		return
	}
	m.emitBoxClipped(builds, x, y, z, here,
		o.Add(mgl32.Vec3{0.5 - t, 0, 0.5 - t}), o.Add(mgl32.Vec3{0.5 + t, 1, 0.5 + t}), occ)
	m.addArms(builds, x, y, z, here, t, t, 0, 1, [4]bool{nx, px, nz, pz})
}

// addArms emits arms of half-width t between heights y0 and y1 toward the connected sides,
// ordered -X, +X, -Z, +Z. Each arm starts inset from the cell centre and runs to the cell
// edge; an inset of t stops it at the post.
func (m *WccMesher) addArms(builds Builds, x, y, z int, here registry.Block, t, inset, y0, y1 float32, conn [4]bool) {
	o := m.cellOrigin(x, y, z)
	arms := [4][2]mgl32.Vec3{
		{{0, y0, 0.5 - t}, {0.5 - inset, y1, 0.5 + t}},
		{{0.5 + inset, y0, 0.5 - t}, {1, y1, 0.5 + t}},
		{{0.5 - t, y0, 0}, {0.5 + t, y1, 0.5 - inset}},
		{{0.5 - t, y0, 0.5 + inset}, {0.5 + t, y1, 1}},
	}
	for i, on := range conn {
		if !on {
			continue
		}
		m.emitBoxClipped(builds, x, y, z, here, o.Add(arms[i][0]), o.Add(arms[i][1]), noOcclusion)
	}
}

// addFence emits a post with rails toward fences, panes and gates. Rails run from the cell
// centre through the post.
func (m *WccMesher) addFence(builds Builds, x, y, z int, here registry.Block) {
	o := m.cellOrigin(x, y, z)
	t := float32(fenceHalf)
	kinds := []registry.ShapeKind{registry.ShapeFence, registry.ShapePane, registry.ShapeGate}
	conn := [4]bool{
		m.connects(x, y, z, registry.FaceNegX, kinds...),
		m.connects(x, y, z, registry.FacePosX, kinds...),
		m.connects(x, y, z, registry.FaceNegZ, kinds...),
		m.connects(x, y, z, registry.FacePosZ, kinds...),
	}
	m.emitBoxClipped(builds, x, y, z, here,
		o.Add(mgl32.Vec3{0.5 - t, 0, 0.5 - t}), o.Add(mgl32.Vec3{0.5 + t, 1, 0.5 + t}), noOcclusion)
	m.addArms(builds, x, y, z, here, t, 0, railLow, railHigh, conn)
}

// gateAlongX reports whether the gate's bars run along X: closed gates facing north or south
// do, and opening swings them a quarter turn.
func gateAlongX(ty *registry.BlockType, state registry.BlockState) bool {
	facing, ok := ty.StatePropValue(state, ty.Shape.FacingFrom)
	if !ok {
		facing = "north"
	}
	along := facing == "north" || facing == "south"
	if ty.StatePropIs(state, ty.Shape.OpenFrom, "true") {
		along = !along
	}
	return along
}

// addGate emits two bars spanning the cell.
func (m *WccMesher) addGate(builds Builds, x, y, z int, here registry.Block, ty *registry.BlockType) {
	o := m.cellOrigin(x, y, z)
	t := float32(fenceHalf)
	occ := m.occluder(x, y, z, here)
	for _, y0 := range [2]float32{railLow, railHigh} {
		var lo, hi mgl32.Vec3
		if gateAlongX(ty, here.State) {
			lo, hi = mgl32.Vec3{0, y0, 0.5 - t}, mgl32.Vec3{1, y0 + gateBar, 0.5 + t}
		} else {
			lo, hi = mgl32.Vec3{0.5 - t, y0, 0}, mgl32.Vec3{0.5 + t, y0 + gateBar, 1}
		}
		m.emitBoxClipped(builds, x, y, z, here, o.Add(lo), o.Add(hi), occ)
	}
}

func (m *WccMesher) addCarpet(builds Builds, x, y, z int, here registry.Block) {
	o := m.cellOrigin(x, y, z)
	m.emitBoxClipped(builds, x, y, z, here, o, o.Add(mgl32.Vec3{1, carpetRise, 1}), m.occluder(x, y, z, here))
}
