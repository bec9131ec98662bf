package lighting

import (
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
	"voxelcore/pkg/blockmodel"
)

type beamNode struct {
	x, y, z int
	level   uint8
	dir     uint8
	steps   uint16

	straight, turn, vertical uint8
	sourceDirs               blockmodel.SourceDirs
	maxRange                 uint16
}

var beamSteps = [...]struct {
	dx, dy, dz int
	dir        uint8
	face       registry.Face
}{
	{1, 0, 0, DirPosX, registry.FacePosX},
	{-1, 0, 0, DirNegX, registry.FaceNegX},
	{0, 0, 1, DirPosZ, registry.FacePosZ},
	{0, 0, -1, DirNegZ, registry.FaceNegZ},
	{0, 1, 0, DirVertical, registry.FacePosY},
	{0, -1, 0, DirVertical, registry.FaceNegY},
}

// stepCost prices one beam step: straight when continuing (or leaving a source), turn for
// a horizontal change, vertical for vertical moves.
func (n *beamNode) stepCost(stepDir uint8) uint8 {
	switch {
	case n.dir == DirSource || n.dir == stepDir:
		return n.straight
	case stepDir == DirVertical:
		return n.vertical
	default:
		return n.turn
	}
}

// allows reports whether a source may start travelling in stepDir.
func (n *beamNode) allows(stepDir uint8) bool {
	if n.dir != DirSource {
		return true
	}
	switch n.sourceDirs {
	case blockmodel.SourceDirsVertical:
		return stepDir == DirVertical
	case blockmodel.SourceDirsAny:
		return true
	}
	return stepDir != DirVertical
}

// beamPassable reports whether beam light may occupy b.
func beamPassable(reg *registry.Registry, b registry.Block) bool {
	ty, ok := reg.Get(b.ID)
	if !ok {
		return false
	}
	return !ty.IsSolid(b.State) || ty.PropagatesLightAt(b.State)
}

// beamCrosses reports whether any of the four micro face cells between here and there is
// open. A source only checks the receiving side, so solid beacon blocks can emit.
func beamCrosses(reg *registry.Registry, here, there registry.Block, face registry.Face, fromSource bool) bool {
	for i0 := 0; i0 < 2; i0++ {
		for i1 := 0; i1 < 2; i1++ {
			if fromSource {
				if !thereFaceCellSolid(reg, there, face, i0, i1) {
					return true
				}
				continue
			}
			if reg.MicroFaceCellOpen(here, there, face, i0, i1) {
				return true
			}
		}
	}
	return false
}

func thereFaceCellSolid(reg *registry.Registry, there registry.Block, face registry.Face, i0, i1 int) bool {
	switch face {
	case registry.FacePosX:
		return reg.MicroCellSolid(there, 0, i0, i1)
	case registry.FaceNegX:
		return reg.MicroCellSolid(there, 1, i0, i1)
	case registry.FacePosY:
		return reg.MicroCellSolid(there, i0, 0, i1)
	case registry.FaceNegY:
		return reg.MicroCellSolid(there, i0, 1, i1)
	case registry.FacePosZ:
		return reg.MicroCellSolid(there, i0, i1, 0)
	default:
		return reg.MicroCellSolid(there, i0, i1, 1)
	}
}

// computeBeacons runs the directional beam BFS at macro resolution into g.BeaconLight and
// g.BeaconDir.
func computeBeacons(g *LightGrid, buf *world.ChunkBuf, reg *registry.Registry, emitters []Emitter, nb NeighborBorders) {
	var q []beamNode
	push := func(n beamNode) {
		i := g.Index(n.x, n.y, n.z)
		if g.BeaconLight[i] >= n.level {
			return
		}
		g.BeaconLight[i] = n.level
		g.BeaconDir[i] = n.dir
		q = append(q, n)
	}

	for y := 0; y < buf.SY; y++ {
		for z := 0; z < buf.SZ; z++ {
			for x := 0; x < buf.SX; x++ {
				b := buf.GetLocal(x, y, z)
				ty, ok := reg.Get(b.ID)
				if !ok || !ty.IsBeam() {
					continue
				}
				em := ty.LightEmission(b.State)
				if em == 0 {
					continue
				}
				sc, tc, vc, dirs := ty.BeamParams()
				push(beamNode{x: x, y: y, z: z, level: em, dir: DirSource,
					straight: sc, turn: tc, vertical: vc, sourceDirs: dirs, maxRange: ty.Light.MaxRange})
			}
		}
	}
	def := registry.DefaultBeam
	for _, e := range emitters {
		if !e.IsBeacon || e.Level == 0 || !g.inBounds(e.X, e.Y, e.Z) {
			continue
		}
		push(beamNode{x: e.X, y: e.Y, z: e.Z, level: e.Level, dir: DirSource,
			straight: def.StraightCost, turn: def.TurnCost, vertical: def.VerticalCost,
			sourceDirs: def.SourceDirs, maxRange: def.MaxRange})
	}
	seedBeaconSeams(g, buf, reg, nb, push)

	for head := 0; head < len(q); head++ {
		n := q[head]
		if n.level <= 1 || (n.maxRange > 0 && n.steps >= n.maxRange) {
			continue
		}
		here := buf.GetLocal(n.x, n.y, n.z)
		for _, s := range beamSteps {
			if !n.allows(s.dir) {
				continue
			}
			nx, ny, nz := n.x+s.dx, n.y+s.dy, n.z+s.dz
			if !g.inBounds(nx, ny, nz) {
				continue
			}
			there := buf.GetLocal(nx, ny, nz)
			if !beamPassable(reg, there) || !beamCrosses(reg, here, there, s.face, n.dir == DirSource) {
				continue
			}
			cost := n.stepCost(s.dir)
			if n.level <= cost {
				continue
			}
			next := n
			next.x, next.y, next.z = nx, ny, nz
			next.level = n.level - cost
			next.dir = s.dir
			next.steps = n.steps + 1
			push(next)
		}
	}
}

// seedBeaconSeams seeds boundary cells from neighbor beacon planes. Light still travelling
// into this chunk loses one step; anything else pays the turn cost. Cells a beam cannot
// occupy are skipped.
func seedBeaconSeams(g *LightGrid, buf *world.ChunkBuf, reg *registry.Registry, nb NeighborBorders, push func(beamNode)) {
	def := registry.DefaultBeam
	for _, o := range neighborOffsets {
		p := nb.Planes[o.face]
		if p == nil || p.Beacon == nil {
			continue
		}
		// a neighbor on our -X side publishes dir +X for light heading our way
		inward := continuingDir(o.face.Opposite())
		forEachBoundaryCell(o.face, g.SX, g.SY, g.SZ, func(x, y, z, pi int) {
			v := planeAt(p.Beacon, pi)
			if v == 0 || !beamPassable(reg, buf.GetLocal(x, y, z)) {
				return
			}
			dir := DirVertical
			if p.BeaconDir != nil && pi < len(p.BeaconDir) {
				dir = p.BeaconDir[pi]
			}
			att := uint8(CoarseSeamAttenuation)
			if dir == inward {
				att = 1
			}
			if v <= att {
				return
			}
			push(beamNode{x: x, y: y, z: z, level: v - att, dir: dir,
				straight: def.StraightCost, turn: def.TurnCost, vertical: def.VerticalCost,
				sourceDirs: def.SourceDirs})
		})
	}
}
