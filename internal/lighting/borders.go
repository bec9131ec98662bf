package lighting

import (
	"bytes"

	"voxelcore/internal/registry"
)

// FacePlanes holds one face's published macro light planes. BeaconDir is nil on Y faces.
type FacePlanes struct {
	Block     []uint8
	Sky       []uint8
	Beacon    []uint8
	BeaconDir []uint8
}

func (p *FacePlanes) equal(o *FacePlanes) bool {
	return bytes.Equal(p.Block, o.Block) &&
		bytes.Equal(p.Sky, o.Sky) &&
		bytes.Equal(p.Beacon, o.Beacon) &&
		bytes.Equal(p.BeaconDir, o.BeaconDir)
}

// LightBorders are a chunk's six macro border planes, indexed by registry.Face.
// Published planes are shared read-only.
type LightBorders struct {
	Planes [6]FacePlanes
}

// NewLightBorders returns dark planes for a sx*sy*sz chunk; horizontal beacon directions
// default to vertical, which neighbors treat as non-continuing.
func NewLightBorders(sx, sy, sz int) *LightBorders {
	lb := &LightBorders{}
	for _, f := range registry.AllFaces {
		n := PlaneLen(f, sx, sy, sz)
		lb.Planes[f] = FacePlanes{
			Block:  make([]uint8, n),
			Sky:    make([]uint8, n),
			Beacon: make([]uint8, n),
		}
		if f.Axis() != registry.AxisY {
			lb.Planes[f].BeaconDir = bytes.Repeat([]byte{DirVertical}, n)
		}
	}
	return lb
}

// continuingDir is the beacon direction that keeps travelling out through a horizontal face.
func continuingDir(f registry.Face) uint8 {
	switch f {
	case registry.FacePosX:
		return DirPosX
	case registry.FaceNegX:
		return DirNegX
	case registry.FacePosZ:
		return DirPosZ
	case registry.FaceNegZ:
		return DirNegZ
	}
	return DirVertical
}

// BordersFromGrid extracts the six macro border planes of g.
func BordersFromGrid(g *LightGrid) *LightBorders {
	lb := NewLightBorders(g.SX, g.SY, g.SZ)
	for _, f := range registry.AllFaces {
		p := &lb.Planes[f]
		cont := continuingDir(f)
		forEachBoundaryCell(f, g.SX, g.SY, g.SZ, func(x, y, z, pi int) {
			i := g.Index(x, y, z)
			p.Block[pi] = g.BlockLight[i]
			p.Sky[pi] = g.Skylight[i]
			p.Beacon[pi] = g.BeaconLight[i]
			if p.BeaconDir != nil {
				if d := g.BeaconDir[i]; d == cont || d == DirSource {
					p.BeaconDir[pi] = cont
				}
			}
		})
	}
	return lb
}

// forEachBoundaryCell visits every cell on the boundary layer of face with its plane index.
func forEachBoundaryCell(f registry.Face, sx, sy, sz int, fn func(x, y, z, pi int)) {
	switch f {
	case registry.FaceNegX, registry.FacePosX:
		x := 0
		if f == registry.FacePosX {
			x = sx - 1
		}
		for y := 0; y < sy; y++ {
			for z := 0; z < sz; z++ {
				fn(x, y, z, y*sz+z)
			}
		}
	case registry.FaceNegZ, registry.FacePosZ:
		z := 0
		if f == registry.FacePosZ {
			z = sz - 1
		}
		for y := 0; y < sy; y++ {
			for x := 0; x < sx; x++ {
				fn(x, y, z, y*sx+x)
			}
		}
	default:
		y := 0
		if f == registry.FacePosY {
			y = sy - 1
		}
		for z := 0; z < sz; z++ {
			for x := 0; x < sx; x++ {
				fn(x, y, z, z*sx+x)
			}
		}
	}
}

// BorderChangeMask has one bit per registry.Face.
type BorderChangeMask uint8

func (m BorderChangeMask) Has(f registry.Face) bool { return m&(1<<f) != 0 }

func (m *BorderChangeMask) set(f registry.Face) { *m |= 1 << f }

func (m BorderChangeMask) Any() bool { return m != 0 }

// diff compares two publications face by face.
func diffBorders(old, nw *LightBorders) BorderChangeMask {
	var m BorderChangeMask
	for _, f := range registry.AllFaces {
		if !old.Planes[f].equal(&nw.Planes[f]) {
			m.set(f)
		}
	}
	return m
}

// NeighborBorders are the planes adjacent chunks published toward this one, mapped onto
// this chunk's faces. A nil entry means no neighbor data.
type NeighborBorders struct {
	Planes [6]*FacePlanes
}

// MicroPlanes holds one face's micro-resolution skylight and block light.
type MicroPlanes struct {
	Sky   []uint8
	Block []uint8
}

// MicroBorders are a chunk's twelve micro border planes (six faces, two channels).
type MicroBorders struct {
	Planes     [6]MicroPlanes
	MX, MY, MZ int
}

// NeighborMicroBorders maps neighbor micro planes onto this chunk's faces.
type NeighborMicroBorders struct {
	Planes     [6]*MicroPlanes
	MX, MY, MZ int
}

// microBordersFrom extracts the micro border planes of a micro light field.
func microBordersFrom(sky, blk []uint8, mx, my, mz int) *MicroBorders {
	mb := &MicroBorders{MX: mx, MY: my, MZ: mz}
	for _, f := range registry.AllFaces {
		n := PlaneLen(f, mx, my, mz)
		p := MicroPlanes{Sky: make([]uint8, n), Block: make([]uint8, n)}
		forEachBoundaryCell(f, mx, my, mz, func(x, y, z, pi int) {
			i := (y*mz+z)*mx + x
			p.Sky[pi] = sky[i]
			p.Block[pi] = blk[i]
		})
		mb.Planes[f] = p
	}
	return mb
}
