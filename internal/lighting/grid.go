package lighting

import "voxelcore/internal/registry"

const (
	MicroScale            = 2
	MicroBlockAttenuation = 16
	MicroSkyAttenuation   = 16
	CoarseSeamAttenuation = 32
	MaxLight              = 255
)

// Beacon travel direction codes stored in BeaconDir.
const (
	DirSource   uint8 = 0
	DirPosX     uint8 = 1
	DirNegX     uint8 = 2
	DirPosZ     uint8 = 3
	DirNegZ     uint8 = 4
	DirVertical uint8 = 5
)

// LightGrid is the computed light field of one chunk. It is not modified after Compute
// returns. Macro arrays are indexed (y*SZ+z)*SX+x; micro arrays (my*MZ+mz)*MX+mx.
type LightGrid struct {
	SX, SY, SZ int
	MX, MY, MZ int

	Skylight    []uint8
	BlockLight  []uint8
	BeaconLight []uint8
	BeaconDir   []uint8

	// Nil when the grid was not computed at micro resolution.
	MicroSky   []uint8
	MicroBlock []uint8

	nb  NeighborBorders
	nbm NeighborMicroBorders
}

// NewLightGrid allocates an all-dark macro grid.
func NewLightGrid(sx, sy, sz int) *LightGrid {
	n := sx * sy * sz
	return &LightGrid{
		SX: sx, SY: sy, SZ: sz,
		MX: sx * MicroScale, MY: sy * MicroScale, MZ: sz * MicroScale,
		Skylight:    make([]uint8, n),
		BlockLight:  make([]uint8, n),
		BeaconLight: make([]uint8, n),
		BeaconDir:   make([]uint8, n),
	}
}

func (g *LightGrid) Index(x, y, z int) int {
	return (y*g.SZ+z)*g.SX + x
}

func (g *LightGrid) microIndex(mx, my, mz int) int {
	return (my*g.MZ+mz)*g.MX + mx
}

func (g *LightGrid) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.SX && y < g.SY && z < g.SZ
}

func (g *LightGrid) SkyAt(x, y, z int) uint8    { return g.Skylight[g.Index(x, y, z)] }
func (g *LightGrid) BlockAt(x, y, z int) uint8  { return g.BlockLight[g.Index(x, y, z)] }
func (g *LightGrid) BeaconAt(x, y, z int) uint8 { return g.BeaconLight[g.Index(x, y, z)] }

// MaxAt returns the brightest channel of a macro cell.
func (g *LightGrid) MaxAt(x, y, z int) uint8 {
	i := g.Index(x, y, z)
	return max(g.Skylight[i], g.BlockLight[i], g.BeaconLight[i])
}

// Neighbors returns the macro neighbor planes the grid was computed against.
func (g *LightGrid) Neighbors() NeighborBorders { return g.nb }

// NeighborMicro returns the micro neighbor planes attached after computation.
func (g *LightGrid) NeighborMicro() NeighborMicroBorders { return g.nbm }

// PlaneIndex maps in-plane coordinates onto a border plane of face. X faces take (y,z),
// Z faces (y,x), Y faces (z,x).
func PlaneIndex(face registry.Face, sx, sz, a, b int) int {
	switch face.Axis() {
	case registry.AxisX:
		return a*sz + b
	case registry.AxisZ:
		return a*sx + b
	default:
		return a*sx + b
	}
}

// PlaneLen returns the number of cells in a plane of face for a sx*sy*sz grid.
func PlaneLen(face registry.Face, sx, sy, sz int) int {
	switch face.Axis() {
	case registry.AxisX:
		return sy * sz
	case registry.AxisZ:
		return sy * sx
	default:
		return sz * sx
	}
}

// planeCoords returns the in-plane coordinates of (x,y,z) for face.
func planeCoords(face registry.Face, x, y, z int) (int, int) {
	switch face.Axis() {
	case registry.AxisX:
		return y, z
	case registry.AxisZ:
		return y, x
	default:
		return z, x
	}
}

func planeAt(p []uint8, i int) uint8 {
	if i < 0 || i >= len(p) {
		return 0
	}
	return p[i]
}

// neighborLightMax returns the light of the macro cell across face, reading neighbor border
// planes past the chunk edge. When a neighbor plane holds nothing it falls back to the
// boundary cell itself.
func (g *LightGrid) neighborLightMax(x, y, z int, face registry.Face) uint8 {
	dx, dy, dz := face.Delta()
	nx, ny, nz := x+dx, y+dy, z+dz
	if g.inBounds(nx, ny, nz) {
		return g.MaxAt(nx, ny, nz)
	}
	if face.Axis() == registry.AxisY {
		return 0
	}
	var v uint8
	if p := g.nb.Planes[face]; p != nil {
		a, b := planeCoords(face, x, y, z)
		i := PlaneIndex(face, g.SX, g.SZ, a, b)
		v = max(planeAt(p.Sky, i), planeAt(p.Block, i), planeAt(p.Beacon, i))
	}
	if v > 0 {
		return v
	}
	return g.MaxAt(x, y, z)
}

// SampleFace returns the light reaching the face of macro cell (x,y,z): the brighter of the
// two micro cells straddling each of the face's four micro cells, using neighbor micro
// planes past the chunk edge. Grids without micro data fall back to macro sampling.
func (g *LightGrid) SampleFace(x, y, z int, face registry.Face) uint8 {
	if g.MicroSky == nil || g.MicroBlock == nil {
		return max(g.MaxAt(x, y, z), g.neighborLightMax(x, y, z, face))
	}
	bx, by, bz := x*MicroScale, y*MicroScale, z*MicroScale
	dx, dy, dz := face.Delta()
	var best uint8
	for i0 := 0; i0 < 2; i0++ {
		for i1 := 0; i1 < 2; i1++ {
			var hx, hy, hz int
			switch face.Axis() {
			case registry.AxisX:
				hx, hy, hz = bx, by+i0, bz+i1
				if face.IsPositive() {
					hx++
				}
			case registry.AxisY:
				hx, hy, hz = bx+i1, by, bz+i0
				if face.IsPositive() {
					hy++
				}
			default:
				hx, hy, hz = bx+i1, by+i0, bz
				if face.IsPositive() {
					hz++
				}
			}
			here := g.microAt(hx, hy, hz)
			there := g.microAcross(hx+dx, hy+dy, hz+dz, face)
			best = max(best, here, there)
		}
	}
	i := g.Index(x, y, z)
	return max(best, g.BlockLight[i], g.BeaconLight[i])
}

func (g *LightGrid) microAt(mx, my, mz int) uint8 {
	if mx < 0 || my < 0 || mz < 0 || mx >= g.MX || my >= g.MY || mz >= g.MZ {
		return 0
	}
	i := g.microIndex(mx, my, mz)
	return max(g.MicroSky[i], g.MicroBlock[i])
}

// microAcross reads a micro cell that may lie past the chunk edge on face.
func (g *LightGrid) microAcross(mx, my, mz int, face registry.Face) uint8 {
	if mx >= 0 && my >= 0 && mz >= 0 && mx < g.MX && my < g.MY && mz < g.MZ {
		return g.microAt(mx, my, mz)
	}
	p := g.nbm.Planes[face]
	if p == nil {
		return 0
	}
	a, b := planeCoords(face, mx, my, mz)
	i := PlaneIndex(face, g.MX, g.MZ, a, b)
	return max(planeAt(p.Sky, i), planeAt(p.Block, i))
}
