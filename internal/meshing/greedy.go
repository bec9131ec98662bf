package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/registry"
)

// rectScanner merges one slice of face codes into rectangles. Visited cells are marked with
// the current epoch, so nothing is cleared between slices.
type rectScanner struct {
	codes   []uint32
	visited []uint32
	epoch   uint32
}

// begin prepares an empty w*h slice. Codes are zero where no face is present.
func (r *rectScanner) begin(n int) []uint32 {
	if cap(r.codes) < n {
		r.codes = make([]uint32, n)
		r.visited = make([]uint32, n)
		r.epoch = 0
	}
	r.codes = r.codes[:n]
	clear(r.codes)
	r.visited = r.visited[:n]
	r.epoch++
	if r.epoch == 0 {
		clear(r.visited)
		r.epoch = 1
	}
	return r.codes
}

// scan walks the slice row-major (u fastest), growing each rectangle first along u, then
// along v while the whole strip matches, and calls emit once per rectangle.
func (r *rectScanner) scan(w, h int, emit func(u0, v0, du, dv int, code uint32)) {
	codes, visited, ep := r.codes, r.visited, r.epoch
	free := func(i int, code uint32) bool {
		return codes[i] == code && visited[i] != ep
	}
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			i := v*w + u
			code := codes[i]
			if code == 0 || visited[i] == ep {
				continue
			}
			du := 1
			for u+du < w && free(i+du, code) {
				du++
			}
			dv := 1
		grow:
			for v+dv < h {
				row := (v+dv)*w + u
				for k := 0; k < du; k++ {
					if !free(row+k, code) {
						break grow
					}
				}
				dv++
			}
			for dy := 0; dy < dv; dy++ {
				row := (v+dy)*w + u
				for k := 0; k < du; k++ {
					visited[row+k] = ep
				}
			}
			emit(u, v, du, dv, code)
		}
	}
}

// faceCode packs a face key and its orientation; zero means no face.
func faceCode(key uint32, pos bool) uint32 {
	c := key << 1
	if pos {
		c |= 1
	}
	return c
}

// ownCode drops faces pointing back into the chunk on a far boundary plane; those belong to
// the unloaded neighbor.
func ownCode(c uint32, far bool) uint32 {
	if far && c&1 == 0 {
		return 0
	}
	return c
}

func splitCode(c uint32) (uint32, bool) {
	return c >> 1, c&1 == 1
}

// cellCode reads one face cell of a grid as a code.
func cellCode(a *axisGrid, i int) uint32 {
	if !a.parity.Test(uint(i)) || a.keys[i] == 0 {
		return 0
	}
	return faceCode(a.keys[i], a.orient.Test(uint(i)))
}

// EmitInto writes greedy-merged quads for every boundary face cell into builds. The +X and
// +Z boundary planes are left to the neighbor's seam unless that neighbor is not loaded.
func (m *WccMesher) EmitInto(builds Builds) {
	m.emitPlanesX(builds)
	m.emitPlanesY(builds)
	m.emitPlanesZ(builds)
}

func (m *WccMesher) emitPlanesX(builds Builds) {
	g := m.grids
	w, h := m.s*m.sz, m.s*m.sy
	last := m.s*m.sx - 1
	if !m.neighbors.PosX {
		last = m.s * m.sx
	}
	for ix := 0; ix <= last; ix++ {
		codes := m.scan.begin(w * h)
		for iy := 0; iy < h; iy++ {
			for iz := 0; iz < w; iz++ {
				codes[iy*w+iz] = ownCode(cellCode(&g.X, g.idxX(ix, iy, iz)), ix == m.s*m.sx)
			}
		}
		m.scan.scan(w, h, func(u0, v0, du, dv int, code uint32) {
			face := registry.FaceNegX
			key, pos := splitCode(code)
			if pos {
				face = registry.FacePosX
			}
			origin := mgl32.Vec3{float32(m.bx) + m.micro(ix), m.micro(v0), float32(m.bz) + m.micro(u0)}
			m.emitRect(builds, key, face, origin, m.micro(du), m.micro(dv))
		})
	}
}

func (m *WccMesher) emitPlanesY(builds Builds) {
	g := m.grids
	w, h := m.s*m.sx, m.s*m.sz
	// columns are not split vertically, so both Y boundary planes belong to this chunk
	for iy := 0; iy <= m.s*m.sy; iy++ {
		codes := m.scan.begin(w * h)
		for iz := 0; iz < h; iz++ {
			for ix := 0; ix < w; ix++ {
				codes[iz*w+ix] = cellCode(&g.Y, g.idxY(ix, iy, iz))
			}
		}
		m.scan.scan(w, h, func(u0, v0, du, dv int, code uint32) {
			face := registry.FaceNegY
			key, pos := splitCode(code)
			if pos {
				face = registry.FacePosY
			}
			origin := mgl32.Vec3{float32(m.bx) + m.micro(u0), m.micro(iy), float32(m.bz) + m.micro(v0)}
			m.emitRect(builds, key, face, origin, m.micro(du), m.micro(dv))
		})
	}
}

func (m *WccMesher) emitPlanesZ(builds Builds) {
	g := m.grids
	w, h := m.s*m.sx, m.s*m.sy
	last := m.s*m.sz - 1
	if !m.neighbors.PosZ {
		last = m.s * m.sz
	}
	for iz := 0; iz <= last; iz++ {
		codes := m.scan.begin(w * h)
		for iy := 0; iy < h; iy++ {
			for ix := 0; ix < w; ix++ {
				codes[iy*w+ix] = ownCode(cellCode(&g.Z, g.idxZ(ix, iy, iz)), iz == m.s*m.sz)
			}
		}
		m.scan.scan(w, h, func(u0, v0, du, dv int, code uint32) {
			face := registry.FaceNegZ
			key, pos := splitCode(code)
			if pos {
				face = registry.FacePosZ
			}
			origin := mgl32.Vec3{float32(m.bx) + m.micro(u0), m.micro(v0), float32(m.bz) + m.micro(iz)}
			m.emitRect(builds, key, face, origin, m.micro(du), m.micro(dv))
		})
	}
}

// micro converts a micro-grid coordinate to block units.
func (m *WccMesher) micro(i int) float32 {
	return float32(i) / float32(m.s)
}

func (m *WccMesher) emitRect(builds Builds, key uint32, face registry.Face, origin mgl32.Vec3, u, v float32) {
	fk := m.keys.get(key)
	m.emitFaceRectClipped(builds, fk.mat, face, origin, u, v, lightRGBA(fk.light))
}

// emitFaceRectClipped clips a face rectangle to the chunk column, X in [bx, bx+sx), Z in
// [bz, bz+sz) and Y in [0, sy], and emits whatever remains.
func (m *WccMesher) emitFaceRectClipped(builds Builds, mid registry.MaterialID, face registry.Face, origin mgl32.Vec3, u, v float32, rgba [4]uint8) {
	x0, x1 := float32(m.bx), float32(m.bx+m.sx)
	z0, z1 := float32(m.bz), float32(m.bz+m.sz)
	y0, y1 := float32(0), float32(m.sy)

	o := origin
	var ok bool
	switch face.Axis() {
	case registry.AxisX:
		if o[0] < x0 || o[0] > x1 {
			return
		}
		if o[2], u, ok = clipSpan(o[2], u, z0, z1); !ok {
			return
		}
		if o[1], v, ok = clipSpan(o[1], v, y0, y1); !ok {
			return
		}
	case registry.AxisZ:
		if o[2] < z0 || o[2] > z1 {
			return
		}
		if o[0], u, ok = clipSpan(o[0], u, x0, x1); !ok {
			return
		}
		if o[1], v, ok = clipSpan(o[1], v, y0, y1); !ok {
			return
		}
	default:
		if o[1] < y0 || o[1] > y1 {
			return
		}
		if o[0], u, ok = clipSpan(o[0], u, x0, x1); !ok {
			return
		}
		if o[2], v, ok = clipSpan(o[2], v, z0, z1); !ok {
			return
		}
	}
	builds.get(mid).AddQuad(face, o, u, v, rgba)
}

func clipSpan(start, length, lo, hi float32) (float32, float32, bool) {
	s0 := max(start, lo)
	s1 := min(start+length, hi)
	if s1 <= s0 {
		return 0, 0, false
	}
	return s0, s1 - s0, true
}
