package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/registry"
)

// VisualLightMin floors vertex light so unlit faces stay visible. It does not feed back into
// light propagation.
const VisualLightMin uint8 = 18

const opaqueAlpha uint8 = 255

// MeshBuild is the geometry of one material: positions, normals and UVs as float32
// triples/pairs, RGBA vertex colors and triangle indices. Indices live in Idx16 until the
// build passes 65535 vertices, then in Idx32.
type MeshBuild struct {
	Pos   []float32
	Norm  []float32
	UV    []float32
	Col   []uint8
	Idx16 []uint16
	Idx32 []uint32
}

func (mb *MeshBuild) VertexCount() int { return len(mb.Pos) / 3 }

func (mb *MeshBuild) TriangleCount() int {
	return (len(mb.Idx16) + len(mb.Idx32)) / 3
}

// Wide reports whether the build switched to 32-bit indices.
func (mb *MeshBuild) Wide() bool { return mb.Idx32 != nil }

// Indices returns the index buffer as uint32 regardless of width.
func (mb *MeshBuild) Indices() []uint32 {
	if mb.Idx32 != nil {
		return mb.Idx32
	}
	out := make([]uint32, len(mb.Idx16))
	for i, v := range mb.Idx16 {
		out[i] = uint32(v)
	}
	return out
}

// Vertex returns the position of vertex i.
func (mb *MeshBuild) Vertex(i int) mgl32.Vec3 {
	return mgl32.Vec3{mb.Pos[3*i], mb.Pos[3*i+1], mb.Pos[3*i+2]}
}

// Area sums the area of every triangle.
func (mb *MeshBuild) Area() float64 {
	idx := mb.Indices()
	var total float64
	for t := 0; t+2 < len(idx); t += 3 {
		a := mb.Vertex(int(idx[t]))
		b := mb.Vertex(int(idx[t+1]))
		c := mb.Vertex(int(idx[t+2]))
		total += 0.5 * float64(b.Sub(a).Cross(c.Sub(a)).Len())
	}
	return total
}

func (mb *MeshBuild) widen() {
	mb.Idx32 = make([]uint32, len(mb.Idx16), max(len(mb.Idx16)*2, 6))
	for i, v := range mb.Idx16 {
		mb.Idx32[i] = uint32(v)
	}
	mb.Idx16 = nil
}

// AddQuad appends a face-aligned rectangle of size u by v whose minimum corner is origin.
// UVs are world-space so textures tile across merged rectangles.
func (mb *MeshBuild) AddQuad(face registry.Face, origin mgl32.Vec3, u, v float32, rgba [4]uint8) {
	o := origin
	var a, b, c, d mgl32.Vec3
	switch face {
	case registry.FacePosY:
		a, b, c, d = o, o.Add(mgl32.Vec3{u, 0, 0}), o.Add(mgl32.Vec3{u, 0, v}), o.Add(mgl32.Vec3{0, 0, v})
	case registry.FaceNegY:
		a, b, c, d = o.Add(mgl32.Vec3{0, 0, v}), o.Add(mgl32.Vec3{u, 0, v}), o.Add(mgl32.Vec3{u, 0, 0}), o
	case registry.FacePosX:
		a, b, c, d = o.Add(mgl32.Vec3{0, v, u}), o.Add(mgl32.Vec3{0, v, 0}), o, o.Add(mgl32.Vec3{0, 0, u})
	case registry.FaceNegX:
		a, b, c, d = o.Add(mgl32.Vec3{0, v, 0}), o.Add(mgl32.Vec3{0, v, u}), o.Add(mgl32.Vec3{0, 0, u}), o
	case registry.FacePosZ:
		a, b, c, d = o.Add(mgl32.Vec3{u, v, 0}), o.Add(mgl32.Vec3{0, v, 0}), o, o.Add(mgl32.Vec3{u, 0, 0})
	default:
		a, b, c, d = o.Add(mgl32.Vec3{0, v, 0}), o.Add(mgl32.Vec3{u, v, 0}), o.Add(mgl32.Vec3{u, 0, 0}), o
	}
	mb.addQuadCorners(face, a, b, c, d, rgba)
}

// worldUV projects p onto the texture plane of face.
func worldUV(face registry.Face, p mgl32.Vec3) mgl32.Vec2 {
	switch face.Axis() {
	case registry.AxisY:
		return mgl32.Vec2{p.X(), p.Z()}
	case registry.AxisX:
		return mgl32.Vec2{p.Z(), p.Y()}
	default:
		return mgl32.Vec2{p.X(), p.Y()}
	}
}

func (mb *MeshBuild) addQuadCorners(face registry.Face, a, b, c, d mgl32.Vec3, rgba [4]uint8) {
	n := face.Normal()
	vs := [4]mgl32.Vec3{a, d, c, b}
	uvs := [4]mgl32.Vec2{worldUV(face, a), worldUV(face, d), worldUV(face, c), worldUV(face, b)}
	// wind counter-clockwise around the outward normal
	if vs[1].Sub(vs[0]).Cross(vs[2].Sub(vs[0])).Dot(n) < 0 {
		vs[1], vs[3] = vs[3], vs[1]
		uvs[1], uvs[3] = uvs[3], uvs[1]
	}

	base := mb.VertexCount()
	if mb.Idx32 == nil && base+4 > math.MaxUint16+1 {
		mb.widen()
	}
	for i := 0; i < 4; i++ {
		mb.Pos = append(mb.Pos, vs[i].X(), vs[i].Y(), vs[i].Z())
		mb.Norm = append(mb.Norm, n.X(), n.Y(), n.Z())
		// top-left texture origin
		mb.UV = append(mb.UV, uvs[i].X(), -uvs[i].Y())
		mb.Col = append(mb.Col, rgba[0], rgba[1], rgba[2], rgba[3])
	}
	if mb.Idx32 != nil {
		i32 := uint32(base)
		mb.Idx32 = append(mb.Idx32, i32, i32+1, i32+2, i32, i32+2, i32+3)
		return
	}
	i16 := uint16(base)
	mb.Idx16 = append(mb.Idx16, i16, i16+1, i16+2, i16, i16+2, i16+3)
}

// boxFaces lists the corner indices of each face of a box, corners numbered as in addBox.
var boxFaces = [6]struct {
	face    registry.Face
	corners [4]int
}{
	{registry.FacePosY, [4]int{0, 2, 6, 4}},
	{registry.FaceNegY, [4]int{5, 7, 3, 1}},
	{registry.FacePosX, [4]int{6, 2, 3, 7}},
	{registry.FaceNegX, [4]int{0, 4, 5, 1}},
	{registry.FacePosZ, [4]int{4, 6, 7, 5}},
	{registry.FaceNegZ, [4]int{2, 0, 1, 3}},
}

// addBox appends the faces of an axis-aligned box that choose accepts.
func addBox(builds Builds, lo, hi mgl32.Vec3, choose func(registry.Face) (registry.MaterialID, [4]uint8, bool)) {
	corners := [8]mgl32.Vec3{
		{lo.X(), hi.Y(), lo.Z()},
		{lo.X(), lo.Y(), lo.Z()},
		{hi.X(), hi.Y(), lo.Z()},
		{hi.X(), lo.Y(), lo.Z()},
		{lo.X(), hi.Y(), hi.Z()},
		{lo.X(), lo.Y(), hi.Z()},
		{hi.X(), hi.Y(), hi.Z()},
		{hi.X(), lo.Y(), hi.Z()},
	}
	for _, f := range boxFaces {
		mid, rgba, ok := choose(f.face)
		if !ok {
			continue
		}
		c := f.corners
		builds.get(mid).addQuadCorners(f.face, corners[c[0]], corners[c[1]], corners[c[2]], corners[c[3]], rgba)
	}
}

// Builds maps materials to their geometry.
type Builds map[registry.MaterialID]*MeshBuild

func (b Builds) get(mid registry.MaterialID) *MeshBuild {
	mb, ok := b[mid]
	if !ok {
		mb = &MeshBuild{}
		b[mid] = mb
	}
	return mb
}

func lightRGBA(l uint8) [4]uint8 {
	l = max(l, VisualLightMin)
	return [4]uint8{l, l, l, opaqueAlpha}
}
