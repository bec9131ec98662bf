package meshing

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

func TestAddQuadWindsOutward(t *testing.T) {
	for _, f := range registry.AllFaces {
		var mb MeshBuild
		mb.AddQuad(f, mgl32.Vec3{1, 2, 3}, 2, 1, lightRGBA(0))
		require.Equal(t, 4, mb.VertexCount())
		require.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, mb.Idx16)

		a, b, c := mb.Vertex(0), mb.Vertex(1), mb.Vertex(2)
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Positive(t, n.Dot(f.Normal()), f.String())
		assert.InDelta(t, 2.0, mb.Area(), 1e-6, f.String())
		for i := 0; i < 4; i++ {
			assert.Equal(t, f.Normal(), mgl32.Vec3{mb.Norm[3*i], mb.Norm[3*i+1], mb.Norm[3*i+2]})
		}
	}
}

func TestQuadIndicesOffsetByBase(t *testing.T) {
	var mb MeshBuild
	mb.AddQuad(registry.FacePosY, mgl32.Vec3{0, 0, 0}, 1, 1, lightRGBA(0))
	mb.AddQuad(registry.FaceNegY, mgl32.Vec3{0, 0, 0}, 1, 1, lightRGBA(0))
	require.False(t, mb.Wide())
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, mb.Idx16)
	assert.Equal(t, 4, mb.TriangleCount())
}

func TestVertexColorFloorsAtVisualMin(t *testing.T) {
	assert.Equal(t, [4]uint8{VisualLightMin, VisualLightMin, VisualLightMin, 255}, lightRGBA(0))
	assert.Equal(t, [4]uint8{200, 200, 200, 255}, lightRGBA(200))
}

func TestWorldSpaceUVs(t *testing.T) {
	var mb MeshBuild
	mb.AddQuad(registry.FacePosY, mgl32.Vec3{4, 1, 6}, 1, 1, lightRGBA(255))
	for i := 0; i < mb.VertexCount(); i++ {
		p := mb.Vertex(i)
		assert.Equal(t, p.X(), mb.UV[2*i])
		assert.Equal(t, -p.Z(), mb.UV[2*i+1])
	}
}

func TestIndicesWidenPastSixteenBits(t *testing.T) {
	var mb MeshBuild
	quads := (math.MaxUint16 + 1) / 4
	for i := 0; i < quads; i++ {
		mb.AddQuad(registry.FacePosY, mgl32.Vec3{float32(i), 0, 0}, 1, 1, lightRGBA(255))
	}
	require.False(t, mb.Wide())
	assert.Equal(t, math.MaxUint16+1, mb.VertexCount())

	mb.AddQuad(registry.FacePosY, mgl32.Vec3{0, 1, 0}, 1, 1, lightRGBA(255))
	require.True(t, mb.Wide())
	assert.Nil(t, mb.Idx16)
	idx := mb.Indices()
	assert.Len(t, idx, 6*(quads+1))
	assert.Equal(t, uint32(math.MaxUint16+1+3), idx[len(idx)-1])
	assert.Equal(t, uint32(math.MaxUint16), idx[len(idx)-7])
	assert.Equal(t, quads+1, mb.TriangleCount()/2)
}

func TestEmitBoxClipped(t *testing.T) {
	reg := loadPack(t)
	stone := mustBlock(t, reg, "stone", nil)
	buf := world.NewChunkBuf(world.ChunkCoord{}, 2, 2, 2)
	m := NewWccMesher(buf, nil, reg, 1, nil, NeighborsLoaded{}, nil)
	defer m.Release()

	builds := make(Builds)
	m.emitBoxClipped(builds, 0, 0, 0, stone, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{1, 1, 1}, noOcclusion)
	require.Len(t, builds, 1)
	for _, mb := range builds {
		assert.InDelta(t, 6.0, mb.Area(), 1e-6)
	}

	// fully outside
	builds = make(Builds)
	m.emitBoxClipped(builds, 0, 0, 0, stone, mgl32.Vec3{3, 0, 0}, mgl32.Vec3{4, 1, 1}, noOcclusion)
	assert.Empty(t, builds)

	// a filter that rejects the top face
	builds = make(Builds)
	m.emitBoxClipped(builds, 0, 0, 0, stone, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, func(f registry.Face) bool {
		return f == registry.FacePosY
	})
	for _, mb := range builds {
		assert.Equal(t, 10, mb.TriangleCount())
	}
}
