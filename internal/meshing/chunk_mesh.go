package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/lighting"
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

// BBox is an axis-aligned bounding box in world space.
type BBox struct {
	Min, Max mgl32.Vec3
}

// ChunkMesh is the per-material geometry of one chunk column.
type ChunkMesh struct {
	Coord world.ChunkCoord
	Scale int
	BBox  BBox
	Parts Builds
}

func (cm *ChunkMesh) TriangleCount() int {
	n := 0
	for _, mb := range cm.Parts {
		n += mb.TriangleCount()
	}
	return n
}

// Area sums the surface area over all parts.
func (cm *ChunkMesh) Area() float64 {
	var a float64
	for _, mb := range cm.Parts {
		a += mb.Area()
	}
	return a
}

// pickScale returns 2 when any block in buf, or any block across a seam this chunk seeds,
// has micro occupancy. Otherwise 1.
func pickScale(buf *world.ChunkBuf, reg *registry.Registry, sampler world.BlockSampler, neighbors NeighborsLoaded) int {
	micro := func(b registry.Block) bool {
		if b == registry.Air {
			return false
		}
		occ, ok := reg.Occupancy(b)
		return ok && occ != 0
	}
	for _, b := range buf.Blocks {
		if micro(b) {
			return 2
		}
	}
	if sampler == nil {
		return 1
	}
	bx, bz := buf.BaseX(), buf.BaseZ()
	for y := 0; y < buf.SY; y++ {
		for z := 0; z < buf.SZ; z++ {
			if micro(sampler.BlockAt(bx-1, y, bz+z)) || (!neighbors.PosX && micro(sampler.BlockAt(bx+buf.SX, y, bz+z))) {
				return 2
			}
		}
		for x := 0; x < buf.SX; x++ {
			if micro(sampler.BlockAt(bx+x, y, bz-1)) || (!neighbors.PosZ && micro(sampler.BlockAt(bx+x, y, bz+buf.SZ))) {
				return 2
			}
		}
	}
	return 1
}

// BuildChunkMesh meshes buf with its computed light. sampler answers blocks across the chunk
// edges and neighbors says which horizontal neighbors are loaded. It returns false when the
// chunk produced no geometry.
func BuildChunkMesh(buf *world.ChunkBuf, light *lighting.LightGrid, reg *registry.Registry, sampler world.BlockSampler, neighbors NeighborsLoaded, pool *ScratchPool) (*ChunkMesh, bool) {
	defer profiling.Track("meshing.BuildChunkMesh")()

	m := NewWccMesher(buf, light, reg, pickScale(buf, reg, sampler, neighbors), sampler, neighbors, pool)
	defer m.Release()

	for z := 0; z < buf.SZ; z++ {
		for y := 0; y < buf.SY; y++ {
			for x := 0; x < buf.SX; x++ {
				b := buf.GetLocal(x, y, z)
				if b == registry.Air {
					continue
				}
				if occ, ok := reg.Occupancy(b); ok {
					m.AddMicro(x, y, z, b, occ)
					continue
				}
				if m.isWater(b) {
					m.AddWaterCube(x, y, z, b)
					continue
				}
				if reg.IsFullCube(b) {
					m.AddCube(x, y, z, b)
				}
			}
		}
	}
	m.SeedNeighborSeams()

	builds := make(Builds)
	m.EmitInto(builds)
	m.AddDynamicShapes(builds)
	if len(builds) == 0 {
		return nil, false
	}

	bx, bz := float32(buf.BaseX()), float32(buf.BaseZ())
	return &ChunkMesh{
		Coord: buf.Coord,
		Scale: m.Scale(),
		BBox: BBox{
			Min: mgl32.Vec3{bx, 0, bz},
			Max: mgl32.Vec3{bx + float32(buf.SX), float32(buf.SY), bz + float32(buf.SZ)},
		},
		Parts: builds,
	}, true
}
