package meshing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voxelcore/internal/lighting"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

func loadPack(t testing.TB) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadFromPaths("../../assets/materials.toml", "../../assets/blocks.toml")
	require.NoError(t, err)
	return reg
}

func mustBlock(t testing.TB, reg *registry.Registry, name string, props map[string]string) registry.Block {
	t.Helper()
	b, ok := reg.MakeBlockByName(name, props)
	require.True(t, ok, name)
	return b
}

// bufSampler answers world blocks from a set of buffers, air elsewhere.
type bufSampler []*world.ChunkBuf

func (s bufSampler) BlockAt(wx, wy, wz int) registry.Block {
	for _, buf := range s {
		if b, ok := buf.GetWorld(wx, wy, wz); ok {
			return b
		}
	}
	return registry.Air
}

// meshAlone lights buf against an empty store and meshes it with no loaded neighbors.
func meshAlone(t testing.TB, reg *registry.Registry, buf *world.ChunkBuf, sampler world.BlockSampler) (*ChunkMesh, bool) {
	t.Helper()
	light := lighting.Compute(buf, lighting.NewStore(buf.SX, buf.SY, buf.SZ), reg)
	return BuildChunkMesh(buf, light, reg, sampler, NeighborsLoaded{}, nil)
}

// exposedFaces counts faces of solid cells whose neighbor is air or outside the buffer.
func exposedFaces(buf *world.ChunkBuf, solid func(registry.Block) bool) int {
	n := 0
	for y := 0; y < buf.SY; y++ {
		for z := 0; z < buf.SZ; z++ {
			for x := 0; x < buf.SX; x++ {
				if !solid(buf.GetLocal(x, y, z)) {
					continue
				}
				for _, f := range registry.AllFaces {
					dx, dy, dz := f.Delta()
					nx, ny, nz := x+dx, y+dy, z+dz
					if !buf.InBounds(nx, ny, nz) || !solid(buf.GetLocal(nx, ny, nz)) {
						n++
					}
				}
			}
		}
	}
	return n
}

// planeTriangles counts triangles whose three vertices all lie on the plane x = at, and
// sums their area.
func planeTriangles(cm *ChunkMesh, at float32) (int, float64) {
	if cm == nil {
		return 0, 0
	}
	n := 0
	var area float64
	for _, mb := range cm.Parts {
		idx := mb.Indices()
		for t := 0; t+2 < len(idx); t += 3 {
			a, b, c := mb.Vertex(int(idx[t])), mb.Vertex(int(idx[t+1])), mb.Vertex(int(idx[t+2]))
			if a.X() == at && b.X() == at && c.X() == at {
				n++
				area += 0.5 * float64(b.Sub(a).Cross(c.Sub(a)).Len())
			}
		}
	}
	return n, area
}

// xRange returns the extent of all vertices along X.
func xRange(cm *ChunkMesh) (lo, hi float32) {
	first := true
	for _, mb := range cm.Parts {
		for i := 0; i < mb.VertexCount(); i++ {
			x := mb.Vertex(i).X()
			if first || x < lo {
				lo = x
			}
			if first || x > hi {
				hi = x
			}
			first = false
		}
	}
	return lo, hi
}
