package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore/internal/registry"
)

func loadPack(t testing.TB) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadFromPaths("../../assets/materials.toml", "../../assets/blocks.toml")
	require.NoError(t, err)
	return reg
}

func block(t testing.TB, reg *registry.Registry, name string) registry.Block {
	t.Helper()
	b, ok := reg.MakeBlockByName(name, nil)
	require.True(t, ok, name)
	return b
}

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct{ a, b, div, mod int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		assert.Equal(t, c.div, FloorDiv(c.a, c.b), "FloorDiv(%d,%d)", c.a, c.b)
		assert.Equal(t, c.mod, Mod(c.a, c.b), "Mod(%d,%d)", c.a, c.b)
	}
}

func TestChunkBufIndexing(t *testing.T) {
	buf := NewChunkBuf(ChunkCoord{CX: -1, CZ: 2}, 4, 3, 5)
	assert.Equal(t, -4, buf.BaseX())
	assert.Equal(t, 10, buf.BaseZ())
	assert.Equal(t, (2*5+3)*4+1, buf.Index(1, 2, 3))
	assert.True(t, buf.IsAllAir())

	b := registry.Block{ID: 7, State: 1}
	buf.SetLocal(1, 2, 3, b)
	got, ok := buf.GetWorld(-3, 2, 13)
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.False(t, buf.IsAllAir())

	_, ok = buf.GetWorld(0, 2, 13)
	assert.False(t, ok)
	_, ok = buf.GetWorld(-3, 3, 13)
	assert.False(t, ok)
	assert.False(t, buf.InBounds(4, 0, 0))
}

func TestFromBlocksLocalResizes(t *testing.T) {
	short := []registry.Block{{ID: 1}, {ID: 2}}
	buf := FromBlocksLocal(ChunkCoord{}, 2, 2, 2, short)
	require.Len(t, buf.Blocks, 8)
	assert.Equal(t, registry.BlockID(2), buf.GetLocal(1, 0, 0).ID)
	assert.Equal(t, registry.Air, buf.GetLocal(1, 1, 1))

	long := make([]registry.Block, 20)
	assert.Len(t, FromBlocksLocal(ChunkCoord{}, 2, 2, 2, long).Blocks, 8)
}

func TestFlatGenerator(t *testing.T) {
	reg := loadPack(t)
	gen := NewFlatGenerator(reg, 3)
	stone := block(t, reg, "stone")

	buf := gen.FillChunk(ChunkCoord{CX: 2, CZ: -3}, 4, 8, 4)
	for z := 0; z < 4; z++ {
		for x := 0; x < 4; x++ {
			for y := 0; y < 8; y++ {
				want := registry.Air
				if y < 3 {
					want = stone
				}
				assert.Equal(t, want, buf.GetLocal(x, y, z))
			}
		}
	}
	assert.Equal(t, stone, gen.BlockAt(-100, 0, 55))
	assert.Equal(t, registry.Air, gen.BlockAt(0, -1, 0))
}

func TestHillsGeneratorDeterministic(t *testing.T) {
	reg := loadPack(t)
	a := NewHillsGenerator(reg, 7, 64)
	b := NewHillsGenerator(reg, 7, 64)
	assert.Equal(t, ModeHills, a.Mode())

	for i := -20; i < 20; i++ {
		h := a.HeightAt(i*5, i*3)
		assert.Equal(t, h, b.HeightAt(i*5, i*3))
		assert.GreaterOrEqual(t, h, 1)
		assert.Less(t, h, 64)
	}

	buf := a.FillChunk(ChunkCoord{CX: -1, CZ: 1}, 8, 64, 8)
	for z := 0; z < 8; z++ {
		for x := 0; x < 8; x++ {
			for y := 0; y < 64; y++ {
				assert.Equal(t, a.BlockAt(buf.BaseX()+x, y, buf.BaseZ()+z), buf.GetLocal(x, y, z))
			}
		}
	}
}

func TestWorldEditsOverrideTerrain(t *testing.T) {
	reg := loadPack(t)
	w := New(NewFlatGenerator(reg, 2), 4, 8, 4)
	glass := block(t, reg, "glass")

	w.SetBlock(-1, 5, -1, glass)
	assert.Equal(t, glass, w.BlockAt(-1, 5, -1))
	assert.Equal(t, 1, w.Edits().Len())

	buf := w.GenerateChunk(ChunkCoord{CX: -1, CZ: -1})
	assert.Equal(t, glass, buf.GetLocal(3, 5, 3))
	assert.Equal(t, ChunkCoord{CX: -1, CZ: -1}, w.ChunkOf(-1, -1))
	assert.Equal(t, ChunkCoord{CX: 0, CZ: 1}, w.ChunkOf(3, 4))
}

func TestChunkStoreGetOrGenerate(t *testing.T) {
	reg := loadPack(t)
	cs := NewChunkStore(New(NewFlatGenerator(reg, 2), 4, 8, 4))

	var wg sync.WaitGroup
	bufs := make([]*ChunkBuf, 8)
	for i := range bufs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bufs[i] = cs.GetOrGenerate(ChunkCoord{CX: 1, CZ: 1})
		}(i)
	}
	wg.Wait()
	for _, b := range bufs {
		assert.Same(t, bufs[0], b)
	}
	assert.Equal(t, 1, cs.Len())
	assert.Equal(t, uint64(1), cs.GetModCount())
	assert.Equal(t, []ChunkCoord{{CX: 1, CZ: 1}}, cs.TakeDirty())
	assert.Empty(t, cs.TakeDirty())
}

func TestChunkStoreSetBlockMarksNeighbors(t *testing.T) {
	reg := loadPack(t)
	cs := NewChunkStore(New(NewFlatGenerator(reg, 2), 4, 8, 4))
	for cx := -1; cx <= 1; cx++ {
		for cz := -1; cz <= 1; cz++ {
			cs.GetOrGenerate(ChunkCoord{CX: cx, CZ: cz})
		}
	}
	cs.TakeDirty()
	glow := block(t, reg, "glowstone")

	// interior block: only its own chunk
	cs.SetBlock(1, 4, 1, glow)
	assert.Equal(t, []ChunkCoord{{0, 0}}, cs.TakeDirty())
	assert.Equal(t, glow, cs.BlockAt(1, 4, 1))

	// corner at local (0, 0): -X and -Z neighbors too
	cs.SetBlock(0, 4, 0, glow)
	assert.Equal(t, []ChunkCoord{{-1, 0}, {0, -1}, {0, 0}}, cs.TakeDirty())

	// local (3, 3) in chunk (-1,-1): +X and +Z neighbors
	cs.SetBlock(-1, 4, -1, glow)
	assert.Equal(t, []ChunkCoord{{-1, -1}, {-1, 0}, {0, -1}}, cs.TakeDirty())

	buf, ok := cs.Get(ChunkCoord{CX: -1, CZ: -1})
	require.True(t, ok)
	assert.Equal(t, glow, buf.GetLocal(3, 4, 3))
}

func TestChunkStoreEvict(t *testing.T) {
	reg := loadPack(t)
	cs := NewChunkStore(New(NewFlatGenerator(reg, 1), 2, 2, 2))
	for cx := -3; cx <= 3; cx++ {
		cs.GetOrGenerate(ChunkCoord{CX: cx, CZ: 0})
	}
	removed := cs.Evict(ChunkCoord{}, 1)
	assert.Equal(t, 4, removed)
	assert.Equal(t, []ChunkCoord{{-1, 0}, {0, 0}, {1, 0}}, cs.Coords())
	assert.False(t, cs.Has(ChunkCoord{CX: 3}))
}
