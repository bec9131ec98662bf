package world

import (
	"math"

	"github.com/aquilax/go-perlin"

	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
)

// BlockSampler answers "what block is at this world position". Meshing and lighting read
// across chunk seams through it.
type BlockSampler interface {
	BlockAt(wx, wy, wz int) registry.Block
}

// TerrainGenerator produces deterministic terrain.
type TerrainGenerator interface {
	BlockSampler
	HeightAt(wx, wz int) int
	FillChunk(coord ChunkCoord, sx, sy, sz int) *ChunkBuf
}

type ModeKind int

const (
	ModeFlat ModeKind = iota
	ModeHills
)

func (k ModeKind) String() string {
	if k == ModeHills {
		return "hills"
	}
	return "flat"
}

// Generator handles terrain generation logic.
type Generator struct {
	mode      ModeKind
	thickness int

	noise      *perlin.Perlin
	scale      float64
	baseHeight int
	amp        float64
	waterLevel int
	height     int

	stone, dirt, grass, water, air registry.Block
}

func newGenerator(reg *registry.Registry) *Generator {
	g := &Generator{}
	lookup := func(name string) registry.Block {
		if reg == nil {
			return registry.Air
		}
		if b, ok := reg.MakeBlockByName(name, nil); ok {
			return b
		}
		return registry.Air
	}
	g.air = lookup("air")
	g.stone = lookup("stone")
	g.dirt = lookup("dirt")
	g.grass = lookup("grass")
	g.water = lookup("water")
	return g
}

// NewFlatGenerator fills every column with stone below thickness.
func NewFlatGenerator(reg *registry.Registry, thickness int) *Generator {
	g := newGenerator(reg)
	g.mode = ModeFlat
	g.thickness = thickness
	return g
}

// NewHillsGenerator builds rolling Perlin terrain for a world of the given height.
func NewHillsGenerator(reg *registry.Registry, seed int64, worldHeight int) *Generator {
	g := newGenerator(reg)
	g.mode = ModeHills
	g.noise = perlin.NewPerlin(2.0, 2.0, 3, seed)
	g.scale = 1.0 / 48.0
	g.height = worldHeight
	g.baseHeight = worldHeight / 3
	g.amp = float64(worldHeight) / 5
	g.waterLevel = g.baseHeight - 2
	return g
}

func (g *Generator) Mode() ModeKind { return g.mode }

// HeightAt computes the surface height (topmost solid block Y plus one) at world X,Z.
func (g *Generator) HeightAt(wx, wz int) int {
	if g.mode == ModeFlat {
		return g.thickness
	}
	n := g.noise.Noise2D(float64(wx)*g.scale, float64(wz)*g.scale)
	h := int(math.Floor(float64(g.baseHeight) + n*g.amp))
	if h < 1 {
		h = 1
	}
	if g.height > 0 && h > g.height-1 {
		h = g.height - 1
	}
	return h
}

func (g *Generator) BlockAt(wx, wy, wz int) registry.Block {
	if wy < 0 {
		return g.air
	}
	h := g.HeightAt(wx, wz)
	return g.blockInColumn(wy, h)
}

func (g *Generator) blockInColumn(wy, h int) registry.Block {
	if g.mode == ModeFlat {
		if wy < h {
			return g.stone
		}
		return g.air
	}
	switch {
	case wy < h-4:
		return g.stone
	case wy < h-1:
		return g.dirt
	case wy == h-1:
		if h-1 < g.waterLevel {
			return g.dirt
		}
		return g.grass
	case wy < g.waterLevel:
		return g.water
	}
	return g.air
}

// FillChunk generates one chunk column; heights are sampled once per column.
func (g *Generator) FillChunk(coord ChunkCoord, sx, sy, sz int) *ChunkBuf {
	defer profiling.Track("world.FillChunk")()
	buf := NewChunkBuf(coord, sx, sy, sz)
	bx, bz := buf.BaseX(), buf.BaseZ()
	for z := 0; z < sz; z++ {
		for x := 0; x < sx; x++ {
			h := g.HeightAt(bx+x, bz+z)
			for y := 0; y < sy; y++ {
				buf.SetLocal(x, y, z, g.blockInColumn(y, h))
			}
		}
	}
	return buf
}
