package world

import (
	"fmt"

	"voxelcore/internal/registry"
)

// ChunkCoord identifies a chunk column. Columns span the full world height.
type ChunkCoord struct {
	CX, CZ int
}

func (c ChunkCoord) Offset(dx, dz int) ChunkCoord {
	return ChunkCoord{CX: c.CX + dx, CZ: c.CZ + dz}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.CX, c.CZ)
}

// ChunkBuf is the dense block buffer of one chunk, indexed (y*SZ+z)*SX+x.
type ChunkBuf struct {
	Coord      ChunkCoord
	SX, SY, SZ int
	Blocks     []registry.Block
}

// NewChunkBuf allocates an all-air buffer.
func NewChunkBuf(coord ChunkCoord, sx, sy, sz int) *ChunkBuf {
	return &ChunkBuf{Coord: coord, SX: sx, SY: sy, SZ: sz, Blocks: make([]registry.Block, sx*sy*sz)}
}

// FromBlocksLocal wraps blocks, padding with air or truncating to sx*sy*sz.
func FromBlocksLocal(coord ChunkCoord, sx, sy, sz int, blocks []registry.Block) *ChunkBuf {
	want := sx * sy * sz
	if len(blocks) != want {
		b := make([]registry.Block, want)
		copy(b, blocks)
		blocks = b
	}
	return &ChunkBuf{Coord: coord, SX: sx, SY: sy, SZ: sz, Blocks: blocks}
}

func (c *ChunkBuf) Index(x, y, z int) int {
	return (y*c.SZ+z)*c.SX + x
}

func (c *ChunkBuf) GetLocal(x, y, z int) registry.Block {
	return c.Blocks[c.Index(x, y, z)]
}

func (c *ChunkBuf) SetLocal(x, y, z int, b registry.Block) {
	c.Blocks[c.Index(x, y, z)] = b
}

// InBounds reports whether local (x,y,z) lies inside the buffer.
func (c *ChunkBuf) InBounds(x, y, z int) bool {
	return x >= 0 && x < c.SX && y >= 0 && y < c.SY && z >= 0 && z < c.SZ
}

func (c *ChunkBuf) BaseX() int { return c.Coord.CX * c.SX }

func (c *ChunkBuf) BaseZ() int { return c.Coord.CZ * c.SZ }

func (c *ChunkBuf) ContainsWorld(wx, wy, wz int) bool {
	bx, bz := c.BaseX(), c.BaseZ()
	return wy >= 0 && wy < c.SY && wx >= bx && wx < bx+c.SX && wz >= bz && wz < bz+c.SZ
}

// GetWorld returns the block at world coordinates when the buffer contains them.
func (c *ChunkBuf) GetWorld(wx, wy, wz int) (registry.Block, bool) {
	if !c.ContainsWorld(wx, wy, wz) {
		return registry.Air, false
	}
	return c.GetLocal(wx-c.BaseX(), wy, wz-c.BaseZ()), true
}

func (c *ChunkBuf) IsAllAir() bool {
	for _, b := range c.Blocks {
		if b != registry.Air {
			return false
		}
	}
	return true
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a non-negative remainder for positive b.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
