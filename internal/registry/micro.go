package registry

// Micro occupancy: 8 bits, one per octant of a voxel, bit index (y&1)<<2 | (z&1)<<1 | (x&1).

// OccBitIndex returns the occupancy bit index of micro cell (x,y,z).
func OccBitIndex(x, y, z int) uint {
	return uint((y&1)<<2 | (z&1)<<1 | (x & 1))
}

func bit2(x, y, z int) uint8 {
	return 1 << OccBitIndex(x, y, z)
}

// OccBit reports whether micro cell (x,y,z) is set in occ.
func OccBit(occ uint8, x, y, z int) bool {
	return occ&bit2(x, y, z) != 0
}

// OccSlab returns the occupancy of a top or bottom slab.
func OccSlab(isTop bool) uint8 {
	y := 0
	if isTop {
		y = 1
	}
	return bit2(0, y, 0) | bit2(1, y, 0) | bit2(0, y, 1) | bit2(1, y, 1)
}

type Facing uint8

const (
	FacingNorth Facing = iota
	FacingSouth
	FacingWest
	FacingEast
)

// ParseFacing maps a property value to a facing; anything unrecognized is north.
func ParseFacing(s string) Facing {
	switch s {
	case "south":
		return FacingSouth
	case "west":
		return FacingWest
	case "east":
		return FacingEast
	}
	return FacingNorth
}

// OccStairs returns a full layer at the slab half plus a half layer on the facing side.
func OccStairs(facing Facing, isTop bool) uint8 {
	yMajor := 0
	if isTop {
		yMajor = 1
	}
	yMinor := 1 - yMajor
	full := bit2(0, yMajor, 0) | bit2(1, yMajor, 0) | bit2(0, yMajor, 1) | bit2(1, yMajor, 1)
	var half uint8
	switch facing {
	case FacingNorth:
		half = bit2(0, yMinor, 0) | bit2(1, yMinor, 0)
	case FacingSouth:
		half = bit2(0, yMinor, 1) | bit2(1, yMinor, 1)
	case FacingWest:
		half = bit2(0, yMinor, 0) | bit2(0, yMinor, 1)
	case FacingEast:
		half = bit2(1, yMinor, 0) | bit2(1, yMinor, 1)
	}
	return full | half
}

// MicroBox is an axis-aligned box in half-voxel steps: x0,y0,z0,x1,y1,z1 in [0,2].
type MicroBox [6]uint8

var occBoxes [256][]MicroBox

func init() {
	for occ := 0; occ < 256; occ++ {
		occBoxes[occ] = boxesForOcc(uint8(occ))
	}
}

// Occ8ToBoxes decomposes an occupancy mask into disjoint boxes. The returned slice is
// shared and must not be modified.
func Occ8ToBoxes(occ uint8) []MicroBox {
	return occBoxes[occ]
}

// boxesForOcc merges each y layer greedily: widen along x, then grow along z.
func boxesForOcc(occ uint8) []MicroBox {
	var out []MicroBox
	for y := 0; y < 2; y++ {
		var grid, used [2][2]bool // [z][x]
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				grid[z][x] = OccBit(occ, x, y, z)
			}
		}
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				if !grid[z][x] || used[z][x] {
					continue
				}
				w := 1
				if x == 0 && grid[z][1] && !used[z][1] {
					w = 2
				}
				h := 1
				if z == 0 {
					ok := true
					for xi := x; xi < x+w; xi++ {
						if !grid[1][xi] || used[1][xi] {
							ok = false
							break
						}
					}
					if ok {
						h = 2
					}
				}
				for dz := 0; dz < h; dz++ {
					for dx := 0; dx < w; dx++ {
						used[z+dz][x+dx] = true
					}
				}
				out = append(out, MicroBox{
					uint8(x), uint8(y), uint8(z),
					uint8(x + w), uint8(y + 1), uint8(z + h),
				})
			}
		}
	}
	return out
}
