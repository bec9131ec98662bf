package lighting

import (
	"github.com/bits-and-blooms/bitset"

	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

// microField is the scratch state of one micro-resolution light computation.
type microField struct {
	mx, my, mz int
	solid      *bitset.BitSet
	seedSky    []uint8
	seedBlk    []uint8
}

func (f *microField) index(x, y, z int) int {
	return (y*f.mz+z)*f.mx + x
}

func (f *microField) isSolid(i int) bool {
	return f.solid.Test(uint(i))
}

// Result carries a computed grid plus relaxation statistics.
type Result struct {
	Grid      *LightGrid
	SkyPasses int
	BlkPasses int
}

// Compute lights one chunk: skylight and block light at micro resolution, downsampled to
// the macro grid, plus the beacon channel. Micro border planes are published to store;
// macro borders are left to the caller (see BordersFromGrid and Store.UpdateBordersMask).
func Compute(buf *world.ChunkBuf, store *Store, reg *registry.Registry) *LightGrid {
	return ComputeWithStats(buf, store, reg).Grid
}

// ComputeWithStats is Compute that also reports how many relaxation passes ran.
func ComputeWithStats(buf *world.ChunkBuf, store *Store, reg *registry.Registry) Result {
	defer profiling.Track("lighting.Compute")()

	f := newMicroField(buf, reg)
	f.seedSkyColumns()

	cx, cz := buf.Coord.CX, buf.Coord.CZ
	nb := store.NeighborBorders(cx, cz)
	nbm := store.NeighborMicroBorders(cx, cz)
	f.seedSeams(buf, nb, nbm)
	f.seedStaticEmitters(buf, reg)
	f.seedDynamicEmitters(store.EmittersForChunk(cx, cz))

	sky, skyPasses := f.relax(f.seedSky, MicroSkyAttenuation)
	blk, blkPasses := f.relax(f.seedBlk, MicroBlockAttenuation)

	g := NewLightGrid(buf.SX, buf.SY, buf.SZ)
	g.nb = nb
	f.downsample(g, sky, blk)
	g.MicroSky = sky
	g.MicroBlock = blk

	computeBeacons(g, buf, reg, store.EmittersForChunk(cx, cz), nb)

	store.UpdateMicroBorders(cx, cz, microBordersFrom(sky, blk, f.mx, f.my, f.mz))
	g.nbm = store.NeighborMicroBorders(cx, cz)
	return Result{Grid: g, SkyPasses: skyPasses, BlkPasses: blkPasses}
}

// newMicroField marks solid micro cells: full cubes fill all eight, partial shapes their
// occupancy bits.
func newMicroField(buf *world.ChunkBuf, reg *registry.Registry) *microField {
	f := &microField{mx: buf.SX * MicroScale, my: buf.SY * MicroScale, mz: buf.SZ * MicroScale}
	n := f.mx * f.my * f.mz
	f.solid = bitset.New(uint(n))
	f.seedSky = make([]uint8, n)
	f.seedBlk = make([]uint8, n)
	for y := 0; y < buf.SY; y++ {
		for z := 0; z < buf.SZ; z++ {
			for x := 0; x < buf.SX; x++ {
				b := buf.GetLocal(x, y, z)
				full := reg.IsFullCube(b)
				occ, hasOcc := reg.Occupancy(b)
				if !full && !hasOcc {
					continue
				}
				for oy := 0; oy < 2; oy++ {
					for oz := 0; oz < 2; oz++ {
						for ox := 0; ox < 2; ox++ {
							if full || registry.OccBit(occ, ox, oy, oz) {
								f.solid.Set(uint(f.index(2*x+ox, 2*y+oy, 2*z+oz)))
							}
						}
					}
				}
			}
		}
	}
	return f
}

// seedSkyColumns seeds full skylight above the first solid micro cell of each column.
func (f *microField) seedSkyColumns() {
	for mz := 0; mz < f.mz; mz++ {
		for mx := 0; mx < f.mx; mx++ {
			for my := f.my - 1; my >= 0; my-- {
				i := f.index(mx, my, mz)
				if f.isSolid(i) {
					break
				}
				f.seedSky[i] = MaxLight
			}
		}
	}
}

func subSat(v, d uint8) uint8 {
	if v <= d {
		return 0
	}
	return v - d
}

// seedSeams seeds the four horizontal boundary layers from neighbor planes, preferring
// micro planes and falling back to macro planes with the coarse seam attenuation.
func (f *microField) seedSeams(buf *world.ChunkBuf, nb NeighborBorders, nbm NeighborMicroBorders) {
	for _, o := range neighborOffsets {
		face := o.face
		mp := nbm.Planes[face]
		cp := nb.Planes[face]
		if mp == nil && cp == nil {
			continue
		}
		forEachBoundaryCell(face, f.mx, f.my, f.mz, func(mx, my, mz, pi int) {
			var sky, blk uint8
			if mp != nil {
				sky = subSat(planeAt(mp.Sky, pi), MicroSkyAttenuation)
				blk = subSat(planeAt(mp.Block, pi), MicroBlockAttenuation)
			} else {
				a, b := planeCoords(face, mx/MicroScale, my/MicroScale, mz/MicroScale)
				ci := PlaneIndex(face, buf.SX, buf.SZ, a, b)
				sky = subSat(planeAt(cp.Sky, ci), CoarseSeamAttenuation)
				blk = subSat(planeAt(cp.Block, ci), CoarseSeamAttenuation)
			}
			i := f.index(mx, my, mz)
			f.seedSky[i] = max(f.seedSky[i], sky)
			f.seedBlk[i] = max(f.seedBlk[i], blk)
		})
	}
}

// seedStaticEmitters seeds each emissive block's eight micro cells and the non-solid micro
// cells one step outside each face.
func (f *microField) seedStaticEmitters(buf *world.ChunkBuf, reg *registry.Registry) {
	for y := 0; y < buf.SY; y++ {
		for z := 0; z < buf.SZ; z++ {
			for x := 0; x < buf.SX; x++ {
				b := buf.GetLocal(x, y, z)
				ty, ok := reg.Get(b.ID)
				if !ok {
					continue
				}
				level := ty.LightEmission(b.State)
				if level == 0 {
					continue
				}
				bx, by, bz := 2*x, 2*y, 2*z
				for oy := 0; oy < 2; oy++ {
					for oz := 0; oz < 2; oz++ {
						for ox := 0; ox < 2; ox++ {
							i := f.index(bx+ox, by+oy, bz+oz)
							f.seedBlk[i] = max(f.seedBlk[i], level)
						}
					}
				}
				for _, face := range registry.AllFaces {
					f.seedOutside(bx, by, bz, face, level)
				}
			}
		}
	}
}

// seedOutside seeds the 2x2 micro layer just outside face of the macro cell at micro
// origin (bx,by,bz), skipping solid cells and cells past the chunk.
func (f *microField) seedOutside(bx, by, bz int, face registry.Face, level uint8) {
	dx, dy, dz := face.Delta()
	for i0 := 0; i0 < 2; i0++ {
		for i1 := 0; i1 < 2; i1++ {
			var x, y, z int
			switch face.Axis() {
			case registry.AxisX:
				x, y, z = bx, by+i0, bz+i1
				if dx > 0 {
					x = bx + 2
				} else {
					x = bx - 1
				}
			case registry.AxisY:
				x, y, z = bx+i0, by, bz+i1
				if dy > 0 {
					y = by + 2
				} else {
					y = by - 1
				}
			default:
				x, y, z = bx+i0, by+i1, bz
				if dz > 0 {
					z = bz + 2
				} else {
					z = bz - 1
				}
			}
			if x < 0 || y < 0 || z < 0 || x >= f.mx || y >= f.my || z >= f.mz {
				continue
			}
			i := f.index(x, y, z)
			if !f.isSolid(i) {
				f.seedBlk[i] = max(f.seedBlk[i], level)
			}
		}
	}
}

// seedDynamicEmitters raises the non-solid micro cells of each emitter's block.
// Beacons light their surroundings here too; their beam is handled by the beacon pass.
func (f *microField) seedDynamicEmitters(list []Emitter) {
	for _, e := range list {
		if e.Level == 0 {
			continue
		}
		for oy := 0; oy < 2; oy++ {
			for oz := 0; oz < 2; oz++ {
				for ox := 0; ox < 2; ox++ {
					x, y, z := 2*e.X+ox, 2*e.Y+oy, 2*e.Z+oz
					if x >= f.mx || y >= f.my || z >= f.mz {
						continue
					}
					i := f.index(x, y, z)
					if !f.isSolid(i) {
						f.seedBlk[i] = max(f.seedBlk[i], e.Level)
					}
				}
			}
		}
	}
}

// relax runs double-buffered relaxation from seed until a pass changes nothing, at most
// MaxLight/att passes. Solid cells keep their seed and never receive light.
func (f *microField) relax(seed []uint8, att uint8) ([]uint8, int) {
	cur := append([]uint8(nil), seed...)
	nxt := make([]uint8, len(seed))
	strideY := f.mx * f.mz
	strideZ := f.mx
	limit := int(MaxLight / att)
	passes := 0
	for passes < limit {
		passes++
		changed := false
		for my := 0; my < f.my; my++ {
			for mz := 0; mz < f.mz; mz++ {
				for mx := 0; mx < f.mx; mx++ {
					i := f.index(mx, my, mz)
					v := max(seed[i], cur[i])
					if !f.isSolid(i) {
						if mx+1 < f.mx {
							v = max(v, subSat(cur[i+1], att))
						}
						if mx > 0 {
							v = max(v, subSat(cur[i-1], att))
						}
						if my+1 < f.my {
							v = max(v, subSat(cur[i+strideY], att))
						}
						if my > 0 {
							v = max(v, subSat(cur[i-strideY], att))
						}
						if mz+1 < f.mz {
							v = max(v, subSat(cur[i+strideZ], att))
						}
						if mz > 0 {
							v = max(v, subSat(cur[i-strideZ], att))
						}
					}
					nxt[i] = v
					if v != cur[i] {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
		cur, nxt = nxt, cur
	}
	return cur, passes
}

// downsample stores the max over each 2x2x2 micro block into the macro grid.
func (f *microField) downsample(g *LightGrid, sky, blk []uint8) {
	for y := 0; y < g.SY; y++ {
		for z := 0; z < g.SZ; z++ {
			for x := 0; x < g.SX; x++ {
				var s, b uint8
				for oy := 0; oy < 2; oy++ {
					for oz := 0; oz < 2; oz++ {
						for ox := 0; ox < 2; ox++ {
							i := f.index(2*x+ox, 2*y+oy, 2*z+oz)
							s = max(s, sky[i])
							b = max(b, blk[i])
						}
					}
				}
				gi := g.Index(x, y, z)
				g.Skylight[gi] = s
				g.BlockLight[gi] = b
			}
		}
	}
}
