package lighting

import (
	"image"
	"math"

	"voxelcore/internal/registry"
)

// Atlas is a chunk light field packed into one RGBA8 image for shader sampling. Each Y
// slice is a (SX+2)x(SZ+2) tile; the outer ring holds neighbor border planes. Tiles are
// laid out in Cols columns. R is block light, G skylight, B beacon light and A the beacon
// direction scaled to 0..255.
type Atlas struct {
	Data          []uint8
	Width, Height int
	TileW, TileH  int
	Cols, Rows    int
	SY            int
}

// PackAtlas packs g with the neighbor planes nb, which callers normally fetch fresh from
// the store rather than reusing the planes g was computed with.
func PackAtlas(g *LightGrid, nb NeighborBorders) *Atlas {
	cols := int(math.Ceil(math.Sqrt(float64(g.SY))))
	if cols < 1 {
		cols = 1
	}
	rows := max((g.SY+cols-1)/cols, 1)
	a := &Atlas{
		TileW: g.SX + 2, TileH: g.SZ + 2,
		Cols: cols, Rows: rows, SY: g.SY,
	}
	a.Width = a.TileW * cols
	a.Height = a.TileH * rows
	a.Data = make([]uint8, a.Width*a.Height*4)

	for y := 0; y < g.SY; y++ {
		ox, oy := a.TileOrigin(y)
		for z := 0; z < g.SZ; z++ {
			for x := 0; x < g.SX; x++ {
				i := g.Index(x, y, z)
				dir := uint8(math.Round(float64(g.BeaconDir[i]) * 255.0 / 5.0))
				a.set(ox+1+x, oy+1+z, g.BlockLight[i], g.Skylight[i], g.BeaconLight[i], dir)
			}
		}
		for _, o := range neighborOffsets {
			p := nb.Planes[o.face]
			if p == nil || p.Block == nil || p.Sky == nil || p.Beacon == nil {
				continue
			}
			switch o.face {
			case registry.FacePosX, registry.FaceNegX:
				px := ox
				if o.face == registry.FacePosX {
					px = ox + g.SX + 1
				}
				for z := 0; z < g.SZ; z++ {
					pi := y*g.SZ + z
					a.set(px, oy+1+z, planeAt(p.Block, pi), planeAt(p.Sky, pi), planeAt(p.Beacon, pi), 0)
				}
			default:
				pz := oy
				if o.face == registry.FacePosZ {
					pz = oy + g.SZ + 1
				}
				for x := 0; x < g.SX; x++ {
					pi := y*g.SX + x
					a.set(ox+1+x, pz, planeAt(p.Block, pi), planeAt(p.Sky, pi), planeAt(p.Beacon, pi), 0)
				}
			}
		}
	}
	return a
}

// TileOrigin returns the pixel origin of slice y's tile.
func (a *Atlas) TileOrigin(y int) (int, int) {
	return (y % a.Cols) * a.TileW, (y / a.Cols) * a.TileH
}

func (a *Atlas) set(px, py int, r, g, b, al uint8) {
	i := (py*a.Width + px) * 4
	a.Data[i], a.Data[i+1], a.Data[i+2], a.Data[i+3] = r, g, b, al
}

// Pixel returns the RGBA bytes at (px, py).
func (a *Atlas) Pixel(px, py int) [4]uint8 {
	i := (py*a.Width + px) * 4
	return [4]uint8{a.Data[i], a.Data[i+1], a.Data[i+2], a.Data[i+3]}
}

// Image wraps the atlas bytes for encoding; the image shares the atlas memory.
func (a *Atlas) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    a.Data,
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}
