package meshing

import (
	"voxelcore/internal/registry"
)

// AddWaterCube inserts a water block, toggling only the faces that touch air so terrain
// under water keeps its own surfaces.
func (m *WccMesher) AddWaterCube(x, y, z int, b registry.Block) {
	box := m.cellBox(x, y, z)
	wx, wz := m.bx+x, m.bz+z
	for _, f := range registry.AllFaces {
		dx, dy, dz := f.Delta()
		if m.worldBlock(wx+dx, y+dy, wz+dz) != registry.Air {
			continue
		}
		m.toggleFace(x, y, z, box, b, f)
	}
}
