package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore/pkg/blockmodel"
)

const testMaterials = `
[materials]
unknown = ["unknown.png"]
stone = ["stone.png"]
oak_planks = ["planks_oak.png"]
birch_planks = ["planks_birch.png"]
grass_top = ["grass_top.png"]
dirt = ["dirt.png"]
`

const testBlocks = `
unknown_block = "unknown"

[[blocks]]
name = "air"
id = 0
solid = false
shape = "none"

[[blocks]]
name = "unknown"
materials = { all = "unknown" }

[[blocks]]
name = "stone"
materials = { all = "stone" }

[[blocks]]
name = "grass"
materials = { top = "grass_top", all = "dirt" }

[[blocks]]
name = "slab"
shape = "slab"
state_schema = { half = ["bottom", "top"], wood = ["oak", "birch"] }
materials = { all = { by = "wood", map = { oak = "oak_planks", birch = "birch_planks" } } }

[[blocks]]
name = "stairs"
shape = "stairs"
state_schema = { half = ["bottom", "top"], facing = ["north", "south", "west", "east"] }
materials = { all = "oak_planks" }

[[blocks]]
name = "pane"
id = 9
solid = false
shape = "pane"
materials = { all = "missing_key" }

[[blocks]]
name = "glass"
seam = "dont_occlude_same"
materials = { all = "stone" }

[[blocks]]
name = "mystery"
shape = "dodecahedron"
`

func writePack(t *testing.T, materials, blocks string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	mp := filepath.Join(dir, "materials.toml")
	bp := filepath.Join(dir, "blocks.toml")
	require.NoError(t, os.WriteFile(mp, []byte(materials), 0644))
	require.NoError(t, os.WriteFile(bp, []byte(blocks), 0644))
	return mp, bp
}

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mp, bp := writePack(t, testMaterials, testBlocks)
	reg, err := LoadFromPaths(mp, bp)
	require.NoError(t, err)
	return reg
}

func mustType(t *testing.T, reg *Registry, name string) *BlockType {
	t.Helper()
	id, ok := reg.IDByName(name)
	require.True(t, ok, "block %q", name)
	ty, ok := reg.Get(id)
	require.True(t, ok)
	return ty
}

func TestCatalogReservesIDZero(t *testing.T) {
	reg := loadTestRegistry(t)
	m, ok := reg.Materials.Get(NoMaterial)
	require.True(t, ok)
	assert.Empty(t, m.Key)

	for _, key := range reg.Materials.Keys() {
		id, ok := reg.Materials.GetID(key)
		require.True(t, ok)
		assert.NotEqual(t, NoMaterial, id, key)
	}
	assert.Equal(t, []string{"birch_planks", "dirt", "grass_top", "oak_planks", "stone", "unknown"}, reg.Materials.Keys())
}

func TestSequentialIDsAndPlaceholders(t *testing.T) {
	reg := loadTestRegistry(t)

	stone, _ := reg.IDByName("stone")
	assert.Equal(t, BlockID(2), stone)

	pane, _ := reg.IDByName("pane")
	assert.Equal(t, BlockID(9), pane)

	// Ids 6..8 are gaps filled with placeholders; glass continues after the explicit id.
	ph, ok := reg.Get(7)
	require.True(t, ok)
	assert.Empty(t, ph.Name)
	assert.False(t, ph.Solid)
	assert.Equal(t, ShapeNone, ph.Shape.Kind)
	_, ok = reg.IDByName("")
	assert.False(t, ok)

	glass, _ := reg.IDByName("glass")
	assert.Equal(t, BlockID(10), glass)
}

func TestStateRoundTrip(t *testing.T) {
	reg := loadTestRegistry(t)
	ty := mustType(t, reg, "stairs")

	// Fields are laid out in name order: facing (2 bits) then half (1 bit).
	require.Len(t, ty.StateFields, 2)
	assert.Equal(t, "facing", ty.StateFields[0].Name)
	assert.Equal(t, uint32(2), ty.StateFields[0].Bits)
	assert.Equal(t, uint32(0), ty.StateFields[0].Offset)
	assert.Equal(t, "half", ty.StateFields[1].Name)
	assert.Equal(t, uint32(1), ty.StateFields[1].Bits)
	assert.Equal(t, uint32(2), ty.StateFields[1].Offset)

	for _, facing := range []string{"north", "south", "west", "east"} {
		for _, half := range []string{"bottom", "top"} {
			state := ty.PackState(map[string]string{"facing": facing, "half": half})
			got, ok := ty.StatePropValue(state, "facing")
			require.True(t, ok)
			assert.Equal(t, facing, got)
			got, ok = ty.StatePropValue(state, "half")
			require.True(t, ok)
			assert.Equal(t, half, got)
		}
	}
}

func TestPackStateDefaults(t *testing.T) {
	reg := loadTestRegistry(t)
	ty := mustType(t, reg, "stairs")

	assert.Equal(t, BlockState(0), ty.PackState(nil))
	assert.Equal(t, BlockState(0), ty.PackState(map[string]string{"facing": "up"}))
	_, ok := ty.StatePropValue(0, "color")
	assert.False(t, ok)

	b, ok := reg.MakeBlockByName("stairs", map[string]string{"half": "top"})
	require.True(t, ok)
	assert.True(t, ty.StatePropIs(b.State, "half", "top"))

	b, ok = reg.MakeBlockByName("stairs", nil)
	require.True(t, ok)
	assert.Equal(t, BlockState(0), b.State)

	_, ok = reg.MakeBlockByName("nope", nil)
	assert.False(t, ok)
}

func TestSlabOccupancyAndMasks(t *testing.T) {
	assert.Equal(t, uint8(0), OccSlab(true)&OccSlab(false))
	assert.Equal(t, uint8(0xFF), OccSlab(true)|OccSlab(false))

	reg := loadTestRegistry(t)
	ty := mustType(t, reg, "slab")
	top := ty.PackState(map[string]string{"half": "top"})
	bottom := ty.PackState(map[string]string{"half": "bottom"})

	sides := uint8(1)<<FacePosX | uint8(1)<<FaceNegX | uint8(1)<<FacePosZ | uint8(1)<<FaceNegZ
	assert.Equal(t, sides|1<<FaceNegY, ty.OcclusionMaskCached(top))
	assert.Equal(t, sides|1<<FacePosY, ty.OcclusionMaskCached(bottom))

	v := ty.Variant(top)
	assert.True(t, v.HasOccupancy)
	assert.Equal(t, OccSlab(true), v.Occupancy)
	assert.Equal(t, OccSlab(false), ty.Variant(bottom).Occupancy)
}

func TestStairsOccupancy(t *testing.T) {
	north := OccStairs(FacingNorth, false)
	// Full bottom layer plus the z=0 row on top.
	assert.Equal(t, OccSlab(false)|bit2(0, 1, 0)|bit2(1, 1, 0), north)
	east := OccStairs(FacingEast, true)
	assert.Equal(t, OccSlab(true)|bit2(1, 0, 0)|bit2(1, 0, 1), east)
	assert.Equal(t, FacingNorth, ParseFacing("sideways"))
}

func TestOccupancyTableWrapsState(t *testing.T) {
	reg := loadTestRegistry(t)
	ty := mustType(t, reg, "slab")
	// slab uses 2 bits, so state 4 wraps to state 0.
	assert.Equal(t, ty.OcclusionMaskCached(0), ty.OcclusionMaskCached(4))
	assert.Equal(t, ty.MaterialForCached(RoleSide, 1), ty.MaterialForCached(RoleSide, 5))

	stone := mustType(t, reg, "stone")
	assert.Equal(t, allFacesMask, stone.OcclusionMaskCached(0xFFFF))
}

func TestCachedMaterialMatchesSelectors(t *testing.T) {
	reg := loadTestRegistry(t)
	unknown, _ := reg.Materials.GetID("unknown")
	for id := 0; id < reg.Len(); id++ {
		ty, _ := reg.Get(BlockID(id))
		n := 1 << min(ty.totalStateBits(), 16)
		for s := 0; s < n; s++ {
			state := BlockState(s)
			for _, role := range []FaceRole{RoleTop, RoleBottom, RoleSide} {
				want, ok := ty.Materials.MaterialFor(role, state, ty)
				if !ok {
					want = unknown
				}
				if ty.Name == "" {
					want = NoMaterial
				}
				assert.Equal(t, want, ty.MaterialForCached(role, state), "%s state %d role %d", ty.Name, s, role)
			}
		}
	}

	grass := mustType(t, reg, "grass")
	top, _ := reg.Materials.GetID("grass_top")
	dirt, _ := reg.Materials.GetID("dirt")
	assert.Equal(t, top, grass.MaterialForCached(RoleTop, 0))
	assert.Equal(t, dirt, grass.MaterialForCached(RoleBottom, 0))
	assert.Equal(t, dirt, grass.MaterialForCached(RoleAll, 0))

	slab := mustType(t, reg, "slab")
	birch, _ := reg.Materials.GetID("birch_planks")
	assert.Equal(t, birch, slab.MaterialForCached(RoleSide, slab.PackState(map[string]string{"wood": "birch"})))

	pane := mustType(t, reg, "pane")
	assert.Equal(t, unknown, pane.MaterialForCached(RoleTop, 0))
}

func TestShapeDefaults(t *testing.T) {
	reg := loadTestRegistry(t)

	stone := mustType(t, reg, "stone")
	assert.Equal(t, ShapeCube, stone.Shape.Kind)
	assert.True(t, stone.BlocksSkylight)
	assert.Equal(t, LightOmni, stone.Light.Kind)
	assert.Equal(t, uint8(32), stone.OmniAttenuation())

	stairs := mustType(t, reg, "stairs")
	assert.Equal(t, "half", stairs.Shape.HalfFrom)
	assert.Equal(t, "facing", stairs.Shape.FacingFrom)

	mystery := mustType(t, reg, "mystery")
	assert.Equal(t, ShapeNone, mystery.Shape.Kind)
	assert.Equal(t, uint8(0), mystery.OcclusionMaskCached(0))
	assert.False(t, reg.IsFullCube(Block{ID: mystery.ID}))

	pane := mustType(t, reg, "pane")
	assert.Equal(t, DynamicPane, pane.Variant(0).Dynamic)
	assert.Equal(t, uint8(0), pane.OcclusionMaskCached(0))

	air := mustType(t, reg, "air")
	assert.False(t, air.BlocksSkylight)
	assert.Equal(t, uint8(0), air.OcclusionMaskCached(0))
}

func TestMicroHelpers(t *testing.T) {
	reg := loadTestRegistry(t)
	stone, _ := reg.MakeBlockByName("stone", nil)
	slabTop, _ := reg.MakeBlockByName("slab", map[string]string{"half": "top"})
	glass, _ := reg.MakeBlockByName("glass", nil)

	assert.True(t, reg.IsFullCube(stone))
	assert.False(t, reg.IsFullCube(slabTop))
	assert.False(t, reg.IsFullCube(Air))

	assert.True(t, reg.MicroCellSolid(stone, 0, 0, 0))
	assert.True(t, reg.MicroCellSolid(slabTop, 1, 1, 0))
	assert.False(t, reg.MicroCellSolid(slabTop, 1, 0, 0))
	assert.False(t, reg.MicroCellSolid(Air, 0, 0, 0))

	// Top slab next to air: the upper half of the +X face is sealed, the lower half open.
	assert.False(t, reg.MicroFaceCellOpen(slabTop, Air, FacePosX, 1, 0))
	assert.True(t, reg.MicroFaceCellOpen(slabTop, Air, FacePosX, 0, 0))
	assert.False(t, reg.MicroFaceCellOpen(Air, stone, FaceNegY, 0, 0))
	// Glass ignores identical neighbors but not its own cells.
	assert.False(t, reg.MicroFaceCellOpen(glass, glass, FacePosZ, 0, 0))
	assert.True(t, reg.MicroFaceCellOpen(Air, Air, FacePosZ, 1, 1))
}

func TestOcc8ToBoxesCoversMask(t *testing.T) {
	for occ := 0; occ < 256; occ++ {
		var cover [2][2][2]int
		for _, b := range Occ8ToBoxes(uint8(occ)) {
			for y := b[1]; y < b[4]; y++ {
				for z := b[2]; z < b[5]; z++ {
					for x := b[0]; x < b[3]; x++ {
						cover[y][z][x]++
					}
				}
			}
		}
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				for x := 0; x < 2; x++ {
					want := 0
					if OccBit(uint8(occ), x, y, z) {
						want = 1
					}
					require.Equal(t, want, cover[y][z][x], "occ %08b cell %d,%d,%d", occ, x, y, z)
				}
			}
		}
	}
	assert.Len(t, Occ8ToBoxes(0xFF), 2)
	assert.Empty(t, Occ8ToBoxes(0))
}

func TestUnknownBlock(t *testing.T) {
	reg := loadTestRegistry(t)
	unknown, _ := reg.IDByName("unknown")
	assert.Equal(t, unknown, reg.UnknownBlockIDOrPanic())

	bare, err := FromConfigs(NewMaterialCatalog(), &blockmodel.BlocksConfig{
		Blocks: []blockmodel.BlockDef{{Name: "air"}},
	})
	require.NoError(t, err)
	assert.Panics(t, func() { bare.UnknownBlockIDOrPanic() })
}

func TestLoadWrapsErrors(t *testing.T) {
	mp, _ := writePack(t, testMaterials, testBlocks)
	_, err := LoadFromPaths(mp, filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	mp, bp := writePack(t, testMaterials, "[[blocks]\nname=")
	_, err = LoadFromPaths(mp, bp)
	assert.Error(t, err)
}

func TestLoadThroughLoader(t *testing.T) {
	mp, _ := writePack(t, testMaterials, testBlocks)
	reg, err := Load(blockmodel.NewLoader(filepath.Dir(mp)))
	require.NoError(t, err)
	_, ok := reg.IDByName("stairs")
	assert.True(t, ok)

	_, err = Load(blockmodel.NewLoader(t.TempDir()))
	assert.ErrorIs(t, err, blockmodel.ErrNotFound)
}

func TestFaceHelpers(t *testing.T) {
	for _, f := range AllFaces {
		dx, dy, dz := f.Delta()
		ox, oy, oz := f.Opposite().Delta()
		assert.Equal(t, [3]int{-dx, -dy, -dz}, [3]int{ox, oy, oz})
		assert.Equal(t, f, FaceFor(f.Axis(), f.IsPositive()))
	}
	assert.Equal(t, RoleTop, FacePosY.Role())
	assert.Equal(t, RoleSide, FaceNegZ.Role())
	assert.Equal(t, float32(-1), FaceNegX.Normal().X())
}
