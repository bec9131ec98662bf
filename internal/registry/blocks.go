package registry

import (
	"fmt"
	"os"

	"voxelcore/internal/logging"
	"voxelcore/pkg/blockmodel"
)

// Registry is the compiled, read-only block table. Share it by pointer between workers.
type Registry struct {
	Materials *MaterialCatalog

	blocks         []*BlockType
	byName         map[string]BlockID
	unknownBlockID BlockID
	hasUnknown     bool
}

// LoadFromPaths reads and compiles a materials file and a blocks file.
func LoadFromPaths(materialsPath, blocksPath string) (*Registry, error) {
	matData, err := os.ReadFile(materialsPath)
	if err != nil {
		return nil, fmt.Errorf("read materials %s: %w", materialsPath, err)
	}
	matCfg, err := blockmodel.ParseMaterials(matData)
	if err != nil {
		return nil, fmt.Errorf("parse materials %s: %w", materialsPath, err)
	}
	blkData, err := os.ReadFile(blocksPath)
	if err != nil {
		return nil, fmt.Errorf("read blocks %s: %w", blocksPath, err)
	}
	blkCfg, err := blockmodel.ParseBlocks(blkData)
	if err != nil {
		return nil, fmt.Errorf("parse blocks %s: %w", blocksPath, err)
	}
	return FromConfigs(MaterialCatalogFromConfig(matCfg), blkCfg)
}

// Load compiles the "materials" and "blocks" files of the loader's pack.
func Load(loader *blockmodel.Loader) (*Registry, error) {
	matCfg, err := loader.LoadMaterials("materials")
	if err != nil {
		return nil, err
	}
	blkCfg, err := loader.LoadBlocks("blocks")
	if err != nil {
		return nil, err
	}
	return FromConfigs(MaterialCatalogFromConfig(matCfg), blkCfg)
}

// FromConfigs compiles block definitions against an existing material catalog.
func FromConfigs(cat *MaterialCatalog, cfg *blockmodel.BlocksConfig) (*Registry, error) {
	if cat == nil {
		cat = NewMaterialCatalog()
	}
	if cfg == nil {
		cfg = &blockmodel.BlocksConfig{}
	}
	reg := &Registry{Materials: cat}
	unknownMat := cat.unknownID()

	for i := range cfg.Blocks {
		def := &cfg.Blocks[i]
		id := BlockID(len(reg.blocks))
		if def.ID != nil {
			id = BlockID(*def.ID)
		}
		ty := compileBlock(id, def, cfg.Lighting.Profiles, cat)
		ty.precompute(unknownMat)

		for int(id) >= len(reg.blocks) {
			reg.blocks = append(reg.blocks, placeholderType(BlockID(len(reg.blocks))))
		}
		reg.blocks[id] = ty
	}

	reg.byName = make(map[string]BlockID, len(reg.blocks))
	for _, ty := range reg.blocks {
		if ty.Name != "" {
			reg.byName[ty.Name] = ty.ID
		}
	}
	if cfg.UnknownBlock != "" {
		reg.unknownBlockID, reg.hasUnknown = reg.byName[cfg.UnknownBlock]
		if !reg.hasUnknown {
			logging.LogWarn("unknown_block %q is not defined", cfg.UnknownBlock)
		}
	}
	logging.LogDebug("registry: %d blocks, %d materials", len(reg.blocks), cat.Len()-1)
	return reg, nil
}

func compileBlock(id BlockID, def *blockmodel.BlockDef, profiles map[string]blockmodel.LightProfile, cat *MaterialCatalog) *BlockType {
	solid := boolOr(def.Solid, true)
	ty := &BlockType{
		ID:              id,
		Name:            def.Name,
		Solid:           solid,
		BlocksSkylight:  boolOr(def.BlocksSkylight, solid),
		PropagatesLight: boolOr(def.PropagatesLight, false),
		Light:           DefaultLight,
		Shape:           compileShape(def.Shape),
		StateSchema:     def.StateSchema,
	}
	if def.Emission != nil {
		ty.Emission = *def.Emission
	}
	if def.Light != nil {
		ty.Light = compileLight(*def.Light)
	} else if def.LightProfile != "" {
		if p, ok := profiles[def.LightProfile]; ok {
			ty.Light = compileLight(p)
		} else {
			logging.LogWarn("block %q: light profile %q not found", def.Name, def.LightProfile)
		}
	}
	if def.Seam != nil {
		ty.Seam = SeamPolicy{DontOccludeSame: def.Seam.DontOccludeSame, DontProjectFixups: def.Seam.DontProjectFixups}
	}
	if ty.StateSchema == nil {
		ty.StateSchema = map[string][]string{}
	}
	ty.StateFields, ty.propIndex = computeStateLayout(ty.StateSchema)
	ty.Materials = compileMaterials(def.Name, def.Materials, cat)
	return ty
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func compileLight(p blockmodel.LightProfile) CompiledLight {
	var out CompiledLight
	if p.MaxRange != nil {
		out.MaxRange = *p.MaxRange
	}
	if p.Mode == blockmodel.LightModeBeam {
		out.Kind = LightBeam
		out.StraightCost = p.StraightCost
		out.TurnCost = p.TurnCost
		out.VerticalCost = p.VerticalCost
		out.SourceDirs = p.SourceDirs
		return out
	}
	out.Kind = LightOmni
	out.Attenuation = p.Attenuation
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func compileShape(cfg *blockmodel.ShapeConfig) Shape {
	if cfg == nil {
		return Shape{Kind: ShapeCube}
	}
	half := orDefault(cfg.Half, "half")
	facing := orDefault(cfg.Facing, "facing")
	switch cfg.Kind {
	case "cube":
		return Shape{Kind: ShapeCube}
	case "axis_cube":
		if !cfg.Detailed {
			return Shape{}
		}
		return Shape{Kind: ShapeAxisCube, AxisFrom: orDefault(cfg.Axis, "axis")}
	case "slab":
		return Shape{Kind: ShapeSlab, HalfFrom: half}
	case "stairs":
		return Shape{Kind: ShapeStairs, HalfFrom: half, FacingFrom: facing}
	case "pane":
		return Shape{Kind: ShapePane}
	case "fence":
		return Shape{Kind: ShapeFence}
	case "gate":
		return Shape{Kind: ShapeGate, FacingFrom: facing, OpenFrom: orDefault(cfg.Open, "open")}
	case "carpet":
		return Shape{Kind: ShapeCarpet}
	}
	return Shape{}
}

func compileMaterials(block string, def *blockmodel.MaterialsDef, cat *MaterialCatalog) CompiledMaterials {
	var out CompiledMaterials
	if def == nil {
		return out
	}
	missing := 0
	resolve := func(sel *blockmodel.MaterialSelector) *selector {
		if sel == nil {
			return nil
		}
		if !sel.IsBy() {
			id, ok := cat.GetID(sel.Key)
			if !ok {
				missing++
				return nil
			}
			return &selector{fixed: id}
		}
		m := make(map[string]MaterialID, len(sel.Map))
		for val, key := range sel.Map {
			if id, ok := cat.GetID(key); ok {
				m[val] = id
			} else {
				missing++
			}
		}
		return &selector{by: sel.By, byMap: m}
	}
	out.All = resolve(def.All)
	out.Top = resolve(def.Top)
	out.Bottom = resolve(def.Bottom)
	out.Side = resolve(def.Side)
	if missing > 0 {
		logging.LogWarn("block %q: %d material keys not in catalog", block, missing)
	}
	return out
}

func (r *Registry) Get(id BlockID) (*BlockType, bool) {
	if int(id) >= len(r.blocks) {
		return nil, false
	}
	return r.blocks[id], true
}

func (r *Registry) IDByName(name string) (BlockID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Len returns the table length, placeholders included.
func (r *Registry) Len() int {
	return len(r.blocks)
}

// MakeBlockByName builds a block with state packed from props; nil props yield state 0.
func (r *Registry) MakeBlockByName(name string, props map[string]string) (Block, bool) {
	id, ok := r.byName[name]
	if !ok {
		return Block{}, false
	}
	var state BlockState
	if props != nil {
		state = r.blocks[id].PackState(props)
	}
	return Block{ID: id, State: state}, true
}

// UnknownBlockIDOrPanic returns the configured fallback block, else the block named
// "unknown". It panics when neither exists.
func (r *Registry) UnknownBlockIDOrPanic() BlockID {
	if r.hasUnknown {
		return r.unknownBlockID
	}
	if id, ok := r.byName["unknown"]; ok {
		return id
	}
	panic("registry: unknown block fallback not configured; set unknown_block in blocks.toml and define that block")
}

// IsFullCube reports whether b is a solid cube-shaped block.
func (r *Registry) IsFullCube(b Block) bool {
	ty, ok := r.Get(b.ID)
	return ok && ty.IsSolid(b.State) && ty.Shape.IsFullCube()
}

// IsSolidBlock reports whether b exists and is solid.
func (r *Registry) IsSolidBlock(b Block) bool {
	ty, ok := r.Get(b.ID)
	return ok && ty.IsSolid(b.State)
}

// Occupancy returns the micro occupancy of b when its shape has one.
func (r *Registry) Occupancy(b Block) (uint8, bool) {
	ty, ok := r.Get(b.ID)
	if !ok {
		return 0, false
	}
	v := ty.Variant(b.State)
	return v.Occupancy, v.HasOccupancy
}

// MicroCellSolid reports whether micro cell (mx,my,mz), each in {0,1}, is filled in b.
func (r *Registry) MicroCellSolid(b Block, mx, my, mz int) bool {
	if r.IsFullCube(b) {
		return true
	}
	if occ, ok := r.Occupancy(b); ok {
		return OccBit(occ, mx, my, mz)
	}
	return false
}

// MicroFaceCellOpen reports whether the micro face cell (i0,i1) on face between here and the
// adjacent block there is unsealed on both sides. here's dont_occlude_same policy ignores an
// identical neighbor.
func (r *Registry) MicroFaceCellOpen(here, there Block, face Face, i0, i1 int) bool {
	var ax, ay, az, bx, by, bz int
	switch face {
	case FacePosX:
		ax, ay, az, bx, by, bz = 1, i0, i1, 0, i0, i1
	case FaceNegX:
		ax, ay, az, bx, by, bz = 0, i0, i1, 1, i0, i1
	case FacePosY:
		ax, ay, az, bx, by, bz = i0, 1, i1, i0, 0, i1
	case FaceNegY:
		ax, ay, az, bx, by, bz = i0, 0, i1, i0, 1, i1
	case FacePosZ:
		ax, ay, az, bx, by, bz = i0, i1, 1, i0, i1, 0
	case FaceNegZ:
		ax, ay, az, bx, by, bz = i0, i1, 0, i0, i1, 1
	default:
		return true
	}
	if r.MicroCellSolid(here, ax, ay, az) {
		return false
	}
	if ty, ok := r.Get(here.ID); ok && ty.Seam.DontOccludeSame && here.ID == there.ID {
		return true
	}
	return !r.MicroCellSolid(there, bx, by, bz)
}
