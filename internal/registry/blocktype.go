package registry

import (
	"math/bits"
	"sort"

	"voxelcore/pkg/blockmodel"
)

// selector is a compiled material selector: a fixed id, or a lookup keyed by a state property.
type selector struct {
	fixed MaterialID
	by    string
	byMap map[string]MaterialID
}

// CompiledMaterials holds the resolved selectors per face role; nil means unset.
type CompiledMaterials struct {
	All    *selector
	Top    *selector
	Bottom *selector
	Side   *selector
}

// MaterialFor evaluates the selectors directly, without the per-state tables.
func (m *CompiledMaterials) MaterialFor(role FaceRole, state BlockState, ty *BlockType) (MaterialID, bool) {
	var pick *selector
	switch role {
	case RoleTop:
		pick = m.Top
	case RoleBottom:
		pick = m.Bottom
	case RoleSide:
		pick = m.Side
	}
	if pick == nil {
		pick = m.All
	}
	if pick == nil {
		return NoMaterial, false
	}
	if pick.by == "" {
		return pick.fixed, true
	}
	val, ok := ty.StatePropValue(state, pick.by)
	if !ok {
		return NoMaterial, false
	}
	id, ok := pick.byMap[val]
	return id, ok
}

// BlockType is one compiled block definition.
type BlockType struct {
	ID              BlockID
	Name            string
	Solid           bool
	BlocksSkylight  bool
	PropagatesLight bool
	Emission        uint8
	Light           CompiledLight
	Shape           Shape
	Materials       CompiledMaterials
	Seam            SeamPolicy

	StateSchema map[string][]string
	StateFields []StateField
	propIndex   map[string]int

	// Per-state lookup tables, all of length 2^min(totalBits,16).
	matTop    []MaterialID
	matBottom []MaterialID
	matSide   []MaterialID
	occMask   []uint8
	variants  []ShapeVariant
}

func placeholderType(id BlockID) *BlockType {
	return &BlockType{
		ID:        id,
		Light:     DefaultLight,
		matTop:    []MaterialID{NoMaterial},
		matBottom: []MaterialID{NoMaterial},
		matSide:   []MaterialID{NoMaterial},
		occMask:   []uint8{0},
		variants:  []ShapeVariant{{}},
		propIndex: map[string]int{},
	}
}

// computeStateLayout sorts properties by name and assigns sequential bit ranges.
func computeStateLayout(schema map[string][]string) ([]StateField, map[string]int) {
	names := make([]string, 0, len(schema))
	for k := range schema {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make([]StateField, 0, len(names))
	index := make(map[string]int, len(names))
	var offset uint32
	for i, name := range names {
		vals := schema[name]
		var b uint32
		if n := len(vals); n > 1 {
			b = uint32(bits.Len32(uint32(n - 1)))
		}
		fields = append(fields, StateField{Name: name, Values: vals, Bits: b, Offset: offset})
		index[name] = i
		offset += b
	}
	return fields, index
}

func (t *BlockType) totalStateBits() uint32 {
	var total uint32
	for _, f := range t.StateFields {
		total += f.Bits
	}
	return total
}

// StatePropValue decodes prop from state. A zero-bit property always reads its first value;
// an out-of-range index reports false.
func (t *BlockType) StatePropValue(state BlockState, prop string) (string, bool) {
	i, ok := t.propIndex[prop]
	if !ok {
		return "", false
	}
	f := &t.StateFields[i]
	if f.Bits == 0 {
		if len(f.Values) == 0 {
			return "", false
		}
		return f.Values[0], true
	}
	mask := uint32(1)<<f.Bits - 1
	idx := int((uint32(state) >> f.Offset) & mask)
	if idx >= len(f.Values) {
		return "", false
	}
	return f.Values[idx], true
}

func (t *BlockType) StatePropIs(state BlockState, prop, want string) bool {
	v, ok := t.StatePropValue(state, prop)
	return ok && v == want
}

// PackState encodes props into a state. Missing or unknown values select index 0.
func (t *BlockType) PackState(props map[string]string) BlockState {
	var acc uint32
	for _, f := range t.StateFields {
		if f.Bits == 0 {
			continue
		}
		sel := 0
		if val, ok := props[f.Name]; ok {
			for i, v := range f.Values {
				if v == val {
					sel = i
					break
				}
			}
		}
		acc |= (uint32(sel) & (uint32(1)<<f.Bits - 1)) << f.Offset
	}
	return BlockState(acc)
}

// MaterialForCached reads the precomputed table for role. RoleAll reads the side table.
func (t *BlockType) MaterialForCached(role FaceRole, state BlockState) MaterialID {
	switch role {
	case RoleTop:
		return t.matTop[int(state)&(len(t.matTop)-1)]
	case RoleBottom:
		return t.matBottom[int(state)&(len(t.matBottom)-1)]
	default:
		return t.matSide[int(state)&(len(t.matSide)-1)]
	}
}

// OcclusionMaskCached returns the 6-bit face mask, bit i set when face i is fully covered.
func (t *BlockType) OcclusionMaskCached(state BlockState) uint8 {
	return t.occMask[int(state)&(len(t.occMask)-1)]
}

func (t *BlockType) Variant(state BlockState) ShapeVariant {
	return t.variants[int(state)&(len(t.variants)-1)]
}

func (t *BlockType) IsSolid(BlockState) bool { return t.Solid }

func (t *BlockType) BlocksSkylightAt(BlockState) bool { return t.BlocksSkylight }

func (t *BlockType) PropagatesLightAt(BlockState) bool { return t.PropagatesLight }

func (t *BlockType) LightEmission(BlockState) uint8 { return t.Emission }

func (t *BlockType) IsBeam() bool { return t.Light.Kind == LightBeam }

// OmniAttenuation returns the omni attenuation, or 32 for beam profiles.
func (t *BlockType) OmniAttenuation() uint8 {
	if t.Light.Kind == LightOmni {
		return t.Light.Attenuation
	}
	return blockmodel.DefaultOmniAttenuation
}

// BeamParams returns straight, turn and vertical costs and source dirs. Omni profiles get the
// beam defaults.
func (t *BlockType) BeamParams() (straight, turn, vertical uint8, dirs blockmodel.SourceDirs) {
	if t.Light.Kind == LightBeam {
		return t.Light.StraightCost, t.Light.TurnCost, t.Light.VerticalCost, t.Light.SourceDirs
	}
	return DefaultBeam.StraightCost, DefaultBeam.TurnCost, DefaultBeam.VerticalCost, DefaultBeam.SourceDirs
}

// precompute fills the per-state tables.
func (t *BlockType) precompute(unknownMat MaterialID) {
	total := t.totalStateBits()
	n := 1
	if total > 0 {
		n = 1 << min(total, 16)
	}
	t.matTop = make([]MaterialID, n)
	t.matBottom = make([]MaterialID, n)
	t.matSide = make([]MaterialID, n)
	t.occMask = make([]uint8, n)
	t.variants = make([]ShapeVariant, n)

	for s := 0; s < n; s++ {
		state := BlockState(s)
		t.matTop[s] = t.resolve(RoleTop, state, unknownMat)
		t.matBottom[s] = t.resolve(RoleBottom, state, unknownMat)
		t.matSide[s] = t.resolve(RoleSide, state, unknownMat)
		t.occMask[s], t.variants[s] = t.shapeAt(state)
	}
}

func (t *BlockType) resolve(role FaceRole, state BlockState, fallback MaterialID) MaterialID {
	if id, ok := t.Materials.MaterialFor(role, state, t); ok {
		return id
	}
	return fallback
}

const allFacesMask uint8 = 0b11_1111

func (t *BlockType) shapeAt(state BlockState) (uint8, ShapeVariant) {
	switch t.Shape.Kind {
	case ShapeSlab, ShapeStairs:
		top := t.StatePropIs(state, t.Shape.HalfFrom, "top")
		mask := uint8(1)<<FacePosX | uint8(1)<<FaceNegX | uint8(1)<<FacePosZ | uint8(1)<<FaceNegZ
		if top {
			mask |= 1 << FaceNegY
		} else {
			mask |= 1 << FacePosY
		}
		var occ uint8
		if t.Shape.Kind == ShapeSlab {
			occ = OccSlab(top)
		} else {
			facing, _ := t.StatePropValue(state, t.Shape.FacingFrom)
			occ = OccStairs(ParseFacing(facing), top)
		}
		return mask, ShapeVariant{Occupancy: occ, HasOccupancy: true}
	case ShapePane:
		return 0, ShapeVariant{Dynamic: DynamicPane}
	case ShapeFence:
		return 0, ShapeVariant{Dynamic: DynamicFence}
	case ShapeGate:
		return 0, ShapeVariant{Dynamic: DynamicGate}
	case ShapeCarpet:
		return 0, ShapeVariant{Dynamic: DynamicCarpet}
	case ShapeNone:
		return 0, ShapeVariant{}
	}
	if t.IsSolid(state) {
		return allFacesMask, ShapeVariant{}
	}
	return 0, ShapeVariant{}
}
