package registry

import "voxelcore/pkg/blockmodel"

type BlockID uint16

// BlockState is a bit-packed set of property values, laid out by the block's StateFields.
type BlockState uint16

type MaterialID uint16

// NoMaterial is the reserved "no assignment" material id.
const NoMaterial MaterialID = 0

// Block is the value stored in every voxel cell.
type Block struct {
	ID    BlockID
	State BlockState
}

// Air is the zero block; registries conventionally register "air" as id 0.
var Air = Block{}

type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota
	ShapeCube
	ShapeAxisCube
	ShapeSlab
	ShapeStairs
	ShapePane
	ShapeFence
	ShapeGate
	ShapeCarpet
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCube:
		return "cube"
	case ShapeAxisCube:
		return "axis_cube"
	case ShapeSlab:
		return "slab"
	case ShapeStairs:
		return "stairs"
	case ShapePane:
		return "pane"
	case ShapeFence:
		return "fence"
	case ShapeGate:
		return "gate"
	case ShapeCarpet:
		return "carpet"
	}
	return "none"
}

// Shape is the compiled geometric kind plus the state properties it reads.
type Shape struct {
	Kind       ShapeKind
	AxisFrom   string
	HalfFrom   string
	FacingFrom string
	OpenFrom   string
}

// IsFullCube reports whether the shape fills the whole voxel when solid.
func (s Shape) IsFullCube() bool {
	return s.Kind == ShapeCube || s.Kind == ShapeAxisCube
}

type DynamicShape uint8

const (
	DynamicNone DynamicShape = iota
	DynamicPane
	DynamicFence
	DynamicGate
	DynamicCarpet
)

// ShapeVariant is the per-state geometry summary. HasOccupancy marks axis-aligned partial
// shapes described by Occupancy; Dynamic tags shapes built per instance by the mesher.
type ShapeVariant struct {
	Occupancy    uint8
	HasOccupancy bool
	Dynamic      DynamicShape
}

// SeamPolicy controls how a block treats identical neighbors at chunk seams.
type SeamPolicy struct {
	DontOccludeSame   bool
	DontProjectFixups bool
}

type LightKind uint8

const (
	LightOmni LightKind = iota
	LightBeam
)

// CompiledLight is an omni or beam light profile.
type CompiledLight struct {
	Kind LightKind

	Attenuation uint8

	StraightCost uint8
	TurnCost     uint8
	VerticalCost uint8
	SourceDirs   blockmodel.SourceDirs

	// MaxRange of 0 means unlimited.
	MaxRange uint16
}

// DefaultLight is used when a block declares no profile.
var DefaultLight = CompiledLight{Kind: LightOmni, Attenuation: blockmodel.DefaultOmniAttenuation}

// DefaultBeam is used for dynamic beacons that carry no block profile.
var DefaultBeam = CompiledLight{
	Kind:         LightBeam,
	StraightCost: blockmodel.DefaultBeamStraight,
	TurnCost:     blockmodel.DefaultBeamTurn,
	VerticalCost: blockmodel.DefaultBeamVertical,
	SourceDirs:   blockmodel.SourceDirsHorizontal,
}

// StateField describes where one property lives inside a BlockState.
type StateField struct {
	Name   string
	Values []string
	Bits   uint32
	Offset uint32
}
