package blockmodel

// MaterialsConfig is the parsed materials file: material key -> texture candidates.
type MaterialsConfig struct {
	Materials map[string]MaterialEntry
}

// MaterialEntry accepts either `key = ["a.png", ...]` or `key = { paths = [...], render_tag = "leaves" }`.
type MaterialEntry struct {
	Paths     []string
	RenderTag string
}

// BlocksConfig is the parsed blocks file.
type BlocksConfig struct {
	Blocks   []BlockDef
	Lighting LightingConfig
	// UnknownBlock names the fallback block used when a requested block is unavailable.
	UnknownBlock string
}

// BlockDef is one [[blocks]] entry. Pointer fields are optional; nil means "use the default".
type BlockDef struct {
	Name            string
	ID              *uint16
	Solid           *bool
	BlocksSkylight  *bool
	PropagatesLight *bool
	Emission        *uint8

	// LightProfile names an entry in [lighting.profiles]; Light is an inline profile and wins.
	LightProfile string
	Light        *LightProfile

	Shape       *ShapeConfig
	Materials   *MaterialsDef
	StateSchema map[string][]string
	Seam        *SeamPolicyConfig
}

// ShapeConfig covers both `shape = "slab"` and `shape = { kind = "slab", half = { from = "type" } }`.
// Empty property names mean the canonical default ("half", "facing", "axis", "open").
type ShapeConfig struct {
	Kind     string
	Detailed bool
	Axis     string
	Half     string
	Facing   string
	Open     string
}

// MaterialsDef holds per-role selectors; any of them may be nil.
type MaterialsDef struct {
	All    *MaterialSelector
	Top    *MaterialSelector
	Bottom *MaterialSelector
	Side   *MaterialSelector
}

// MaterialSelector is either a fixed material key or a lookup by property value.
type MaterialSelector struct {
	Key string
	By  string
	Map map[string]string
}

// IsBy reports whether the selector picks the material from a state property.
func (s *MaterialSelector) IsBy() bool {
	return s.By != ""
}

type LightMode string

const (
	LightModeOmni LightMode = "omni"
	LightModeBeam LightMode = "beam"
)

type SourceDirs string

const (
	SourceDirsHorizontal SourceDirs = "horizontal"
	SourceDirsVertical   SourceDirs = "vertical"
	SourceDirsAny        SourceDirs = "any"
)

// LightProfile is an omni or beam light description with defaults already applied.
type LightProfile struct {
	Mode LightMode

	// Omni
	Attenuation uint8

	// Beam
	StraightCost uint8
	TurnCost     uint8
	VerticalCost uint8
	SourceDirs   SourceDirs

	// MaxRange is nil for unlimited range.
	MaxRange *uint16
}

// LightingConfig holds reusable named light profiles.
type LightingConfig struct {
	Profiles map[string]LightProfile
}

// SeamPolicyConfig controls neighbor occlusion and seam fixups for a block.
type SeamPolicyConfig struct {
	DontOccludeSame   bool
	DontProjectFixups bool
}

const (
	DefaultOmniAttenuation uint8 = 32
	DefaultBeamStraight    uint8 = 1
	DefaultBeamTurn        uint8 = 32
	DefaultBeamVertical    uint8 = 32
)
