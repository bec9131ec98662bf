package blockmodel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound is returned when a pack file does not exist.
var ErrNotFound = errors.New("blockmodel: pack file not found")

// Loader reads content-pack files from an assets directory and caches the parsed result.
type Loader struct {
	assetsPath string

	mu            sync.Mutex
	materialCache map[string]*MaterialsConfig
	blocksCache   map[string]*BlocksConfig
}

func NewLoader(assetsPath string) *Loader {
	return &Loader{
		assetsPath:    assetsPath,
		materialCache: make(map[string]*MaterialsConfig),
		blocksCache:   make(map[string]*BlocksConfig),
	}
}

// AssetsPath returns the directory the loader reads from.
func (l *Loader) AssetsPath() string {
	return l.assetsPath
}

func (l *Loader) path(name string) string {
	if !strings.HasSuffix(name, ".toml") {
		name += ".toml"
	}
	return filepath.Join(l.assetsPath, name)
}

func readPackFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("could not read pack file: %w", err)
	}
	return data, nil
}

// LoadMaterials loads and caches the materials file `name` (".toml" optional).
func (l *Loader) LoadMaterials(name string) (*MaterialsConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg, ok := l.materialCache[name]; ok {
		return cfg, nil
	}
	data, err := readPackFile(l.path(name))
	if err != nil {
		return nil, err
	}
	cfg, err := ParseMaterials(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse materials '%s': %w", name, err)
	}
	l.materialCache[name] = cfg
	return cfg, nil
}

// LoadBlocks loads and caches the blocks file `name` (".toml" optional).
func (l *Loader) LoadBlocks(name string) (*BlocksConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg, ok := l.blocksCache[name]; ok {
		return cfg, nil
	}
	data, err := readPackFile(l.path(name))
	if err != nil {
		return nil, err
	}
	cfg, err := ParseBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse blocks '%s': %w", name, err)
	}
	l.blocksCache[name] = cfg
	return cfg, nil
}

type rawMaterialsFile struct {
	Materials map[string]any `toml:"materials"`
}

// ParseMaterials decodes a materials TOML document.
func ParseMaterials(data []byte) (*MaterialsConfig, error) {
	var raw rawMaterialsFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not unmarshal materials toml: %w", err)
	}
	out := &MaterialsConfig{Materials: make(map[string]MaterialEntry, len(raw.Materials))}
	for key, v := range raw.Materials {
		switch t := v.(type) {
		case []any:
			out.Materials[key] = MaterialEntry{Paths: stringList(t)}
		case map[string]any:
			entry := MaterialEntry{}
			if p, ok := t["paths"].([]any); ok {
				entry.Paths = stringList(p)
			}
			if tag, ok := t["render_tag"].(string); ok {
				entry.RenderTag = tag
			}
			out.Materials[key] = entry
		default:
			return nil, fmt.Errorf("material '%s': expected array or table, got %T", key, v)
		}
	}
	return out, nil
}

type rawLightProfile struct {
	Mode         string  `toml:"mode"`
	Attenuation  *uint8  `toml:"attenuation"`
	MaxRange     *uint16 `toml:"max_range"`
	StraightCost *uint8  `toml:"straight_cost"`
	TurnCost     *uint8  `toml:"turn_cost"`
	VerticalCost *uint8  `toml:"vertical_cost"`
	SourceDirs   string  `toml:"source_dirs"`
}

type rawBlockDef struct {
	Name            string              `toml:"name"`
	ID              *uint16             `toml:"id"`
	Solid           *bool               `toml:"solid"`
	BlocksSkylight  *bool               `toml:"blocks_skylight"`
	PropagatesLight *bool               `toml:"propagates_light"`
	Emission        *uint8              `toml:"emission"`
	LightProfile    string              `toml:"light_profile"`
	Light           *rawLightProfile    `toml:"light"`
	Shape           any                 `toml:"shape"`
	Materials       map[string]any      `toml:"materials"`
	StateSchema     map[string][]string `toml:"state_schema"`
	Seam            any                 `toml:"seam"`
}

type rawBlocksFile struct {
	Blocks   []rawBlockDef `toml:"blocks"`
	Lighting struct {
		Profiles map[string]rawLightProfile `toml:"profiles"`
	} `toml:"lighting"`
	UnknownBlock string `toml:"unknown_block"`
}

// ParseBlocks decodes a blocks TOML document. Shapes, selectors and seam policies that
// are present but malformed degrade to their "unknown" forms instead of failing.
func ParseBlocks(data []byte) (*BlocksConfig, error) {
	var raw rawBlocksFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not unmarshal blocks toml: %w", err)
	}
	out := &BlocksConfig{
		Blocks:       make([]BlockDef, 0, len(raw.Blocks)),
		Lighting:     LightingConfig{Profiles: make(map[string]LightProfile, len(raw.Lighting.Profiles))},
		UnknownBlock: raw.UnknownBlock,
	}
	for name, p := range raw.Lighting.Profiles {
		out.Lighting.Profiles[name] = p.compile()
	}
	for _, rb := range raw.Blocks {
		def := BlockDef{
			Name:            rb.Name,
			ID:              rb.ID,
			Solid:           rb.Solid,
			BlocksSkylight:  rb.BlocksSkylight,
			PropagatesLight: rb.PropagatesLight,
			Emission:        rb.Emission,
			LightProfile:    rb.LightProfile,
			Shape:           parseShape(rb.Shape),
			Materials:       parseMaterialsDef(rb.Materials),
			StateSchema:     rb.StateSchema,
			Seam:            parseSeam(rb.Seam),
		}
		if rb.Light != nil {
			lp := rb.Light.compile()
			def.Light = &lp
		}
		out.Blocks = append(out.Blocks, def)
	}
	return out, nil
}

func (p rawLightProfile) compile() LightProfile {
	lp := LightProfile{
		Mode:         LightModeOmni,
		Attenuation:  DefaultOmniAttenuation,
		StraightCost: DefaultBeamStraight,
		TurnCost:     DefaultBeamTurn,
		VerticalCost: DefaultBeamVertical,
		SourceDirs:   SourceDirsHorizontal,
		MaxRange:     p.MaxRange,
	}
	if strings.EqualFold(p.Mode, string(LightModeBeam)) {
		lp.Mode = LightModeBeam
	}
	if p.Attenuation != nil {
		lp.Attenuation = *p.Attenuation
	}
	if p.StraightCost != nil {
		lp.StraightCost = *p.StraightCost
	}
	if p.TurnCost != nil {
		lp.TurnCost = *p.TurnCost
	}
	if p.VerticalCost != nil {
		lp.VerticalCost = *p.VerticalCost
	}
	switch SourceDirs(strings.ToLower(p.SourceDirs)) {
	case SourceDirsVertical:
		lp.SourceDirs = SourceDirsVertical
	case SourceDirsAny:
		lp.SourceDirs = SourceDirsAny
	}
	return lp
}

func parseShape(v any) *ShapeConfig {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &ShapeConfig{Kind: t}
	case map[string]any:
		sc := &ShapeConfig{Detailed: true}
		sc.Kind, _ = t["kind"].(string)
		sc.Axis = propertyFrom(t["axis"])
		sc.Half = propertyFrom(t["half"])
		sc.Facing = propertyFrom(t["facing"])
		sc.Open = propertyFrom(t["open"])
		return sc
	default:
		// Unrecognized shape value: compiles to no shape.
		return &ShapeConfig{Kind: ""}
	}
}

func propertyFrom(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m["from"].(string)
	return s
}

func parseMaterialsDef(m map[string]any) *MaterialsDef {
	if m == nil {
		return nil
	}
	return &MaterialsDef{
		All:    parseSelector(m["all"]),
		Top:    parseSelector(m["top"]),
		Bottom: parseSelector(m["bottom"]),
		Side:   parseSelector(m["side"]),
	}
}

func parseSelector(v any) *MaterialSelector {
	switch t := v.(type) {
	case string:
		return &MaterialSelector{Key: t}
	case map[string]any:
		by, _ := t["by"].(string)
		if by == "" {
			return nil
		}
		sel := &MaterialSelector{By: by, Map: make(map[string]string)}
		if mm, ok := t["map"].(map[string]any); ok {
			for k, mv := range mm {
				if s, ok := mv.(string); ok {
					sel.Map[k] = s
				}
			}
		}
		return sel
	}
	return nil
}

func parseSeam(v any) *SeamPolicyConfig {
	switch t := v.(type) {
	case string:
		switch t {
		case "dont_occlude_same":
			return &SeamPolicyConfig{DontOccludeSame: true}
		case "dont_project_fixups":
			return &SeamPolicyConfig{DontProjectFixups: true}
		default:
			return &SeamPolicyConfig{}
		}
	case map[string]any:
		sp := &SeamPolicyConfig{}
		sp.DontOccludeSame, _ = t["dont_occlude_same"].(bool)
		sp.DontProjectFixups, _ = t["dont_project_fixups"].(bool)
		return sp
	}
	return nil
}

func stringList(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
