package registry

import (
	"sort"

	"voxelcore/pkg/blockmodel"
)

// Material is one texture slot a face can reference.
type Material struct {
	ID                MaterialID
	Key               string
	TextureCandidates []string
	RenderTag         string
}

// MaterialCatalog assigns stable ids to material keys. Id 0 is an empty sentinel so a
// zero MaterialID always means "no material".
type MaterialCatalog struct {
	materials []Material
	byKey     map[string]MaterialID
}

func NewMaterialCatalog() *MaterialCatalog {
	return &MaterialCatalog{
		materials: []Material{{ID: NoMaterial}},
		byKey:     make(map[string]MaterialID),
	}
}

// MaterialCatalogFromConfig builds a catalog with ids assigned in sorted key order.
func MaterialCatalogFromConfig(cfg *blockmodel.MaterialsConfig) *MaterialCatalog {
	cat := NewMaterialCatalog()
	if cfg == nil {
		return cat
	}
	keys := make([]string, 0, len(cfg.Materials))
	for k := range cfg.Materials {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := cfg.Materials[k]
		cat.add(k, entry.Paths, entry.RenderTag)
	}
	return cat
}

func (c *MaterialCatalog) add(key string, paths []string, renderTag string) MaterialID {
	if id, ok := c.byKey[key]; ok {
		return id
	}
	id := MaterialID(len(c.materials))
	c.byKey[key] = id
	c.materials = append(c.materials, Material{
		ID:                id,
		Key:               key,
		TextureCandidates: append([]string(nil), paths...),
		RenderTag:         renderTag,
	})
	return id
}

func (c *MaterialCatalog) GetID(key string) (MaterialID, bool) {
	id, ok := c.byKey[key]
	return id, ok
}

func (c *MaterialCatalog) Get(id MaterialID) (*Material, bool) {
	if int(id) >= len(c.materials) {
		return nil, false
	}
	return &c.materials[id], true
}

// Len includes the sentinel entry.
func (c *MaterialCatalog) Len() int {
	return len(c.materials)
}

// Keys returns material keys in id order, sentinel excluded.
func (c *MaterialCatalog) Keys() []string {
	out := make([]string, 0, len(c.materials)-1)
	for _, m := range c.materials[1:] {
		out = append(out, m.Key)
	}
	return out
}

// unknownID is the fallback material for faces with no resolvable selector.
func (c *MaterialCatalog) unknownID() MaterialID {
	if id, ok := c.byKey["unknown"]; ok {
		return id
	}
	return NoMaterial
}
