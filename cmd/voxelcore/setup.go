package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"

	"voxelcore/internal/config"
	"voxelcore/internal/lighting"
	"voxelcore/internal/meshing"
	"voxelcore/internal/metrics"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
	"voxelcore/pkg/blockmodel"
)

// Engine holds the initialized build components
type Engine struct {
	Registry *registry.Registry
	Chunks   *world.ChunkStore
	Light    *lighting.Store
	Metrics  *metrics.Metrics
	Pipeline *meshing.Pipeline
}

func setupEngine(cfg *config.EngineConfig) (*Engine, error) {
	reg, err := loadRegistry(cfg.Assets)
	if err != nil {
		return nil, err
	}

	sx, sy, sz := config.GetChunkSize()
	var gen world.TerrainGenerator
	if config.GetWorldMode() == "flat" {
		gen = world.NewFlatGenerator(reg, cfg.World.FlatThickness)
	} else {
		gen = world.NewHillsGenerator(reg, config.GetWorldSeed(), sy)
	}

	e := &Engine{
		Registry: reg,
		Chunks:   world.NewChunkStore(world.New(gen, sx, sy, sz)),
		Light:    lighting.NewStore(sx, sy, sz),
		Metrics:  metrics.New(),
	}
	e.Pipeline = &meshing.Pipeline{
		Chunks:  e.Chunks,
		Light:   e.Light,
		Reg:     reg,
		Scratch: meshing.NewScratchPool(),
		Metrics: e.Metrics,
	}
	return e, nil
}

func loadRegistry(assets config.AssetsConfig) (*registry.Registry, error) {
	loader := blockmodel.NewLoader(assets.Dir)
	matCfg, err := loader.LoadMaterials(assets.Materials)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	blkCfg, err := loader.LoadBlocks(assets.Blocks)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	return registry.FromConfigs(registry.MaterialCatalogFromConfig(matCfg), blkCfg)
}

func metricsMux(e *Engine) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Metrics.Handler())
	return mux
}

// writeAtlases recomputes each chunk's light against the converged borders and writes it
// as chunk_<cx>_<cz>.bmp.
func writeAtlases(e *Engine, coords []world.ChunkCoord, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create atlas dir: %w", err)
	}
	n := 0
	for _, c := range coords {
		buf, ok := e.Chunks.Get(c)
		if !ok {
			continue
		}
		grid := lighting.Compute(buf, e.Light, e.Registry)
		atlas := lighting.PackAtlas(grid, e.Light.NeighborBorders(c.CX, c.CZ))
		path := filepath.Join(dir, fmt.Sprintf("chunk_%d_%d.bmp", c.CX, c.CZ))
		if err := writeBMP(path, atlas); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func writeBMP(path string, atlas *lighting.Atlas) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := bmp.Encode(f, atlas.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
