package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore/internal/config"
	"voxelcore/internal/world"
)

func TestRegionAroundNearestFirst(t *testing.T) {
	coords := regionAround(world.ChunkCoord{CX: 3, CZ: -1}, 1)
	require.Len(t, coords, 5)
	assert.Equal(t, world.ChunkCoord{CX: 3, CZ: -1}, coords[0])
	assert.ElementsMatch(t, []world.ChunkCoord{
		{CX: 3, CZ: -1}, {CX: 2, CZ: -1}, {CX: 4, CZ: -1}, {CX: 3, CZ: -2}, {CX: 3, CZ: 0},
	}, coords)

	assert.Len(t, regionAround(world.ChunkCoord{}, 0), 1)
}

func TestSetupEngineBuildsAndWritesAtlases(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Dir = filepath.Join("..", "..", "assets")
	cfg.World.Mode = "flat"
	cfg.World.FlatThickness = 3
	cfg.Chunk = config.ChunkConfig{SizeX: 8, SizeY: 16, SizeZ: 8}
	cfg.Apply()

	e, err := setupEngine(cfg)
	require.NoError(t, err)

	coords := regionAround(world.ChunkCoord{}, 1)
	res, err := e.Pipeline.BuildRegion(context.Background(), coords, 2, 4)
	require.NoError(t, err)
	assert.Len(t, res.Meshes, len(coords))
	assert.Equal(t, "store: 5 chunks loaded, 5 modifications", storeStats(e.Chunks))

	dir := t.TempDir()
	n, err := writeAtlases(e, coords, dir)
	require.NoError(t, err)
	assert.Equal(t, len(coords), n)
	info, err := os.Stat(filepath.Join(dir, "chunk_0_0.bmp"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestLoadRegistryMissingPack(t *testing.T) {
	_, err := loadRegistry(config.AssetsConfig{Dir: t.TempDir(), Materials: "materials", Blocks: "blocks"})
	require.Error(t, err)
}
