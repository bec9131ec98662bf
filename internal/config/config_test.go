package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("VOXELCORE_ASSETS", "")
	t.Setenv("VOXELCORE_WORKERS", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Assets.Dir)
	assert.Equal(t, 16, cfg.Chunk.SizeX)
	assert.Equal(t, 64, cfg.Chunk.SizeY)
	assert.Equal(t, "hills", cfg.World.Mode)
	assert.GreaterOrEqual(t, cfg.Build.Workers, 1)
}

func TestLoadYAMLAndClamp(t *testing.T) {
	t.Setenv("VOXELCORE_ASSETS", "")
	t.Setenv("VOXELCORE_WORKERS", "")
	path := filepath.Join(t.TempDir(), "engine.yaml")
	data := `
assets:
  dir: /packs/base
chunk:
  size_x: 8
  size_y: 1000
  size_z: 0
world:
  mode: flat
  seed: 42
  flat_thickness: 3
build:
  workers: 500
  max_passes: 2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/packs/base", cfg.Assets.Dir)
	assert.Equal(t, "materials", cfg.Assets.Materials)
	assert.Equal(t, 8, cfg.Chunk.SizeX)
	assert.Equal(t, 256, cfg.Chunk.SizeY)
	assert.Equal(t, 1, cfg.Chunk.SizeZ)
	assert.Equal(t, "flat", cfg.World.Mode)
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 64, cfg.Build.Workers)
	assert.Equal(t, 2, cfg.Build.MaxPasses)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk: [1, 2"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOXELCORE_ASSETS", "/tmp/pack")
	t.Setenv("VOXELCORE_WORKERS", "3")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pack", cfg.Assets.Dir)
	assert.Equal(t, 3, cfg.Build.Workers)
}

func TestGlobalSettingsClamp(t *testing.T) {
	SetMeshWorkers(0)
	assert.Equal(t, 1, GetMeshWorkers())
	SetMeshWorkers(1000)
	assert.Equal(t, 64, GetMeshWorkers())

	SetChunkSize(32, 512, -4)
	sx, sy, sz := GetChunkSize()
	assert.Equal(t, []int{32, 256, 1}, []int{sx, sy, sz})

	SetBuildRadius(3)
	assert.Equal(t, 7, GetChunkEvictRadius())

	SetWorldMode("caves")
	assert.Equal(t, "hills", GetWorldMode())
	SetWorldMode("flat")
	assert.Equal(t, "flat", GetWorldMode())

	cfg := Default()
	cfg.World.Seed = 99
	cfg.Apply()
	assert.Equal(t, int64(99), GetWorldSeed())
	assert.Equal(t, "hills", GetWorldMode())
	sx, _, _ = GetChunkSize()
	assert.Equal(t, 16, sx)
}
