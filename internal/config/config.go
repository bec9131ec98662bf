package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the root of the engine settings file.
type EngineConfig struct {
	Assets  AssetsConfig  `yaml:"assets"`
	Chunk   ChunkConfig   `yaml:"chunk"`
	World   WorldConfig   `yaml:"world"`
	Build   BuildConfig   `yaml:"build"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type AssetsConfig struct {
	Dir       string `yaml:"dir"`
	Materials string `yaml:"materials"`
	Blocks    string `yaml:"blocks"`
}

type ChunkConfig struct {
	SizeX int `yaml:"size_x"`
	SizeY int `yaml:"size_y"`
	SizeZ int `yaml:"size_z"`
}

type BuildConfig struct {
	Workers int `yaml:"workers"`
	// MaxPasses bounds border-change requeue rounds in a region build.
	MaxPasses int `yaml:"max_passes"`
	Radius    int `yaml:"radius"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() *EngineConfig {
	return &EngineConfig{
		Assets:  AssetsConfig{Dir: "assets", Materials: "materials", Blocks: "blocks"},
		Chunk:   ChunkConfig{SizeX: 16, SizeY: 64, SizeZ: 16},
		World:   WorldConfig{Mode: "hills", Seed: 1337, FlatThickness: 4},
		Build:   BuildConfig{Workers: runtime.NumCPU(), MaxPasses: 4, Radius: 2},
		Metrics: MetricsConfig{Addr: ""},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads a YAML settings file over the defaults. A missing file yields the defaults.
// Environment overrides (VOXELCORE_ASSETS, VOXELCORE_WORKERS) are applied last.
func Load(path string) (*EngineConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *EngineConfig) {
	if dir := os.Getenv("VOXELCORE_ASSETS"); dir != "" {
		cfg.Assets.Dir = dir
	}
	if v := os.Getenv("VOXELCORE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Build.Workers = n
		}
	}
}

func (c *EngineConfig) normalize() {
	c.Build.Workers = clamp(c.Build.Workers, 1, maxWorkers)
	c.Build.MaxPasses = clamp(c.Build.MaxPasses, 1, 16)
	c.Build.Radius = clamp(c.Build.Radius, 0, 32)
	c.Chunk.SizeX = clamp(c.Chunk.SizeX, minChunkSize, maxChunkSize)
	c.Chunk.SizeY = clamp(c.Chunk.SizeY, minChunkSize, maxChunkHeight)
	c.Chunk.SizeZ = clamp(c.Chunk.SizeZ, minChunkSize, maxChunkSize)
	if c.World.FlatThickness < 0 {
		c.World.FlatThickness = 0
	}
}

// Apply pushes the loaded values into the global settings.
func (c *EngineConfig) Apply() {
	SetMeshWorkers(c.Build.Workers)
	SetChunkSize(c.Chunk.SizeX, c.Chunk.SizeY, c.Chunk.SizeZ)
	SetBuildRadius(c.Build.Radius)
	SetWorldSeed(c.World.Seed)
	SetWorldMode(c.World.Mode)
}

const (
	maxWorkers     = 64
	minChunkSize   = 1
	maxChunkSize   = 64
	maxChunkHeight = 256
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildSettings holds chunk build configuration
type BuildSettings struct {
	mu          sync.RWMutex
	meshWorkers int
	sx, sy, sz  int
	radius      int // in chunks
}

var globalBuildSettings = &BuildSettings{
	meshWorkers: 4,
	sx:          16,
	sy:          64,
	sz:          16,
	radius:      2,
}

// GetMeshWorkers returns the number of chunk build workers
func GetMeshWorkers() int {
	globalBuildSettings.mu.RLock()
	defer globalBuildSettings.mu.RUnlock()
	return globalBuildSettings.meshWorkers
}

// SetMeshWorkers sets the number of chunk build workers
func SetMeshWorkers(n int) {
	globalBuildSettings.mu.Lock()
	defer globalBuildSettings.mu.Unlock()
	globalBuildSettings.meshWorkers = clamp(n, 1, maxWorkers)
}

// GetChunkSize returns the chunk dimensions in blocks
func GetChunkSize() (int, int, int) {
	globalBuildSettings.mu.RLock()
	defer globalBuildSettings.mu.RUnlock()
	return globalBuildSettings.sx, globalBuildSettings.sy, globalBuildSettings.sz
}

// SetChunkSize sets the chunk dimensions, clamped to supported sizes
func SetChunkSize(sx, sy, sz int) {
	globalBuildSettings.mu.Lock()
	defer globalBuildSettings.mu.Unlock()
	globalBuildSettings.sx = clamp(sx, minChunkSize, maxChunkSize)
	globalBuildSettings.sy = clamp(sy, minChunkSize, maxChunkHeight)
	globalBuildSettings.sz = clamp(sz, minChunkSize, maxChunkSize)
}

// GetBuildRadius returns the region radius in chunks
func GetBuildRadius() int {
	globalBuildSettings.mu.RLock()
	defer globalBuildSettings.mu.RUnlock()
	return globalBuildSettings.radius
}

// SetBuildRadius sets the region radius in chunks
func SetBuildRadius(r int) {
	globalBuildSettings.mu.Lock()
	defer globalBuildSettings.mu.Unlock()
	globalBuildSettings.radius = clamp(r, 0, 32)
}

// GetChunkEvictRadius returns radius for chunk eviction (larger than build radius)
func GetChunkEvictRadius() int {
	return GetBuildRadius()*2 + 1
}
