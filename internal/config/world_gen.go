package config

import "sync"

// WorldConfig selects the terrain generator.
type WorldConfig struct {
	Mode          string `yaml:"mode"`
	Seed          int64  `yaml:"seed"`
	FlatThickness int    `yaml:"flat_thickness"`
}

// WorldGenSettings holds world generation configuration
type WorldGenSettings struct {
	mu   sync.RWMutex
	mode string
	seed int64
}

var globalWorldGenSettings = &WorldGenSettings{
	mode: "hills",
	seed: 1337,
}

// GetWorldMode returns "flat" or "hills"
func GetWorldMode() string {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.mode
}

// SetWorldMode sets the generator mode; unknown modes fall back to hills
func SetWorldMode(mode string) {
	if mode != "flat" {
		mode = "hills"
	}
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.mode = mode
}

// GetWorldSeed returns the terrain seed
func GetWorldSeed() int64 {
	globalWorldGenSettings.mu.RLock()
	defer globalWorldGenSettings.mu.RUnlock()
	return globalWorldGenSettings.seed
}

// SetWorldSeed sets the terrain seed
func SetWorldSeed(seed int64) {
	globalWorldGenSettings.mu.Lock()
	defer globalWorldGenSettings.mu.Unlock()
	globalWorldGenSettings.seed = seed
}
