package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/xlab/closer"

	"voxelcore/internal/config"
	"voxelcore/internal/logging"
	"voxelcore/internal/meshing"
	"voxelcore/internal/profiling"
	"voxelcore/internal/world"
)

func main() {
	configPath := flag.String("config", "voxelcore.yaml", "settings file (missing file uses defaults)")
	mode := flag.String("mode", "", "terrain generator override: flat or hills")
	radius := flag.Int("radius", -1, "region radius in chunks around the origin (-1 uses the config)")
	atlasDir := flag.String("atlas-dir", "", "write one BMP light atlas per chunk into this directory")
	hold := flag.Bool("hold", false, "keep serving /metrics after the build until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}
	if *mode != "" {
		cfg.World.Mode = *mode
	}
	if *radius >= 0 {
		cfg.Build.Radius = *radius
	}
	cfg.Apply()
	logging.SetLevel(logging.ParseLevel(cfg.Log.Level))

	engine, err := setupEngine(cfg)
	if err != nil {
		closer.Fatalln(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(engine), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.LogError("metrics server: %v", err)
			}
		}()
		closer.Bind(func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		})
		logging.LogInfo("serving metrics on %s/metrics", cfg.Metrics.Addr)
	}

	center := world.ChunkCoord{}
	coords := regionAround(center, config.GetBuildRadius())
	profiling.ResetFrame()
	start := time.Now()
	res, err := engine.Pipeline.BuildRegion(ctx, coords, config.GetMeshWorkers(), cfg.Build.MaxPasses)
	if err != nil {
		closer.Fatalln(err)
	}
	printStats(res, time.Since(start))
	fmt.Println(storeStats(engine.Chunks))
	if n := engine.Chunks.Evict(center, config.GetChunkEvictRadius()); n > 0 {
		logging.LogDebug("evicted %d chunks outside radius %d", n, config.GetChunkEvictRadius())
	}

	if *atlasDir != "" {
		n, err := writeAtlases(engine, coords, *atlasDir)
		if err != nil {
			closer.Fatalln(err)
		}
		logging.LogInfo("wrote %d light atlases to %s", n, *atlasDir)
	}

	if *hold {
		closer.Hold()
		return
	}
	closer.Close()
}

// regionAround lists the columns within radius of center, nearest first.
func regionAround(center world.ChunkCoord, radius int) []world.ChunkCoord {
	var out []world.ChunkCoord
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dz*dz <= radius*radius {
				out = append(out, center.Offset(dx, dz))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di := (out[i].CX-center.CX)*(out[i].CX-center.CX) + (out[i].CZ-center.CZ)*(out[i].CZ-center.CZ)
		dj := (out[j].CX-center.CX)*(out[j].CX-center.CX) + (out[j].CZ-center.CZ)*(out[j].CZ-center.CZ)
		return di < dj
	})
	return out
}

func printStats(res *meshing.RegionResult, took time.Duration) {
	tris := 0
	var area float64
	for _, cm := range res.Meshes {
		tris += cm.TriangleCount()
		area += cm.Area()
	}
	fmt.Printf("chunks: %d meshed, %d empty\n", len(res.Meshes), res.Empty)
	fmt.Printf("builds: %d in %d passes (%.1fms)\n", res.Builds, res.Passes, float64(took.Microseconds())/1000.0)
	fmt.Printf("triangles: %d, surface area: %.2f\n", tris, area)
	fmt.Printf("hot spots: %s\n", profiling.TopN(5))
}

// storeStats summarizes the chunk store: loaded columns and map modifications.
func storeStats(cs *world.ChunkStore) string {
	return fmt.Sprintf("store: %d chunks loaded, %d modifications", cs.Len(), cs.GetModCount())
}
