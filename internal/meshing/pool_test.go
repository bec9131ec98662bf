package meshing

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore/internal/lighting"
	"voxelcore/internal/metrics"
	"voxelcore/internal/world"
)

// flatPipeline is a pipeline over flat stone two blocks thick, 4x8x4 chunks.
func flatPipeline(t testing.TB) *Pipeline {
	t.Helper()
	reg := loadPack(t)
	w := world.New(world.NewFlatGenerator(reg, 2), 4, 8, 4)
	return &Pipeline{
		Chunks:  world.NewChunkStore(w),
		Light:   lighting.NewStore(4, 8, 4),
		Reg:     reg,
		Scratch: NewScratchPool(),
		Metrics: metrics.New(),
	}
}

func region2x2() []world.ChunkCoord {
	return []world.ChunkCoord{{CX: 0, CZ: 0}, {CX: 1, CZ: 0}, {CX: 0, CZ: 1}, {CX: 1, CZ: 1}}
}

func TestBuildRegionFlat(t *testing.T) {
	p := flatPipeline(t)
	res, err := p.BuildRegion(context.Background(), region2x2(), 2, 4)
	require.NoError(t, err)

	require.Len(t, res.Meshes, 4)
	assert.Zero(t, res.Empty)
	assert.GreaterOrEqual(t, res.Passes, 1)
	assert.LessOrEqual(t, res.Passes, 4)
	assert.GreaterOrEqual(t, res.Builds, 4)

	var area float64
	tris := 0
	for _, cm := range res.Meshes {
		area += cm.Area()
		tris += cm.TriangleCount()
		// side walls cancel against the generated terrain around the region
		n, _ := planeTriangles(cm, 0)
		assert.Zero(t, n)
		n, _ = planeTriangles(cm, 4)
		assert.Zero(t, n)
		n, _ = planeTriangles(cm, 8)
		assert.Zero(t, n)
	}
	// one top and one bottom quad per chunk
	assert.InDelta(t, 2*8*8, area, 1e-3)
	assert.Equal(t, 4*4, tris)

	_, allocated := p.Scratch.Stats()
	assert.Positive(t, allocated)
}

func TestBuildRegionStopsOnCancel(t *testing.T) {
	p := flatPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.BuildRegion(ctx, region2x2(), 2, 4)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildRejectsMismatchedStore(t *testing.T) {
	p := flatPipeline(t)
	p.Light = lighting.NewStore(8, 8, 8)
	res := p.Build(context.Background(), world.ChunkCoord{})
	require.Error(t, res.Err)
}

func TestBorderChangeMarksNeighborsDirty(t *testing.T) {
	p := flatPipeline(t)
	for _, c := range region2x2() {
		p.Chunks.GetOrGenerate(c)
	}
	p.Chunks.TakeDirty()

	res := p.Build(context.Background(), world.ChunkCoord{})
	require.NoError(t, res.Err)
	// first publication reports +X and +Z
	assert.True(t, res.BordersChanged)
	assert.ElementsMatch(t, []world.ChunkCoord{{CX: 1, CZ: 0}, {CX: 0, CZ: 1}}, p.Chunks.TakeDirty())

	// nothing changed on an identical rebuild
	res = p.Build(context.Background(), world.ChunkCoord{})
	require.NoError(t, res.Err)
	assert.False(t, res.BordersChanged)
	assert.Empty(t, p.Chunks.TakeDirty())
}

func TestWorkerPoolBuildsJobs(t *testing.T) {
	p := flatPipeline(t)
	pool := NewWorkerPool(p, 2, 8)
	defer pool.Shutdown()

	results := make(chan BuildResult, 8)
	jobs := map[world.ChunkCoord]BuildJob{}
	for _, c := range region2x2() {
		job := NewBuildJob(c, results)
		jobs[c] = job
		require.True(t, pool.SubmitJob(job))
	}

	for range jobs {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
			assert.Equal(t, jobs[res.Coord].ID, res.JobID)
			assert.NotNil(t, res.Light)
			assert.NotNil(t, res.Mesh)
			assert.Positive(t, res.Duration)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for build results")
		}
	}

	// borders published above leave neighbors to rebuild
	n := pool.RequeueDirty(results)
	assert.Positive(t, n)
	for i := 0; i < n; i++ {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for requeued results")
		}
	}

	rec := httptest.NewRecorder()
	p.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "voxelcore_chunks_built_total")
	assert.Contains(t, string(body), "voxelcore_chunks_loaded 4")
}

func TestSubmitAfterShutdownDoesNotBlock(t *testing.T) {
	p := flatPipeline(t)
	pool := NewWorkerPool(p, 1, 1)
	pool.Shutdown()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.SubmitJobBlocking(NewBuildJob(world.ChunkCoord{}, make(chan BuildResult, 1)))
		pool.SubmitJobBlocking(NewBuildJob(world.ChunkCoord{}, make(chan BuildResult, 1)))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SubmitJobBlocking blocked after shutdown")
	}
}

func BenchmarkBuildChunkMeshHills(b *testing.B) {
	reg := loadPack(b)
	gen := world.NewHillsGenerator(reg, 1337, 64)
	w := world.New(gen, 16, 64, 16)
	store := world.NewChunkStore(w)
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			store.GetOrGenerate(world.ChunkCoord{CX: dx, CZ: dz})
		}
	}
	buf, _ := store.Get(world.ChunkCoord{})
	light := lighting.Compute(buf, lighting.NewStore(16, 64, 16), reg)
	pool := NewScratchPool()
	nb := NeighborsLoaded{NegX: true, PosX: true, NegZ: true, PosZ: true}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildChunkMesh(buf, light, reg, store, nb, pool)
	}
}
