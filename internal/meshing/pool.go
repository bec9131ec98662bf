package meshing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"voxelcore/internal/lighting"
	"voxelcore/internal/logging"
	"voxelcore/internal/metrics"
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/world"
)

// Pipeline builds one chunk end to end: buffer, light, border publication and mesh.
type Pipeline struct {
	Chunks  *world.ChunkStore
	Light   *lighting.Store
	Reg     *registry.Registry
	Scratch *ScratchPool
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// BuildJob represents a chunk build request
type BuildJob struct {
	ID    uuid.UUID
	Coord world.ChunkCoord
	// Result channel - will be sent the result when done
	ResultChan chan BuildResult
}

// NewBuildJob tags a request for coord with a fresh id.
func NewBuildJob(coord world.ChunkCoord, results chan BuildResult) BuildJob {
	return BuildJob{ID: uuid.New(), Coord: coord, ResultChan: results}
}

// BuildResult contains the result of a chunk build. Mesh is nil when the chunk is empty.
type BuildResult struct {
	JobID          uuid.UUID
	Coord          world.ChunkCoord
	Mesh           *ChunkMesh
	Light          *lighting.LightGrid
	Empty          bool
	BordersChanged bool
	Mask           lighting.BorderChangeMask
	Duration       time.Duration
	Err            error
}

// NeighborsOf reports which horizontal neighbors of coord are loaded.
func (p *Pipeline) NeighborsOf(coord world.ChunkCoord) NeighborsLoaded {
	return NeighborsLoaded{
		NegX: p.Chunks.Has(coord.Offset(-1, 0)),
		PosX: p.Chunks.Has(coord.Offset(1, 0)),
		NegZ: p.Chunks.Has(coord.Offset(0, -1)),
		PosZ: p.Chunks.Has(coord.Offset(0, 1)),
	}
}

// Build generates (if needed), lights and meshes coord. Neighbors that read a changed
// border plane are marked dirty in the chunk store.
func (p *Pipeline) Build(ctx context.Context, coord world.ChunkCoord) BuildResult {
	start := time.Now()
	res := BuildResult{Coord: coord}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	fresh := !p.Chunks.Has(coord)
	buf := p.Chunks.GetOrGenerate(coord)
	if sx, sy, sz := p.Light.Dims(); buf.SX != sx || buf.SY != sy || buf.SZ != sz {
		res.Err = fmt.Errorf("chunk %v: buffer %dx%dx%d does not match light store %dx%dx%d",
			coord, buf.SX, buf.SY, buf.SZ, sx, sy, sz)
		p.countError()
		return res
	}

	lr := lighting.ComputeWithStats(buf, p.Light, p.Reg)
	res.Light = lr.Grid
	res.BordersChanged, res.Mask = p.Light.UpdateBordersMask(coord.CX, coord.CZ, lighting.BordersFromGrid(lr.Grid))

	res.Mesh, _ = BuildChunkMesh(buf, lr.Grid, p.Reg, p.Chunks, p.NeighborsOf(coord), p.Scratch)
	res.Empty = res.Mesh == nil

	if res.BordersChanged {
		p.requeue(coord, res.Mask)
	}
	if fresh {
		// the -X and -Z neighbors emitted their far planes while we were missing
		p.Chunks.MarkDirty(coord.Offset(-1, 0))
		p.Chunks.MarkDirty(coord.Offset(0, -1))
	}

	res.Duration = time.Since(start)
	p.observe(res, max(lr.SkyPasses, lr.BlkPasses))
	return res
}

// requeue marks the neighbors reading each changed plane dirty.
func (p *Pipeline) requeue(coord world.ChunkCoord, mask lighting.BorderChangeMask) {
	for _, f := range registry.AllFaces {
		if f.Axis() == registry.AxisY || !mask.Has(f) {
			continue
		}
		dx, _, dz := f.Delta()
		nb := coord.Offset(dx, dz)
		if !p.Chunks.Has(nb) {
			continue
		}
		p.Chunks.MarkDirty(nb)
		if p.Metrics != nil {
			p.Metrics.BorderChanges.WithLabelValues(f.String()).Inc()
			p.Metrics.Requeued.Inc()
		}
	}
}

func (p *Pipeline) countError() {
	if p.Metrics != nil {
		p.Metrics.BuildErrors.Inc()
	}
}

func (p *Pipeline) observe(res BuildResult, passes int) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.ChunksBuilt.Inc()
	p.Metrics.BuildDuration.Observe(res.Duration.Seconds())
	p.Metrics.LightPasses.Observe(float64(passes))
	p.Metrics.LoadedChunks.Set(float64(p.Chunks.Len()))
	p.Metrics.ActiveEmitters.Set(float64(p.Light.EmitterCount()))
	if res.Mesh == nil {
		p.Metrics.EmptyChunks.Inc()
		return
	}
	p.Metrics.Triangles.Observe(float64(res.Mesh.TriangleCount()))
}

// WorkerPool manages goroutines for chunk builds
type WorkerPool struct {
	pipeline *Pipeline
	jobQueue chan BuildJob
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool creates a new build worker pool
func NewWorkerPool(p *Pipeline, workers int, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		pipeline: p,
		jobQueue: make(chan BuildJob, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Start worker goroutines
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJob submits a build job to the pool
// Returns true if job was submitted successfully, false if queue is full
func (p *WorkerPool) SubmitJob(job BuildJob) bool {
	select {
	case p.jobQueue <- job:
		p.gauge()
		return true
	default:
		return false // Queue is full
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued or the pool shuts down
func (p *WorkerPool) SubmitJobBlocking(job BuildJob) {
	select {
	case p.jobQueue <- job:
		p.gauge()
	case <-p.ctx.Done():
	}
}

// RequeueDirty submits a job for every dirty chunk. Chunks that do not fit in the queue
// stay dirty. Returns the number submitted.
func (p *WorkerPool) RequeueDirty(results chan BuildResult) int {
	n := 0
	for _, coord := range p.pipeline.Chunks.TakeDirty() {
		if p.SubmitJob(NewBuildJob(coord, results)) {
			n++
			continue
		}
		p.pipeline.Chunks.MarkDirty(coord)
	}
	return n
}

// worker is the worker goroutine that processes build jobs
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			p.gauge()
			result := p.pipeline.Build(p.ctx, job.Coord)
			result.JobID = job.ID
			if result.Err != nil {
				logging.LogWarn("worker %d: job %s chunk %v: %v", id, job.ID, job.Coord, result.Err)
			} else {
				logging.LogDebug("worker %d: job %s chunk %v built in %v", id, job.ID, job.Coord, result.Duration)
			}

			// Send result back
			select {
			case job.ResultChan <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) gauge() {
	if m := p.pipeline.Metrics; m != nil {
		m.QueueLength.Set(float64(len(p.jobQueue)))
	}
}

// Shutdown stops the workers and waits for them. Queued jobs are dropped.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// QueueLength returns the current number of jobs in the queue
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

// RegionResult summarizes a region build.
type RegionResult struct {
	Meshes map[world.ChunkCoord]*ChunkMesh
	Passes int
	Builds int
	Empty  int
}

// BuildRegion builds every coord with at most workers concurrent builds, then rebuilds the
// region's chunks whose neighbor borders changed until none are dirty or maxPasses passes
// have run. All buffers are generated before the first pass so neighbor ownership of seams
// is stable.
func (p *Pipeline) BuildRegion(ctx context.Context, coords []world.ChunkCoord, workers, maxPasses int) (*RegionResult, error) {
	defer profiling.Track("meshing.BuildRegion")()

	workers = max(workers, 1)
	maxPasses = max(maxPasses, 1)
	inRegion := make(map[world.ChunkCoord]bool, len(coords))
	for _, c := range coords {
		p.Chunks.GetOrGenerate(c)
		inRegion[c] = true
	}
	p.takeRegionDirty(inRegion)

	out := &RegionResult{Meshes: make(map[world.ChunkCoord]*ChunkMesh, len(coords))}
	pending := append([]world.ChunkCoord(nil), coords...)
	var mu sync.Mutex
	for out.Passes < maxPasses && len(pending) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, c := range pending {
			c := c
			g.Go(func() error {
				res := p.Build(gctx, c)
				if res.Err != nil {
					return fmt.Errorf("build chunk %v: %w", c, res.Err)
				}
				mu.Lock()
				defer mu.Unlock()
				out.Builds++
				if res.Mesh != nil {
					out.Meshes[c] = res.Mesh
				} else {
					delete(out.Meshes, c)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out.Passes++
		pending = p.takeRegionDirty(inRegion)
	}
	if len(pending) > 0 {
		logging.LogWarn("region build: %d chunks still dirty after %d passes", len(pending), out.Passes)
		for _, c := range pending {
			p.Chunks.MarkDirty(c)
		}
	}
	out.Empty = len(inRegion) - len(out.Meshes)
	return out, nil
}

// takeRegionDirty drains the dirty set, returning the coords inside the region and leaving
// the rest marked.
func (p *Pipeline) takeRegionDirty(inRegion map[world.ChunkCoord]bool) []world.ChunkCoord {
	var in []world.ChunkCoord
	for _, c := range p.Chunks.TakeDirty() {
		if inRegion[c] {
			in = append(in, c)
			continue
		}
		p.Chunks.MarkDirty(c)
	}
	return in
}
