package renderer

import (
	"image"
	"runtime"
	"sync"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// TileTask represents one tile of one frame for the worker pool
type TileTask struct {
	Bounds      image.Rectangle
	TaskID      int // for deterministic result ordering
	Camera      *Camera
	Frame       scene.FrameState
	History     *HistoryBuffer
	FrameBuffer []core.Vec3
	FrameWidth  int
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// WorkerPool manages parallel tile rendering. A stopped pool can be started
// again; Start allocates fresh channels sized for the current image
// dimensions, so Stop/Resize/Start cycles are safe.
type WorkerPool struct {
	scene         *scene.Scene
	width, height int
	numWorkers    int
	taskQueue     chan TileTask
	resultQueue   chan TileResult
	running       bool
	wg            sync.WaitGroup
}

// Worker renders tiles from the task queue
type Worker struct {
	ID          int
	tiles       *TileRenderer
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(s *scene.Scene, width, height, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		scene:      s,
		width:      width,
		height:     height,
		numWorkers: numWorkers,
	}
}

// Resize records new image dimensions for channel sizing, stopping the
// workers first; the next Start picks up the new capacity
func (wp *WorkerPool) Resize(width, height int) {
	wp.Stop()
	wp.width = width
	wp.height = height
}

// Start begins all workers. Channel buffers hold the worst-case tile count
// for the current dimensions, assuming 8x8 tiles, so a whole frame can be
// submitted before any result is drained.
func (wp *WorkerPool) Start() {
	if wp.running {
		return
	}

	maxTiles := ((wp.width + 7) / 8) * ((wp.height + 7) / 8)
	wp.taskQueue = make(chan TileTask, maxTiles)
	wp.resultQueue = make(chan TileResult, maxTiles)
	wp.running = true

	for i := 0; i < wp.numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			tiles:       NewTileRenderer(wp.scene),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers. The pool can be started again
// afterwards.
func (wp *WorkerPool) Stop() {
	if !wp.running {
		return
	}
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.running = false
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		// Tiles have non-overlapping bounds, so writing the shared
		// history and frame buffers is thread-safe
		stats := w.tiles.RenderBounds(task.Camera, task.Bounds, task.Frame, task.History, task.FrameBuffer, task.FrameWidth)

		w.resultQueue <- TileResult{
			TaskID: task.TaskID,
			Stats:  stats,
		}
	}
}
