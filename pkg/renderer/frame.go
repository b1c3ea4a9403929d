package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Config contains configuration for frame rendering
type Config struct {
	TileSize   int     // tile edge in pixels; 16 matches the dispatch group size
	NumWorkers int     // number of parallel workers (0 = use CPU count)
	MaxBlend   float64 // ceiling on history weight while the camera is still
	Seed       int64   // seed for the per-frame jitter sampler
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:   16,
		NumWorkers: 0,
		MaxBlend:   0.92,
		Seed:       42, // deterministic jitter for reproducible runs
	}
}

// FrameRenderer owns the persistent history buffer and renders complete
// frames by dispatching tiles across a worker pool. Frames are strictly
// sequenced: every write of frame N completes before frame N+1 begins, which
// is the only cross-frame ordering the history buffer needs.
type FrameRenderer struct {
	scene         *scene.Scene
	camera        *Camera
	width, height int
	config        Config
	tiles         []Tile
	history       *HistoryBuffer
	frame         []core.Vec3
	pool          *WorkerPool
	sampler       core.Sampler
	logger        core.Logger
	started       bool
	stillFrames   int
}

// NewFrameRenderer creates a frame renderer. Invalid dimensions or a
// missing scene are construction failures, surfaced here rather than
// mid-frame.
func NewFrameRenderer(s *scene.Scene, cameraConfig CameraConfig, config Config, logger core.Logger) (*FrameRenderer, error) {
	if s == nil {
		return nil, fmt.Errorf("frame renderer requires a scene")
	}
	width, height := cameraConfig.Width, cameraConfig.Height
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output dimensions %dx%d", width, height)
	}
	if config.TileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", config.TileSize)
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &FrameRenderer{
		scene:   s,
		camera:  NewCamera(cameraConfig),
		width:   width,
		height:  height,
		config:  config,
		tiles:   NewTileGrid(width, height, config.TileSize),
		history: NewHistoryBuffer(width, height),
		frame:   make([]core.Vec3, width*height),
		pool:    NewWorkerPool(s, width, height, config.NumWorkers),
		sampler: core.NewRandomSampler(rand.New(rand.NewSource(config.Seed))),
		logger:  logger,
	}, nil
}

// SetSampler replaces the jitter source, e.g. with a deterministic one
func (fr *FrameRenderer) SetSampler(sampler core.Sampler) {
	fr.sampler = sampler
}

// SetCamera replaces the camera for subsequent frames
func (fr *FrameRenderer) SetCamera(config CameraConfig) {
	config.Width, config.Height = fr.width, fr.height
	fr.camera = NewCamera(config)
}

// History exposes the persistent accumulation buffer
func (fr *FrameRenderer) History() *HistoryBuffer {
	return fr.history
}

// Camera returns the current camera
func (fr *FrameRenderer) Camera() *Camera {
	return fr.camera
}

// NumWorkers returns the size of the worker pool
func (fr *FrameRenderer) NumWorkers() int {
	return fr.pool.GetNumWorkers()
}

// Resize reallocates the frame and history buffers for new dimensions.
// The old history is discarded; accumulation restarts from the next frame.
// The worker pool is resized along with the buffers so its channel capacity
// always covers a full frame of tiles.
func (fr *FrameRenderer) Resize(width, height int) {
	if width == fr.width && height == fr.height {
		return
	}
	fr.Stop()
	fr.pool.Resize(width, height)
	fr.width, fr.height = width, height
	fr.tiles = NewTileGrid(width, height, fr.config.TileSize)
	fr.history.Resize(width, height)
	fr.frame = make([]core.Vec3, width*height)
	fr.stillFrames = 0

	cfg := fr.camera.config
	cfg.Width, cfg.Height = width, height
	fr.camera = NewCamera(cfg)
}

// Stop shuts down the worker pool. The renderer stays usable: the next
// rendered frame starts a fresh pool.
func (fr *FrameRenderer) Stop() {
	if fr.started {
		fr.pool.Stop()
		fr.started = false
	}
}

// nextFrameState derives the per-frame jitter from the sampler and the
// blend factor from how long the camera has been still. A moving camera
// resets accumulation; a still one ramps the history weight toward
// MaxBlend.
func (fr *FrameRenderer) nextFrameState() scene.FrameState {
	j := fr.sampler.Get2D()
	fs := scene.FrameState{Jitter: core.NewVec2(j.X-0.5, j.Y-0.5)}

	if fr.camera.Moving() {
		fr.stillFrames = 0
	} else {
		fr.stillFrames++
	}
	if fr.stillFrames > 0 {
		fs.Blend = min(fr.config.MaxBlend, 1.0-1.0/float64(fr.stillFrames+1))
	}
	return fs
}

// RenderFrame renders one frame with sampler-derived jitter and blend
func (fr *FrameRenderer) RenderFrame() (*image.RGBA, RenderStats, error) {
	return fr.RenderFrameState(fr.nextFrameState())
}

// RenderFrameState renders one frame with an explicit frame state, so
// callers (and tests) can pin exact jitter and blend values
func (fr *FrameRenderer) RenderFrameState(fs scene.FrameState) (*image.RGBA, RenderStats, error) {
	if !fr.started {
		fr.pool.Start()
		fr.started = true
	}

	for id, tile := range fr.tiles {
		fr.pool.SubmitTask(TileTask{
			Bounds:      tile.Bounds,
			TaskID:      id,
			Camera:      fr.camera,
			Frame:       fs,
			History:     fr.history,
			FrameBuffer: fr.frame,
			FrameWidth:  fr.width,
		})
	}

	// The collection loop is the frame barrier: no frame N+1 task is
	// submitted until every frame N tile has reported back
	totals := newRenderStats()
	for range fr.tiles {
		result, ok := fr.pool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			return nil, RenderStats{}, result.Error
		}
		totals.merge(result.Stats)
	}
	totals.finalize()

	return fr.assembleImage(), totals, nil
}

// assembleImage converts the linear frame buffer to a display image
func (fr *FrameRenderer) assembleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fr.width, fr.height))
	for y := 0; y < fr.height; y++ {
		for x := 0; x < fr.width; x++ {
			img.SetRGBA(x, y, vec3ToColor(fr.frame[y*fr.width+x]))
		}
	}
	return img
}

// vec3ToColor converts a linear color to RGBA with gamma correction and
// clamping; the display alpha is always 1
func vec3ToColor(c core.Vec3) color.RGBA {
	c = c.GammaCorrect(2.0).Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255 * c.X),
		G: uint8(255 * c.Y),
		B: uint8(255 * c.Z),
		A: 255,
	}
}

// FrameResult contains the result of a single animation frame
type FrameResult struct {
	FrameNumber int
	Image       *image.RGBA
	Stats       RenderStats
	IsLast      bool
}

// AnimationOptions configures the orbit animation driver
type AnimationOptions struct {
	Frames   int         // total frames to render; <= 0 streams until cancelled
	TimeStep float64     // seconds of scene time per frame
	Orbit    scene.Orbit // camera track
	VFov     float64     // vertical field of view in degrees
}

// RenderAnimation renders an orbit animation with channel-based
// communication. The caller reads frames from the returned channel; the
// error channel reports at most one failure. Cancelling the context
// abandons the run between frames, never mid-frame.
func (fr *FrameRenderer) RenderAnimation(ctx context.Context, options AnimationOptions) (<-chan FrameResult, <-chan error) {
	frameChan := make(chan FrameResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(frameChan)
		defer close(errChan)
		defer fr.Stop()

		moving := options.Orbit.Speed != 0

		for n := 0; options.Frames <= 0 || n < options.Frames; n++ {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			default:
			}

			t := float64(n) * options.TimeStep
			fr.scene.Animate(t)
			fr.SetCamera(CameraConfig{
				Center: options.Orbit.Position(t),
				LookAt: options.Orbit.Target,
				Up:     WorldUp,
				VFov:   options.VFov,
				Moving: moving,
			})

			startTime := time.Now()
			img, stats, err := fr.RenderFrame()
			if err != nil {
				errChan <- err
				return
			}
			fr.logger.Printf("Frame %d rendered in %v (captured %d, escaped %d, avg %.1f steps)\n",
				n+1, time.Since(startTime), stats.CapturedRays, stats.EscapedRays, stats.AverageSteps)

			result := FrameResult{
				FrameNumber: n + 1,
				Image:       img,
				Stats:       stats,
				IsLast:      options.Frames > 0 && n == options.Frames-1,
			}
			select {
			case frameChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return frameChan, errChan
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // unique tile identifier
	Bounds image.Rectangle // pixel bounds (x0,y0,x1,y1)
}

// NewTileGrid creates a grid of tiles covering the entire image,
// ceil(width/tileSize) x ceil(height/tileSize) groups like a compute
// dispatch
func NewTileGrid(width, height, tileSize int) []Tile {
	var tiles []Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width)
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}
