package renderer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

func testCameraConfig(width, height int) CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(6.34194e10, 0, 1.2e10),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     WorldUp,
		Width:  width, Height: height, VFov: 60,
	}
}

func TestNewFrameRendererValidation(t *testing.T) {
	s := scene.NewDefaultScene()

	tests := []struct {
		name    string
		scene   *scene.Scene
		camera  CameraConfig
		config  Config
		wantErr bool
	}{
		{"valid", s, testCameraConfig(32, 16), DefaultConfig(), false},
		{"nil scene", nil, testCameraConfig(32, 16), DefaultConfig(), true},
		{"zero width", s, testCameraConfig(0, 16), DefaultConfig(), true},
		{"negative height", s, testCameraConfig(32, -1), DefaultConfig(), true},
		{"zero tile size", s, testCameraConfig(32, 16), Config{TileSize: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr, err := NewFrameRenderer(tt.scene, tt.camera, tt.config, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && fr == nil {
				t.Error("Expected a renderer on success")
			}
		})
	}
}

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		wantTiles     int
	}{
		{"exact fit", 64, 32, 16, 4 * 2},
		{"ragged edges", 100, 50, 16, 7 * 4},
		{"single tile", 10, 10, 16, 1},
		{"one pixel", 1, 1, 16, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize)
			if len(tiles) != tt.wantTiles {
				t.Errorf("Got %d tiles, want %d", len(tiles), tt.wantTiles)
			}

			// Every pixel covered exactly once
			covered := make([]int, tt.width*tt.height)
			for _, tile := range tiles {
				for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
					for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
						covered[y*tt.width+x]++
					}
				}
			}
			for i, n := range covered {
				if n != 1 {
					t.Fatalf("Pixel %d covered %d times", i, n)
				}
			}
		})
	}
}

func TestRenderFrameParallelMatchesSerial(t *testing.T) {
	fs := scene.FrameState{Jitter: core.Vec2{}, Blend: 0}

	render := func(workers int) []byte {
		s := scene.NewDefaultScene()
		config := DefaultConfig()
		config.NumWorkers = workers
		fr, err := NewFrameRenderer(s, testCameraConfig(32, 16), config, nil)
		if err != nil {
			t.Fatalf("NewFrameRenderer: %v", err)
		}
		defer fr.Stop()

		img, _, err := fr.RenderFrameState(fs)
		if err != nil {
			t.Fatalf("RenderFrameState: %v", err)
		}
		return img.Pix
	}

	serial := render(1)
	parallel := render(4)

	if !bytes.Equal(serial, parallel) {
		t.Error("Worker count must not affect pixel output")
	}
}

func TestRenderFrameCapturedCenter(t *testing.T) {
	// From the polar axis aimed straight down, every narrow-fov ray
	// plunges into the hole: the whole frame stays black
	s := &scene.Scene{Metric: geodesic.NewMetric(geodesic.SagARs)}
	camera := CameraConfig{
		Center: core.NewVec3(0, 0, 6.34194e10),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0), // world up is parallel to the view axis here
		Width:  3, Height: 3, VFov: 1,
	}
	fr, err := NewFrameRenderer(s, camera, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	defer fr.Stop()

	img, stats, err := fr.RenderFrameState(scene.FrameState{})
	if err != nil {
		t.Fatalf("RenderFrameState: %v", err)
	}

	if stats.CapturedRays != 9 {
		t.Errorf("CapturedRays = %d, want 9", stats.CapturedRays)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			t.Fatalf("Pixel %d not black: %v", i/4, img.Pix[i:i+3])
		}
		if img.Pix[i+3] != 255 {
			t.Fatalf("Pixel %d alpha = %d, want 255", i/4, img.Pix[i+3])
		}
	}
}

func TestRenderFrameDiskCrossing(t *testing.T) {
	// Looking straight down onto the band midpoint: the center ray crosses
	// the disk plane inside the annulus and must pick up color
	rs := geodesic.SagARs
	s := &scene.Scene{
		Metric: geodesic.NewMetric(rs),
		Disk:   scene.Disk{InnerR: 2.2 * rs, OuterR: 6 * rs, Num: 10, Thickness: 1e9},
	}
	mid := (s.Disk.InnerR + s.Disk.OuterR) / 2
	camera := CameraConfig{
		Center: core.NewVec3(mid, 0, 5e9),
		LookAt: core.NewVec3(mid, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		Width:  3, Height: 3, VFov: 1,
	}
	fr, err := NewFrameRenderer(s, camera, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	defer fr.Stop()

	img, _, err := fr.RenderFrameState(scene.FrameState{})
	if err != nil {
		t.Fatalf("RenderFrameState: %v", err)
	}

	r, g, b, _ := img.At(1, 1).RGBA()
	if r == 0 || g == 0 || b == 0 {
		t.Errorf("Center pixel should carry disk color, got (%d,%d,%d)", r, g, b)
	}
	// The disk hue is warm: more red than green, more green than blue
	if !(r > g && g > b) {
		t.Errorf("Expected a warm hue, got (%d,%d,%d)", r, g, b)
	}
}

func TestBlendRampWhileStill(t *testing.T) {
	s := scene.NewDefaultScene()
	config := DefaultConfig()
	config.MaxBlend = 0.7
	fr, err := NewFrameRenderer(s, testCameraConfig(16, 16), config, nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	fr.SetSampler(&core.FixedSampler{Value: core.NewVec2(0.5, 0.5)})

	// Still camera: blend ramps 1/2, 2/3, ... capped at MaxBlend
	wants := []float64{0.5, 2.0 / 3.0, 0.7, 0.7}
	for i, want := range wants {
		fs := fr.nextFrameState()
		if diff := fs.Blend - want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Frame %d blend = %v, want %v", i, fs.Blend, want)
		}
		if fs.Jitter != (core.Vec2{}) {
			t.Errorf("Centered sampler should give zero jitter, got %v", fs.Jitter)
		}
	}

	// A camera move resets accumulation
	cfg := testCameraConfig(16, 16)
	cfg.Moving = true
	fr.SetCamera(cfg)
	if fs := fr.nextFrameState(); fs.Blend != 0 {
		t.Errorf("Moving camera must reset blend to 0, got %v", fs.Blend)
	}

	// Standing still again restarts the ramp
	cfg.Moving = false
	fr.SetCamera(cfg)
	if fs := fr.nextFrameState(); fs.Blend != 0.5 {
		t.Errorf("First still frame after motion should blend 0.5, got %v", fs.Blend)
	}
}

func TestResizeDiscardsHistory(t *testing.T) {
	s := scene.NewDefaultScene()
	fr, err := NewFrameRenderer(s, testCameraConfig(16, 16), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	defer fr.Stop()

	fr.History().Set(1, 1, core.NewVec3(1, 1, 1))
	fr.Resize(24, 12)

	if fr.History().Width() != 24 || fr.History().Height() != 12 {
		t.Errorf("History dimensions = %dx%d, want 24x12", fr.History().Width(), fr.History().Height())
	}
	if fr.History().At(1, 1) != (core.Vec3{}) {
		t.Error("Resize must discard accumulated history")
	}

	img, _, err := fr.RenderFrameState(scene.FrameState{})
	if err != nil {
		t.Fatalf("RenderFrameState after resize: %v", err)
	}
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 12 {
		t.Errorf("Image dimensions = %v, want 24x12", img.Bounds())
	}
}

func TestRenderAfterGrowingResize(t *testing.T) {
	// Growing the image multiplies the tile count; the pool's channel
	// capacity must grow with it or the frame barrier starves
	s := &scene.Scene{Metric: geodesic.NewMetric(geodesic.SagARs)}
	camera := CameraConfig{
		Center: core.NewVec3(9.9e12, 0, 0),
		LookAt: core.NewVec3(2e13, 0, 0),
		Up:     WorldUp,
		Width:  16, Height: 16, VFov: 40,
	}
	fr, err := NewFrameRenderer(s, camera, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	defer fr.Stop()

	if _, _, err := fr.RenderFrameState(scene.FrameState{}); err != nil {
		t.Fatalf("Initial frame: %v", err)
	}

	fr.Resize(128, 128)

	img, stats, err := fr.RenderFrameState(scene.FrameState{})
	if err != nil {
		t.Fatalf("Frame after growing resize: %v", err)
	}
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 128 {
		t.Errorf("Image dimensions = %v, want 128x128", img.Bounds())
	}
	if stats.TotalPixels != 128*128 {
		t.Errorf("TotalPixels = %d, want %d", stats.TotalPixels, 128*128)
	}
}

func TestRenderFrameAfterAnimation(t *testing.T) {
	// Finishing an animation stops the pool; single-frame rendering on the
	// same renderer must start a fresh one instead of crashing
	s := scene.NewDefaultScene()
	fr, err := NewFrameRenderer(s, testCameraConfig(16, 8), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	defer fr.Stop()

	frameChan, errChan := fr.RenderAnimation(context.Background(), AnimationOptions{
		Frames:   1,
		TimeStep: 1.0,
		Orbit:    scene.DefaultOrbit(),
		VFov:     60,
	})
	for range frameChan {
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Animation error: %v", err)
	}

	img, stats, err := fr.RenderFrameState(scene.FrameState{})
	if err != nil {
		t.Fatalf("Frame after animation: %v", err)
	}
	if img == nil || stats.TotalPixels != 16*8 {
		t.Errorf("Expected a full frame, got %d pixels", stats.TotalPixels)
	}
}

func TestRenderAnimation(t *testing.T) {
	s := scene.NewDefaultScene()
	fr, err := NewFrameRenderer(s, testCameraConfig(16, 8), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}

	options := AnimationOptions{
		Frames:   3,
		TimeStep: 1.0,
		Orbit:    scene.DefaultOrbit(),
		VFov:     60,
	}
	frameChan, errChan := fr.RenderAnimation(context.Background(), options)

	var frames []FrameResult
	for result := range frameChan {
		frames = append(frames, result)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("Animation error: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("Got %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.FrameNumber != i+1 {
			t.Errorf("Frame %d numbered %d", i, f.FrameNumber)
		}
		if f.Image == nil {
			t.Errorf("Frame %d has no image", i)
		}
		if f.Stats.TotalPixels != 16*8 {
			t.Errorf("Frame %d stats cover %d pixels, want %d", i, f.Stats.TotalPixels, 16*8)
		}
	}
	if !frames[2].IsLast {
		t.Error("Final frame must be flagged IsLast")
	}
}

func TestRenderAnimationCancellation(t *testing.T) {
	s := scene.NewDefaultScene()
	fr, err := NewFrameRenderer(s, testCameraConfig(16, 8), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frameChan, errChan := fr.RenderAnimation(ctx, AnimationOptions{
		Frames:   0, // unbounded stream
		TimeStep: 1.0,
		Orbit:    scene.DefaultOrbit(),
		VFov:     60,
	})

	<-frameChan
	cancel()

	// Drain until the goroutine notices the cancellation
	for range frameChan {
	}

	select {
	case err := <-errChan:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Animation did not stop after cancellation")
	}
}
