package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

func main() {
	sceneType := flag.String("scene", "default", "Scene type: 'default' or 'disk'")
	width := flag.Int("width", 800, "Output width in pixels")
	height := flag.Int("height", 450, "Output height in pixels")
	frames := flag.Int("frames", 24, "Number of animation frames to render")
	vfov := flag.Float64("vfov", 60.0, "Vertical field of view in degrees")
	timeStep := flag.Float64("timestep", 1.0, "Seconds of scene time per frame")
	workers := flag.Int("workers", 0, "Number of parallel workers (0 = CPU count)")
	outputDir := flag.String("output", "output", "Output directory for rendered frames")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Black Hole Raytracer")
		fmt.Println("Usage: blackhole [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		fmt.Println("  default - accretion disk plus two orbiting bodies")
		fmt.Println("  disk    - accretion disk only")
		fmt.Println()
		fmt.Println("Frames are saved to <output>/<scene>/frame_NNNN.png")
		return
	}

	sceneObj, err := createScene(*sceneType)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	dir := filepath.Join(*outputDir, *sceneType)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	orbit := scene.DefaultOrbit()
	config := renderer.DefaultConfig()
	config.NumWorkers = *workers

	cameraConfig := renderer.CameraConfig{
		Center: orbit.Position(0),
		LookAt: orbit.Target,
		Up:     renderer.WorldUp,
		Width:  *width,
		Height: *height,
		VFov:   *vfov,
	}

	fr, err := renderer.NewFrameRenderer(sceneObj, cameraConfig, config, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error creating renderer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d frames at %dx%d with %d workers...\n",
		*frames, *width, *height, fr.NumWorkers())

	frameChan, errChan := fr.RenderAnimation(context.Background(), renderer.AnimationOptions{
		Frames:   *frames,
		TimeStep: *timeStep,
		Orbit:    orbit,
		VFov:     *vfov,
	})

	for result := range frameChan {
		filename := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", result.FrameNumber))
		if err := savePNG(filename, result); err != nil {
			fmt.Printf("Error saving frame: %v\n", err)
			os.Exit(1)
		}
	}
	if err := <-errChan; err != nil {
		fmt.Printf("Render error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Frames saved to %s\n", dir)
}

// createScene builds a scene by name
func createScene(sceneType string) (*scene.Scene, error) {
	switch sceneType {
	case "default":
		return scene.NewDefaultScene(), nil
	case "disk":
		s := scene.NewDefaultScene()
		s.Objects = nil
		return s, nil
	default:
		return nil, fmt.Errorf("unknown scene type: %q", sceneType)
	}
}

func savePNG(filename string, result renderer.FrameResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, result.Image)
}
