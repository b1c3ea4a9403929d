package main

import (
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// Command-line flags controlling the live view. Render resolution is kept
// low by default; every pixel integrates up to 250 RK4 steps per frame.
var (
	sceneFlag      = flag.String("scene", "default", "scene to render ('default' or 'disk')")
	widthFlag      = flag.Int("width", 320, "render width in pixels")
	heightFlag     = flag.Int("height", 180, "render height in pixels")
	scaleFlag      = flag.Int("scale", 3, "window scale factor")
	vfovFlag       = flag.Float64("vfov", 60.0, "vertical field of view (degrees)")
	orbitSpeedFlag = flag.Float64("orbit-speed", 0.15, "camera orbit speed (rad/s)")
	workersFlag    = flag.Int("workers", 0, "parallel workers (0 = CPU count)")
	debugFlag      = flag.Bool("debug", false, "show TPS and ray statistics overlay")
)

// Game drives the renderer from the ebiten loop: advance the orbit, render
// one frame, upload the pixels.
//
// Keys: Space pauses the orbit (accumulation then ramps up and the image
// denoises), N advances one orbit step while paused, R resets the
// accumulation history.
type Game struct {
	fr       *renderer.FrameRenderer
	world    *scene.Scene
	orbit    scene.Orbit
	vfov     float64
	t        float64
	timeStep float64
	paused   bool
	frame    *image.RGBA
	stats    renderer.RenderStats
	width    int
	height   int
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.fr.History().Reset()
	}

	step := g.paused && inpututil.IsKeyJustPressed(ebiten.KeyN)
	moving := (!g.paused && g.orbit.Speed != 0) || step
	if moving {
		g.t += g.timeStep
		g.world.Animate(g.t)
	}

	g.fr.SetCamera(renderer.CameraConfig{
		Center: g.orbit.Position(g.t),
		LookAt: g.orbit.Target,
		Up:     renderer.WorldUp,
		VFov:   g.vfov,
		Moving: moving,
	})

	img, stats, err := g.fr.RenderFrame()
	if err != nil {
		return err
	}
	g.frame = img
	g.stats = stats
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame != nil {
		screen.WritePixels(g.frame.Pix)
	}
	if *debugFlag {
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"TPS %.1f | captured %d escaped %d | avg %.1f steps",
			ebiten.ActualTPS(), g.stats.CapturedRays, g.stats.EscapedRays, g.stats.AverageSteps))
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

func main() {
	flag.Parse()

	world := scene.NewDefaultScene()
	if *sceneFlag == "disk" {
		world.Objects = nil
	} else if *sceneFlag != "default" {
		log.Fatalf("unknown scene: %q", *sceneFlag)
	}

	orbit := scene.DefaultOrbit()
	orbit.Speed = *orbitSpeedFlag

	config := renderer.DefaultConfig()
	config.NumWorkers = *workersFlag

	fr, err := renderer.NewFrameRenderer(world, renderer.CameraConfig{
		Center: orbit.Position(0),
		LookAt: orbit.Target,
		Up:     renderer.WorldUp,
		Width:  *widthFlag,
		Height: *heightFlag,
		VFov:   *vfovFlag,
	}, config, renderer.NewDefaultLogger())
	if err != nil {
		log.Fatalf("failed to create renderer: %v", err)
	}
	defer fr.Stop()

	game := &Game{
		fr:       fr,
		world:    world,
		orbit:    orbit,
		vfov:     *vfovFlag,
		timeStep: 1.0 / 30.0,
		width:    *widthFlag,
		height:   *heightFlag,
	}

	ebiten.SetWindowSize(*widthFlag**scaleFlag, *heightFlag**scaleFlag)
	ebiten.SetWindowTitle("Black Hole")
	ebiten.SetTPS(30)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("viewer exited: %v", err)
	}
}
