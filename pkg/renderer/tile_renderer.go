package renderer

import (
	"image"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
	"github.com/df07/go-blackhole-raytracer/pkg/integrator"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// TileRenderer renders the pixels of one tile: per pixel it generates a
// camera ray, integrates the geodesic through the scene, and blends the
// result against the history buffer
type TileRenderer struct {
	marcher *integrator.Marcher
	metric  geodesic.Metric
}

// NewTileRenderer creates a tile renderer for the given scene
func NewTileRenderer(s *scene.Scene) *TileRenderer {
	return &TileRenderer{
		marcher: integrator.NewMarcher(s),
		metric:  s.Metric,
	}
}

// RenderBounds renders pixels within the specified bounds, writing the
// blended color to both the frame buffer and the history at the same
// coordinate. Task bounds never overlap, so the shared buffers are safe to
// write without locking.
func (tr *TileRenderer) RenderBounds(camera *Camera, bounds image.Rectangle, fs scene.FrameState, history *HistoryBuffer, frame []core.Vec3, frameWidth int) RenderStats {
	stats := newRenderStats()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ray := camera.GetRay(x, y, fs.Jitter)
			state, e := tr.metric.InitRay(ray.Origin, ray.Direction)
			color, res := tr.marcher.Trace(state, e)

			// Temporal accumulation: mix(new, history, blend)
			blended := color.Lerp(history.At(x, y), fs.Blend)
			history.Set(x, y, blended)
			frame[y*frameWidth+x] = blended

			stats.addRay(res)
		}
	}

	stats.finalize()
	return stats
}
