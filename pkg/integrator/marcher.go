package integrator

import (
	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// Outcome classifies how a ray's integration ended
type Outcome int

const (
	OutcomeCaptured Outcome = iota // fell to the horizon, fully absorbed
	OutcomeEscaped                 // left the bounded region
	OutcomeOpaque                  // transmittance dropped below the cutoff
	OutcomeBudget                  // exhausted the step budget
)

// opacityCutoff treats a nearly opaque ray as fully opaque to avoid
// wasted integration steps
const opacityCutoff = 0.01

// TraceResult describes a single ray's integration
type TraceResult struct {
	Outcome       Outcome
	Steps         int
	Transmittance float64 // remaining at termination
}

// Marcher integrates null geodesics through the scene, accumulating color
// from the accretion disk and any orbiting bodies along the way
type Marcher struct {
	scene *scene.Scene
}

// NewMarcher creates a marcher for the given scene
func NewMarcher(s *scene.Scene) *Marcher {
	return &Marcher{scene: s}
}

// Trace marches one ray from its initial state to termination, returning
// the accumulated color and how the ray ended.
//
// Per step: terminate on horizon capture or escape, advance by an RK4 step
// sized by distance from the horizon, then test the segment against the
// disk plane and every body. Bodies are tested in input order with
// first-hit-wins semantics within a step; this is a deliberate
// simplification, not depth sorting, and overlapping bodies on the same
// step resolve by that order.
func (m *Marcher) Trace(state geodesic.RayState, e float64) (core.Vec3, TraceResult) {
	metric := m.scene.Metric

	var accum core.Vec3
	transmittance := 1.0
	prev := state.Cartesian()
	res := TraceResult{Outcome: OutcomeBudget}

	for i := 0; i < geodesic.MaxSteps; i++ {
		if metric.Captured(state.R) {
			transmittance = 0
			res.Outcome = OutcomeCaptured
			break
		}
		if geodesic.Escaped(state.R) {
			res.Outcome = OutcomeEscaped
			break
		}

		metric.Step(&state, e, metric.StepSize(state.R))
		pos := state.Cartesian()
		res.Steps++

		// Disk: shade at the interpolated point where the segment crossed
		// the disk plane
		if t, crossed := planeCrossing(prev.Z, pos.Z); crossed {
			cross := prev.Lerp(pos, t)
			if color, alpha, ok := m.scene.Disk.Shade(cross); ok {
				accum = accum.Add(color.Multiply(alpha * transmittance))
				transmittance *= 1 - alpha
			}
		}

		// Bodies: boundary-inclusive sphere containment at the new position
		for j := range m.scene.Objects {
			if m.scene.Objects[j].Contains(pos) {
				accum = accum.Add(m.scene.Objects[j].Color.Multiply(transmittance))
				transmittance = 0
				break
			}
		}

		if transmittance <= opacityCutoff {
			res.Outcome = OutcomeOpaque
			break
		}
		prev = pos
	}

	res.Transmittance = transmittance
	return accum, res
}

// planeCrossing reports whether a segment from z = prevZ to z = posZ crossed
// the disk plane, and the interpolation parameter of the crossing point.
// A segment ending exactly on the plane counts as a crossing; one starting
// on it does not, so a ray sampled exactly at z = 0 is shaded once, not
// twice or never.
func planeCrossing(prevZ, posZ float64) (float64, bool) {
	if prevZ*posZ < 0 || (posZ == 0 && prevZ != 0) {
		return prevZ / (prevZ - posZ), true
	}
	return 0, false
}
