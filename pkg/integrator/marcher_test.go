package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// diskOnlyScene returns a scene with the standard accretion band and no
// orbiting bodies
func diskOnlyScene() *scene.Scene {
	rs := geodesic.SagARs
	return &scene.Scene{
		Metric: geodesic.NewMetric(rs),
		Disk:   scene.Disk{InnerR: 2.2 * rs, OuterR: 5.2 * rs, Num: 10, Thickness: 1e9},
	}
}

// emptyScene returns a scene with only the black hole
func emptyScene() *scene.Scene {
	return &scene.Scene{Metric: geodesic.NewMetric(geodesic.SagARs)}
}

func TestTraceImmediateCapture(t *testing.T) {
	m := NewMarcher(emptyScene())

	// Starting at the horizon terminates before any integration step
	state := geodesic.RayState{R: geodesic.SagARs, Theta: math.Pi / 2}
	color, res := m.Trace(state, 1.0)

	if res.Outcome != OutcomeCaptured {
		t.Errorf("Expected OutcomeCaptured, got %v", res.Outcome)
	}
	if res.Steps != 0 {
		t.Errorf("Expected 0 steps, got %d", res.Steps)
	}
	if res.Transmittance != 0 {
		t.Errorf("Captured ray must end with zero transmittance, got %v", res.Transmittance)
	}
	if color.Length() != 0 {
		t.Errorf("Captured ray through empty space must stay black, got %v", color)
	}
}

func TestTracePlungingRayCaptured(t *testing.T) {
	m := NewMarcher(emptyScene())

	state, e := m.scene.Metric.InitRay(core.NewVec3(6.34194e10, 0, 0), core.NewVec3(-1, 0, 0))
	color, res := m.Trace(state, e)

	if res.Outcome != OutcomeCaptured {
		t.Errorf("Radially infalling ray must be captured, got outcome %v", res.Outcome)
	}
	if res.Transmittance != 0 {
		t.Errorf("Expected zero transmittance, got %v", res.Transmittance)
	}
	if color.Length() != 0 {
		t.Errorf("Expected black, got %v", color)
	}
}

func TestTraceEscape(t *testing.T) {
	m := NewMarcher(emptyScene())

	// Start just inside the bounded region heading straight out
	state, e := m.scene.Metric.InitRay(core.NewVec3(9.9e12, 0, 0), core.NewVec3(1, 0, 0))
	color, res := m.Trace(state, e)

	if res.Outcome != OutcomeEscaped {
		t.Errorf("Expected OutcomeEscaped, got %v after %d steps", res.Outcome, res.Steps)
	}
	if res.Transmittance != 1 {
		t.Errorf("Escape must not consume transmittance, got %v", res.Transmittance)
	}
	if color.Length() != 0 {
		t.Errorf("Expected black, got %v", color)
	}
}

func TestTraceBudgetExhaustion(t *testing.T) {
	m := NewMarcher(emptyScene())

	// An outward ray starting deep inside the region cannot reach the
	// escape radius within the step budget
	state, e := m.scene.Metric.InitRay(core.NewVec3(6.34194e10, 0, 0), core.NewVec3(1, 0, 0))
	_, res := m.Trace(state, e)

	if res.Outcome != OutcomeBudget {
		t.Errorf("Expected OutcomeBudget, got %v", res.Outcome)
	}
	if res.Steps != geodesic.MaxSteps {
		t.Errorf("Expected %d steps, got %d", geodesic.MaxSteps, res.Steps)
	}
	if res.Transmittance != 1 {
		t.Errorf("Expected full transmittance, got %v", res.Transmittance)
	}
}

func TestTraceDiskCrossingInsideBand(t *testing.T) {
	// A wide band far from the hole keeps the geodesic nearly straight, so
	// the ray crosses the plane exactly once
	rs := geodesic.SagARs
	s := &scene.Scene{
		Metric: geodesic.NewMetric(rs),
		Disk:   scene.Disk{InnerR: 20 * rs, OuterR: 26 * rs, Num: 10, Thickness: 1e9},
	}
	m := NewMarcher(s)

	// Straight down through the band midpoint: the plane crossing must be
	// detected and shaded
	mid := (s.Disk.InnerR + s.Disk.OuterR) / 2
	state, e := s.Metric.InitRay(core.NewVec3(mid, 0, 1e9), core.NewVec3(0, 0, -1))
	color, res := m.Trace(state, e)

	if color.Luminance() <= 0 {
		t.Errorf("Crossing inside the band must pick up disk color, got %v", color)
	}
	if res.Transmittance >= 1 {
		t.Errorf("Disk crossing must reduce transmittance, got %v", res.Transmittance)
	}
	if res.Transmittance < 0.5 {
		t.Errorf("A single crossing removes at most alpha 0.4, got transmittance %v", res.Transmittance)
	}
}

func TestTraceDiskCrossingOutsideBand(t *testing.T) {
	s := diskOnlyScene()
	m := NewMarcher(s)

	// Crossing the plane beyond the outer radius contributes nothing
	state, e := s.Metric.InitRay(core.NewVec3(8*geodesic.SagARs, 0, 1e9), core.NewVec3(0, 0, -1))
	color, res := m.Trace(state, e)

	if color.Length() != 0 {
		t.Errorf("Crossing outside the band must stay black, got %v", color)
	}
	if res.Transmittance != 1 {
		t.Errorf("Expected untouched transmittance, got %v", res.Transmittance)
	}
}

func TestTraceObjectHit(t *testing.T) {
	s := emptyScene()
	s.Objects = []scene.Object{{
		Center: core.NewVec3(3e11, 2e10, 0),
		Radius: 8e10,
		Color:  core.NewVec3(1.0, 0.8, 0.0),
		Alpha:  1.0,
	}}
	m := NewMarcher(s)

	// Far from the hole the geodesic is nearly straight, so a ray aimed at
	// the body hits it well within the step budget
	state, e := s.Metric.InitRay(core.NewVec3(1e11, 2e10, 0), core.NewVec3(1, 0, 0))
	color, res := m.Trace(state, e)

	if res.Outcome != OutcomeOpaque {
		t.Errorf("Expected OutcomeOpaque, got %v after %d steps", res.Outcome, res.Steps)
	}
	if res.Transmittance != 0 {
		t.Errorf("Opaque hit must zero the transmittance, got %v", res.Transmittance)
	}
	// Transmittance was 1 at the hit, so the pixel gets the body color
	// exactly
	if color != s.Objects[0].Color {
		t.Errorf("Expected %v, got %v", s.Objects[0].Color, color)
	}
}

func TestTraceOverlappingObjectsFirstWins(t *testing.T) {
	s := emptyScene()
	center := core.NewVec3(1.03e11, 0, 0)
	s.Objects = []scene.Object{
		{Center: center, Radius: 1e10, Color: core.NewVec3(1, 0, 0), Alpha: 1},
		{Center: center, Radius: 1e10, Color: core.NewVec3(0, 0, 1), Alpha: 1},
	}
	m := NewMarcher(s)

	state, e := s.Metric.InitRay(core.NewVec3(1e11, 0, 0), core.NewVec3(1, 0, 0))
	color, res := m.Trace(state, e)

	if res.Outcome != OutcomeOpaque {
		t.Fatalf("Expected OutcomeOpaque, got %v", res.Outcome)
	}
	if color != s.Objects[0].Color {
		t.Errorf("First body in input order must win, got %v", color)
	}
}

func TestPlaneCrossing(t *testing.T) {
	tests := []struct {
		name         string
		prevZ, posZ  float64
		wantT        float64
		wantCrossing bool
	}{
		{"descending through plane", 1e9, -1e9, 0.5, true},
		{"ascending through plane", -1e9, 3e9, 0.25, true},
		{"landing exactly on plane", 1e9, 0, 1.0, true},
		{"ascending onto plane", -2e9, 0, 1.0, true},
		{"leaving the plane", 0, -1e9, 0, false},
		{"staying in the plane", 0, 0, 0, false},
		{"same side above", 1e9, 2e9, 0, false},
		{"same side below", -2e9, -1e9, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, crossed := planeCrossing(tt.prevZ, tt.posZ)
			if crossed != tt.wantCrossing {
				t.Fatalf("planeCrossing(%v, %v) crossed = %v, want %v", tt.prevZ, tt.posZ, crossed, tt.wantCrossing)
			}
			if crossed && math.Abs(gotT-tt.wantT) > 1e-12 {
				t.Errorf("planeCrossing(%v, %v) t = %v, want %v", tt.prevZ, tt.posZ, gotT, tt.wantT)
			}
		})
	}
}

func TestTraceObjectBehindDisk(t *testing.T) {
	s := diskOnlyScene()
	mid := (s.Disk.InnerR + s.Disk.OuterR) / 2
	s.Objects = []scene.Object{{
		Center: core.NewVec3(mid, 0, -4e9),
		Radius: 2e9,
		Color:  core.NewVec3(0, 1, 0),
		Alpha:  1,
	}}
	m := NewMarcher(s)

	// The ray crosses the disk first, then enters the body behind it; the
	// body contribution must be attenuated by the disk's opacity
	state, e := s.Metric.InitRay(core.NewVec3(mid, 0, 1e9), core.NewVec3(0, 0, -1))
	color, res := m.Trace(state, e)

	if res.Outcome != OutcomeOpaque {
		t.Fatalf("Expected OutcomeOpaque, got %v after %d steps", res.Outcome, res.Steps)
	}
	// Green comes only from the body, scaled by what the disk let through
	if color.Y >= 1 || color.Y <= 0.5 {
		t.Errorf("Body behind the disk should be attenuated (0.5 < g < 1), got %v", color.Y)
	}
	if color.X <= 0 {
		t.Errorf("Disk contribution missing from composite, got %v", color)
	}
	if res.Transmittance != 0 {
		t.Errorf("Expected zero transmittance, got %v", res.Transmittance)
	}
}
