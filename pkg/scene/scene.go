package scene

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
)

// Disk is the flat annular accretion disk lying in the z=0 plane
type Disk struct {
	InnerR    float64 // inner band radius, must exceed the Schwarzschild radius
	OuterR    float64 // outer band radius
	Num       float64 // azimuthal pattern frequency
	Thickness float64 // part of the uniform contract, unused by intersection
}

// diskHue is the warm emission tint of the disk
var diskHue = core.NewVec3(1.0, 0.7, 0.4)

// Shade returns the emitted color and opacity of the disk at a plane
// crossing point, and whether the point lies inside the annulus. The
// intensity profile is triangular around the band midpoint, modulated by a
// sinusoidal azimuthal pattern and shaped through exp(-3|.|); it peaks at
// exactly 1 at the midpoint.
func (d Disk) Shade(p core.Vec3) (core.Vec3, float64, bool) {
	radius := math.Hypot(p.X, p.Y)
	if radius < d.InnerR || radius > d.OuterR {
		return core.Vec3{}, 0, false
	}

	t := (radius - d.InnerR) / (d.OuterR - d.InnerR)
	dist := math.Abs(2*t - 1) // 0 at the band midpoint, 1 at the edges
	dist *= 1 + 0.1*math.Sin(d.Num*math.Atan2(p.Y, p.X))
	intensity := math.Exp(-3 * math.Abs(dist))

	color := diskHue.Multiply(intensity * intensity)
	return color, 0.4 * intensity, true
}

// Object is one orbiting spherical body
type Object struct {
	Center core.Vec3
	Radius float64
	Color  core.Vec3
	Alpha  float64
	Mass   float64

	// Circular-orbit parameters consumed by Animate; a zero OrbitSpeed
	// leaves the body static at Center
	OrbitRadius float64
	OrbitSpeed  float64 // radians per second
	OrbitPhase  float64
	OrbitZ      float64
}

// Contains reports whether p lies inside or on the sphere surface
func (o Object) Contains(p core.Vec3) bool {
	return p.Subtract(o.Center).LengthSquared() <= o.Radius*o.Radius
}

// Scene contains everything a ray can interact with
type Scene struct {
	Metric  geodesic.Metric
	Disk    Disk
	Objects []Object
}

// NewDefaultScene creates the Sagittarius A* scene: the hole, a bright
// accretion band, and two bodies on circular orbits in the disk plane
func NewDefaultScene() *Scene {
	rs := geodesic.SagARs

	gold := Object{
		Radius:      8.0e10,
		Color:       core.NewVec3(1.0, 0.8, 0.0),
		Alpha:       1.0,
		Mass:        1.0,
		OrbitRadius: 4.0e11,
		OrbitSpeed:  0.05,
		OrbitZ:      2.0e10,
	}
	teal := Object{
		Radius:      5.0e10,
		Color:       core.NewVec3(0.3, 0.55, 1.0),
		Alpha:       1.0,
		Mass:        0.4,
		OrbitRadius: 6.5e11,
		OrbitSpeed:  0.024,
		OrbitPhase:  math.Pi * 0.75,
		OrbitZ:      -1.0e10,
	}

	s := &Scene{
		Metric: geodesic.NewMetric(rs),
		Disk: Disk{
			InnerR:    2.2 * rs,
			OuterR:    5.2 * rs,
			Num:       10.0,
			Thickness: 1.0e9,
		},
		Objects: []Object{gold, teal},
	}
	s.Animate(0)
	return s
}

// Animate places each orbiting body on its circular orbit at time t.
// Deterministic: the same t always yields the same positions.
func (s *Scene) Animate(t float64) {
	for i := range s.Objects {
		o := &s.Objects[i]
		if o.OrbitSpeed == 0 {
			continue
		}
		a := o.OrbitPhase + o.OrbitSpeed*t
		o.Center = core.NewVec3(o.OrbitRadius*math.Cos(a), o.OrbitRadius*math.Sin(a), o.OrbitZ)
	}
}

// FrameState is the per-frame input threaded into the render core:
// sub-pixel jitter in pixel units and the history blend factor in [0,1].
// Blend 0 keeps only the new frame, blend 1 keeps only the history.
type FrameState struct {
	Jitter core.Vec2
	Blend  float64
}
