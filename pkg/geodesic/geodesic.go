package geodesic

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// All lengths are in meters; the Schwarzschild radius of Sagittarius A*
// acts as the natural scale of the simulation.
const (
	// SagARs is the Schwarzschild radius of Sagittarius A*
	SagARs = 1.269e10

	// EscapeR bounds the integration region; a ray beyond this radius
	// has escaped to infinity
	EscapeR = 1.0e13

	// DLambda is the base affine-parameter step size
	DLambda = 2.0e8

	// MaxSteps caps the number of integration steps per ray
	MaxSteps = 250

	// HorizonFactor places capture slightly outside the event horizon,
	// before the metric factor 1-rs/r degenerates
	HorizonFactor = 1.01

	// minSinTheta floors |sin(theta)| to keep the polar terms finite
	minSinTheta = 1e-4
)

// RayState is the state of a null geodesic in spherical coordinates:
// position (r, theta, phi) and its derivatives with respect to the
// affine parameter. Created fresh per pixel per frame, never persisted.
type RayState struct {
	R, Theta, Phi    float64
	Dr, Dtheta, Dphi float64
}

// Derivatives is the right-hand side of the geodesic ODE system
type Derivatives struct {
	Dr, Dtheta, Dphi    float64
	Ddr, Ddtheta, Ddphi float64
}

// Metric holds the Schwarzschild parameters of the black hole
type Metric struct {
	Rs float64 // Schwarzschild radius
}

// NewMetric creates a Schwarzschild metric with the given radius
func NewMetric(rs float64) Metric {
	return Metric{Rs: rs}
}

// f returns the metric factor 1 - rs/r
func (m Metric) f(r float64) float64 {
	return 1.0 - m.Rs/r
}

// guardSin floors |sin(theta)| at minSinTheta so the polar-coordinate
// divisions stay finite on the axis
func guardSin(s float64) float64 {
	if s >= 0 {
		return math.Max(s, minSinTheta)
	}
	return math.Min(s, -minSinTheta)
}

// InitRay converts a Cartesian ray (unit direction from a camera) into an
// initial geodesic state plus the conserved energy constant E. Theta is the
// polar angle from the +z axis, phi the azimuth in the x-y plane.
func (m Metric) InitRay(origin, dir core.Vec3) (RayState, float64) {
	r := origin.Length()
	theta := math.Acos(max(-1.0, min(1.0, origin.Z/r)))
	phi := math.Atan2(origin.Y, origin.X)

	sinTheta := guardSin(math.Sin(theta))
	cosTheta := math.Cos(theta)
	sinPhi, cosPhi := math.Sincos(phi)

	// Project the Cartesian direction onto the local spherical basis
	dr := sinTheta*cosPhi*dir.X + sinTheta*sinPhi*dir.Y + cosTheta*dir.Z
	dtheta := (cosTheta*cosPhi*dir.X + cosTheta*sinPhi*dir.Y - sinTheta*dir.Z) / r
	dphi := (-sinPhi*dir.X + cosPhi*dir.Y) / (r * sinTheta)

	state := RayState{R: r, Theta: theta, Phi: phi, Dr: dr, Dtheta: dtheta, Dphi: dphi}
	return state, m.Energy(state)
}

// Energy computes the conserved energy constant from the null-geodesic
// condition. The radicand is clamped to zero so E is always defined.
func (m Metric) Energy(s RayState) float64 {
	f := m.f(s.R)
	sinTheta := guardSin(math.Sin(s.Theta))
	radicand := s.Dr*s.Dr/f + s.R*s.R*(s.Dtheta*s.Dtheta+sinTheta*sinTheta*s.Dphi*s.Dphi)
	return f * math.Sqrt(math.Max(0, radicand))
}

// Eval computes the instantaneous rate of change of a geodesic state under
// the Schwarzschild metric. Pure: the input state is not modified.
func (m Metric) Eval(s RayState, e float64) Derivatives {
	r := s.R
	f := m.f(r)
	sinTheta := guardSin(math.Sin(s.Theta))
	cosTheta := math.Cos(s.Theta)

	// Time dilation along the ray, dt/dlambda = E/f
	dt := e / f

	d := Derivatives{
		Dr:     s.Dr,
		Dtheta: s.Dtheta,
		Dphi:   s.Dphi,
	}

	// Second-order geodesic equations: the Schwarzschild connection terms
	d.Ddr = -(m.Rs/(2*r*r))*f*dt*dt +
		(m.Rs/(2*r*r*f))*s.Dr*s.Dr +
		(r-m.Rs)*(s.Dtheta*s.Dtheta+sinTheta*sinTheta*s.Dphi*s.Dphi)
	d.Ddtheta = -2.0*s.Dr*s.Dtheta/r + sinTheta*cosTheta*s.Dphi*s.Dphi
	d.Ddphi = -2.0*s.Dr*s.Dphi/r - 2.0*(cosTheta/sinTheta)*s.Dtheta*s.Dphi

	return d
}

// advanced returns the state moved along the given derivatives by dt
func (s RayState) advanced(d Derivatives, dt float64) RayState {
	return RayState{
		R:      s.R + d.Dr*dt,
		Theta:  s.Theta + d.Dtheta*dt,
		Phi:    s.Phi + d.Dphi*dt,
		Dr:     s.Dr + d.Ddr*dt,
		Dtheta: s.Dtheta + d.Ddtheta*dt,
		Dphi:   s.Dphi + d.Ddphi*dt,
	}
}

// Step advances the state in place by one classical RK4 step of size h,
// combining four slope samples with weights (1,2,2,1)*h/6
func (m Metric) Step(s *RayState, e, h float64) {
	k1 := m.Eval(*s, e)
	k2 := m.Eval(s.advanced(k1, h/2), e)
	k3 := m.Eval(s.advanced(k2, h/2), e)
	k4 := m.Eval(s.advanced(k3, h), e)

	w := h / 6.0
	s.R += w * (k1.Dr + 2*k2.Dr + 2*k3.Dr + k4.Dr)
	s.Theta += w * (k1.Dtheta + 2*k2.Dtheta + 2*k3.Dtheta + k4.Dtheta)
	s.Phi += w * (k1.Dphi + 2*k2.Dphi + 2*k3.Dphi + k4.Dphi)
	s.Dr += w * (k1.Ddr + 2*k2.Ddr + 2*k3.Ddr + k4.Ddr)
	s.Dtheta += w * (k1.Ddtheta + 2*k2.Ddtheta + 2*k3.Ddtheta + k4.Ddtheta)
	s.Dphi += w * (k1.Ddphi + 2*k2.Ddphi + 2*k3.Ddphi + k4.Ddphi)
}

// StepSize scales the base step by distance from the horizon: smaller near
// the hole for stability, larger far away for throughput
func (m Metric) StepSize(r float64) float64 {
	return DLambda * max(0.1, min(8.0, (r-m.Rs)/m.Rs))
}

// Captured reports whether the ray has fallen to the capture radius just
// outside the event horizon
func (m Metric) Captured(r float64) bool {
	return r <= m.Rs*HorizonFactor
}

// Escaped reports whether the ray has left the bounded integration region
func Escaped(r float64) bool {
	return r > EscapeR
}

// Cartesian converts the spherical position to Cartesian coordinates with
// z as the vertical axis, applying the same sin(theta) floor as the
// velocity conversions
func (s RayState) Cartesian() core.Vec3 {
	sinTheta := guardSin(math.Sin(s.Theta))
	return core.NewVec3(
		s.R*sinTheta*math.Cos(s.Phi),
		s.R*sinTheta*math.Sin(s.Phi),
		s.R*math.Cos(s.Theta),
	)
}
