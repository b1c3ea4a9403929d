package scene

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
)

// Orbit drives the camera around the hole on a fixed-radius circular path.
// It is a pure function of time, so replaying the same instants reproduces
// the same camera track exactly.
type Orbit struct {
	Target    core.Vec3 // what the camera looks at
	Radius    float64   // orbit radius in the x-y plane
	Elevation float64   // z offset above the disk plane
	Speed     float64   // radians per second
	Phase     float64   // starting azimuth
}

// DefaultOrbit returns the stock camera track: a slow revolution slightly
// above the disk plane, close enough that lensing fills the frame
func DefaultOrbit() Orbit {
	return Orbit{
		Target:    core.NewVec3(0, 0, 0),
		Radius:    6.34194e10,
		Elevation: 1.2e10,
		Speed:     0.15,
	}
}

// Position returns the camera position at time t
func (o Orbit) Position(t float64) core.Vec3 {
	a := o.Phase + o.Speed*t
	p := core.NewVec3(o.Radius*math.Cos(a), o.Radius*math.Sin(a), o.Elevation)
	return p.Add(o.Target)
}
