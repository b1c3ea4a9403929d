package renderer

import (
	"math"

	"github.com/df07/go-blackhole-raytracer/pkg/core"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// WorldUp is the vertical axis of the simulation; the disk lies in the
// plane perpendicular to it
var WorldUp = core.NewVec3(0, 0, 1)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center core.Vec3 // camera position
	LookAt core.Vec3 // point the camera faces
	Up     core.Vec3 // world up hint, must not be parallel to the view axis
	Width  int       // output width in pixels
	Height int       // output height in pixels
	VFov   float64   // vertical field of view in degrees
	Moving bool      // whether the camera changed since the last frame
}

// Camera generates primary rays from pixel coordinates. Its basis vectors
// are unit length and mutually orthogonal; forward points from the camera
// toward the target.
type Camera struct {
	config     CameraConfig
	right      core.Vec3
	up         core.Vec3
	forward    core.Vec3
	tanHalfFov float64
	aspect     float64
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	right := forward.Cross(config.Up).Normalize()
	up := right.Cross(forward)

	return &Camera{
		config:     config,
		right:      right,
		up:         up,
		forward:    forward,
		tanHalfFov: math.Tan(config.VFov * math.Pi / 360.0),
		aspect:     float64(config.Width) / float64(config.Height),
	}
}

// GetRay generates the world-space ray through pixel (x, y). Jitter is a
// sub-pixel offset in pixel units around the pixel center.
func (c *Camera) GetRay(x, y int, jitter core.Vec2) core.Ray {
	u := (float64(x) + 0.5 + jitter.X) / float64(c.config.Width)
	v := (float64(y) + 0.5 + jitter.Y) / float64(c.config.Height)

	ndcX := (2*u - 1) * c.aspect * c.tanHalfFov
	ndcY := (1 - 2*v) * c.tanHalfFov

	dir := c.forward.
		Add(c.right.Multiply(ndcX)).
		Add(c.up.Multiply(ndcY)).
		Normalize()

	return core.NewRay(c.config.Center, dir)
}

// Moving reports whether the camera changed since the last frame
func (c *Camera) Moving() bool {
	return c.config.Moving
}

// Forward returns the camera's view direction
func (c *Camera) Forward() core.Vec3 {
	return c.forward
}

// Uniforms returns the camera's fixed-layout uniform record
func (c *Camera) Uniforms() scene.CameraUniforms {
	moving := uint32(0)
	if c.config.Moving {
		moving = 1
	}
	return scene.CameraUniforms{
		Position:   vec3ToF32(c.config.Center),
		Right:      vec3ToF32(c.right),
		Up:         vec3ToF32(c.up),
		Forward:    vec3ToF32(c.forward),
		TanHalfFov: float32(c.tanHalfFov),
		Aspect:     float32(c.aspect),
		Moving:     moving,
	}
}

func vec3ToF32(v core.Vec3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
