package scene

// Fixed-layout records mirroring the GPU uniform-buffer ABI of the compute
// kernel. Field order and the explicit padding are part of the contract:
// mismatched alignment silently corrupts every derived quantity, so the
// layouts below are asserted by tests and must not be rearranged.
// Booleans travel as uint32, matching the 4-byte bool of shader languages.

// CameraUniforms is the per-frame camera block: position, an orthonormal
// basis, and the projection scalars
type CameraUniforms struct {
	Position [3]float32
	Pad0     float32
	Right    [3]float32
	Pad1     float32
	Up       [3]float32
	Pad2     float32
	Forward  [3]float32
	Pad3     float32

	TanHalfFov float32
	Aspect     float32
	Moving     uint32
	Pad4       int32
}

// DiskUniforms describes the accretion disk annulus
type DiskUniforms struct {
	R1        float32
	R2        float32
	Num       float32
	Thickness float32
}

// ObjectData is one orbiting body: center+radius packed as a 4-vector,
// an RGBA color, and a scalar mass
type ObjectData struct {
	PosRadius [4]float32
	Color     [4]float32
	Mass      float32
	Padding   [3]float32
}

// ObjectUniforms carries the number of valid ObjectData entries
type ObjectUniforms struct {
	NumObjects int32
}

// FrameUniforms is the per-frame jitter offset (pixel units) and the
// temporal blend factor
type FrameUniforms struct {
	Jitter      [2]float32
	BlendFactor float32
	Pad         float32
}

// Uniform converts the frame state to its wire layout
func (fs FrameState) Uniform() FrameUniforms {
	return FrameUniforms{
		Jitter:      [2]float32{float32(fs.Jitter.X), float32(fs.Jitter.Y)},
		BlendFactor: float32(fs.Blend),
	}
}

// Uniform converts the disk to its wire layout
func (d Disk) Uniform() DiskUniforms {
	return DiskUniforms{
		R1:        float32(d.InnerR),
		R2:        float32(d.OuterR),
		Num:       float32(d.Num),
		Thickness: float32(d.Thickness),
	}
}

// Uniform converts one body to its wire layout
func (o Object) Uniform() ObjectData {
	return ObjectData{
		PosRadius: [4]float32{
			float32(o.Center.X), float32(o.Center.Y), float32(o.Center.Z),
			float32(o.Radius),
		},
		Color: [4]float32{
			float32(o.Color.X), float32(o.Color.Y), float32(o.Color.Z),
			float32(o.Alpha),
		},
		Mass: float32(o.Mass),
	}
}

// ObjectBlock returns the per-body records plus their count header
func (s *Scene) ObjectBlock() ([]ObjectData, ObjectUniforms) {
	data := make([]ObjectData, len(s.Objects))
	for i, o := range s.Objects {
		data[i] = o.Uniform()
	}
	return data, ObjectUniforms{NumObjects: int32(len(s.Objects))}
}
