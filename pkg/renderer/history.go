package renderer

import "github.com/df07/go-blackhole-raytracer/pkg/core"

// HistoryBuffer holds one color per pixel, persisted across frames for
// temporal accumulation. Within a frame exactly one task reads and writes
// each cell, so access needs no locking; frames are sequenced by the
// renderer's dispatch barrier.
type HistoryBuffer struct {
	width, height int
	pixels        []core.Vec3
}

// NewHistoryBuffer creates a zeroed history of the given dimensions
func NewHistoryBuffer(width, height int) *HistoryBuffer {
	return &HistoryBuffer{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Width returns the buffer width in pixels
func (h *HistoryBuffer) Width() int { return h.width }

// Height returns the buffer height in pixels
func (h *HistoryBuffer) Height() int { return h.height }

// At returns the stored color at (x, y)
func (h *HistoryBuffer) At(x, y int) core.Vec3 {
	return h.pixels[y*h.width+x]
}

// Set stores a color at (x, y)
func (h *HistoryBuffer) Set(x, y int, c core.Vec3) {
	h.pixels[y*h.width+x] = c
}

// Resize reallocates the buffer when dimensions change. The old history is
// discarded, not rescaled.
func (h *HistoryBuffer) Resize(width, height int) {
	if width == h.width && height == h.height {
		return
	}
	h.width = width
	h.height = height
	h.pixels = make([]core.Vec3, width*height)
}

// Reset clears all cells to black
func (h *HistoryBuffer) Reset() {
	clear(h.pixels)
}
