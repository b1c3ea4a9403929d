package renderer

import (
	"github.com/df07/go-blackhole-raytracer/pkg/geodesic"
	"github.com/df07/go-blackhole-raytracer/pkg/integrator"
)

// RenderStats aggregates per-ray outcomes for a rendered region
type RenderStats struct {
	TotalPixels  int     // number of rays traced
	CapturedRays int     // absorbed by the horizon
	EscapedRays  int     // left the bounded region
	OpaqueRays   int     // terminated by opacity saturation
	BudgetRays   int     // exhausted the step cap
	TotalSteps   int     // integration steps across all rays
	AverageSteps float64 // steps per ray
	MaxStepsUsed int     // most steps taken by any ray
	MinSteps     int     // fewest steps taken by any ray
}

// newRenderStats initializes statistics tracking for a region
func newRenderStats() RenderStats {
	return RenderStats{MinSteps: geodesic.MaxSteps}
}

// addRay folds one ray's trace result into the statistics
func (rs *RenderStats) addRay(res integrator.TraceResult) {
	rs.TotalPixels++
	rs.TotalSteps += res.Steps
	rs.MinSteps = min(rs.MinSteps, res.Steps)
	rs.MaxStepsUsed = max(rs.MaxStepsUsed, res.Steps)

	switch res.Outcome {
	case integrator.OutcomeCaptured:
		rs.CapturedRays++
	case integrator.OutcomeEscaped:
		rs.EscapedRays++
	case integrator.OutcomeOpaque:
		rs.OpaqueRays++
	case integrator.OutcomeBudget:
		rs.BudgetRays++
	}
}

// merge folds another region's statistics into this one
func (rs *RenderStats) merge(other RenderStats) {
	rs.TotalPixels += other.TotalPixels
	rs.CapturedRays += other.CapturedRays
	rs.EscapedRays += other.EscapedRays
	rs.OpaqueRays += other.OpaqueRays
	rs.BudgetRays += other.BudgetRays
	rs.TotalSteps += other.TotalSteps
	rs.MinSteps = min(rs.MinSteps, other.MinSteps)
	rs.MaxStepsUsed = max(rs.MaxStepsUsed, other.MaxStepsUsed)
}

// finalize computes the derived averages once a region is complete
func (rs *RenderStats) finalize() {
	if rs.TotalPixels > 0 {
		rs.AverageSteps = float64(rs.TotalSteps) / float64(rs.TotalPixels)
	}
}
