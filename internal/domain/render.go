package domain

import (
	"fmt"
	"math"
	"time"
)

// Default render configuration values, matching the tuning the engine was
// validated with.
const (
	DefaultPower   = 2.0
	DefaultOpacity = 1.0
	DefaultRows    = 200
	DefaultCols    = 200

	// MaxPower bounds the IDW exponent. Beyond this, dist^power underflows
	// to zero for sub-degree distances and the weighted sum degrades to
	// Inf/Inf.
	MaxPower = 32.0
)

// RenderConfig carries the per-batch rendering knobs. The zero value is not
// meaningful; construct via Normalize-d API payloads or DefaultRenderConfig.
type RenderConfig struct {
	// Bandwidth is the Gaussian post-filter standard deviation in grid-cell
	// units. Zero or negative disables smoothing.
	Bandwidth float64 `json:"bandwidth"`

	// Opacity multiplies the alpha channel uniformly, in [0,1]. It never
	// affects RGB values. Nil means unset and takes the default; an
	// explicit zero renders fully transparent.
	Opacity *float64 `json:"opacity"`

	// Power is the IDW exponent. Larger values localize station influence.
	Power float64 `json:"power"`

	// Rows and Cols fix the raster resolution for the session.
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// DefaultRenderConfig returns the standard configuration.
func DefaultRenderConfig() RenderConfig {
	opacity := DefaultOpacity
	return RenderConfig{
		Bandwidth: 0,
		Opacity:   &opacity,
		Power:     DefaultPower,
		Rows:      DefaultRows,
		Cols:      DefaultCols,
	}
}

// OpacityValue returns the effective opacity, defaulting when unset.
func (rc RenderConfig) OpacityValue() float64 {
	if rc.Opacity == nil {
		return DefaultOpacity
	}
	return *rc.Opacity
}

// Validate applies defaults to unset fields and rejects out-of-range values.
func (rc *RenderConfig) Validate(maxResolution int) error {
	if rc.Power == 0 {
		rc.Power = DefaultPower
	}
	if rc.Power < 0 {
		return fmt.Errorf("power must be positive, got %g", rc.Power)
	}
	if rc.Power > MaxPower {
		return fmt.Errorf("power %g exceeds maximum %g", rc.Power, MaxPower)
	}
	if rc.Opacity == nil {
		opacity := DefaultOpacity
		rc.Opacity = &opacity
	}
	if *rc.Opacity < 0 || *rc.Opacity > 1 {
		return fmt.Errorf("opacity must be in [0,1], got %g", *rc.Opacity)
	}
	if rc.Rows == 0 {
		rc.Rows = DefaultRows
	}
	if rc.Cols == 0 {
		rc.Cols = DefaultCols
	}
	if rc.Rows < 2 || rc.Cols < 2 {
		return fmt.Errorf("grid resolution must be at least 2x2, got %dx%d", rc.Rows, rc.Cols)
	}
	if rc.Rows > maxResolution || rc.Cols > maxResolution {
		return fmt.Errorf("grid resolution %dx%d exceeds maximum %d", rc.Rows, rc.Cols, maxResolution)
	}
	return nil
}

// AnimationConfig selects the animation window and density.
type AnimationConfig struct {
	Parameter          string `json:"parameter"`
	StartTimestamp     string `json:"start_timestamp"`
	EndTimestamp       string `json:"end_timestamp"`
	IntermediateFrames int    `json:"intermediate_frame_count"`
}

// Validate rejects windows that cannot produce a sequence.
func (ac AnimationConfig) Validate(maxIntermediate int) error {
	if ac.StartTimestamp == "" || ac.EndTimestamp == "" {
		return fmt.Errorf("start and end timestamps are required")
	}
	if ac.StartTimestamp == ac.EndTimestamp {
		return fmt.Errorf("start and end timestamps must differ")
	}
	if ac.IntermediateFrames < 1 {
		return fmt.Errorf("intermediate frame count must be at least 1, got %d", ac.IntermediateFrames)
	}
	if ac.IntermediateFrames > maxIntermediate {
		return fmt.Errorf("intermediate frame count %d exceeds maximum %d", ac.IntermediateFrames, maxIntermediate)
	}
	return nil
}

// GlobalRange is the one min/max shared by every frame of a generation
// batch. It is always computed from measured samples only, never from
// synthetic animation values.
type GlobalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Degenerate reports whether the range cannot discriminate values.
func (r GlobalRange) Degenerate() bool {
	return r.Max <= r.Min
}

// Normalize maps value into [0,1] against the range, clamped. For a
// degenerate range every value maps to the mid-scale constant 0.5, the soft
// recovery for ErrDegenerateRange. NaN values take the same mid-scale
// constant so a bad cell can never escape [0,1].
func (r GlobalRange) Normalize(value float64) float64 {
	if math.IsNaN(value) {
		return 0.5
	}
	if r.Degenerate() {
		return 0.5
	}
	t := (value - r.Min) / (r.Max - r.Min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Frame is one fully rendered raster for a single timestamp. Immutable once
// built.
type Frame struct {
	Timestamp  string      `json:"timestamp"`
	Image      []byte      `json:"-"` // encoded PNG raster
	Legend     []byte      `json:"-"` // encoded PNG legend
	Range      GlobalRange `json:"range"`
	Synthetic  bool        `json:"synthetic,omitempty"`
	RenderedAt time.Time   `json:"rendered_at"`
}

// SkippedStep records one synthetic animation step that could not be
// rendered, and why.
type SkippedStep struct {
	StepIndex int    `json:"step_index"`
	Reason    string `json:"reason"`
}

// AnimationSequence is an ordered run of frames whose endpoints are the true
// rendered frames for the two real timestamps; the interior is synthetic.
// The output is unvalidated scientifically and Experimental is always true.
type AnimationSequence struct {
	Parameter    string        `json:"parameter"`
	Frames       []Frame       `json:"-"`
	Range        GlobalRange   `json:"range"`
	SkippedSteps []SkippedStep `json:"skipped_steps,omitempty"`
	Experimental bool          `json:"experimental"`
}
