package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/interp"
	"github.com/adhirajmuduli/Heatmaps/internal/raster"
	"github.com/adhirajmuduli/Heatmaps/internal/render"
)

// AnimateRequest carries one animation batch. Samples must be a snapshot;
// FixedRange, when non-nil, is the global range of a previous generation
// batch over the same measured data and is reused verbatim.
type AnimateRequest struct {
	Samples   *domain.SampleSet
	Parameter string
	Boundary  geometry.Region
	Config    domain.RenderConfig
	Colormap  string
	Animation domain.AnimationConfig

	FixedRange *domain.GlobalRange
}

// Animate builds an AnimationSequence: the two endpoint frames rendered
// from real measurements, with k synthetic interior steps blended
// per-station between them. The global range is fixed from measured data
// before any synthetic value exists, so the color scale cannot depend on
// the interpolation itself. Step failures skip only that step.
//
// The sequence is experimental output: synthetic frames are linear blends
// with no physical validation, and the result is labeled accordingly.
func (g *Generator) Animate(ctx context.Context, req AnimateRequest) (*domain.AnimationSequence, error) {
	start := time.Now()
	anim := req.Animation

	startSamples := req.Samples.At(req.Parameter, anim.StartTimestamp)
	endSamples := req.Samples.At(req.Parameter, anim.EndTimestamp)
	if len(startSamples) == 0 {
		return nil, fmt.Errorf("%w: no samples at start timestamp %q", domain.ErrInsufficientStations, anim.StartTimestamp)
	}
	if len(endSamples) == 0 {
		return nil, fmt.Errorf("%w: no samples at end timestamp %q", domain.ErrInsufficientStations, anim.EndTimestamp)
	}

	cmap, err := render.ColormapByName(req.Colormap)
	if err != nil {
		return nil, err
	}

	region := req.Boundary
	if region == nil {
		region = fallbackExtent(req.Samples.All(req.Parameter))
		g.metrics.BoundaryFallbacks.Inc()
	}
	grid, err := raster.New(region, req.Config.Rows, req.Config.Cols, raster.DefaultMarginFraction)
	if err != nil {
		return nil, err
	}

	startField, err := g.endpointField(startSamples, grid, req.Config)
	if err != nil {
		return nil, err
	}
	endField, err := g.endpointField(endSamples, grid, req.Config)
	if err != nil {
		return nil, err
	}

	// The range comes from measured data only: either the caller's fixed
	// batch range, or the two real endpoint fields. Never from synthetic
	// steps.
	var rng domain.GlobalRange
	if req.FixedRange != nil {
		rng = *req.FixedRange
	} else {
		computed, _ := render.ComputeRange([]*interp.Field{startField, endField})
		rng = computed
	}

	legend, err := render.EncodePNG(render.Legend(cmap, rng, legendHeight, legendTicks))
	if err != nil {
		return nil, err
	}

	seq := &domain.AnimationSequence{
		Parameter:    req.Parameter,
		Range:        rng,
		Experimental: true,
	}

	first, err := g.renderFrame(startField, anim.StartTimestamp, grid, region, rng, cmap, req.Config.OpacityValue(), legend, false)
	if err != nil {
		return nil, err
	}
	seq.Frames = append(seq.Frames, first)
	g.metrics.FramesRendered.WithLabelValues("measured").Inc()

	steps := interp.TemporalSteps(anim.StartTimestamp, anim.EndTimestamp, startSamples, endSamples, anim.IntermediateFrames)
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if step.Err != nil {
			seq.SkippedSteps = append(seq.SkippedSteps, domain.SkippedStep{StepIndex: step.Index, Reason: step.Err.Error()})
			g.metrics.AnimationStepsSkipped.Inc()
			g.logger.Warn("animation step skipped",
				"parameter", req.Parameter, "step", step.Index, "error", step.Err)
			continue
		}

		field, err := interp.IDW(step.Samples, grid, req.Config.Power)
		if err != nil {
			seq.SkippedSteps = append(seq.SkippedSteps, domain.SkippedStep{StepIndex: step.Index, Reason: err.Error()})
			g.metrics.AnimationStepsSkipped.Inc()
			continue
		}
		field = interp.Smooth(field, req.Config.Bandwidth)

		frame, err := g.renderFrame(field, step.Timestamp, grid, region, rng, cmap, req.Config.OpacityValue(), legend, true)
		if err != nil {
			return nil, err
		}
		seq.Frames = append(seq.Frames, frame)
		g.metrics.FramesRendered.WithLabelValues("synthetic").Inc()
	}

	last, err := g.renderFrame(endField, anim.EndTimestamp, grid, region, rng, cmap, req.Config.OpacityValue(), legend, false)
	if err != nil {
		return nil, err
	}
	seq.Frames = append(seq.Frames, last)
	g.metrics.FramesRendered.WithLabelValues("measured").Inc()

	g.logger.Info("animation batch complete",
		"parameter", req.Parameter,
		"start", anim.StartTimestamp,
		"end", anim.EndTimestamp,
		"frames", len(seq.Frames),
		"skipped", len(seq.SkippedSteps),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return seq, nil
}

// endpointField interpolates one of the two real endpoint fields.
func (g *Generator) endpointField(samples []domain.StationSample, grid *raster.Grid, cfg domain.RenderConfig) (*interp.Field, error) {
	field, err := interp.IDW(samples, grid, cfg.Power)
	if err != nil {
		return nil, err
	}
	g.metrics.FieldsComputed.Inc()
	return interp.Smooth(field, cfg.Bandwidth), nil
}
