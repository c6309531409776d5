// Package pipeline orchestrates the interpolate-normalize-render chain for
// one generation batch. The protocol is strictly two-phase: every real
// field is computed and folded into the global range before any frame is
// colorized. Phase two never starts with a partial range, so a frame can
// never be normalized against anything narrower than the whole batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/interp"
	"github.com/adhirajmuduli/Heatmaps/internal/observability"
	"github.com/adhirajmuduli/Heatmaps/internal/raster"
	"github.com/adhirajmuduli/Heatmaps/internal/render"
)

// legendHeight is the pixel height of the vertical legend images.
const legendHeight = 256

// legendTicks labels min, max, and five intermediate values, matching the
// original renderer's colorbar.
const legendTicks = 7

// Generator runs generation and animation batches. Stateless per call: all
// inputs arrive in the request, all outputs leave in the result.
type Generator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Generator.
func New(logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{logger: logger, metrics: metrics}
}

// GenerateRequest carries everything one generation batch needs. Samples
// must be a snapshot the caller will not mutate while the batch runs.
type GenerateRequest struct {
	Samples   *domain.SampleSet
	Parameter string

	// Timestamps restricts the batch; empty means every timestamp the
	// sample set has for the parameter, in declared order.
	Timestamps []string

	// Boundary is the study-area region. Nil triggers the rectangular
	// fallback extent derived from the station cloud.
	Boundary geometry.Region

	Config   domain.RenderConfig
	Colormap string
}

// TimestampError records one timestamp whose field or frame failed while
// the rest of the batch proceeded.
type TimestampError struct {
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

// BatchResult is the immutable outcome of one generation batch.
type BatchResult struct {
	Parameter        string             `json:"parameter"`
	Range            domain.GlobalRange `json:"range"`
	Degenerate       bool               `json:"degenerate,omitempty"`
	BoundaryFallback bool               `json:"boundary_fallback,omitempty"`
	Frames           []domain.Frame     `json:"-"`
	Errors           []TimestampError   `json:"errors,omitempty"`
}

// Generate runs the full two-phase batch: interpolate every requested
// timestamp, fix the global range, then colorize, mask, and encode each
// frame. Per-timestamp failures are isolated into result.Errors; only a
// batch with no renderable field at all returns an error.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*BatchResult, error) {
	start := time.Now()

	timestamps := req.Timestamps
	if len(timestamps) == 0 {
		timestamps = req.Samples.Timestamps(req.Parameter)
	}
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("%w: no timestamps for parameter %q", domain.ErrInsufficientStations, req.Parameter)
	}

	cmap, err := render.ColormapByName(req.Colormap)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Parameter: req.Parameter}

	region := req.Boundary
	if region == nil {
		region = fallbackExtent(req.Samples.All(req.Parameter))
		result.BoundaryFallback = true
		g.metrics.BoundaryFallbacks.Inc()
		g.logger.Warn("no boundary supplied, using rectangular fallback extent",
			"parameter", req.Parameter)
	}

	grid, err := raster.New(region, req.Config.Rows, req.Config.Cols, raster.DefaultMarginFraction)
	if err != nil {
		return nil, err
	}

	// Phase one: every real field, then the single global range.
	fields := g.computeFields(ctx, req, grid, timestamps, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no renderable timestamp in batch", domain.ErrInsufficientStations)
	}

	ordered := make([]*interp.Field, 0, len(fields))
	for _, ts := range timestamps {
		if f, ok := fields[ts]; ok {
			ordered = append(ordered, f)
		}
	}
	rng, degenerate := render.ComputeRange(ordered)
	result.Range = rng
	result.Degenerate = degenerate
	if degenerate {
		g.metrics.DegenerateBatches.Inc()
		g.logger.Warn("global range is degenerate, rendering mid-scale constant",
			"parameter", req.Parameter, "value", rng.Min)
	}

	// Phase two: colorize and mask against the fixed range.
	legend, err := render.EncodePNG(render.Legend(cmap, rng, legendHeight, legendTicks))
	if err != nil {
		return nil, err
	}

	for _, ts := range timestamps {
		field, ok := fields[ts]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := g.renderFrame(field, ts, grid, region, rng, cmap, req.Config.OpacityValue(), legend, false)
		if err != nil {
			return nil, err
		}
		result.Frames = append(result.Frames, frame)
		g.metrics.FramesRendered.WithLabelValues("measured").Inc()
	}

	g.metrics.BatchTimestamps.Observe(float64(len(timestamps)))
	g.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	g.logger.Info("generation batch complete",
		"parameter", req.Parameter,
		"timestamps", len(timestamps),
		"frames", len(result.Frames),
		"errors", len(result.Errors),
		"min", rng.Min,
		"max", rng.Max,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// computeFields interpolates one field per timestamp, recording failures on
// the result and continuing. Returned map holds only successful fields.
func (g *Generator) computeFields(ctx context.Context, req GenerateRequest, grid *raster.Grid, timestamps []string, result *BatchResult) map[string]*interp.Field {
	fields := make(map[string]*interp.Field, len(timestamps))

	for _, ts := range timestamps {
		if ctx.Err() != nil {
			return fields
		}

		fieldStart := time.Now()
		stations := req.Samples.At(req.Parameter, ts)
		field, err := interp.IDW(stations, grid, req.Config.Power)
		if err != nil {
			g.metrics.FieldErrors.Inc()
			result.Errors = append(result.Errors, TimestampError{Timestamp: ts, Reason: err.Error()})
			g.logger.Warn("field computation failed, skipping timestamp",
				"parameter", req.Parameter, "timestamp", ts, "error", err)
			continue
		}
		field = interp.Smooth(field, req.Config.Bandwidth)

		fields[ts] = field
		g.metrics.FieldsComputed.Inc()
		g.metrics.FieldDuration.Observe(time.Since(fieldStart).Seconds())
	}
	return fields
}

// renderFrame colorizes, masks, and encodes one field into a Frame.
func (g *Generator) renderFrame(field *interp.Field, ts string, grid *raster.Grid, region geometry.Region, rng domain.GlobalRange, cmap render.Colormap, opacity float64, legend []byte, synthetic bool) (domain.Frame, error) {
	img := render.Rasterize(field, rng, cmap, opacity)
	if _, err := render.ApplyMask(img, grid, region); err != nil {
		return domain.Frame{}, err
	}

	encoded, err := render.EncodePNG(img)
	if err != nil {
		return domain.Frame{}, err
	}

	return domain.Frame{
		Timestamp:  ts,
		Image:      encoded,
		Legend:     legend,
		Range:      rng,
		Synthetic:  synthetic,
		RenderedAt: domain.Now(),
	}, nil
}

// fallbackExtent computes the rectangular default region from the station
// cloud. A cloud that degenerates to a point or line is padded so the grid
// still has area.
func fallbackExtent(samples []domain.StationSample) geometry.Rect {
	bounds := geometry.EmptyRect
	for _, s := range samples {
		bounds = bounds.Extend(geometry.Point{X: s.Longitude, Y: s.Latitude})
	}
	if bounds.Empty() {
		bounds = bounds.Inflate(0.01)
	}
	return bounds
}
