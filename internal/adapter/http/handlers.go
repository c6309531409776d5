package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/pipeline"
	"github.com/adhirajmuduli/Heatmaps/internal/worker"
)

// maxBodyBytes caps request bodies; boundary files and sample batches are
// small compared to this.
const maxBodyBytes = 50 << 20

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID(),
		"state":      sess.State().String(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	samples, _, _ := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID(),
		"state":      sess.State().String(),
		"samples":    samples.Len(),
		"parameters": samples.Parameters(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSetBoundary accepts a GeoJSON polygon (bare geometry, Feature, or
// FeatureCollection). An invalid polygon is not fatal: the session keeps no
// boundary and renders against the rectangular fallback extent, and the
// response says so.
func (s *Server) handleSetBoundary(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %w", err))
		return
	}

	polygon, err := geometry.DecodePolygon(body)
	if err != nil {
		s.logger.Warn("boundary rejected, session will use fallback extent",
			"session_id", sess.ID(), "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"warning":  err.Error(),
			"fallback": true,
		})
		return
	}

	if err := sess.SetBoundary(polygon); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "boundary set",
		"rings":  polygon.Rings(),
	})
}

func (s *Server) handleAddSamples(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Samples []domain.RawSample `json:"samples"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	samples, skipped := domain.ParseSamples(payload.Samples)
	if len(skipped) > 0 {
		s.metrics.SamplesSkipped.Add(float64(len(skipped)))
		s.logger.Warn("skipped malformed samples",
			"session_id", sess.ID(), "skipped", len(skipped), "accepted", len(samples))
	}

	if err := sess.AddSamples(samples); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"added":   len(samples),
		"skipped": skipped,
	})
}

func (s *Server) handleDeleteSample(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var key domain.SampleKey
	if err := decodeJSON(r, &key); err != nil {
		writeError(w, err)
		return
	}

	if err := sess.DeleteSample(key); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// generatePayload is the request body for both generate and animate; the
// animation window fields are only read by the animate handler.
type generatePayload struct {
	Parameter  string   `json:"parameter"`
	Timestamps []string `json:"timestamps,omitempty"`
	Colormap   string   `json:"colormap,omitempty"`

	domain.RenderConfig

	StartTimestamp     string `json:"start_timestamp,omitempty"`
	EndTimestamp       string `json:"end_timestamp,omitempty"`
	IntermediateFrames int    `json:"intermediate_frame_count,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload generatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Parameter == "" {
		writeError(w, fmt.Errorf("parameter is required"))
		return
	}
	cfg := payload.RenderConfig
	if err := cfg.Validate(s.limits.MaxGridResolution); err != nil {
		writeError(w, err)
		return
	}

	jobID, err := s.runner.Submit(worker.Job{
		SessionID: sess.ID(),
		Kind:      worker.KindGenerate,
		Run: func(ctx context.Context) (any, error) {
			samples, boundary, generation := sess.Snapshot()
			sess.BeginJob(false)
			defer sess.EndJob()

			result, err := s.generator.Generate(ctx, pipeline.GenerateRequest{
				Samples:    samples,
				Parameter:  payload.Parameter,
				Timestamps: payload.Timestamps,
				Boundary:   boundary,
				Config:     cfg,
				Colormap:   payload.Colormap,
			})
			if err != nil {
				return nil, err
			}
			if !sess.StoreBatch(generation, result) {
				return nil, fmt.Errorf("batch superseded by newer samples")
			}
			return batchResponse(result), nil
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload generatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if payload.Parameter == "" {
		writeError(w, fmt.Errorf("parameter is required"))
		return
	}
	cfg := payload.RenderConfig
	if err := cfg.Validate(s.limits.MaxGridResolution); err != nil {
		writeError(w, err)
		return
	}
	anim := domain.AnimationConfig{
		Parameter:          payload.Parameter,
		StartTimestamp:     payload.StartTimestamp,
		EndTimestamp:       payload.EndTimestamp,
		IntermediateFrames: payload.IntermediateFrames,
	}
	if err := anim.Validate(s.limits.MaxIntermediateFrames); err != nil {
		writeError(w, err)
		return
	}

	jobID, err := s.runner.Submit(worker.Job{
		SessionID: sess.ID(),
		Kind:      worker.KindAnimate,
		Run: func(ctx context.Context) (any, error) {
			samples, boundary, generation := sess.Snapshot()
			sess.BeginJob(true)
			defer sess.EndJob()

			// Reuse the measured batch range when one is cached for this
			// parameter; otherwise the animation fixes its own from the
			// two real endpoints.
			fixed, _ := sess.Range(payload.Parameter)

			seq, err := s.generator.Animate(ctx, pipeline.AnimateRequest{
				Samples:    samples,
				Parameter:  payload.Parameter,
				Boundary:   boundary,
				Config:     cfg,
				Colormap:   payload.Colormap,
				Animation:  anim,
				FixedRange: fixed,
			})
			if err != nil {
				return nil, err
			}
			if !sess.StoreAnimation(generation, seq) {
				return nil, fmt.Errorf("animation superseded by newer samples")
			}
			return animationResponse(seq), nil
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.runner.Status(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	response := map[string]any{
		"id":           status.ID,
		"session_id":   status.SessionID,
		"kind":         status.Kind,
		"state":        status.State,
		"submitted_at": status.SubmittedAt,
	}
	if status.Error != "" {
		response["error"] = status.Error
	}
	if !status.FinishedAt.IsZero() {
		response["finished_at"] = status.FinishedAt
	}
	if status.State == worker.StateDone && status.Result != nil {
		response["result"] = status.Result
	}
	writeJSON(w, http.StatusOK, response)
}

// batchResponse shapes a generation result for the API: base64 PNG rasters
// and legends keyed by timestamp, plus the batch's global range.
func batchResponse(result *pipeline.BatchResult) map[string]any {
	images := make(map[string]string, len(result.Frames))
	legends := make(map[string]string, len(result.Frames))
	for _, f := range result.Frames {
		images[f.Timestamp] = base64.StdEncoding.EncodeToString(f.Image)
		legends[f.Timestamp] = base64.StdEncoding.EncodeToString(f.Legend)
	}

	response := map[string]any{
		"parameter":  result.Parameter,
		"global_min": result.Range.Min,
		"global_max": result.Range.Max,
		"images":     images,
		"legend":     legends,
	}
	if result.Degenerate {
		response["degenerate"] = true
	}
	if result.BoundaryFallback {
		response["boundary_fallback"] = true
	}
	if len(result.Errors) > 0 {
		response["errors"] = result.Errors
	}
	return response
}

// animationResponse shapes an animation sequence: ordered frames with step
// indices, endpoints first and last, flagged experimental.
func animationResponse(seq *domain.AnimationSequence) map[string]any {
	frames := make([]map[string]any, 0, len(seq.Frames))
	for i, f := range seq.Frames {
		frames = append(frames, map[string]any{
			"step_index": i,
			"timestamp":  f.Timestamp,
			"synthetic":  f.Synthetic,
			"image":      base64.StdEncoding.EncodeToString(f.Image),
		})
	}

	response := map[string]any{
		"parameter":    seq.Parameter,
		"global_min":   seq.Range.Min,
		"global_max":   seq.Range.Max,
		"experimental": seq.Experimental,
		"frames":       frames,
	}
	if len(seq.Frames) > 0 {
		response["legend"] = base64.StdEncoding.EncodeToString(seq.Frames[0].Legend)
	}
	if len(seq.SkippedSteps) > 0 {
		response["skipped_steps"] = seq.SkippedSteps
	}
	return response
}

func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
