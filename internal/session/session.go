// Package session scopes samples, boundary, and rendered results per
// rendering session. Sessions are fully isolated from each other: global
// ranges, grids, and cached frames are never shared across sessions or
// parameters, which is what keeps each dataset's legend consistent.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/adhirajmuduli/Heatmaps/internal/domain"
	"github.com/adhirajmuduli/Heatmaps/internal/geometry"
	"github.com/adhirajmuduli/Heatmaps/internal/pipeline"
)

// State is the rendering session lifecycle position.
type State int

const (
	StateEmpty State = iota
	StateSamplesLoaded
	StateFieldsComputed
	StateFramesRendered
	StateAnimationRequested
	StateAnimationReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSamplesLoaded:
		return "samples_loaded"
	case StateFieldsComputed:
		return "fields_computed"
	case StateFramesRendered:
		return "frames_rendered"
	case StateAnimationRequested:
		return "animation_requested"
	case StateAnimationReady:
		return "animation_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrSessionBusy rejects sample mutations while a render job is
	// executing, so a field is never computed against a half-mutated set.
	ErrSessionBusy = errors.New("render job in progress, mutation rejected")

	// ErrBoundaryImmutable rejects boundary replacement: the polygon is
	// fixed for the lifetime of a session.
	ErrBoundaryImmutable = errors.New("session boundary already set")

	// ErrNotFound reports an unknown session or sample.
	ErrNotFound = errors.New("not found")
)

// Session holds one rendering session's inputs and cached outputs.
type Session struct {
	mu sync.Mutex

	id          string
	boundary    geometry.Region
	boundarySet bool
	samples     *domain.SampleSet
	state       State

	// generation increments on every sample mutation; results computed
	// against an older generation are stale and discarded on arrival.
	generation uint64
	jobActive  bool

	batches    map[string]*pipeline.BatchResult     // by parameter
	animations map[string]*domain.AnimationSequence // by parameter
}

func newSession(id string) *Session {
	return &Session{
		id:         id,
		samples:    domain.NewSampleSet(),
		state:      StateEmpty,
		batches:    make(map[string]*pipeline.BatchResult),
		animations: make(map[string]*domain.AnimationSequence),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetBoundary fixes the study-area boundary. It may be set exactly once;
// the polygon is immutable for the lifetime of the session and boundary
// changes never invalidate cached results (only sample mutations do).
func (s *Session) SetBoundary(region geometry.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundarySet {
		return ErrBoundaryImmutable
	}
	s.boundary = region
	s.boundarySet = true
	return nil
}

// AddSamples inserts samples (overwriting duplicates on the unique key),
// invalidates every cached result, and resets the state to SamplesLoaded.
// Rejected while a render job is active.
func (s *Session) AddSamples(samples []domain.StationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobActive {
		return ErrSessionBusy
	}
	if len(samples) == 0 {
		return nil
	}
	s.samples.Add(samples...)
	s.invalidateLocked()
	return nil
}

// DeleteSample removes exactly one sample by key, invalidating caches.
// Rejected while a render job is active; unknown keys are ErrNotFound.
func (s *Session) DeleteSample(key domain.SampleKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobActive {
		return ErrSessionBusy
	}
	if !s.samples.Delete(key) {
		return fmt.Errorf("%w: sample (%g, %g, %q, %q)", ErrNotFound, key.Latitude, key.Longitude, key.Parameter, key.Timestamp)
	}
	s.invalidateLocked()
	return nil
}

// invalidateLocked drops cached fields/frames/animations after a sample
// mutation. The boundary survives; the global range must be recomputed on
// the next batch because the measured set changed.
func (s *Session) invalidateLocked() {
	s.generation++
	s.batches = make(map[string]*pipeline.BatchResult)
	s.animations = make(map[string]*domain.AnimationSequence)
	if s.samples.Len() == 0 {
		s.state = StateEmpty
	} else {
		s.state = StateSamplesLoaded
	}
}

// Snapshot returns an immutable view for a render job: a deep copy of the
// samples, the boundary region (nil if unset), and the generation the
// snapshot belongs to.
func (s *Session) Snapshot() (*domain.SampleSet, geometry.Region, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples.Clone(), s.boundary, s.generation
}

// BeginJob marks a render job active, blocking sample mutations until
// EndJob. The session may run one job at a time; the worker serializes
// submissions per session before calling this.
func (s *Session) BeginJob(animation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobActive = true
	if animation {
		s.state = StateAnimationRequested
	} else if s.state == StateSamplesLoaded {
		s.state = StateFieldsComputed
	}
}

// EndJob releases the mutation lock.
func (s *Session) EndJob() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobActive = false
}

// StoreBatch caches a finished generation batch. Results computed against a
// superseded generation are discarded; the return value reports whether the
// result was kept.
func (s *Session) StoreBatch(generation uint64, result *pipeline.BatchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.batches[result.Parameter] = result
	s.state = StateFramesRendered
	return true
}

// StoreAnimation caches a finished animation sequence under the same
// staleness rule as StoreBatch.
func (s *Session) StoreAnimation(generation uint64, seq *domain.AnimationSequence) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.animations[seq.Parameter] = seq
	s.state = StateAnimationReady
	return true
}

// Batch returns the cached generation result for a parameter, if any.
func (s *Session) Batch(parameter string) (*pipeline.BatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[parameter]
	return b, ok
}

// Animation returns the cached animation sequence for a parameter, if any.
func (s *Session) Animation(parameter string) (*domain.AnimationSequence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animations[parameter]
	return a, ok
}

// Range returns the cached batch's global range for a parameter. Animation
// requests reuse it so synthetic frames share the measured scale.
func (s *Session) Range(parameter string) (*domain.GlobalRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[parameter]
	if !ok {
		return nil, false
	}
	rng := b.Range
	return &rng, true
}
