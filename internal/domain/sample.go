package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// StationSample is one scalar measurement at a geographic station.
type StationSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Parameter string  `json:"parameter"`
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Key returns the sample's unique key.
func (s StationSample) Key() SampleKey {
	return SampleKey{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Parameter: s.Parameter,
		Timestamp: s.Timestamp,
	}
}

// SampleKey identifies exactly one StationSample. Inserting a second sample
// with the same key overwrites the first.
type SampleKey struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Parameter string  `json:"parameter"`
	Timestamp string  `json:"timestamp"`
}

// RawSample is a sample record as received from an ingestion collaborator,
// before numeric validation. String fields allow the transport to pass
// through whatever the upload parser produced.
type RawSample struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Parameter string `json:"parameter"`
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// SkippedSample records one malformed input row and why it was dropped.
type SkippedSample struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ParseSamples validates raw records into StationSamples. Malformed rows
// (non-numeric fields, NaN/Inf, coordinates outside WGS-84 bounds, empty
// timestamp) are skipped and reported; the rest of the batch goes through.
func ParseSamples(raws []RawSample) ([]StationSample, []SkippedSample) {
	samples := make([]StationSample, 0, len(raws))
	var skipped []SkippedSample

	for i, raw := range raws {
		s, err := parseSample(raw)
		if err != nil {
			skipped = append(skipped, SkippedSample{Index: i, Reason: err.Error()})
			continue
		}
		samples = append(samples, s)
	}
	return samples, skipped
}

func parseSample(raw RawSample) (StationSample, error) {
	lat, err := parseFinite(raw.Latitude)
	if err != nil {
		return StationSample{}, fmt.Errorf("%w: latitude %q", ErrMalformedSample, raw.Latitude)
	}
	lon, err := parseFinite(raw.Longitude)
	if err != nil {
		return StationSample{}, fmt.Errorf("%w: longitude %q", ErrMalformedSample, raw.Longitude)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return StationSample{}, fmt.Errorf("%w: coordinates (%g, %g) out of range", ErrMalformedSample, lat, lon)
	}
	value, err := parseFinite(raw.Value)
	if err != nil {
		return StationSample{}, fmt.Errorf("%w: value %q", ErrMalformedSample, raw.Value)
	}
	if raw.Timestamp == "" {
		return StationSample{}, fmt.Errorf("%w: empty timestamp", ErrMalformedSample)
	}
	parameter := raw.Parameter
	if parameter == "" {
		parameter = "observation"
	}

	return StationSample{
		Latitude:  lat,
		Longitude: lon,
		Parameter: parameter,
		Timestamp: raw.Timestamp,
		Value:     value,
	}, nil
}

func parseFinite(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %g", v)
	}
	return v, nil
}

// SampleSet holds the samples of one session, keyed for overwrite-on-duplicate
// semantics. The zero value is not usable; call NewSampleSet.
type SampleSet struct {
	samples map[SampleKey]StationSample

	// order preserves first-seen insertion order of timestamps per
	// parameter, which is the caller-declared ordering animation relies on.
	order map[string][]string
}

// NewSampleSet returns an empty sample set.
func NewSampleSet() *SampleSet {
	return &SampleSet{
		samples: make(map[SampleKey]StationSample),
		order:   make(map[string][]string),
	}
}

// Add inserts samples, overwriting any existing sample with the same key.
func (ss *SampleSet) Add(samples ...StationSample) {
	for _, s := range samples {
		key := s.Key()
		if _, exists := ss.samples[key]; !exists {
			ss.noteTimestamp(s.Parameter, s.Timestamp)
		}
		ss.samples[key] = s
	}
}

func (ss *SampleSet) noteTimestamp(parameter, timestamp string) {
	for _, ts := range ss.order[parameter] {
		if ts == timestamp {
			return
		}
	}
	ss.order[parameter] = append(ss.order[parameter], timestamp)
}

// Delete removes exactly the sample matching key. It reports whether a
// sample was removed.
func (ss *SampleSet) Delete(key SampleKey) bool {
	if _, ok := ss.samples[key]; !ok {
		return false
	}
	delete(ss.samples, key)
	ss.pruneTimestamp(key.Parameter, key.Timestamp)
	return true
}

// pruneTimestamp drops a timestamp from the declared order once no sample
// references it anymore.
func (ss *SampleSet) pruneTimestamp(parameter, timestamp string) {
	for key := range ss.samples {
		if key.Parameter == parameter && key.Timestamp == timestamp {
			return
		}
	}
	kept := ss.order[parameter][:0]
	for _, ts := range ss.order[parameter] {
		if ts != timestamp {
			kept = append(kept, ts)
		}
	}
	ss.order[parameter] = kept
}

// Len returns the number of stored samples.
func (ss *SampleSet) Len() int {
	return len(ss.samples)
}

// Timestamps returns the timestamps seen for a parameter in caller-declared
// (first insertion) order.
func (ss *SampleSet) Timestamps(parameter string) []string {
	out := make([]string, len(ss.order[parameter]))
	copy(out, ss.order[parameter])
	return out
}

// Parameters returns the distinct parameters present, sorted.
func (ss *SampleSet) Parameters() []string {
	params := make([]string, 0, len(ss.order))
	for p := range ss.order {
		if len(ss.order[p]) > 0 {
			params = append(params, p)
		}
	}
	sort.Strings(params)
	return params
}

// At returns the samples for one parameter and timestamp, sorted by
// (latitude, longitude) so downstream float accumulation is deterministic.
func (ss *SampleSet) At(parameter, timestamp string) []StationSample {
	var out []StationSample
	for key, s := range ss.samples {
		if key.Parameter == parameter && key.Timestamp == timestamp {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out
}

// All returns every sample for one parameter across all timestamps.
func (ss *SampleSet) All(parameter string) []StationSample {
	var out []StationSample
	for key, s := range ss.samples {
		if key.Parameter == parameter {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out
}

// Clone returns a deep copy, used to hand a job an immutable snapshot of the
// session's samples.
func (ss *SampleSet) Clone() *SampleSet {
	clone := NewSampleSet()
	for key, s := range ss.samples {
		clone.samples[key] = s
	}
	for p, ts := range ss.order {
		clone.order[p] = append([]string(nil), ts...)
	}
	return clone
}
