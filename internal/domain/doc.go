// Package domain models georeferenced station measurements and the value
// types shared by the interpolation and rendering pipeline.
//
// # Samples
//
// A station sample is a single scalar measurement taken at a geographic
// location: {latitude, longitude, parameter, timestamp, value}. The
// timestamp is an opaque label supplied by the caller ("Jan-24",
// "2024-03-01", a survey campaign name); the engine never parses it, it
// only groups by it and, for animation, relies on the caller's declared
// ordering. The unique key of a sample is
// (latitude, longitude, parameter, timestamp); re-adding a sample with an
// existing key overwrites the previous value rather than accumulating.
//
// Each parameter ("pH", "salinity", ...) is an independent dataset. Nothing
// is shared across parameters, in particular not the global color range,
// because mixing value ranges across unrelated quantities would corrupt
// the legend.
//
// # Global range
//
// GlobalRange is the single min/max computed across every measured
// timestamp of one parameter in one generation batch. Every frame of that
// batch, including synthetic animation frames, is normalized through this
// one range so that color encodes absolute magnitude consistently across
// time. A degenerate range (max == min) does not abort rendering: values
// normalize to the mid-scale constant 0.5 and the batch carries a
// degenerate flag for the caller to surface.
//
// # Error kinds
//
// The sentinel errors in this package form the engine's failure taxonomy.
// Per-sample and per-timestamp failures are isolated: a malformed row is
// skipped, a timestamp without usable stations loses only its own field,
// and an animation step whose station sets do not overlap loses only that
// step. Only a total absence of renderable geometry or samples fails a
// request outright.
package domain
