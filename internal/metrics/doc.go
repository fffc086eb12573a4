// Package metrics collects prometheus metrics for filesystem operations
// and streaming activity, and optionally serves them over HTTP. A nil
// *Collector is valid and records nothing, so callers never need to
// guard their instrumentation.
package metrics
