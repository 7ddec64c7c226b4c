// Package domain defines the messages that flow through the wind field
// service.
//
// # Input
//
// Each source message carries one storm track as raw ATCF best-track text.
// The key is the storm identifier (for example "AL122005"). Optional headers
// narrow the window the vortex is solved over:
//
//	start  RFC 3339 time of the first field (default: first snap)
//	end    RFC 3339 time of the last field  (default: last snap)
//	step   Go duration between fields       (default: SOLVE_STEP)
//
// The window is inclusive at both ends. See [ParseTrackRequest].
//
// # Output
//
// Every solved time becomes one [FieldSnapshot] on the sink topic. The
// snapshot holds the grid header, the storm state at that time, and the
// eastward wind, northward wind and surface pressure at every grid node in
// row-major order (x fastest). Values are narrowed to float32 on the wire.
//
// Headers on each output message:
//
//	storm_id      storm identifier from the source key
//	valid_time    RFC 3339 solve time
//	content_type  codec used for the value, e.g. application/msgpack+zstd
//	processed_at  RFC 3339 wall clock time of the transform
//
// # ID Generation
//
// Snapshot IDs are "<storm_id>|<valid_time>". Replaying a track yields the
// same keys, so downstream consumers can upsert. See [SnapshotID].
package domain
