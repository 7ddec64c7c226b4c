package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// TrackRequest is a raw ATCF track with the window to solve it over. Zero
// Start or End fall back to the track's first or last snap.
type TrackRequest struct {
	StormID string
	Track   []byte
	Start   time.Time
	End     time.Time
	Step    time.Duration
}

// FieldSnapshot is one solved wind and pressure field. Arrays follow the
// grid's row-major point order. Winds are m/s and pressure is mb.
type FieldSnapshot struct {
	ID          string            `json:"id"`
	StormID     string            `json:"storm_id"`
	StormName   string            `json:"storm_name,omitempty"`
	ValidTime   time.Time         `json:"valid_time"`
	Grid        grid.WindGrid     `json:"grid"`
	Storm       vortex.StormState `json:"storm"`
	U           []float32         `json:"u"`
	V           []float32         `json:"v"`
	P           []float32         `json:"p"`
	Stats       vortex.Stats      `json:"stats"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// StormSummary is the latest solved state of a storm, served on the status
// endpoint.
type StormSummary struct {
	StormID   string            `json:"storm_id"`
	StormName string            `json:"storm_name,omitempty"`
	Start     time.Time         `json:"start"`
	End       time.Time         `json:"end"`
	Fields    int               `json:"fields"`
	ValidTime time.Time         `json:"valid_time"`
	Storm     vortex.StormState `json:"storm"`
	Stats     vortex.Stats      `json:"stats"`
	UpdatedAt time.Time         `json:"updated_at"`
}
