package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

// Message header names shared by the Kafka adapters.
const (
	HeaderStart       = "start"
	HeaderEnd         = "end"
	HeaderStep        = "step"
	HeaderStormID     = "storm_id"
	HeaderValidTime   = "valid_time"
	HeaderContentType = "content_type"
	HeaderProcessedAt = "processed_at"
)

// ErrEmptyTrack is returned for a message without an ATCF payload.
var ErrEmptyTrack = errors.New("message has no track payload")

// Encoder marshals a snapshot for the wire.
type Encoder interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
}

// ParseTrackRequest reads the solve window from the message headers. A
// missing step header uses defaultStep.
func ParseTrackRequest(raw RawEvent, defaultStep time.Duration) (TrackRequest, error) {
	if len(strings.TrimSpace(string(raw.Value))) == 0 {
		return TrackRequest{}, ErrEmptyTrack
	}
	req := TrackRequest{
		StormID: string(raw.Key),
		Track:   raw.Value,
		Step:    defaultStep,
	}

	var err error
	if v := raw.Headers[HeaderStart]; v != "" {
		if req.Start, err = time.Parse(time.RFC3339, v); err != nil {
			return TrackRequest{}, fmt.Errorf("parse %s header: %w", HeaderStart, err)
		}
	}
	if v := raw.Headers[HeaderEnd]; v != "" {
		if req.End, err = time.Parse(time.RFC3339, v); err != nil {
			return TrackRequest{}, fmt.Errorf("parse %s header: %w", HeaderEnd, err)
		}
	}
	if v := raw.Headers[HeaderStep]; v != "" {
		if req.Step, err = time.ParseDuration(v); err != nil {
			return TrackRequest{}, fmt.Errorf("parse %s header: %w", HeaderStep, err)
		}
	}
	if req.Step <= 0 {
		return TrackRequest{}, fmt.Errorf("step %s must be positive", req.Step)
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.End.Before(req.Start) {
		return TrackRequest{}, fmt.Errorf("window end %s before start %s",
			req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339))
	}
	return req, nil
}

// SnapshotID is the deterministic key of a storm's field at t. Replays of
// the same track produce the same keys.
func SnapshotID(stormID string, t time.Time) string {
	return stormID + "|" + t.UTC().Format(time.RFC3339)
}

// NewFieldSnapshot packs a grid solution for the sink topic.
func NewFieldSnapshot(stormID, stormName string, g grid.WindGrid, sol *vortex.Solution) FieldSnapshot {
	return FieldSnapshot{
		ID:          SnapshotID(stormID, sol.Time),
		StormID:     stormID,
		StormName:   stormName,
		ValidTime:   sol.Time.UTC(),
		Grid:        g,
		Storm:       sol.Storm,
		U:           toFloat32(sol.U()),
		V:           toFloat32(sol.V()),
		P:           toFloat32(sol.P()),
		Stats:       sol.Stats(),
		ProcessedAt: now(),
	}
}

// SerializeSnapshot encodes a snapshot into an output event keyed by its ID.
func SerializeSnapshot(s FieldSnapshot, enc Encoder) (OutputEvent, error) {
	data, err := enc.Marshal(s)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize field snapshot %s: %w", s.ID, err)
	}
	return OutputEvent{
		Key:   []byte(s.ID),
		Value: data,
		Headers: map[string]string{
			HeaderStormID:     s.StormID,
			HeaderValidTime:   s.ValidTime.Format(time.RFC3339),
			HeaderContentType: enc.ContentType(),
			HeaderProcessedAt: s.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
