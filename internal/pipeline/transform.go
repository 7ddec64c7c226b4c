package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/domain"
	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/observability"
	"github.com/couchcryptid/storm-gahm/internal/preprocess"
	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

// maxFieldsPerTrack caps the number of solve times a single message can ask for.
const maxFieldsPerTrack = 2000

// ErrWindowTooLarge is returned when a track's solve window exceeds maxFieldsPerTrack.
var ErrWindowTooLarge = errors.New("solve window too large")

// TransformerConfig holds the solve settings shared by every track.
type TransformerConfig struct {
	Grid      grid.WindGrid
	Step      time.Duration
	Workers   int
	Encoder   domain.Encoder
	CacheSize int
}

// TrackTransformer turns one ATCF track message into a field snapshot per
// solve time. Prepared and fitted tracks are cached by content hash, so a
// replayed or re-windowed track skips the fit.
type TrackTransformer struct {
	cfg     TransformerConfig
	cache   *lru.Cache[string, *atcf.Track]
	storms  *StormIndex
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewTransformer creates a TrackTransformer. storms may be nil.
func NewTransformer(cfg TransformerConfig, storms *StormIndex, metrics *observability.Metrics, logger *slog.Logger) (*TrackTransformer, error) {
	if cfg.Encoder == nil {
		return nil, errors.New("transformer needs an encoder")
	}
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("solve step %s must be positive", cfg.Step)
	}
	cache, err := lru.New[string, *atcf.Track](max(cfg.CacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("track cache: %w", err)
	}
	if storms == nil {
		storms = NewStormIndex()
	}
	return &TrackTransformer{
		cfg:     cfg,
		cache:   cache,
		storms:  storms,
		metrics: metrics,
		tracer:  otel.Tracer(observability.TracerName),
		logger:  logger,
	}, nil
}

func (t *TrackTransformer) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error) {
	req, err := domain.ParseTrackRequest(raw, t.cfg.Step)
	if err != nil {
		return nil, err
	}

	track, err := t.solvedTrack(ctx, req.Track)
	if err != nil {
		return nil, err
	}

	stormID := req.StormID
	if stormID == "" {
		stormID = track.StormID()
	}
	start, end := req.Start, req.End
	if start.IsZero() {
		start = track.Start()
	}
	if end.IsZero() {
		end = track.End()
	}
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if n := int(end.Sub(start)/req.Step) + 1; n > maxFieldsPerTrack {
		return nil, fmt.Errorf("%s: %d fields at %s: %w", stormID, n, req.Step, ErrWindowTooLarge)
	}

	return t.solveWindow(ctx, track, stormID, start, end, req.Step)
}

// solvedTrack returns the prepared and fitted track for raw ATCF bytes.
func (t *TrackTransformer) solvedTrack(ctx context.Context, raw []byte) (*atcf.Track, error) {
	key := atcf.Hash(raw)
	if track, ok := t.cache.Get(key); ok {
		t.metrics.TrackCache.WithLabelValues("hit").Inc()
		return track, nil
	}
	t.metrics.TrackCache.WithLabelValues("miss").Inc()

	_, span := t.tracer.Start(ctx, "prepare")
	began := time.Now()
	track, err := atcf.Read(bytes.NewReader(raw), t.logger)
	if err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("parse track: %w", err)
	}
	preprocess.Prepare(track, t.logger)
	span.SetAttributes(attribute.String("storm.id", track.StormID()), attribute.Int("track.snaps", track.Len()))
	span.End()
	t.metrics.SolveDuration.WithLabelValues("prepare").Observe(time.Since(began).Seconds())

	solveCtx, span := t.tracer.Start(ctx, "solve")
	began = time.Now()
	err = preprocess.Solve(solveCtx, track, t.cfg.Workers)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	t.metrics.SolveDuration.WithLabelValues("solve").Observe(time.Since(began).Seconds())
	t.metrics.TracksSolved.Inc()

	t.cache.Add(key, track)
	return track, nil
}

func (t *TrackTransformer) solveWindow(ctx context.Context, track *atcf.Track, stormID string, start, end time.Time, step time.Duration) ([]domain.OutputEvent, error) {
	ctx, span := t.tracer.Start(ctx, "vortex", trace.WithAttributes(
		attribute.String("storm.id", stormID),
		attribute.String("window.start", start.Format(time.RFC3339)),
		attribute.String("window.end", end.Format(time.RFC3339)),
	))
	v, err := vortex.New(track, t.cfg.Grid, vortex.WithWorkers(t.cfg.Workers), vortex.WithLogger(t.logger))
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	name := track.StormName()
	var (
		out  []domain.OutputEvent
		last domain.FieldSnapshot
	)
	for at := start; !at.After(end); at = at.Add(step) {
		began := time.Now()
		sol, err := v.Solve(ctx, at)
		if err != nil {
			endSpan(span, err)
			return nil, fmt.Errorf("%s at %s: %w", stormID, at.Format(time.RFC3339), err)
		}
		t.metrics.SolveDuration.WithLabelValues("vortex").Observe(time.Since(began).Seconds())

		last = domain.NewFieldSnapshot(stormID, name, t.cfg.Grid, sol)
		ev, err := domain.SerializeSnapshot(last, t.cfg.Encoder)
		if err != nil {
			endSpan(span, err)
			return nil, err
		}
		out = append(out, ev)
		t.metrics.FieldsProduced.Inc()
	}
	span.SetAttributes(attribute.Int("fields", len(out)))
	span.End()

	t.storms.Record(domain.StormSummary{
		StormID:   stormID,
		StormName: name,
		Start:     start,
		End:       end,
		Fields:    len(out),
		ValidTime: last.ValidTime,
		Storm:     last.Storm,
		Stats:     last.Stats,
		UpdatedAt: last.ProcessedAt,
	})
	t.logger.Info("track solved", "storm_id", stormID, "fields", len(out),
		"min_pressure", last.Stats.MinPressure, "max_wind", last.Stats.MaxWind)
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
