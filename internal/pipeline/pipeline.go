package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/storm-gahm/internal/domain"
	"github.com/couchcryptid/storm-gahm/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw track messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw track message into the field snapshots solved
// from it.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) ([]domain.OutputEvent, error)
}

// BatchLoader writes field snapshots to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline reads track messages, solves each into field snapshots and
// publishes them. A track's offset is committed only once all of its
// snapshots are written.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool

	// batchSize bounds both the messages read per extract and the
	// snapshots handed to the loader per write.
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   max(batchSize, 1),
	}
}

// CheckReadiness returns nil once at least one track has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any tracks yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for ctx.Err() == nil {
		if !p.processBatch(ctx, &backoff) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// processBatch extracts one batch of tracks and publishes each in turn.
// Tracks returned alongside an extract error are still published before
// backing off, since the source has already moved past them. It returns
// false when the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil && ctx.Err() != nil {
		return false
	}
	if len(raws) > 0 && !p.publishBatch(ctx, raws, start) {
		return false
	}
	if err == nil {
		*backoff = initialBackoff
		return true
	}

	p.logger.Error("extract batch failed", "error", err, "published", len(raws), "backoff", *backoff)
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) publishBatch(ctx context.Context, raws []domain.RawEvent, start time.Time) bool {
	p.metrics.MessagesConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))

	for _, raw := range raws {
		if !p.processTrack(ctx, raw) {
			return false
		}
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// processTrack solves one track message, writes its snapshots in chunks of
// batchSize and commits the message. A track that fails to solve is logged,
// counted and committed so it cannot block the partition.
func (p *Pipeline) processTrack(ctx context.Context, raw domain.RawEvent) bool {
	out, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Warn("track failed, skipping message",
			"error", err,
			"key", string(raw.Key),
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.TransformErrors.Inc()
		p.commitOffset(ctx, raw)
		return true
	}

	for rest := out; len(rest) > 0; {
		n := min(len(rest), p.batchSize)
		if !p.loadWithRetry(ctx, rest[:n]) {
			return false
		}
		p.metrics.MessagesProduced.Add(float64(n))
		rest = rest[n:]
	}

	p.commitOffset(ctx, raw)
	p.ready.Store(true)
	p.logger.Debug("track published", "key", string(raw.Key), "fields", len(out))
	return true
}

// loadWithRetry writes one chunk, backing off between attempts until it
// succeeds or the context ends. It returns false on cancellation.
func (p *Pipeline) loadWithRetry(ctx context.Context, chunk []domain.OutputEvent) bool {
	backoff := initialBackoff
	for {
		err := p.loader.LoadBatch(ctx, chunk)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load failed, retrying", "error", err, "fields", len(chunk), "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
