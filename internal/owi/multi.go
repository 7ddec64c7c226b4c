package owi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// SolveFunc produces the field for one domain at time t.
type SolveFunc func(ctx context.Context, t time.Time) (Field, error)

type domain struct {
	name   string
	writer *Writer
	solve  SolveFunc
}

// MultiWriter steps several domains through a shared period. Each domain
// has its own grid and solver; at every step the domains are solved
// concurrently and written in lock step.
type MultiWriter struct {
	start   time.Time
	end     time.Time
	step    time.Duration
	domains []domain
	logger  *slog.Logger
}

// NewMultiWriter returns an empty MultiWriter for the period.
func NewMultiWriter(start, end time.Time, step time.Duration, logger *slog.Logger) *MultiWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiWriter{start: start.UTC(), end: end.UTC(), step: step, logger: logger}
}

// AddDomain registers a writer and its solver. The writer must cover the
// same period as the MultiWriter.
func (m *MultiWriter) AddDomain(name string, w *Writer, solve SolveFunc) error {
	if !w.Start().Equal(m.start) || !w.End().Equal(m.end) || w.Step() != m.step {
		return fmt.Errorf("domain %s: %w: period %s..%s/%s does not match %s..%s/%s",
			name, ErrTimeSpacing, w.Start(), w.End(), w.Step(), m.start, m.end, m.step)
	}
	m.domains = append(m.domains, domain{name: name, writer: w, solve: solve})
	return nil
}

// Len returns the number of domains.
func (m *MultiWriter) Len() int { return len(m.domains) }

// Run solves and writes every step from start to end inclusive and returns
// the number of steps written.
func (m *MultiWriter) Run(ctx context.Context) (int, error) {
	steps := 0
	for t := m.start; !t.After(m.end); t = t.Add(m.step) {
		fields := make([]Field, len(m.domains))
		g, gctx := errgroup.WithContext(ctx)
		for i, d := range m.domains {
			g.Go(func() error {
				f, err := d.solve(gctx, t)
				if err != nil {
					return fmt.Errorf("domain %s at %s: %w", d.name, t.Format(time.RFC3339), err)
				}
				fields[i] = f
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return steps, err
		}
		for i, d := range m.domains {
			if err := d.writer.Write(t, fields[i]); err != nil {
				return steps, fmt.Errorf("domain %s: %w", d.name, err)
			}
		}
		steps++
		m.logger.Debug("wrote owi step", "time", t, "domains", len(m.domains))
	}
	return steps, nil
}

// Close closes every domain writer.
func (m *MultiWriter) Close() error {
	errs := make([]error, 0, len(m.domains))
	for _, d := range m.domains {
		errs = append(errs, d.writer.Close())
	}
	return errors.Join(errs...)
}
