package owi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/grid"
)

// Writer appends evenly spaced records to a .pre/.wnd pair.
type Writer struct {
	grid  grid.WindGrid
	start time.Time
	end   time.Time
	step  time.Duration

	pre *bufio.Writer
	wnd *bufio.Writer

	closers []io.Closer
	next    time.Time
	records int
	closed  bool
	buf     []byte
}

// NewWriter creates prefix.pre and prefix.wnd and writes their headers.
func NewWriter(g grid.WindGrid, start, end time.Time, step time.Duration, prefix string) (*Writer, error) {
	pre, err := os.Create(prefix + preExtension)
	if err != nil {
		return nil, fmt.Errorf("create pressure file: %w", err)
	}
	wnd, err := os.Create(prefix + windExtension)
	if err != nil {
		pre.Close()
		return nil, fmt.Errorf("create wind file: %w", err)
	}
	w, err := NewStreamWriter(pre, wnd, g, start, end, step)
	if err != nil {
		pre.Close()
		wnd.Close()
		return nil, err
	}
	w.closers = []io.Closer{pre, wnd}
	return w, nil
}

// NewStreamWriter writes to arbitrary streams. Closing the Writer flushes
// but does not close them.
func NewStreamWriter(pre, wnd io.Writer, g grid.WindGrid, start, end time.Time, step time.Duration) (*Writer, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %s", ErrTimeSpacing, step)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrPastEnd, end, start)
	}
	w := &Writer{
		grid:  g,
		start: start.UTC(),
		end:   end.UTC(),
		step:  step,
		pre:   bufio.NewWriterSize(pre, 64*1024),
		wnd:   bufio.NewWriterSize(wnd, 64*1024),
		next:  start.UTC(),
	}
	header := formatHeader(w.start, w.end)
	if _, err := w.pre.WriteString(header); err != nil {
		return nil, fmt.Errorf("write pressure header: %w", err)
	}
	if _, err := w.wnd.WriteString(header); err != nil {
		return nil, fmt.Errorf("write wind header: %w", err)
	}
	return w, nil
}

// Grid returns the grid records are written on.
func (w *Writer) Grid() grid.WindGrid { return w.grid }

// Start, End and Step describe the declared period.
func (w *Writer) Start() time.Time    { return w.start }
func (w *Writer) End() time.Time      { return w.end }
func (w *Writer) Step() time.Duration { return w.step }

// Records returns the number of records written so far.
func (w *Writer) Records() int { return w.records }

// Next returns the time the next record must carry.
func (w *Writer) Next() time.Time { return w.next }

// Write appends the field valid at t.
func (w *Writer) Write(t time.Time, f Field) error {
	if w.closed {
		return ErrClosed
	}
	t = t.UTC()
	if t.After(w.end) {
		return fmt.Errorf("%w: %s > %s", ErrPastEnd, t.Format(time.RFC3339), w.end.Format(time.RFC3339))
	}
	if !t.Equal(w.next) {
		return fmt.Errorf("%w: got %s, want %s", ErrTimeSpacing, t.Format(time.RFC3339), w.next.Format(time.RFC3339))
	}
	n := w.grid.Len()
	if len(f.P()) != n || len(f.U()) != n || len(f.V()) != n {
		return fmt.Errorf("%w: %d values for %d nodes", ErrSize, len(f.P()), n)
	}

	header := w.recordHeader(t)
	if _, err := w.pre.WriteString(header); err != nil {
		return fmt.Errorf("write pressure record: %w", err)
	}
	if err := w.writeBlock(w.pre, f.P()); err != nil {
		return fmt.Errorf("write pressure record: %w", err)
	}
	if _, err := w.wnd.WriteString(header); err != nil {
		return fmt.Errorf("write wind record: %w", err)
	}
	if err := w.writeBlock(w.wnd, f.U()); err != nil {
		return fmt.Errorf("write wind record: %w", err)
	}
	if err := w.writeBlock(w.wnd, f.V()); err != nil {
		return fmt.Errorf("write wind record: %w", err)
	}

	w.records++
	w.next = t.Add(w.step)
	return nil
}

func (w *Writer) recordHeader(t time.Time) string {
	return fmt.Sprintf("iLat=%4diLong=%4dDX=%6.4fDY=%6.4fSWLat=%8sSWLon=%8sDT=%s\n",
		w.grid.Ny, w.grid.Nx, w.grid.Dx, w.grid.Dy,
		formatCoordinate(w.grid.Yll), formatCoordinate(w.grid.Xll),
		t.Format(recordLayout))
}

func (w *Writer) writeBlock(out *bufio.Writer, values []float64) error {
	for i, v := range values {
		w.buf = append(w.buf[:0], ' ')
		w.buf = appendPadded(w.buf, v)
		if (i+1)%valuesPerLine == 0 {
			w.buf = append(w.buf, '\n')
		}
		if _, err := out.Write(w.buf); err != nil {
			return err
		}
	}
	if len(values)%valuesPerLine != 0 {
		return out.WriteByte('\n')
	}
	return nil
}

// appendPadded appends v as %9.4f.
func appendPadded(dst []byte, v float64) []byte {
	var tmp [32]byte
	s := strconv.AppendFloat(tmp[:0], v, 'f', 4, 64)
	for i := len(s); i < valueWidth-1; i++ {
		dst = append(dst, ' ')
	}
	return append(dst, s...)
}

// Flush writes buffered records to the underlying streams.
func (w *Writer) Flush() error {
	return errors.Join(w.pre.Flush(), w.wnd.Flush())
}

// Close flushes and, for files opened by NewWriter, closes them. Closing
// twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	errs := []error{w.Flush()}
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
