// Command validate checks a pair of OWI ASCII files (.pre and .wnd) for
// structural integrity and, given the track they were made from, that every
// record matches a fresh vortex solve.
//
// Usage:
//
//	go run ./cmd/validate -prefix out/fort.221 [-track bal122005.dat] [-tolerance 0.01]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/owi"
	"github.com/couchcryptid/storm-gahm/internal/preprocess"
	"github.com/couchcryptid/storm-gahm/internal/vortex"
)

// Plausible bounds for a surface field, in mb and m/s.
const (
	minPressure = 850.0
	maxPressure = 1100.0
	maxWind     = 120.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	prefix    string
	track     string
	tolerance float64
}

func main() {
	var opts options
	flag.StringVar(&opts.prefix, "prefix", "", "OWI file prefix; reads prefix.pre and prefix.wnd")
	flag.StringVar(&opts.track, "track", "", "optional ATCF track to re-solve and compare against")
	flag.Float64Var(&opts.tolerance, "tolerance", 0.01, "largest allowed difference from the re-solved field")
	flag.Parse()

	if opts.prefix == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(context.Background(), opts, os.Stdout))
}

// owiFiles is the parsed content of a .pre/.wnd pair.
type owiFiles struct {
	preHeader owi.Header
	wndHeader owi.Header
	pre       []owi.Record
	wnd       []owi.Record
}

func run(ctx context.Context, opts options, out io.Writer) int {
	fmt.Fprintln(out, "=== OWI Integrity Validation ===")
	fmt.Fprintln(out)

	files, err := load(opts.prefix)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeaders(files),
		validateRecords(files),
		validateRanges(files),
	}
	if opts.track != "" {
		track, err := loadTrack(ctx, opts.track)
		if err != nil {
			fmt.Fprintf(out, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, validateAgainstTrack(ctx, files, track, opts.tolerance))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d pressure, %d wind\n", len(files.pre), len(files.wnd))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func load(prefix string) (*owiFiles, error) {
	preHeader, pre, err := readFile(prefix+".pre", owi.NewPressureReader)
	if err != nil {
		return nil, err
	}
	wndHeader, wnd, err := readFile(prefix+".wnd", owi.NewWindReader)
	if err != nil {
		return nil, err
	}
	return &owiFiles{preHeader: preHeader, wndHeader: wndHeader, pre: pre, wnd: wnd}, nil
}

func readFile(path string, open func(io.Reader) (*owi.Reader, error)) (owi.Header, []owi.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return owi.Header{}, nil, err
	}
	defer f.Close()

	r, err := open(f)
	if err != nil {
		return owi.Header{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	recs, err := r.ReadAll()
	if err != nil {
		return owi.Header{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return r.Header, recs, nil
}

func loadTrack(ctx context.Context, path string) (*atcf.Track, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	track, err := atcf.ReadFile(path, logger)
	if err != nil {
		return nil, err
	}
	preprocess.Prepare(track, logger)
	if err := preprocess.Solve(ctx, track, 0); err != nil {
		return nil, err
	}
	return track, nil
}

// ── Phases ──

func validateHeaders(f *owiFiles) *phase {
	p := &phase{name: "File headers"}
	if !f.preHeader.Start.Equal(f.wndHeader.Start) || !f.preHeader.End.Equal(f.wndHeader.End) {
		p.errorf("pressure header %s..%s differs from wind header %s..%s",
			stamp(f.preHeader.Start), stamp(f.preHeader.End), stamp(f.wndHeader.Start), stamp(f.wndHeader.End))
	}
	if f.preHeader.End.Before(f.preHeader.Start) {
		p.errorf("header end %s is before start %s", stamp(f.preHeader.End), stamp(f.preHeader.Start))
	}
	return p
}

func validateRecords(f *owiFiles) *phase {
	p := &phase{name: "Record structure and time spacing"}
	if len(f.pre) == 0 {
		p.errorf("no records")
		return p
	}
	if len(f.pre) != len(f.wnd) {
		p.errorf("%d pressure records but %d wind records", len(f.pre), len(f.wnd))
	}

	ref := f.pre[0].Header
	var step time.Duration
	for i := range f.pre {
		h := f.pre[i].Header
		if !sameGrid(h, ref) {
			p.errorf("pressure record %d: grid %dx%d differs from first record %dx%d", i, h.Nx, h.Ny, ref.Nx, ref.Ny)
		}
		if i < len(f.wnd) {
			w := f.wnd[i].Header
			if !sameGrid(w, ref) {
				p.errorf("wind record %d: grid differs from pressure grid", i)
			}
			if !w.Time.Equal(h.Time) {
				p.errorf("record %d: pressure time %s, wind time %s", i, stamp(h.Time), stamp(w.Time))
			}
		}
		// Hour-resolution header times truncate the window.
		if h.Time.Before(f.preHeader.Start) || h.Time.After(f.preHeader.End.Add(time.Hour)) {
			p.errorf("record %d: time %s outside header window", i, stamp(h.Time))
		}
		if i == 0 {
			continue
		}
		d := h.Time.Sub(f.pre[i-1].Header.Time)
		if d <= 0 {
			p.errorf("record %d: time %s does not advance", i, stamp(h.Time))
			continue
		}
		if step == 0 {
			step = d
		} else if d != step {
			p.errorf("record %d: spacing %s, expected %s", i, d, step)
		}
	}
	return p
}

func validateRanges(f *owiFiles) *phase {
	p := &phase{name: "Value ranges"}
	for i, rec := range f.pre {
		vals := rec.Blocks[0]
		if floats.HasNaN(vals) {
			p.errorf("pressure record %d (%s) contains NaN", i, stamp(rec.Header.Time))
			continue
		}
		if lo, hi := floats.Min(vals), floats.Max(vals); lo < minPressure || hi > maxPressure {
			p.errorf("pressure record %d (%s): range [%.2f, %.2f] mb outside [%.0f, %.0f]",
				i, stamp(rec.Header.Time), lo, hi, minPressure, maxPressure)
		}
	}
	for i, rec := range f.wnd {
		u, v := rec.Blocks[0], rec.Blocks[1]
		if floats.HasNaN(u) || floats.HasNaN(v) {
			p.errorf("wind record %d (%s) contains NaN", i, stamp(rec.Header.Time))
			continue
		}
		peak := 0.0
		for j := range u {
			peak = math.Max(peak, math.Hypot(u[j], v[j]))
		}
		if peak > maxWind {
			p.errorf("wind record %d (%s): peak speed %.2f m/s above %.0f", i, stamp(rec.Header.Time), peak, maxWind)
		}
	}
	return p
}

func validateAgainstTrack(ctx context.Context, f *owiFiles, track *atcf.Track, tol float64) *phase {
	p := &phase{name: "Agreement with re-solved track"}
	if len(f.pre) == 0 || len(f.pre) != len(f.wnd) {
		p.errorf("record structure invalid; skipping comparison")
		return p
	}
	h := f.pre[0].Header
	g, err := grid.NewWindGrid(h.SWLon, h.SWLat, h.Dx, h.Dy, h.Nx, h.Ny)
	if err != nil {
		p.errorf("record grid: %v", err)
		return p
	}
	v, err := vortex.New(track, g)
	if err != nil {
		p.errorf("build vortex: %v", err)
		return p
	}

	for i := range f.pre {
		t := f.pre[i].Header.Time
		sol, err := v.Solve(ctx, t)
		if err != nil {
			p.errorf("solve %s: %v", stamp(t), err)
			continue
		}
		for _, c := range []struct {
			name string
			got  []float64
			want []float64
		}{
			{"pressure", f.pre[i].Blocks[0], sol.P()},
			{"u", f.wnd[i].Blocks[0], sol.U()},
			{"v", f.wnd[i].Blocks[1], sol.V()},
		} {
			if len(c.got) != len(c.want) {
				p.errorf("%s %s: %d values, solve has %d", c.name, stamp(t), len(c.got), len(c.want))
				continue
			}
			if d := floats.Distance(c.got, c.want, math.Inf(1)); d > tol {
				p.errorf("%s %s: max difference %.4f exceeds %.4f", c.name, stamp(t), d, tol)
			}
		}
	}
	return p
}

// ── Helpers ──

func sameGrid(a, b owi.RecordHeader) bool {
	return a.Nx == b.Nx && a.Ny == b.Ny &&
		floatEq(a.Dx, b.Dx) && floatEq(a.Dy, b.Dy) &&
		floatEq(a.SWLat, b.SWLat) && floatEq(a.SWLon, b.SWLon)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04Z")
}
