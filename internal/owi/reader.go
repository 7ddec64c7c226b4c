package owi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Header is the first line of an OWI file.
type Header struct {
	Start time.Time
	End   time.Time
}

// RecordHeader describes the grid and valid time of one record.
type RecordHeader struct {
	Ny    int
	Nx    int
	Dx    float64
	Dy    float64
	SWLat float64
	SWLon float64
	Time  time.Time
}

// Len is the number of values in each block of the record.
func (h RecordHeader) Len() int { return h.Nx * h.Ny }

// Record is one time step. Pressure files have one block, wind files two.
type Record struct {
	Header RecordHeader
	Blocks [][]float64
}

// ParseHeader decodes the file header line.
func ParseHeader(line string) (Header, error) {
	if !strings.HasPrefix(line, "Oceanweather WIN/PRE Format") {
		return Header{}, fmt.Errorf("%w: bad file header %q", ErrFormat, line)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Header{}, fmt.Errorf("%w: bad file header %q", ErrFormat, line)
	}
	start, err := time.Parse(headerLayout, fields[len(fields)-2])
	if err != nil {
		return Header{}, fmt.Errorf("%w: start date: %v", ErrFormat, err)
	}
	end, err := time.Parse(headerLayout, fields[len(fields)-1])
	if err != nil {
		return Header{}, fmt.Errorf("%w: end date: %v", ErrFormat, err)
	}
	return Header{Start: start, End: end}, nil
}

// ParseRecordHeader decodes a fixed-width record header line.
func ParseRecordHeader(line string) (RecordHeader, error) {
	var h RecordHeader
	var err error
	fields := []struct {
		label string
		width int
		set   func(string) error
	}{
		{"iLat=", 4, func(s string) error { h.Ny, err = strconv.Atoi(s); return err }},
		{"iLong=", 4, func(s string) error { h.Nx, err = strconv.Atoi(s); return err }},
		{"DX=", 6, func(s string) error { h.Dx, err = strconv.ParseFloat(s, 64); return err }},
		{"DY=", 6, func(s string) error { h.Dy, err = strconv.ParseFloat(s, 64); return err }},
		{"SWLat=", 8, func(s string) error { h.SWLat, err = strconv.ParseFloat(s, 64); return err }},
		{"SWLon=", 8, func(s string) error { h.SWLon, err = strconv.ParseFloat(s, 64); return err }},
		{"DT=", 12, func(s string) error { h.Time, err = time.Parse(recordLayout, s); return err }},
	}
	pos := 0
	for _, f := range fields {
		if !strings.HasPrefix(line[pos:], f.label) {
			return RecordHeader{}, fmt.Errorf("%w: expected %q at column %d in %q", ErrFormat, f.label, pos, line)
		}
		pos += len(f.label)
		if pos+f.width > len(line) {
			return RecordHeader{}, fmt.Errorf("%w: record header truncated: %q", ErrFormat, line)
		}
		if err := f.set(strings.TrimSpace(line[pos : pos+f.width])); err != nil {
			return RecordHeader{}, fmt.Errorf("%w: %s%s: %v", ErrFormat, f.label, line[pos:pos+f.width], err)
		}
		pos += f.width
	}
	return h, nil
}

// Reader iterates over the records of one OWI file.
type Reader struct {
	Header Header

	sc     *bufio.Scanner
	blocks int
	line   int
}

// NewPressureReader reads a .pre file.
func NewPressureReader(r io.Reader) (*Reader, error) { return newReader(r, pressureFields) }

// NewWindReader reads a .wnd file.
func NewWindReader(r io.Reader) (*Reader, error) { return newReader(r, windFields) }

func newReader(r io.Reader, blocks int) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read owi header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty file", ErrFormat)
	}
	h, err := ParseHeader(sc.Text())
	if err != nil {
		return nil, err
	}
	return &Reader{Header: h, sc: sc, blocks: blocks, line: 1}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Record{}, fmt.Errorf("read owi record: %w", err)
		}
		return Record{}, io.EOF
	}
	r.line++
	h, err := ParseRecordHeader(r.sc.Text())
	if err != nil {
		return Record{}, fmt.Errorf("line %d: %w", r.line, err)
	}

	rec := Record{Header: h, Blocks: make([][]float64, r.blocks)}
	for b := range rec.Blocks {
		vals, err := r.readBlock(h.Len())
		if err != nil {
			return Record{}, fmt.Errorf("record %s block %d: %w", h.Time.Format(recordLayout), b, err)
		}
		rec.Blocks[b] = vals
	}
	return rec, nil
}

func (r *Reader) readBlock(n int) ([]float64, error) {
	vals := make([]float64, 0, n)
	for len(vals) < n {
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %d of %d values", io.ErrUnexpectedEOF, len(vals), n)
		}
		r.line++
		for _, tok := range strings.Fields(r.sc.Text()) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, r.line, err)
			}
			vals = append(vals, v)
		}
	}
	if len(vals) != n {
		return nil, fmt.Errorf("%w: line %d: block has %d values, want %d", ErrFormat, r.line, len(vals), n)
	}
	return vals, nil
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
