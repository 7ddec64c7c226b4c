// Package owi reads and writes Oceanweather WIN/PRE ASCII wind fields.
//
// A pair of files shares one layout. The first line names the format and
// the covered period:
//
//	Oceanweather WIN/PRE Format                            2005082500     2005082600
//
// Each time step then starts with a record header describing the grid
//
//	iLat=  41iLong=  41DX=0.2500DY=0.2500SWLat=20.00000SWLon=-86.0000DT=200508250000
//
// followed by Nx*Ny values, eight per line, ordered west to east within a
// row and rows from south to north. The .pre file carries one block of
// pressure in mb per step; the .wnd file carries a block of eastward wind
// followed by a block of northward wind, both in m/s.
package owi

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is returned when writing to a closed Writer.
	ErrClosed = errors.New("owi writer is closed")
	// ErrTimeSpacing is returned when a record does not follow the previous
	// one by exactly one step.
	ErrTimeSpacing = errors.New("owi records must be evenly spaced")
	// ErrPastEnd is returned for records after the declared end time.
	ErrPastEnd = errors.New("owi record is after the end time")
	// ErrSize is returned when a field does not match the grid.
	ErrSize = errors.New("owi field size does not match grid")
	// ErrFormat is returned by the reader for malformed input.
	ErrFormat = errors.New("malformed owi file")
)

const (
	headerTitle    = "Oceanweather WIN/PRE Format                         "
	headerLayout   = "2006010215"
	recordLayout   = "200601021504"
	valuesPerLine  = 8
	valueWidth     = 10
	preExtension   = ".pre"
	windExtension  = ".wnd"
	pressureFields = 1
	windFields     = 2
)

// Field is a solved set of values on the writer's grid.
type Field interface {
	U() []float64
	V() []float64
	P() []float64
}

// formatCoordinate keeps the south-west corner in eight characters.
func formatCoordinate(v float64) string {
	switch {
	case v <= -100.0:
		return fmt.Sprintf("%8.3f", v)
	case v < 0.0 || v >= 100.0:
		return fmt.Sprintf("%8.4f", v)
	default:
		return fmt.Sprintf("%8.5f", v)
	}
}

func formatHeader(start, end time.Time) string {
	return headerTitle + "   " + start.UTC().Format(headerLayout) + "     " + end.UTC().Format(headerLayout) + "\n"
}
