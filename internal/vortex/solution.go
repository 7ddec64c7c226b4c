package vortex

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/storm-gahm/internal/grid"
)

// Kind names a per-point field of a Solution.
type Kind string

const (
	KindPressure       Kind = "pressure"
	KindU              Kind = "u"
	KindV              Kind = "v"
	KindWind           Kind = "wind"
	KindQuadrant       Kind = "quadrant"
	KindQuadrantWeight Kind = "quadrant_weight"
	KindIsotach        Kind = "isotach"
	KindIsotachWeight  Kind = "isotach_weight"
	KindDistance       Kind = "distance"
	KindAzimuth        Kind = "azimuth"
)

// Kinds lists every field a Solution exposes.
var Kinds = []Kind{
	KindPressure, KindU, KindV, KindWind,
	KindQuadrant, KindQuadrantWeight, KindIsotach, KindIsotachWeight,
	KindDistance, KindAzimuth,
}

// ParseKind validates a field name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Solution holds the vortex fields at every point for one time. Winds are
// 10 m, 10 minute winds in m/s and pressure is in mb.
type Solution struct {
	Time  time.Time
	Storm StormState

	points []grid.Point

	u, v, p        []float64
	quadrant       []float64
	quadrantWeight []float64
	isotach        []float64
	isotachWeight  []float64
	distance       []float64
	azimuth        []float64
}

func newSolution(t time.Time, state StormState, points []grid.Point) *Solution {
	n := len(points)
	return &Solution{
		Time:           t,
		Storm:          state,
		points:         points,
		u:              make([]float64, n),
		v:              make([]float64, n),
		p:              make([]float64, n),
		quadrant:       make([]float64, n),
		quadrantWeight: make([]float64, n),
		isotach:        make([]float64, n),
		isotachWeight:  make([]float64, n),
		distance:       make([]float64, n),
		azimuth:        make([]float64, n),
	}
}

// Len returns the number of points.
func (s *Solution) Len() int { return len(s.points) }

// Points returns the solved locations.
func (s *Solution) Points() []grid.Point { return s.points }

// U, V and P return the eastward wind, northward wind and pressure.
func (s *Solution) U() []float64 { return s.u }
func (s *Solution) V() []float64 { return s.v }
func (s *Solution) P() []float64 { return s.p }

// Scalar returns the named field. Quadrant and isotach are indices stored
// as floats; quadrant weight is the angle in radians from the previous
// quadrant centre.
func (s *Solution) Scalar(kind Kind) ([]float64, error) {
	switch kind {
	case KindPressure:
		return s.p, nil
	case KindU:
		return s.u, nil
	case KindV:
		return s.v, nil
	case KindWind:
		return s.WindSpeed(), nil
	case KindQuadrant:
		return s.quadrant, nil
	case KindQuadrantWeight:
		return s.quadrantWeight, nil
	case KindIsotach:
		return s.isotach, nil
	case KindIsotachWeight:
		return s.isotachWeight, nil
	case KindDistance:
		return s.distance, nil
	case KindAzimuth:
		return s.azimuth, nil
	default:
		return nil, fmt.Errorf("unknown field %q", kind)
	}
}

// WindSpeed returns the wind magnitude at every point.
func (s *Solution) WindSpeed() []float64 {
	out := make([]float64, len(s.u))
	for i := range s.u {
		out[i] = math.Hypot(s.u[i], s.v[i])
	}
	return out
}

// Stats summarises a solution.
type Stats struct {
	MinPressure float64 `json:"min_pressure"`
	MaxPressure float64 `json:"max_pressure"`
	MaxWind     float64 `json:"max_wind"`
	MaxWindAt   int     `json:"max_wind_index"`
}

// Stats returns the pressure range and the strongest wind.
func (s *Solution) Stats() Stats {
	if s.Len() == 0 {
		return Stats{MaxWindAt: -1}
	}
	wind := s.WindSpeed()
	idx := floats.MaxIdx(wind)
	return Stats{
		MinPressure: floats.Min(s.p),
		MaxPressure: floats.Max(s.p),
		MaxWind:     wind[idx],
		MaxWindAt:   idx,
	}
}

// Sample is one solved point, used in diagnostics.
type Sample struct {
	Index int
	Point grid.Point
	U     float64
	V     float64
	P     float64
}

func (s Sample) String() string {
	return fmt.Sprintf("[%d] (%.4f, %.4f) u=%f v=%f p=%f", s.Index, s.Point.X, s.Point.Y, s.U, s.V, s.P)
}

// At returns the sample at index i.
func (s *Solution) At(i int) Sample {
	return Sample{Index: i, Point: s.points[i], U: s.u[i], V: s.v[i], P: s.p[i]}
}

// NaNError reports the first point, by index, with a NaN wind component or
// pressure, together with up to two samples either side of it.
type NaNError struct {
	Component string
	Index     int
	Point     grid.Point
	Neighbors []Sample
}

func (e *NaNError) Error() string {
	parts := make([]string, len(e.Neighbors))
	for i, n := range e.Neighbors {
		parts[i] = n.String()
	}
	return fmt.Sprintf("nan in %s at index %d (%.4f, %.4f): %s",
		e.Component, e.Index, e.Point.X, e.Point.Y, strings.Join(parts, "; "))
}

const nanContext = 2

func (s *Solution) checkNaN() error {
	if !floats.HasNaN(s.u) && !floats.HasNaN(s.v) && !floats.HasNaN(s.p) {
		return nil
	}
	for i := range s.points {
		var component string
		switch {
		case math.IsNaN(s.u[i]):
			component = "u"
		case math.IsNaN(s.v[i]):
			component = "v"
		case math.IsNaN(s.p[i]):
			component = "p"
		default:
			continue
		}
		lo := max(i-nanContext, 0)
		hi := min(i+nanContext, s.Len()-1)
		neighbors := make([]Sample, 0, hi-lo+1)
		for k := lo; k <= hi; k++ {
			neighbors = append(neighbors, s.At(k))
		}
		return &NaNError{Component: component, Index: i, Point: s.points[i], Neighbors: neighbors}
	}
	return nil
}
