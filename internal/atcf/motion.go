package atcf

import (
	"math"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// Position is a storm centre in degrees longitude (X) and latitude (Y).
type Position struct {
	X float64 `json:"lon"`
	Y float64 `json:"lat"`
}

// InterpolatePosition returns the position a fraction weight of the way from
// p0 to p1.
func InterpolatePosition(p0, p1 Position, weight float64) Position {
	return Position{
		X: physical.Linear(p0.X, p1.X, weight),
		Y: physical.Linear(p0.Y, p1.Y, weight),
	}
}

// Translation is the forward motion of the storm. Direction is in radians,
// counter-clockwise from east.
type Translation struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// U is the eastward component of the storm motion in m/s.
func (t Translation) U() float64 { return t.Speed * math.Cos(t.Direction) }

// V is the northward component of the storm motion in m/s.
func (t Translation) V() float64 { return t.Speed * math.Sin(t.Direction) }

// Heading returns the compass heading in degrees, 0 = north, clockwise.
func (t Translation) Heading() float64 {
	h := 90.0 - t.Direction*physical.Rad2Deg
	for h < 0 {
		h += 360.0
	}
	for h >= 360.0 {
		h -= 360.0
	}
	return h
}

// InterpolateTranslation blends speed linearly and direction along the
// shorter arc.
func InterpolateTranslation(t0, t1 Translation, weight float64) Translation {
	return Translation{
		Speed:     physical.Linear(t0.Speed, t1.Speed, weight),
		Direction: physical.Angle(t0.Direction, t1.Direction, weight),
	}
}
