package physical

import "math"

// Unit is an amount of the unit per SI base unit. One metre per second is
// 1.94384 knots, so Knot is 1.94384.
type Unit float64

// Speed units.
const (
	MetersPerSecond   Unit = 1.0
	Knot              Unit = 1.94384
	MilesPerHour      Unit = 2.23694
	KilometersPerHour Unit = 3.6
)

// Length units.
const (
	Meter        Unit = 1.0
	Kilometer    Unit = 0.001
	NauticalMile Unit = 1.0 / 1851.995396854
	Mile         Unit = 1.0 / 1609.344
)

// Pressure units.
const (
	Pascal   Unit = 1.0
	Millibar Unit = 0.01
)

// Angle units.
const (
	Radian Unit = 1.0
	Degree Unit = 180.0 / math.Pi
)

// Convert returns the multiplier that takes a value expressed in from into to.
//
//	ms := 64 * physical.Convert(physical.Knot, physical.MetersPerSecond)
func Convert(from, to Unit) float64 {
	return float64(to) / float64(from)
}

// Frequently used conversion factors.
var (
	KnotToMS = Convert(Knot, MetersPerSecond)
	MSToKnot = Convert(MetersPerSecond, Knot)
	NmiToM   = Convert(NauticalMile, Meter)
	MToNmi   = Convert(Meter, NauticalMile)
	MbToPa   = Convert(Millibar, Pascal)
	PaToMb   = Convert(Pascal, Millibar)
)
