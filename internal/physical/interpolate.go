package physical

import "math"

// Linear interpolates between v0 and v1; weight 0 returns v0.
func Linear(v0, v1, weight float64) float64 {
	return v0*(1.0-weight) + v1*weight
}

// Angle interpolates between two angles in radians along the shorter arc and
// returns a result in [0, 2π).
func Angle(v0, v1, weight float64) float64 {
	switch d := v1 - v0; {
	case d > math.Pi:
		v1 -= TwoPi
	case d < -math.Pi:
		v1 += TwoPi
	}
	a := Linear(v0, v1, weight)
	for a < 0.0 {
		a += TwoPi
	}
	for a >= TwoPi {
		a -= TwoPi
	}
	return a
}

// AngleIDW blends v0 and v1 by inverse squared angular distance, where
// delta in [0, π/2] is the angle from the direction owning v0. Within one
// degree of either end the nearer value is returned unchanged.
func AngleIDW(v0, v1, delta float64) float64 {
	const (
		angle1  = 1.0 * Deg2Rad
		angle89 = 89.0 * Deg2Rad
		angle90 = 90.0 * Deg2Rad
	)
	switch {
	case delta < angle1:
		return v0
	case delta > angle89:
		return v1
	}
	w0 := 1.0 / (delta * delta)
	w1 := 1.0 / ((angle90 - delta) * (angle90 - delta))
	return (v0*w0 + v1*w1) / (w0 + w1)
}
