package physical

import "math"

// HollandB is the Holland (1980) shape parameter for a storm with maximum
// wind vmax (m/s), central pressure pc and background pressure pbk (Pa).
func HollandB(vmax, pc, pbk float64) float64 {
	return (vmax * vmax * RhoAir * math.E) / (pbk - pc)
}

// RossbyNumber is vmax/(f*rmax).
func RossbyNumber(vmax, rmax, f float64) float64 {
	return vmax / (f * rmax)
}
