// Package gahm implements the Generalized Asymmetric Holland Model gradient
// wind profile and the solver that fits a radius to maximum winds and shape
// parameter to a reported isotach.
//
// Symbols follow Gao (2018): vmax is the boundary-layer maximum wind, rmax
// the radius to it, b the GAHM shape parameter, f the Coriolis parameter and
// phi the correction that keeps vmax at rmax when the Rossby number is
// finite. All quantities are SI.
package gahm

import (
	"math"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// Phi is the GAHM correction factor.
func Phi(vmax, rmax, b, f float64) float64 {
	ro := physical.RossbyNumber(vmax, rmax, f)
	return 1.0 + 1.0/(ro*b*(1.0+1.0/ro))
}

// Bg returns the GAHM shape parameter that corresponds to the Holland B of
// the pressure deficit.
func Bg(vmax, rmax, pc, pbk, f, phi float64) float64 {
	ro := physical.RossbyNumber(vmax, rmax, f)
	return physical.HollandB(vmax, pc, pbk) * ((1.0 + 1.0/ro) * math.Exp(phi-1.0)) / phi
}

// Function is the GAHM gradient wind at distance r minus isoSpeed. Its root
// in rmax is the radius to maximum winds that puts the isotach at r.
func Function(rmax, vmax, isoSpeed, r, f, b float64) float64 {
	return FunctionPhi(rmax, vmax, isoSpeed, r, f, b, Phi(vmax, rmax, b, f))
}

// FunctionPhi is Function with a precomputed phi.
func FunctionPhi(rmax, vmax, isoSpeed, r, f, b, phi float64) float64 {
	ro := physical.RossbyNumber(vmax, rmax, f)
	rmbg := math.Pow(rmax/r, b)
	sign := 1.0
	if f < 0 {
		sign = -1.0
	}
	half := r * f / 2.0
	return sign*math.Sqrt(vmax*vmax*(1.0+1.0/ro)*math.Exp(phi*(1.0-rmbg))*rmbg+half*half) - half - isoSpeed
}

// Derivative is d(Function)/d(rmax) at isotach radius r.
func Derivative(rmax, vmax, r, f, b float64) float64 {
	return DerivativePhi(rmax, vmax, r, f, b, Phi(vmax, rmax, b, f))
}

// DerivativePhi is Derivative with a precomputed phi.
func DerivativePhi(rmax, vmax, r, f, b, phi float64) float64 {
	f3 := math.Pow(rmax/r, b)
	f4 := math.Pow(rmax/r, b-1.0)
	f1 := math.Exp(-phi * (f3 - 1.0))
	f2 := f*rmax/vmax + 1.0

	a := f * vmax * f1 * f3
	bb := b * vmax * vmax * f1 * f2 * f4 / r
	c := b * phi * vmax * vmax * f1 * f2 * f3 * f4 / r
	d := 2.0 * math.Sqrt(f*f*r*r/4.0+vmax*vmax*f1*f2*f3)
	return (a + bb - c) / d
}

// Pressure is the surface pressure at distance r, in the units of pc and pbk.
func Pressure(pc, pbk, r, rmax, b, phi float64) float64 {
	return pc + (pbk-pc)*math.Exp(-phi*math.Pow(rmax/r, b))
}

// WindSpeed is the gradient wind speed at distance r.
func WindSpeed(rmax, vmax, r, f, b float64) float64 {
	return Function(rmax, vmax, 0.0, r, f, b)
}
