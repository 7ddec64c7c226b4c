package gahm

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// ErrNotConverged is returned when the fit produces a non-finite value.
var ErrNotConverged = errors.New("gahm solution did not converge")

const (
	maxIterations = 200
	bTolerance    = 1e-9
	newtonRelTol  = 1e-12
	minRmax       = 1.0
)

// Input describes one isotach quadrant to fit. Speeds are m/s, radii metres,
// pressures Pa and latitude degrees.
type Input struct {
	IsotachRadius      float64
	IsotachSpeed       float64
	Vmax               float64
	CentralPressure    float64
	BackgroundPressure float64
	Latitude           float64
}

// Result is a fitted quadrant.
type Result struct {
	Rmax       float64
	B          float64
	Phi        float64
	Iterations int
}

// EstimateRmax is the first guess for rmax from the pressure deficit (Pa),
// latitude and isotach radius.
func EstimateRmax(dp, lat, isoRadius float64) float64 {
	r1 := math.Exp(3.015 - 6.291e-5*math.Pow(dp/100.0, 2.0) + 0.337*lat)
	return math.Min(r1, 0.99*isoRadius)
}

// Solve fits rmax and the GAHM shape parameter to the isotach. It alternates
// a Newton solve for rmax at fixed b with an update of phi and b until b
// stops changing.
func Solve(in Input) (Result, error) {
	if in.IsotachRadius <= minRmax {
		return Result{}, fmt.Errorf("isotach radius %.3f m: %w", in.IsotachRadius, ErrNotConverged)
	}
	if in.BackgroundPressure <= in.CentralPressure {
		return Result{}, fmt.Errorf("pressure deficit %.1f Pa: %w", in.BackgroundPressure-in.CentralPressure, ErrNotConverged)
	}

	f := physical.Coriolis(in.Latitude)
	guess := EstimateRmax(in.BackgroundPressure-in.CentralPressure, in.Latitude, in.IsotachRadius)
	b := physical.HollandB(in.Vmax, in.CentralPressure, in.BackgroundPressure)
	phi := 1.0
	rmax := math.NaN()

	for i := 0; i < maxIterations; i++ {
		bPrev := b
		r := SolveRadius(in.IsotachRadius, in.IsotachSpeed, in.Vmax, f, b, guess)
		if isFinite(r) {
			rmax = r
		}
		phi = Phi(in.Vmax, rmax, b, f)
		b = Bg(in.Vmax, rmax, in.CentralPressure, in.BackgroundPressure, f, phi)

		if !isFinite(r) || !isFinite(b) || !isFinite(phi) {
			return Result{}, fmt.Errorf("iteration %d: rmax=%g b=%g phi=%g: %w", i, r, b, phi, ErrNotConverged)
		}
		if math.Abs(b-bPrev) < bTolerance {
			return Result{Rmax: rmax, B: b, Phi: phi, Iterations: i + 1}, nil
		}
	}
	return Result{Rmax: rmax, B: b, Phi: phi, Iterations: maxIterations}, nil
}

// SolveRadius finds rmax in [1, isoRadius] such that the GAHM wind at
// isoRadius equals isoSpeed, by bracketed Newton-Raphson from guess.
func SolveRadius(isoRadius, isoSpeed, vmax, f, b, guess float64) float64 {
	lo, hi := minRmax, isoRadius
	x := math.Min(math.Max(guess, lo), hi)

	for i := 0; i < maxIterations; i++ {
		phi := Phi(vmax, x, b, f)
		fx := FunctionPhi(x, vmax, isoSpeed, isoRadius, f, b, phi)
		if fx == 0 {
			return x
		}
		dfx := DerivativePhi(x, vmax, isoRadius, f, b, phi)

		var next float64
		if dfx == 0 {
			far := lo
			if hi-x > x-lo {
				far = hi
			}
			next = x + (far-x)/2.0
		} else {
			next = x - fx/dfx
		}
		switch {
		case next < lo:
			next = (x + lo) / 2.0
		case next > hi:
			next = (x + hi) / 2.0
		}

		delta := next - x
		x = next
		if math.Abs(delta) <= newtonRelTol*math.Abs(x) {
			break
		}
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
