// Package vortex evaluates the Generalized Asymmetric Holland Model on a set
// of points at a requested time.
//
// A prepared and solved track supplies, for every snap, isotach and
// quadrant, the radius to maximum winds and shape parameter. For each point
// those parameters are blended along the radius between isotachs, around
// the storm between the two nearest quadrants, and in time between the two
// bracketing snaps. The blended profile gives the gradient wind and surface
// pressure, which are then turned into 10 m, 10 minute winds by an inflow
// rotation, a share of the storm motion and a sustained-wind reduction.
package vortex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/gahm"
	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/physical"
)

var (
	// ErrEmptyTrack is returned when a vortex is built without snaps.
	ErrEmptyTrack = errors.New("vortex track has no snaps")
	// ErrUnprepared is returned when the track has not been through
	// preprocess.Prepare.
	ErrUnprepared = errors.New("vortex track is not prepared")
)

const (
	minChunk = 512
	// The profile is singular at the storm centre.
	minDistance = 1.0
)

// Option configures a Vortex.
type Option func(*Vortex)

// WithWorkers bounds the goroutines used by Solve. Zero or less uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(v *Vortex) { v.workers = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vortex) { v.logger = logger }
}

// Vortex solves the wind and pressure fields of one storm on fixed points.
type Vortex struct {
	track   *atcf.Track
	points  []grid.Point
	workers int
	logger  *slog.Logger
}

// New builds a vortex from a prepared and solved track.
func New(track *atcf.Track, points grid.Points, opts ...Option) (*Vortex, error) {
	if track == nil || track.Len() == 0 {
		return nil, ErrEmptyTrack
	}
	for i, s := range track.Snaps() {
		if s.NumberOfIsotachs() == 0 || len(s.Radii(0)) != s.NumberOfIsotachs() {
			return nil, fmt.Errorf("snap %d (%s): %w", i, s.Date.Format(time.RFC3339), ErrUnprepared)
		}
	}
	v := &Vortex{
		track:  track,
		points: points.Points(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.workers <= 0 {
		v.workers = runtime.GOMAXPROCS(0)
	}
	return v, nil
}

// Points returns the locations the vortex is solved on.
func (v *Vortex) Points() []grid.Point { return v.points }

// StormState is the storm interpolated to a time.
type StormState struct {
	Time               time.Time        `json:"time"`
	Position           atcf.Position    `json:"position"`
	Translation        atcf.Translation `json:"translation"`
	CentralPressure    float64          `json:"central_pressure"`
	BackgroundPressure float64          `json:"background_pressure"`
	// Vmax is the reported maximum sustained wind in m/s.
	Vmax float64 `json:"vmax"`
}

// State interpolates the storm centre, motion and pressures to t. Times
// outside the track are clamped to its ends.
func (v *Vortex) State(t time.Time) StormState {
	i0, w := v.selectTime(t)
	s0, s1 := v.track.Snap(i0), v.track.Snap(v.next(i0))
	return StormState{
		Time:               t,
		Position:           atcf.InterpolatePosition(s0.Position, s1.Position, w),
		Translation:        atcf.InterpolateTranslation(s0.Translation, s1.Translation, w),
		CentralPressure:    physical.Linear(s0.CentralPressure, s1.CentralPressure, w),
		BackgroundPressure: physical.Linear(s0.BackgroundPressure, s1.BackgroundPressure, w),
		Vmax:               physical.Linear(s0.Vmax, s1.Vmax, w),
	}
}

// selectTime returns the index of the snap at or before t and the fraction
// of the way to the following snap.
func (v *Vortex) selectTime(t time.Time) (int, float64) {
	n := v.track.Len()
	if !t.After(v.track.Start()) {
		return 0, 0.0
	}
	if !t.Before(v.track.End()) {
		return n - 1, 1.0
	}
	snaps := v.track.Snaps()
	i := sort.Search(n, func(i int) bool { return !snaps[i].Date.Before(t) })
	prev := i - 1
	span := snaps[i].Date.Sub(snaps[prev].Date).Seconds()
	return prev, t.Sub(snaps[prev].Date).Seconds() / span
}

func (v *Vortex) next(i int) int {
	if i+1 < v.track.Len() {
		return i + 1
	}
	return i
}

// Solve evaluates the vortex at every point at time t. Points are split
// into chunks solved concurrently; the result keeps the input order. A NaN
// wind component or pressure fails the solve with a *NaNError.
func (v *Vortex) Solve(ctx context.Context, t time.Time) (*Solution, error) {
	state := v.State(t)
	i0, w := v.selectTime(t)
	s0, s1 := v.track.Snap(i0), v.track.Snap(v.next(i0))

	sol := newSolution(t, state, v.points)
	n := len(v.points)

	chunk := (n + v.workers - 1) / v.workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%minChunk == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				solvePoint(sol, i, &state, s0, s1, w)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := sol.checkNaN(); err != nil {
		v.logger.Error("vortex solution contains nan", "time", t, "error", err)
		return nil, err
	}
	return sol, nil
}

func solvePoint(sol *Solution, i int, state *StormState, s0, s1 *atcf.Snap, w float64) {
	pt := sol.points[i]
	storm := state.Position

	distance := math.Max(physical.Distance(pt.X, pt.Y, storm.X, storm.Y), minDistance)
	azimuth := physical.Azimuth(pt.X, pt.Y, storm.X, storm.Y)
	quadrant, delta := baseQuadrant(azimuth)

	iso0, isoW0 := baseIsotach(distance, quadrant, s0)
	pack0 := quadrantPack(distance, quadrant, delta, s0)
	pack1 := quadrantPack(distance, quadrant, delta, s1)
	pack := pack0.lerp(pack1, w)

	f := physical.Coriolis(pt.Y)
	phi := gahm.Phi(pack.vmax, pack.rmax, pack.b, f)
	speed := gahm.WindSpeed(pack.rmax, pack.vmax, distance, f, pack.b)
	pressure := gahm.Pressure(state.CentralPressure, state.BackgroundPressure, distance, pack.rmax, pack.b, phi) * physical.PaToMb

	u := -speed * math.Cos(azimuth)
	v := speed * math.Sin(azimuth)
	u, v = rotate(u, v, frictionAngle(distance, pack.rmaxTrue), storm.Y)

	ratio := math.Abs(speed) / pack.vmax
	u = (u + ratio*state.Translation.U()) * physical.OneMinuteToTenMinuteWind
	v = (v + ratio*state.Translation.V()) * physical.OneMinuteToTenMinuteWind

	sol.u[i] = u
	sol.v[i] = v
	sol.p[i] = pressure
	sol.quadrant[i] = float64(quadrant)
	sol.quadrantWeight[i] = delta
	sol.isotach[i] = float64(iso0)
	sol.isotachWeight[i] = isoW0
	sol.distance[i] = distance
	sol.azimuth[i] = azimuth
}

// baseQuadrant returns the quadrant whose sector, widened to run from the
// previous quadrant's centre to its own, contains the azimuth, and the
// angle from the previous quadrant's centre.
func baseQuadrant(azimuth float64) (int, float64) {
	const (
		a45  = 45.0 * physical.Deg2Rad
		a135 = 135.0 * physical.Deg2Rad
		a225 = 225.0 * physical.Deg2Rad
		a315 = 315.0 * physical.Deg2Rad
	)
	switch {
	case azimuth < a45:
		return 0, azimuth + a45
	case azimuth <= a135:
		return 1, azimuth - a45
	case azimuth <= a225:
		return 2, azimuth - a135
	case azimuth <= a315:
		return 3, azimuth - a225
	default:
		return 0, azimuth - a315
	}
}

// baseIsotach locates distance among the quadrant's ascending isotach radii.
// It returns the inner isotach index and the fraction of the way to the
// next one.
func baseIsotach(distance float64, quadrant int, snap *atcf.Snap) (int, float64) {
	radii := snap.Radii(quadrant)
	last := len(radii) - 1
	switch {
	case !(distance > radii[0]):
		// Also catches NaN.
		return 0, 0.0
	case distance >= radii[last]:
		return last, 1.0
	}
	i := sort.SearchFloat64s(radii, distance)
	return i - 1, (distance - radii[i-1]) / (radii[i] - radii[i-1])
}

type parameterPack struct {
	rmax         float64
	rmaxTrue     float64
	vmax         float64
	isotachSpeed float64
	b            float64
}

func packOf(snap *atcf.Snap, isotach, quadrant int) parameterPack {
	q := snap.Isotachs[isotach].Quadrant(quadrant)
	return parameterPack{
		rmax:         q.RadiusToMaxWinds,
		rmaxTrue:     q.RadiusToMaxWinds,
		vmax:         q.VmaxAtBoundaryLayer,
		isotachSpeed: q.IsotachSpeedAtBoundaryLayer,
		b:            q.HollandB,
	}
}

func (p parameterPack) lerp(o parameterPack, w float64) parameterPack {
	return parameterPack{
		rmax:         physical.Linear(p.rmax, o.rmax, w),
		rmaxTrue:     physical.Linear(p.rmaxTrue, o.rmaxTrue, w),
		vmax:         physical.Linear(p.vmax, o.vmax, w),
		isotachSpeed: physical.Linear(p.isotachSpeed, o.isotachSpeed, w),
		b:            physical.Linear(p.b, o.b, w),
	}
}

func (p parameterPack) idw(o parameterPack, delta float64) parameterPack {
	return parameterPack{
		rmax:         physical.AngleIDW(p.rmax, o.rmax, delta),
		rmaxTrue:     physical.AngleIDW(p.rmaxTrue, o.rmaxTrue, delta),
		vmax:         physical.AngleIDW(p.vmax, o.vmax, delta),
		isotachSpeed: physical.AngleIDW(p.isotachSpeed, o.isotachSpeed, delta),
		b:            physical.AngleIDW(p.b, o.b, delta),
	}
}

// isotachPack blends the parameters of the isotachs either side of distance
// in one quadrant.
func isotachPack(distance float64, quadrant int, snap *atcf.Snap) parameterPack {
	i, w := baseIsotach(distance, quadrant, snap)
	if i == snap.NumberOfIsotachs()-1 {
		return packOf(snap, i, quadrant)
	}
	return packOf(snap, i, quadrant).lerp(packOf(snap, i+1, quadrant), w)
}

// quadrantPack blends the previous and base quadrant packs by angle.
func quadrantPack(distance float64, quadrant int, delta float64, snap *atcf.Snap) parameterPack {
	prev := isotachPack(distance, quadrant-1, snap)
	base := isotachPack(distance, quadrant, snap)
	return prev.idw(base, delta)
}

// frictionAngle is the inflow angle: 10 degrees inside rmax, rising to 25
// degrees at 1.2 rmax.
func frictionAngle(r, rmax float64) float64 {
	const (
		a10 = 10.0 * physical.Deg2Rad
		a25 = 25.0 * physical.Deg2Rad
		a75 = 75.0 * physical.Deg2Rad
	)
	switch {
	case r < 0:
		return 0
	case r < rmax:
		return a10
	case r < 1.2*rmax:
		return a10 + a75*(r/rmax-1.0)
	default:
		return a25
	}
}

// rotate turns (u, v) toward the storm centre by angle, counter-clockwise
// in the northern hemisphere and clockwise in the southern.
func rotate(u, v, angle, lat float64) (float64, float64) {
	if lat <= 0 {
		angle = -angle
	}
	c, s := math.Cos(angle), math.Sin(angle)
	return u*c - v*s, u*s + v*c
}
