// Package preprocess prepares a parsed ATCF track for the vortex model:
// it fills unreported isotach radii, derives the storm motion between
// snaps, converts isotach speeds to the top of the boundary layer and fits
// the GAHM radius to maximum winds and shape parameter in every quadrant.
package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/gahm"
	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// Prepare readies the track for Solve. The track is modified in place.
func Prepare(track *atcf.Track, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	snaps := track.Snaps()
	for i := range snaps {
		FillMissingRadii(&snaps[i], logger)
	}
	ComputeTranslations(track)
	for i := range snaps {
		s := &snaps[i]
		for j := range s.Isotachs {
			iso := &s.Isotachs[j]
			for q := range iso.Quadrants {
				iso.Quadrants[q].IsotachSpeedAtBoundaryLayer = BoundaryLayerSpeed(iso.WindSpeed, s.Translation, q)
				iso.Quadrants[q].VmaxAtBoundaryLayer = s.Vmax
			}
		}
		s.OrderIsotachs()
	}
}

// FillMissingRadii assigns a radius to every quadrant the record left at
// zero and returns how many were filled. One gap takes the mean of its two
// neighbours, two gaps take the mean of the reported pair, three gaps copy
// the single reported radius and an isotach with no radii falls back to the
// snap's radius to maximum winds.
func FillMissingRadii(snap *atcf.Snap, logger *slog.Logger) int {
	filled := 0
	for j := range snap.Isotachs {
		iso := &snap.Isotachs[j]
		missing := iso.MissingRadii()
		if missing == 0 {
			continue
		}

		var value float64
		switch missing {
		case 1:
			for q := range iso.Quadrants {
				if iso.Quadrants[q].IsotachRadius == 0 {
					left := iso.Quadrant(q + 3).IsotachRadius
					right := iso.Quadrant(q + 1).IsotachRadius
					iso.Quadrants[q].IsotachRadius = (left + right) / 2.0
					value = iso.Quadrants[q].IsotachRadius
				}
			}
		case 2, 3:
			sum := 0.0
			for _, q := range iso.Quadrants {
				sum += q.IsotachRadius
			}
			value = sum / float64(atcf.NumQuadrants-missing)
			setMissing(iso, value)
		default:
			value = snap.Rmax
			setMissing(iso, value)
		}

		logger.Debug("assumed missing isotach radii",
			"date", snap.Date,
			"isotach_kt", math.Round(iso.WindSpeed*physical.MSToKnot),
			"missing", missing,
			"radius_nmi", value*physical.MToNmi,
		)
		filled += missing
	}
	return filled
}

func setMissing(iso *atcf.Isotach, r float64) {
	for q := range iso.Quadrants {
		if iso.Quadrants[q].IsotachRadius == 0 {
			iso.Quadrants[q].IsotachRadius = r
		}
	}
}

// ComputeTranslations sets the forward motion of every snap. The first snap
// takes the motion toward the second; every other snap takes the motion
// from its predecessor. A single-snap track is stationary.
func ComputeTranslations(track *atcf.Track) {
	snaps := track.Snaps()
	for i := range snaps {
		switch {
		case i == 0 && len(snaps) == 1:
			snaps[i].Translation = atcf.Translation{}
		case i == 0:
			snaps[i].Translation = TranslationBetween(&snaps[0], &snaps[1])
		default:
			snaps[i].Translation = TranslationBetween(&snaps[i-1], &snaps[i])
		}
	}
}

// TranslationBetween returns the mean motion from a to b.
func TranslationBetween(a, b *atcf.Snap) atcf.Translation {
	dt := b.Date.Sub(a.Date).Seconds()
	if dt == 0 {
		return atcf.Translation{}
	}
	dx, dy, d := physical.SphericalDx(a.Position.X, a.Position.Y, b.Position.X, b.Position.Y)

	u := math.Abs(dx / dt)
	if b.Position.X-a.Position.X < 0 {
		u = -u
	}
	v := math.Abs(dy / dt)
	if b.Position.Y-a.Position.Y < 0 {
		v = -v
	}

	dir := math.Atan2(v, u)
	if dir < 0 {
		dir += physical.TwoPi
	}
	return atcf.Translation{Speed: d / dt, Direction: dir}
}

// BoundaryLayerSpeed adds the storm motion to an isotach wind blowing
// through quadrant q and scales the result up to the top of the boundary
// layer.
func BoundaryLayerSpeed(windSpeed float64, tr atcf.Translation, q int) float64 {
	theta := atcf.QuadrantAngle(q) + tr.Direction
	u := windSpeed*math.Cos(theta) + tr.U()
	v := windSpeed*math.Sin(theta) + tr.V()
	return math.Hypot(u, v) / physical.TopOfBoundaryLayerToTenMeter
}

// Solve fits every quadrant of every isotach on the track. Quadrants are
// independent and run on up to workers goroutines; workers <= 0 uses
// GOMAXPROCS. The first failure cancels the remaining work.
func Solve(ctx context.Context, track *atcf.Track, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	snaps := track.Snaps()
	for i := range snaps {
		s := &snaps[i]
		for j := range s.Isotachs {
			iso := &s.Isotachs[j]
			for q := range iso.Quadrants {
				quad := &iso.Quadrants[q]
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					res, err := gahm.Solve(gahm.Input{
						IsotachRadius:      quad.IsotachRadius,
						IsotachSpeed:       iso.WindSpeed,
						Vmax:               s.Vmax,
						CentralPressure:    s.CentralPressure,
						BackgroundPressure: s.BackgroundPressure,
						Latitude:           s.Position.Y,
					})
					if err != nil {
						return fmt.Errorf("solve %s isotach %d quadrant %d: %w",
							s.Date.Format("2006-01-02T15"), j, q, err)
					}
					quad.RadiusToMaxWinds = res.Rmax
					quad.HollandB = res.B
					return nil
				})
			}
		}
	}
	return g.Wait()
}
