package preprocess

import (
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-gahm/internal/atcf"
	"github.com/couchcryptid/storm-gahm/internal/physical"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadTrack(t *testing.T) *atcf.Track {
	t.Helper()
	track, err := atcf.ReadFile(filepath.Join("..", "..", "testdata", "bal122005.dat"), discardLogger())
	require.NoError(t, err)
	return track
}

func nmi(v float64) float64 { return v * physical.NmiToM }

func TestFillMissingRadii(t *testing.T) {
	tests := []struct {
		name  string
		radii [atcf.NumQuadrants]float64
		want  [atcf.NumQuadrants]float64
	}{
		{"none missing", [4]float64{10, 20, 30, 40}, [4]float64{10, 20, 30, 40}},
		{"one missing", [4]float64{25, 25, 0, 15}, [4]float64{25, 25, 20, 15}},
		{"one missing wraps", [4]float64{0, 20, 30, 40}, [4]float64{30, 20, 30, 40}},
		{"two missing", [4]float64{60, 60, 0, 0}, [4]float64{60, 60, 60, 60}},
		{"two missing mixed", [4]float64{40, 0, 20, 0}, [4]float64{40, 30, 20, 30}},
		{"three missing", [4]float64{15, 0, 0, 0}, [4]float64{15, 15, 15, 15}},
		{"all missing", [4]float64{0, 0, 0, 0}, [4]float64{5, 5, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := atcf.Snap{Rmax: 5}
			snap.AddIsotach(atcf.NewIsotach(20, tt.radii))

			FillMissingRadii(&snap, discardLogger())

			for q := range tt.want {
				assert.InDelta(t, tt.want[q], snap.Isotachs[0].Quadrants[q].IsotachRadius, 1e-12, "quadrant %d", q)
			}
		})
	}
}

func TestFillMissingRadii_Count(t *testing.T) {
	snap := atcf.Snap{Rmax: 5}
	snap.AddIsotach(atcf.NewIsotach(20, [4]float64{15, 0, 0, 0}))
	snap.AddIsotach(atcf.NewIsotach(30, [4]float64{1, 2, 3, 4}))
	assert.Equal(t, 3, FillMissingRadii(&snap, discardLogger()))
	assert.Equal(t, 0, FillMissingRadii(&snap, discardLogger()))
}

func TestTranslationBetween(t *testing.T) {
	at := func(x, y float64, h int) *atcf.Snap {
		return &atcf.Snap{
			Position: atcf.Position{X: x, Y: y},
			Date:     time.Date(2005, 8, 25, h, 0, 0, 0, time.UTC),
		}
	}

	t.Run("due west", func(t *testing.T) {
		tr := TranslationBetween(at(-79.0, 26.2, 12), at(-79.6, 26.2, 18))
		assert.InDelta(t, math.Pi, tr.Direction, 1e-9)
		assert.InDelta(t, 2.7727, tr.Speed, 1e-3)
		assert.Less(t, tr.U(), 0.0)
		assert.InDelta(t, 0.0, tr.V(), 1e-9)
	})

	t.Run("due north", func(t *testing.T) {
		tr := TranslationBetween(at(-79.0, 26.0, 12), at(-79.0, 27.0, 18))
		assert.InDelta(t, physical.HalfPi, tr.Direction, 1e-9)
		assert.InDelta(t, 0.0, tr.Heading(), 1e-6)
	})

	t.Run("south east", func(t *testing.T) {
		tr := TranslationBetween(at(-79.0, 26.0, 12), at(-78.0, 25.0, 18))
		assert.Greater(t, tr.Direction, 3*physical.HalfPi)
		assert.Less(t, tr.Direction, physical.TwoPi)
		assert.Positive(t, tr.U())
		assert.Negative(t, tr.V())
	})

	t.Run("same time", func(t *testing.T) {
		assert.Equal(t, atcf.Translation{}, TranslationBetween(at(-79.0, 26.0, 12), at(-78.0, 25.0, 12)))
	})
}

func TestComputeTranslations_SingleSnap(t *testing.T) {
	track := loadTrack(t)
	single := atcf.NewTrack(*track.Snap(3))
	single.Snap(0).Translation = atcf.Translation{Speed: 9, Direction: 1}

	ComputeTranslations(single)
	assert.Equal(t, atcf.Translation{}, single.Snap(0).Translation)
}

func TestBoundaryLayerSpeed(t *testing.T) {
	t.Run("stationary storm", func(t *testing.T) {
		for q := 0; q < atcf.NumQuadrants; q++ {
			assert.InDelta(t, 18.0/0.9, BoundaryLayerSpeed(18.0, atcf.Translation{}, q), 1e-12)
		}
	})

	t.Run("moving storm", func(t *testing.T) {
		tr := atcf.Translation{Speed: 3.2329, Direction: 2.6432}
		w := 34 * physical.KnotToMS
		assert.InDelta(t, 22.1209, BoundaryLayerSpeed(w, tr, 0), 1e-3)
		assert.InDelta(t, 17.0845, BoundaryLayerSpeed(w, tr, 1), 1e-3)
		assert.InDelta(t, 17.0845, BoundaryLayerSpeed(w, tr, 2), 1e-3)
		assert.InDelta(t, 22.1209, BoundaryLayerSpeed(w, tr, 3), 1e-3)
	})

	t.Run("eastward storm", func(t *testing.T) {
		// |w + T|² = w² + T² + 2wT·cos(45°) when the quadrant centre is 45°
		// off the motion, and the cosine flips sign 90° further round.
		const w, speed = 20.0, 5.0
		tr := atcf.Translation{Speed: speed, Direction: 0}
		with := math.Sqrt(w*w+speed*speed+2*w*speed*math.Sqrt2/2) / 0.9
		against := math.Sqrt(w*w+speed*speed-2*w*speed*math.Sqrt2/2) / 0.9

		assert.InDelta(t, with, BoundaryLayerSpeed(w, tr, 0), 1e-9)
		assert.InDelta(t, against, BoundaryLayerSpeed(w, tr, 1), 1e-9)
		assert.InDelta(t, against, BoundaryLayerSpeed(w, tr, 2), 1e-9)
		assert.InDelta(t, with, BoundaryLayerSpeed(w, tr, 3), 1e-9)
		assert.InDelta(t, 26.4440, BoundaryLayerSpeed(w, tr, 0), 1e-3)
		assert.Greater(t, BoundaryLayerSpeed(w, tr, 0), BoundaryLayerSpeed(w, tr, 2))
	})
}

func TestPrepare(t *testing.T) {
	track := loadTrack(t)
	Prepare(track, discardLogger())

	first := track.Snap(0)
	assert.Equal(t, track.Snap(1).Translation, first.Translation)
	assert.InDelta(t, 3.2329, first.Translation.Speed, 1e-3)
	assert.InDelta(t, 2.6432, first.Translation.Direction, 1e-3)

	// 2005-08-25 06Z: the 50 kt isotach only reports NE.
	s := track.Snap(6)
	require.Equal(t, 2, s.NumberOfIsotachs())
	assert.Greater(t, s.Isotachs[0].WindSpeed, s.Isotachs[1].WindSpeed)
	for q := 0; q < atcf.NumQuadrants; q++ {
		assert.InDelta(t, nmi(15), s.Isotachs[0].Quadrants[q].IsotachRadius, 1e-9)
		assert.Equal(t, s.Vmax, s.Isotachs[0].Quadrants[q].VmaxAtBoundaryLayer)
		assert.Positive(t, s.Isotachs[0].Quadrants[q].IsotachSpeedAtBoundaryLayer)
	}
	assert.Equal(t, []float64{nmi(15), nmi(70)}, s.Radii(0))

	// 2005-08-25 18Z: the 50 kt SW radius is the mean of SE and NW.
	assert.InDelta(t, nmi(20), track.Snap(8).Isotachs[0].Quadrants[2].IsotachRadius, 1e-9)
}

func TestSolve(t *testing.T) {
	track := loadTrack(t)
	Prepare(track, discardLogger())

	require.NoError(t, Solve(context.Background(), track, 4))

	for i, s := range track.Snaps() {
		for j, iso := range s.Isotachs {
			for q, quad := range iso.Quadrants {
				assert.Positive(t, quad.RadiusToMaxWinds, "snap %d isotach %d quadrant %d", i, j, q)
				assert.LessOrEqual(t, quad.RadiusToMaxWinds, quad.IsotachRadius)
				assert.Greater(t, quad.HollandB, 1.0)
				assert.Less(t, quad.HollandB, 3.0)
			}
		}
	}

	// 2005-08-26 00Z, 64 kt isotach.
	quad := track.Snap(9).Isotachs[0].Quadrants[0]
	assert.InEpsilon(t, 18696.1, quad.RadiusToMaxWinds, 1e-4)
	assert.InEpsilon(t, 1.6240, quad.HollandB, 1e-3)
}

func TestSolve_Cancelled(t *testing.T) {
	track := loadTrack(t)
	Prepare(track, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Solve(ctx, track, 1), context.Canceled)
}

func TestSolve_ReportsFailure(t *testing.T) {
	track := loadTrack(t)
	Prepare(track, discardLogger())
	track.Snap(2).CentralPressure = track.Snap(2).BackgroundPressure

	err := Solve(context.Background(), track, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2005-08-24T06")
}
