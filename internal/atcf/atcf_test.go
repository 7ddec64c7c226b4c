package atcf

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

const katrinaLine = "AL, 12, 2005082812,   , BEST,   0, 257N,  877W, 145,  909, HU,  50, " +
	"NEQ,  120,  120,   75,  100, 1008,  300,  20, 170,   0,   L,   0,    ,  " +
	" 0,   0,    KATRINA, D,"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testdataPath(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "testdata", "bal122005.dat")
}

func TestParseSnap(t *testing.T) {
	t.Run("hurricane record", func(t *testing.T) {
		snap, err := ParseSnap(katrinaLine)
		require.NoError(t, err)

		assert.Equal(t, BasinAL, snap.Basin)
		assert.Equal(t, 12, snap.StormID)
		assert.Equal(t, "KATRINA", snap.StormName)
		assert.Equal(t, "HU", snap.StormType)
		assert.Equal(t, time.Date(2005, 8, 28, 12, 0, 0, 0, time.UTC), snap.Date)
		assert.InDelta(t, 25.7, snap.Position.Y, 1e-12)
		assert.InDelta(t, -87.7, snap.Position.X, 1e-12)
		assert.InDelta(t, 90900.0, snap.CentralPressure, 1e-9)
		assert.InDelta(t, 100800.0, snap.BackgroundPressure, 1e-9)
		assert.InDelta(t, 145*physical.KnotToMS, snap.Vmax, 1e-12)
		assert.InDelta(t, 20*physical.NmiToM, snap.Rmax, 1e-9)

		require.Len(t, snap.Isotachs, 1)
		iso := snap.Isotachs[0]
		assert.InDelta(t, 50*physical.KnotToMS, iso.WindSpeed, 1e-12)
		assert.InDelta(t, 120*physical.NmiToM, iso.Quadrants[0].IsotachRadius, 1e-9)
		assert.InDelta(t, 100*physical.NmiToM, iso.Quadrants[3].IsotachRadius, 1e-9)
		assert.True(t, snap.Valid())
	})

	t.Run("depression without wind radii", func(t *testing.T) {
		line := "AL, 12, 2005082318,   , BEST,   0, 231N,  751W,  30, 1008, TD,   0, NEQ,    0,    0,    0,    0, 1012,  180,  40,   45,   0,   L,   0,    ,   0,   0,     TWELVE, M,"
		snap, err := ParseSnap(line)
		require.NoError(t, err)

		require.Len(t, snap.Isotachs, 1)
		iso := snap.Isotachs[0]
		assert.Equal(t, snap.Vmax, iso.WindSpeed)
		for q := range iso.Quadrants {
			assert.Equal(t, snap.Rmax, iso.Quadrants[q].IsotachRadius)
		}
	})

	t.Run("missing background pressure uses default", func(t *testing.T) {
		line := strings.Replace(katrinaLine, " 1008,", "    0,", 1)
		snap, err := ParseSnap(line)
		require.NoError(t, err)
		assert.InDelta(t, 101300.0, snap.BackgroundPressure, 1e-9)
	})

	t.Run("forecast hour offsets the date", func(t *testing.T) {
		line := strings.Replace(katrinaLine, " BEST,   0,", " BEST,  12,", 1)
		snap, err := ParseSnap(line)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2005, 8, 29, 0, 0, 0, 0, time.UTC), snap.Date)
	})

	t.Run("southern and eastern hemisphere", func(t *testing.T) {
		line := strings.Replace(strings.Replace(katrinaLine, "257N", "157S", 1), "877W", "1277E", 1)
		snap, err := ParseSnap(line)
		require.NoError(t, err)
		assert.InDelta(t, -15.7, snap.Position.Y, 1e-12)
		assert.InDelta(t, 127.7, snap.Position.X, 1e-12)
	})

	t.Run("short line", func(t *testing.T) {
		_, err := ParseSnap("AL, 12, 2005082812")
		require.ErrorIs(t, err, ErrShortLine)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseSnap(strings.Replace(katrinaLine, "2005082812", "20050828XX", 1))
		require.Error(t, err)
	})

	t.Run("bad hemisphere", func(t *testing.T) {
		_, err := ParseSnap(strings.Replace(katrinaLine, "257N", "257Q", 1))
		require.Error(t, err)
	})
}

func TestSnapValid(t *testing.T) {
	base, err := ParseSnap(katrinaLine)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(s *Snap)
		want   bool
	}{
		{"complete", func(*Snap) {}, true},
		{"no isotachs", func(s *Snap) { s.Isotachs = nil }, false},
		{"origin position", func(s *Snap) { s.Position = Position{} }, false},
		{"zero date", func(s *Snap) { s.Date = time.Time{} }, false},
		{"no pressure", func(s *Snap) { s.CentralPressure = 0 }, false},
		{"pressure above background", func(s *Snap) { s.CentralPressure = s.BackgroundPressure + 100 }, false},
		{"zero isotach", func(s *Snap) { s.Isotachs[0].WindSpeed = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base.Clone()
			tt.mutate(&s)
			assert.Equal(t, tt.want, s.Valid())
		})
	}
}

func TestOrderIsotachs(t *testing.T) {
	s, err := ParseSnap(katrinaLine)
	require.NoError(t, err)
	s.AddIsotach(NewIsotach(64*physical.KnotToMS, [NumQuadrants]float64{40e3, 50e3, 30e3, 35e3}))
	s.AddIsotach(NewIsotach(34*physical.KnotToMS, [NumQuadrants]float64{300e3, 320e3, 250e3, 260e3}))

	s.OrderIsotachs()

	require.Equal(t, 3, s.NumberOfIsotachs())
	assert.InDelta(t, 64*physical.KnotToMS, s.Isotachs[0].WindSpeed, 1e-12)
	assert.InDelta(t, 34*physical.KnotToMS, s.Isotachs[2].WindSpeed, 1e-12)
	assert.Equal(t, []float64{40e3, 120 * physical.NmiToM, 300e3}, s.Radii(0))
	assert.Equal(t, s.Radii(3), s.Radii(-1))
}

func TestQuadrantIndex(t *testing.T) {
	assert.Equal(t, 3, QuadrantIndex(-1))
	assert.Equal(t, 0, QuadrantIndex(4))
	assert.Equal(t, 2, QuadrantIndex(2))
	assert.InDelta(t, 315*physical.Deg2Rad, QuadrantAngle(-1), 1e-12)
}

func TestParseBasin(t *testing.T) {
	assert.Equal(t, BasinAL, ParseBasin("al"))
	assert.Equal(t, BasinWP, ParseBasin(" WP "))
	assert.Equal(t, BasinNone, ParseBasin("XX"))
	assert.Equal(t, "EP", BasinEP.String())
	assert.Equal(t, "NONE", BasinNone.String())
}

func TestTranslationHeading(t *testing.T) {
	tests := []struct {
		dir  float64
		want float64
	}{
		{0, 90},
		{physical.HalfPi, 0},
		{3 * physical.HalfPi, 180},
		{7 * math.Pi / 4, 135},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Translation{Speed: 5, Direction: tt.dir}.Heading(), 1e-9)
	}
}

func TestInterpolateTranslation_ShortArc(t *testing.T) {
	a := Translation{Speed: 2, Direction: 350 * physical.Deg2Rad}
	b := Translation{Speed: 4, Direction: 10 * physical.Deg2Rad}
	mid := InterpolateTranslation(a, b, 0.5)
	assert.InDelta(t, 3.0, mid.Speed, 1e-12)
	assert.InDelta(t, 0.0, mid.Direction, 1e-9)
}

func TestReadFile(t *testing.T) {
	track, err := ReadFile(testdataPath(t), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 14, track.Len())
	assert.Equal(t, "AL122005", track.StormID())
	assert.Equal(t, "KATRINA", track.StormName())
	assert.Equal(t, time.Date(2005, 8, 23, 18, 0, 0, 0, time.UTC), track.Start())
	assert.Equal(t, time.Date(2005, 8, 27, 0, 0, 0, 0, time.UTC), track.End())

	// Lines sharing a date are merged.
	assert.Equal(t, 1, track.Snap(0).NumberOfIsotachs())
	assert.Equal(t, 2, track.Snap(6).NumberOfIsotachs())
	assert.Equal(t, 3, track.Snap(13).NumberOfIsotachs())

	for i := 1; i < track.Len(); i++ {
		assert.True(t, track.Snap(i).Date.After(track.Snap(i-1).Date))
	}
}

func TestRead_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"garbage",
		"",
		katrinaLine,
		strings.Replace(katrinaLine, "257N", "  0N", 1),
	}, "\n")
	input = strings.Replace(input, "  0N,  877W", "  0N,    0W", 1)

	track, err := Read(strings.NewReader(input), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, track.Len())
}

func TestRead_NoSnaps(t *testing.T) {
	_, err := Read(strings.NewReader("nothing here\n"), discardLogger())
	require.ErrorIs(t, err, ErrNoSnaps)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.dat"), discardLogger())
	require.Error(t, err)
}

func TestTrackAdd_Order(t *testing.T) {
	a, err := ParseSnap(katrinaLine)
	require.NoError(t, err)
	b := a.Clone()
	b.Date = a.Date.Add(-6 * time.Hour)
	c := a.Clone()
	c.Date = a.Date.Add(6 * time.Hour)

	track := NewTrack(a, c, b)
	require.Equal(t, 3, track.Len())
	assert.Equal(t, b.Date, track.Start())
	assert.Equal(t, c.Date, track.End())

	track.Add(a.Clone())
	assert.Equal(t, 3, track.Len())
	assert.Equal(t, 2, track.Snap(1).NumberOfIsotachs())
}

func TestTrackWrite_RoundTrip(t *testing.T) {
	track, err := ReadFile(testdataPath(t), discardLogger())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gahm.dat")
	require.NoError(t, track.WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "KATRINA")

	back, err := Read(bytes.NewReader(raw), discardLogger())
	require.NoError(t, err)
	require.Equal(t, track.Len(), back.Len())
	for i := 0; i < track.Len(); i++ {
		want, got := track.Snap(i), back.Snap(i)
		assert.Equal(t, want.Date, got.Date)
		assert.InDelta(t, want.Position.Y, got.Position.Y, 1e-9)
		assert.InDelta(t, want.Position.X, got.Position.X, 1e-9)
		assert.InDelta(t, want.CentralPressure, got.CentralPressure, 1e-6)
		assert.Equal(t, want.NumberOfIsotachs(), got.NumberOfIsotachs())
	}
}

func TestTrackWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, (&Track{}).Write(&buf), ErrNoSnaps)
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("a"))
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, Hash([]byte("a")))
	assert.NotEqual(t, h1, Hash([]byte("b")))
}
