package atcf

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// ErrShortLine is returned for lines with fewer columns than a best-track
// record requires.
var ErrShortLine = errors.New("atcf line has too few columns")

const (
	dateLayout = "2006010215"
	minColumns = 20
)

// Snap is one time of a storm track, possibly carrying several isotachs.
type Snap struct {
	Basin     Basin
	Date      time.Time
	StormID   int
	StormName string
	StormType string

	Position    Position
	Translation Translation

	// CentralPressure and BackgroundPressure are in Pa.
	CentralPressure    float64
	BackgroundPressure float64
	// Vmax is in m/s and Rmax in metres.
	Vmax float64
	Rmax float64

	Isotachs []Isotach

	radii [NumQuadrants][]float64
}

// ParseSnap decodes one comma-separated ATCF best-track record. Units are
// converted to SI on the way in.
func ParseSnap(line string) (Snap, error) {
	raw := strings.Split(line, ",")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = strings.TrimSpace(t)
	}
	if len(tokens) < minColumns {
		return Snap{}, fmt.Errorf("%w: got %d, need %d", ErrShortLine, len(tokens), minColumns)
	}

	id, err := parseInt(tokens[1])
	if err != nil {
		return Snap{}, fmt.Errorf("parse storm id %q: %w", tokens[1], err)
	}

	date, err := time.ParseInLocation(dateLayout, tokens[2], time.UTC)
	if err != nil {
		return Snap{}, fmt.Errorf("parse date %q: %w", tokens[2], err)
	}
	tau, err := parseInt(tokens[5])
	if err != nil {
		return Snap{}, fmt.Errorf("parse forecast hour %q: %w", tokens[5], err)
	}
	date = date.Add(time.Duration(tau) * time.Hour)

	lat, err := parseCoordinate(tokens[6], 'N', 'S')
	if err != nil {
		return Snap{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := parseCoordinate(tokens[7], 'E', 'W')
	if err != nil {
		return Snap{}, fmt.Errorf("parse longitude: %w", err)
	}

	vmaxKt, err := parseFloat(tokens[8])
	if err != nil {
		return Snap{}, fmt.Errorf("parse vmax %q: %w", tokens[8], err)
	}
	pminMb, err := parseFloat(tokens[9])
	if err != nil {
		return Snap{}, fmt.Errorf("parse central pressure %q: %w", tokens[9], err)
	}
	isoKt, err := parseFloat(tokens[11])
	if err != nil {
		return Snap{}, fmt.Errorf("parse isotach speed %q: %w", tokens[11], err)
	}
	var radiiNmi [NumQuadrants]float64
	for i := range radiiNmi {
		if radiiNmi[i], err = parseFloat(tokens[13+i]); err != nil {
			return Snap{}, fmt.Errorf("parse isotach radius %q: %w", tokens[13+i], err)
		}
	}
	pbkMb, err := parseFloat(tokens[17])
	if err != nil {
		return Snap{}, fmt.Errorf("parse background pressure %q: %w", tokens[17], err)
	}
	if pbkMb <= 0 {
		pbkMb = physical.BackgroundPressure
	}
	rmaxNmi, err := parseFloat(tokens[19])
	if err != nil {
		return Snap{}, fmt.Errorf("parse rmax %q: %w", tokens[19], err)
	}

	s := Snap{
		Basin:              ParseBasin(tokens[0]),
		Date:               date,
		StormID:            id,
		StormType:          tokens[10],
		Position:           Position{X: lon, Y: lat},
		CentralPressure:    pminMb * physical.MbToPa,
		BackgroundPressure: pbkMb * physical.MbToPa,
		Vmax:               vmaxKt * physical.KnotToMS,
		Rmax:               rmaxNmi * physical.NmiToM,
	}
	if len(tokens) > 27 {
		s.StormName = tokens[27]
	}

	if isoKt == 0 {
		// Depressions report no wind radii; treat the maximum wind as a
		// circular isotach at rmax.
		s.AddIsotach(NewIsotach(s.Vmax, [NumQuadrants]float64{s.Rmax, s.Rmax, s.Rmax, s.Rmax}))
	} else {
		var radii [NumQuadrants]float64
		for i, r := range radiiNmi {
			radii[i] = r * physical.NmiToM
		}
		s.AddIsotach(NewIsotach(isoKt*physical.KnotToMS, radii))
	}
	return s, nil
}

// Valid reports whether the snap carries enough data to be solved.
func (s *Snap) Valid() bool {
	if len(s.Isotachs) == 0 {
		return false
	}
	if s.Position.X == 0 && s.Position.Y == 0 {
		return false
	}
	if s.Date.IsZero() {
		return false
	}
	if s.CentralPressure <= 0 || s.CentralPressure >= s.BackgroundPressure {
		return false
	}
	for _, iso := range s.Isotachs {
		if iso.WindSpeed == 0 {
			return false
		}
	}
	return true
}

// AddIsotach appends an isotach. Call OrderIsotachs before querying Radii.
func (s *Snap) AddIsotach(iso Isotach) {
	s.Isotachs = append(s.Isotachs, iso)
}

// NumberOfIsotachs returns the number of isotachs on the snap.
func (s *Snap) NumberOfIsotachs() int { return len(s.Isotachs) }

// HollandB is the snap-level Holland B from vmax and the pressure deficit.
func (s *Snap) HollandB() float64 {
	return physical.HollandB(s.Vmax, s.CentralPressure, s.BackgroundPressure)
}

// OrderIsotachs sorts isotachs from strongest to weakest and rebuilds the
// per-quadrant radii lists, which are then ascending for well-formed data.
func (s *Snap) OrderIsotachs() {
	sort.SliceStable(s.Isotachs, func(i, j int) bool {
		return s.Isotachs[i].WindSpeed > s.Isotachs[j].WindSpeed
	})
	for q := range s.radii {
		radii := make([]float64, len(s.Isotachs))
		for i, iso := range s.Isotachs {
			radii[i] = iso.Quadrants[q].IsotachRadius
		}
		s.radii[q] = radii
	}
}

// Radii returns the isotach radii in the quadrant, ordered like Isotachs.
func (s *Snap) Radii(q int) []float64 {
	return s.radii[QuadrantIndex(q)]
}

// Clone returns a deep copy of the snap.
func (s *Snap) Clone() Snap {
	c := *s
	c.Isotachs = append([]Isotach(nil), s.Isotachs...)
	for q := range s.radii {
		c.radii[q] = append([]float64(nil), s.radii[q]...)
	}
	return c
}

// Format renders one isotach of the snap as a line in the GAHM-extended
// ATCF layout. cycle numbers the snap and start is the time of the first
// snap in the track; the date column carries start and the forecast hour
// column the offset to the snap, so ParseSnap recovers the snap date.
func (s *Snap) Format(cycle int, start time.Time, isotach int) string {
	iso := s.Isotachs[isotach]

	lat := fmt.Sprintf("%3d", int(math.Round(math.Abs(s.Position.Y*10.0))))
	if s.Position.Y < 0 {
		lat += "S"
	} else {
		lat += "N"
	}
	lon := fmt.Sprintf("%4d", int(math.Round(math.Abs(s.Position.X*10.0))))
	if s.Position.X <= 0 {
		lon += "W"
	} else {
		lon += "E"
	}

	nmi := func(v float64) string { return fmt.Sprintf("%5.0f", math.Round(v*physical.MToNmi)) }
	f94 := func(v float64) string { return fmt.Sprintf("%9.4f", v) }

	var rmx, bg, vbl [NumQuadrants]string
	for q := range iso.Quadrants {
		rmx[q] = f94(iso.Quadrants[q].RadiusToMaxWinds * physical.MToNmi)
		bg[q] = f94(iso.Quadrants[q].HollandB)
		vbl[q] = f94(iso.Quadrants[q].IsotachSpeedAtBoundaryLayer)
	}

	stormType := s.StormType
	if stormType == "" {
		stormType = "XX"
	}

	return fmt.Sprintf(
		"%2s, %02d, %10s,   , BEST,%4s,%5s,%6s,%4s,%5s,%3s,%4s,%4s,%5s,%5s,%5s,%5s,%5s,     ,%4s,     ,    ,    ,    ,    ,%4s,%4s,%12s,%4d,%5d,%2d,%2d,%2d,%2d,%9s,%7s,%7s,%7s,%10s,%9s,%9s,%9s,%9s,%9s,%9s,%9s,%9s",
		s.Basin, s.StormID, start.Format(dateLayout),
		fmt.Sprintf("%3d", int(s.Date.Sub(start).Hours())),
		lat, lon,
		fmt.Sprintf("%3d", int(math.Round(s.Vmax*physical.MSToKnot))),
		fmt.Sprintf("%4d", int(math.Round(s.CentralPressure*physical.PaToMb))),
		stormType,
		fmt.Sprintf("%4.0f", math.Round(iso.WindSpeed*physical.MSToKnot)),
		"NEQ",
		nmi(iso.Quadrants[0].IsotachRadius), nmi(iso.Quadrants[1].IsotachRadius),
		nmi(iso.Quadrants[2].IsotachRadius), nmi(iso.Quadrants[3].IsotachRadius),
		fmt.Sprintf("%4d", int(math.Round(s.BackgroundPressure*physical.PaToMb))),
		fmt.Sprintf("%4d", int(math.Round(s.Rmax*physical.MToNmi))),
		fmt.Sprintf("%3d", int(math.Round(s.Translation.Heading()))%360),
		fmt.Sprintf("%3d", int(s.Translation.Speed*physical.MSToKnot)),
		s.StormName, cycle, len(s.Isotachs), 1, 1, 1, 1,
		rmx[0], rmx[1], rmx[2], rmx[3],
		fmt.Sprintf("%9.4f", s.HollandB()),
		bg[0], bg[1], bg[2], bg[3],
		vbl[0], vbl[1], vbl[2], vbl[3],
	)
}

func parseCoordinate(tok string, pos, neg byte) (float64, error) {
	if len(tok) < 2 {
		return 0, fmt.Errorf("coordinate %q too short", tok)
	}
	hemi := tok[len(tok)-1]
	v, err := strconv.ParseFloat(tok[:len(tok)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: %w", tok, err)
	}
	v /= 10.0
	switch hemi {
	case pos:
		return v, nil
	case neg:
		return -v, nil
	default:
		return 0, fmt.Errorf("coordinate %q: unknown hemisphere %q", tok, hemi)
	}
}

// parseFloat treats an empty column as zero, the ATCF convention for
// unreported values.
func parseFloat(tok string) (float64, error) {
	if tok == "" {
		return 0, nil
	}
	return strconv.ParseFloat(tok, 64)
}

func parseInt(tok string) (int, error) {
	if tok == "" {
		return 0, nil
	}
	return strconv.Atoi(tok)
}
