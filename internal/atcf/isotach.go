package atcf

import (
	"fmt"

	"github.com/couchcryptid/storm-gahm/internal/physical"
)

// NumQuadrants is the number of storm quadrants reported per isotach.
const NumQuadrants = 4

// QuadrantIndex maps any integer onto 0..3 so that -1 is the NW quadrant
// and 4 wraps back to NE.
func QuadrantIndex(q int) int {
	return ((q % NumQuadrants) + NumQuadrants) % NumQuadrants
}

// QuadrantAngle returns the centre angle of the quadrant in radians: 45, 135,
// 225, and 315 degrees for NE, SE, SW, and NW.
func QuadrantAngle(q int) float64 {
	return (45.0 + 90.0*float64(QuadrantIndex(q))) * physical.Deg2Rad
}

// Quadrant carries the reported radius of one isotach in one quadrant and
// the parameters fitted for it.
type Quadrant struct {
	Index int

	// IsotachRadius is the distance from the centre to the isotach in metres.
	IsotachRadius float64
	// RadiusToMaxWinds is the fitted GAHM radius to maximum winds in metres.
	RadiusToMaxWinds float64
	// HollandB is the fitted GAHM shape parameter.
	HollandB float64

	VmaxAtBoundaryLayer         float64
	IsotachSpeedAtBoundaryLayer float64
}

// Isotach is a reported wind speed contour with a radius in each quadrant.
type Isotach struct {
	// WindSpeed is in m/s.
	WindSpeed float64
	Quadrants [NumQuadrants]Quadrant
}

// NewIsotach builds an isotach from a wind speed and the NE, SE, SW, NW radii.
func NewIsotach(windSpeed float64, radii [NumQuadrants]float64) Isotach {
	iso := Isotach{WindSpeed: windSpeed}
	for i, r := range radii {
		iso.Quadrants[i] = Quadrant{Index: i, IsotachRadius: r}
	}
	return iso
}

// Quadrant returns the quadrant at a circular index.
func (i Isotach) Quadrant(q int) Quadrant {
	return i.Quadrants[QuadrantIndex(q)]
}

// MissingRadii counts the quadrants with no reported radius.
func (i Isotach) MissingRadii() int {
	n := 0
	for _, q := range i.Quadrants {
		if q.IsotachRadius == 0 {
			n++
		}
	}
	return n
}

func (i Isotach) String() string {
	return fmt.Sprintf("isotach %.1f kt [%.1f %.1f %.1f %.1f] nmi",
		i.WindSpeed*physical.MSToKnot,
		i.Quadrants[0].IsotachRadius*physical.MToNmi,
		i.Quadrants[1].IsotachRadius*physical.MToNmi,
		i.Quadrants[2].IsotachRadius*physical.MToNmi,
		i.Quadrants[3].IsotachRadius*physical.MToNmi,
	)
}
