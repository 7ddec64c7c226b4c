// Package grid describes the locations a vortex is evaluated at: a regular
// lon/lat wind grid or an arbitrary point cloud.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidGrid is returned for grids with non-positive spacing or size.
var ErrInvalidGrid = errors.New("invalid wind grid")

// Point is a location in decimal degrees.
type Point struct {
	X float64 `json:"lon"`
	Y float64 `json:"lat"`
}

// Points is implemented by anything a vortex can be solved on.
type Points interface {
	Points() []Point
}

// WindGrid is a regular grid anchored at its lower-left (south-west) corner.
type WindGrid struct {
	Xll float64 `json:"xll" validate:"gte=-360,lte=360"`
	Yll float64 `json:"yll" validate:"gte=-90,lte=90"`
	Dx  float64 `json:"dx" validate:"gt=0"`
	Dy  float64 `json:"dy" validate:"gt=0"`
	Nx  int     `json:"nx" validate:"gte=1"`
	Ny  int     `json:"ny" validate:"gte=1"`
}

// NewWindGrid returns a grid with nx by ny nodes spaced dx, dy degrees apart.
func NewWindGrid(xll, yll, dx, dy float64, nx, ny int) (WindGrid, error) {
	if !(dx > 0) || !(dy > 0) {
		return WindGrid{}, fmt.Errorf("%w: spacing %g x %g", ErrInvalidGrid, dx, dy)
	}
	if nx < 1 || ny < 1 {
		return WindGrid{}, fmt.Errorf("%w: size %d x %d", ErrInvalidGrid, nx, ny)
	}
	return WindGrid{Xll: xll, Yll: yll, Dx: dx, Dy: dy, Nx: nx, Ny: ny}, nil
}

// FromCorners builds a grid from its lower-left and upper-right corners. The
// upper-right node is dropped when the extent is not a whole number of
// steps.
func FromCorners(xll, yll, xur, yur, dx, dy float64) (WindGrid, error) {
	if !(dx > 0) || !(dy > 0) {
		return WindGrid{}, fmt.Errorf("%w: spacing %g x %g", ErrInvalidGrid, dx, dy)
	}
	if xur < xll || yur < yll {
		return WindGrid{}, fmt.Errorf("%w: upper right (%g, %g) below lower left (%g, %g)",
			ErrInvalidGrid, xur, yur, xll, yll)
	}
	nx := int(math.Floor((xur-xll)/dx+1e-9)) + 1
	ny := int(math.Floor((yur-yll)/dy+1e-9)) + 1
	return NewWindGrid(xll, yll, dx, dy, nx, ny)
}

// Xur and Yur are the coordinates of the last node.
func (g WindGrid) Xur() float64 { return g.X(g.Nx - 1) }
func (g WindGrid) Yur() float64 { return g.Y(g.Ny - 1) }

// X returns the longitude of column i.
func (g WindGrid) X(i int) float64 { return g.Xll + float64(i)*g.Dx }

// Y returns the latitude of row j.
func (g WindGrid) Y(j int) float64 { return g.Yll + float64(j)*g.Dy }

// Len is the number of nodes.
func (g WindGrid) Len() int { return g.Nx * g.Ny }

// Index returns the position of node (i, j) in Points.
func (g WindGrid) Index(i, j int) int { return i + j*g.Nx }

// XVector returns the column longitudes, west to east.
func (g WindGrid) XVector() []float64 {
	return span(g.Nx, g.Xll, g.Xur())
}

// YVector returns the row latitudes, south to north.
func (g WindGrid) YVector() []float64 {
	return span(g.Ny, g.Yll, g.Yur())
}

// Points returns every node row by row from the south, x varying fastest.
// This is the order OWI records are written in.
func (g WindGrid) Points() []Point {
	xs, ys := g.XVector(), g.YVector()
	pts := make([]Point, 0, g.Len())
	for _, y := range ys {
		for _, x := range xs {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

func (g WindGrid) String() string {
	return fmt.Sprintf("grid %dx%d at (%.4f, %.4f) step (%.4f, %.4f)", g.Nx, g.Ny, g.Xll, g.Yll, g.Dx, g.Dy)
}

func span(n int, lo, hi float64) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// PointCloud is an ordered set of unstructured points.
type PointCloud struct {
	pts []Point
}

// NewPointCloud copies pts into a cloud.
func NewPointCloud(pts ...Point) *PointCloud {
	return &PointCloud{pts: append([]Point(nil), pts...)}
}

// Add appends a point.
func (c *PointCloud) Add(p Point) { c.pts = append(c.pts, p) }

// Len returns the number of points.
func (c *PointCloud) Len() int { return len(c.pts) }

// At returns the i-th point.
func (c *PointCloud) At(i int) Point { return c.pts[i] }

// Points returns the points in insertion order.
func (c *PointCloud) Points() []Point { return c.pts }
