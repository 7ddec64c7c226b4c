package physical

import "math"

// Coriolis returns the Coriolis parameter at the latitude in degrees.
func Coriolis(lat float64) float64 {
	return 2.0 * Omega * math.Sin(lat*Deg2Rad)
}

// Radius returns the geocentric earth radius in metres at the geodetic
// latitude in degrees.
func Radius(lat float64) float64 {
	phi := lat * Deg2Rad
	c, s := math.Cos(phi), math.Sin(phi)
	a, b := EquatorialRadius, PolarRadius
	num := a*a*a*a*c*c + b*b*b*b*s*s
	den := a*a*c*c + b*b*s*s
	return math.Sqrt(num / den)
}

// Distance is the haversine distance in metres between two lon/lat points,
// using the earth radius at their mean latitude.
func Distance(x1, y1, x2, y2 float64) float64 {
	lat1, lon1 := y1*Deg2Rad, x1*Deg2Rad
	lat2, lon2 := y2*Deg2Rad, x2*Deg2Rad
	dx := lon2 - lon1
	dy := lat2 - lat1
	sy := math.Sin(dy / 2.0)
	sx := math.Sin(dx / 2.0)
	a := sy*sy + math.Cos(lat1)*math.Cos(lat2)*sx*sx
	c := 2.0 * math.Atan2(math.Sqrt(a), math.Sqrt(1.0-a))
	return Radius((y1+y2)/2.0) * c
}

// Azimuth returns the bearing, clockwise from north in [0, 2π), of (x1, y1)
// as seen from (x2, y2).
func Azimuth(x1, y1, x2, y2 float64) float64 {
	dx := (x2 - x1) * Deg2Rad
	phi1 := y1 * Deg2Rad
	phi2 := y2 * Deg2Rad
	ay := math.Sin(dx) * math.Cos(phi2)
	ax := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dx)
	azi := math.Atan2(-ay, -ax)
	if azi < 0.0 {
		azi += TwoPi
	}
	return azi
}

// SphericalDx returns the east-west distance along the mean latitude, the
// north-south distance along the mean longitude, and the full distance
// between two points, all in metres.
func SphericalDx(x1, y1, x2, y2 float64) (dx, dy, d float64) {
	meanX := (x1 + x2) / 2.0
	meanY := (y1 + y2) / 2.0
	dx = Distance(x1, meanY, x2, meanY)
	dy = Distance(meanX, y1, meanX, y2)
	d = Distance(x1, y1, x2, y2)
	return dx, dy, d
}
