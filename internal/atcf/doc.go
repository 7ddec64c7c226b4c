// Package atcf reads and writes Automated Tropical Cyclone Forecast (ATCF)
// best-track records.
//
// # Record Layout
//
// A best-track line is comma separated. The columns used here are:
//
//	0   basin            two-letter code, e.g. "AL"
//	1   storm number     within the basin and year
//	2   date             YYYYMMDDHH, UTC
//	5   tau              forecast hour added to the date (0 for best track)
//	6   latitude         tenths of a degree with N/S suffix, e.g. "257N"
//	7   longitude        tenths of a degree with E/W suffix, e.g. "877W"
//	8   vmax             knots
//	9   minimum pressure millibars
//	10  storm type       TD, TS, HU, ...
//	11  isotach          knots (34, 50, 64, or 0 for no wind radii)
//	13  radii            NE, SE, SW, NW isotach radii in nautical miles
//	17  outer isobar     millibars, used as the background pressure
//	19  rmax             radius to maximum winds, nautical miles
//	27  storm name       optional
//
// A storm time with several isotachs is reported as one line per isotach
// with the same date; Track.Add merges them into one Snap.
//
// # Units
//
// Values are converted to SI when parsed: speeds to m/s, distances to
// metres, pressures to Pa. Positions stay in decimal degrees.
//
// # Quadrants
//
// Isotach radii are reported for the NE, SE, SW and NW quadrants, indexed 0
// through 3 and centred on 45, 135, 225 and 315 degrees clockwise from north.
// A radius of zero means the quadrant was not reported.
package atcf
