// Package physical holds the physical constants, unit conversions, and earth
// geometry used by the vortex model. All quantities are SI unless a name says
// otherwise.
package physical

import "math"

const (
	TwoPi   = 2.0 * math.Pi
	HalfPi  = math.Pi / 2.0
	Deg2Rad = math.Pi / 180.0
	Rad2Deg = 180.0 / math.Pi
)

const (
	// RhoAir is the density of air in kg/m^3.
	RhoAir = 1.293
	// RhoWater is the density of water in kg/m^3.
	RhoWater = 1000.0
	// Gravity is gravitational acceleration in m/s^2.
	Gravity = 9.80665
	// Omega is the rotation rate of the earth in rad/s.
	Omega = 7.292115e-5

	// BackgroundPressure is the default ambient pressure in millibars.
	BackgroundPressure = 1013.0

	// TopOfBoundaryLayerToTenMeter reduces a boundary-layer wind to 10 m.
	TopOfBoundaryLayerToTenMeter = 0.9
	// TenMeterToTopOfBoundaryLayer is the inverse of TopOfBoundaryLayerToTenMeter.
	TenMeterToTopOfBoundaryLayer = 1.0 / TopOfBoundaryLayerToTenMeter
	// OneMinuteToTenMinuteWind converts a 1-minute sustained wind to a 10-minute mean.
	OneMinuteToTenMinuteWind = 0.8928

	// EquatorialRadius and PolarRadius are the WGS-84 semi axes in metres.
	EquatorialRadius = 6378137.0
	PolarRadius      = 6356752.3
)
