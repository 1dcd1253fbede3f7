// Package geo provides the local-tangent-plane projection used to
// turn a pair of global GPS fixes into a NED displacement, grounded
// on PX4's get_vector_to_next_waypoint equirectangular small-angle
// approximation.
package geo

import "math"

// EarthRadiusM is CONSTANTS_RADIUS_OF_EARTH from PX4's geo library.
const EarthRadiusM = 6371000.0

// VectorToTarget returns the NED displacement (north, east) in meters
// from (latRefDeg, lonRefDeg) to (latDeg, lonDeg), using an
// equirectangular projection valid for the short baselines a landing
// approach covers.
func VectorToTarget(latRefDeg, lonRefDeg, latDeg, lonDeg float64) (north, east float64) {
	latRef := latRefDeg * math.Pi / 180.0
	lat := latDeg * math.Pi / 180.0
	dLat := lat - latRef
	dLon := (lonDeg - lonRefDeg) * math.Pi / 180.0

	north = dLat * EarthRadiusM
	east = dLon * EarthRadiusM * math.Cos(latRef)
	return north, east
}

// Down returns the NED down displacement from a reference altitude to
// a target altitude: positive when the target is below the reference.
func Down(altRefM, altM float64) float64 {
	return altRefM - altM
}
