// Package units provides shared constants and conversions for speed
// units. Trace speeds are meters per second; road max-speeds are
// kilometers per hour.
package units

// KPHPerMPS converts meters per second to kilometers per hour.
const KPHPerMPS = 3.6

// MPSToKPH converts a speed in meters per second to km/h.
func MPSToKPH(mps float64) float64 {
	return mps * KPHPerMPS
}

// KPHToMPS converts a speed in km/h to meters per second.
func KPHToMPS(kph float64) float64 {
	return kph / KPHPerMPS
}
