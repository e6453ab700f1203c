// services/sensor/adaptive.go
package sensor

import "sensorcode-go/x/mathx"

// thresholdWindow tracks an adaptive interrupt window around a base
// reading. The device asserts its interrupt when the raw value leaves
// [base-tol, base+tol]; on each serviced interrupt the window recenters
// on the reading that escaped it.
type thresholdWindow struct {
	base      uint16
	tolerance uint16
}

// bounds returns the low/high threshold values clamped to the 16-bit
// register range.
func (w thresholdWindow) bounds() (low, high uint16) {
	lo := int32(w.base) - int32(w.tolerance)
	hi := int32(w.base) + int32(w.tolerance)
	return uint16(mathx.Clamp(lo, 0, 65535)), uint16(mathx.Clamp(hi, 0, 65535))
}

// recenter moves the window to a new base if the reading is strictly
// outside it. A reading exactly on a threshold does not move the window.
// Reports whether the window moved.
func (w *thresholdWindow) recenter(raw uint16) bool {
	low, high := w.bounds()
	if mathx.Between(raw, low, high) {
		return false
	}
	w.base = raw
	return true
}
