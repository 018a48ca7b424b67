package utils

import "math"

// ModTwoPi maps an angle in radians into [0, 2pi).
func ModTwoPi(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	// math.Mod of a tiny negative angle rounds back up to 2pi.
	if rad >= 2*math.Pi {
		rad = 0
	}
	return rad
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampInt restricts n to [minVal, maxVal].
func ClampInt(n, minVal, maxVal int) int {
	if n < minVal {
		return minVal
	} else if n > maxVal {
		return maxVal
	}
	return n
}

// SignInt returns -1, 0 or 1 depending on the sign of x.
func SignInt(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
