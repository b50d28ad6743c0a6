package utils

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b; f=0 gives a, f=1 gives b.
func Lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}
