package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// EnsureLen32 is the float32 counterpart of EnsureLen. Audio ports deliver
// float32 periods, so host-side scratch memory is float32.
func EnsureLen32(buf []float32, n int) []float32 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float32, n)
}

// Widen converts src into dst and returns the number of converted samples,
// which is the shorter of the two lengths.
func Widen(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i, x := range src[:n] {
		dst[i] = float64(x)
	}

	return n
}

// Zero32 sets all values in buf to 0.
func Zero32(buf []float32) {
	clear(buf)
}
