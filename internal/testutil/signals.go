package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Sine32 generates a deterministic float32 sine wave, the sample format of
// an audio port.
func Sine32(freqHz, sampleRate, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = float32(amplitude * math.Sin(step*float64(i)))
	}

	return out
}

// Noise32 generates float32 white noise in [-amplitude, amplitude] with a
// fixed seed for reproducibility.
func Noise32(seed int64, amplitude float64, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}

	return out
}

// Impulse32 generates a unit impulse at the given position.
func Impulse32(length, pos int) []float32 {
	out := make([]float32, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// Chunks splits n into consecutive block lengths cycling through sizes.
// The last block is shortened so the lengths sum to n.
func Chunks(n int, sizes ...int) []int {
	if len(sizes) == 0 {
		sizes = []int{n}
	}

	var out []int
	for i := 0; n > 0; i++ {
		sz := sizes[i%len(sizes)]
		if sz <= 0 {
			sz = 1
		}

		sz = min(sz, n)
		out = append(out, sz)
		n -= sz
	}

	return out
}
