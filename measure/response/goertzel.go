package response

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Goertzel evaluates a single DFT bin over all samples processed since the
// last Reset.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	omega      float64
	coeff      float64
	s0, s1     float64
	n          int
}

// NewGoertzel creates an analyzer for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	omega := 2 * math.Pi * frequency / sampleRate

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		omega:      omega,
		coeff:      2 * math.Cos(omega),
	}, nil
}

// Reset clears the accumulated state.
func (g *Goertzel) Reset() {
	g.s0, g.s1, g.n = 0, 0, 0
}

// ProcessBlock accumulates a block of samples.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	coeff := g.coeff
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	g.s0, g.s1 = s0, s1
	g.n += len(input)
}

// Bin returns the DFT term sum(x[n]*e^(-j*omega*n)) of the processed
// samples, phase-referenced to the first sample after Reset.
func (g *Goertzel) Bin() complex128 {
	if g.n == 0 {
		return 0
	}

	y := complex(g.s0, 0) - cmplx.Exp(complex(0, -g.omega))*complex(g.s1, 0)

	return y * cmplx.Exp(complex(0, -g.omega*float64(g.n-1)))
}

// Power returns |Bin()|^2.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Frequency returns the analyzed frequency.
func (g *Goertzel) Frequency() float64 { return g.frequency }
