package lowhighcut

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-tuner/dsp/core"
	"github.com/cwbudde/algo-tuner/dsp/filter/biquad"
)

const (
	// DefaultLowCutHz is the break frequency of each low-cut stage.
	DefaultLowCutHz = 23.0
	// DefaultHighCutHz is the -3 dB frequency of the Butterworth lowpass.
	DefaultHighCutHz = 999.0

	// MinSampleRate and MaxSampleRate bound the rate used in the
	// coefficient formulas. Requests outside are clamped.
	MinSampleRate = 1
	MaxSampleRate = 192000

	// maxHighCutRatio keeps the pre-warp angle pi*fc/fs below pi/2.
	maxHighCutRatio = 0.45
)

// Pole terms 2*cos(pi/8) and 2*cos(3*pi/8) of the 4th-order Butterworth
// polynomial, one per second-order section.
const (
	butterworthPole1 = 1.8477590650225735
	butterworthPole2 = 0.76536686473017945
)

// ErrInvalidDesign is returned for cutoff frequencies that cannot form a
// band-limiting filter.
var ErrInvalidDesign = errors.New("invalid design")

// Design selects the cutoff frequencies of a cascade. The cutoffs are fixed
// for the lifetime of a [Cascade]; they are not modulated at run time.
type Design struct {
	LowCutHz  float64
	HighCutHz float64
}

// DefaultDesign returns the 23 Hz / 999 Hz tuner design.
func DefaultDesign() Design {
	return Design{LowCutHz: DefaultLowCutHz, HighCutHz: DefaultHighCutHz}
}

// Validate reports whether both cutoffs are positive and finite and the
// low cut lies below the high cut.
func (d Design) Validate() error {
	if !core.IsFinite(d.LowCutHz) || d.LowCutHz <= 0 {
		return fmt.Errorf("%w: low cut must be > 0: %v", ErrInvalidDesign, d.LowCutHz)
	}

	if !core.IsFinite(d.HighCutHz) || d.HighCutHz <= 0 {
		return fmt.Errorf("%w: high cut must be > 0: %v", ErrInvalidDesign, d.HighCutHz)
	}

	if d.HighCutHz <= d.LowCutHz {
		return fmt.Errorf("%w: high cut %v must exceed low cut %v", ErrInvalidDesign, d.HighCutHz, d.LowCutHz)
	}

	return nil
}

// LowCutCoefficients are the constants of one low-cut stage:
//
//	y[n] = Gain * ((x[n] - x[n-1]) + Decay*y[n-1])
type LowCutCoefficients struct {
	Gain  float64
	Decay float64
}

// SectionCoefficients are the constants of one direct form II lowpass
// section. The intermediate variable follows
//
//	w[n] = x[n] - Norm*(Feedback1*w[n-1] + Feedback2*w[n-2])
//
// and the section output is Norm*(w[n] + 2*w[n-1] + w[n-2]).
type SectionCoefficients struct {
	Norm      float64
	Feedback1 float64
	Feedback2 float64
}

// Constants holds every coefficient derived from a sample rate. The value is
// immutable and fully replaced whenever the rate changes.
type Constants struct {
	// SampleRate is the requested rate; Rate is the clamped rate actually
	// used in the formulas.
	SampleRate uint32
	Rate       float64

	// Design is the design the constants were solved for, with HighCutHz
	// limited to 0.45*Rate.
	Design Design

	// Warp is the bilinear pre-warp term tan(pi*HighCutHz/Rate).
	Warp float64

	LowCut   LowCutCoefficients
	Sections [2]SectionCoefficients
}

// Solve derives the default design's constants for sampleRate.
func Solve(sampleRate uint32) Constants {
	return DefaultDesign().Solve(sampleRate)
}

// Solve derives the constants of d for sampleRate. The rate is clamped to
// [MinSampleRate, MaxSampleRate]. Solve is pure: equal inputs give
// bit-identical constants.
func (d Design) Solve(sampleRate uint32) Constants {
	fs := core.Clamp(float64(sampleRate), MinSampleRate, MaxSampleRate)

	high := math.Min(d.HighCutHz, maxHighCutRatio*fs)
	k := math.Tan(math.Pi * high / fs)
	invK := 1 / k

	w := math.Pi * d.LowCutHz / fs

	return Constants{
		SampleRate: sampleRate,
		Rate:       fs,
		Design:     Design{LowCutHz: d.LowCutHz, HighCutHz: high},
		Warp:       k,
		LowCut: LowCutCoefficients{
			Gain:  1 / (w + 1),
			Decay: 1 - w,
		},
		Sections: [2]SectionCoefficients{
			sectionFor(invK, butterworthPole1),
			sectionFor(invK, butterworthPole2),
		},
	}
}

func sectionFor(invK, pole float64) SectionCoefficients {
	return SectionCoefficients{
		Norm:      1 / ((invK+pole)*invK + 1),
		Feedback1: 2 * (1 - invK*invK),
		Feedback2: (invK-pole)*invK + 1,
	}
}

// LowCutSection expresses one low-cut stage as transfer coefficients.
func (c Constants) LowCutSection() biquad.Coefficients {
	return biquad.Coefficients{
		B0: c.LowCut.Gain,
		B1: -c.LowCut.Gain,
		A1: -c.LowCut.Gain * c.LowCut.Decay,
	}
}

// HighCutSections expresses the two lowpass sections as transfer
// coefficients.
func (c Constants) HighCutSections() [2]biquad.Coefficients {
	var out [2]biquad.Coefficients
	for i, s := range c.Sections {
		out[i] = biquad.Coefficients{
			B0: s.Norm,
			B1: 2 * s.Norm,
			B2: s.Norm,
			A1: s.Norm * s.Feedback1,
			A2: s.Norm * s.Feedback2,
		}
	}

	return out
}

// TransferSections returns all four stages in processing order.
func (c Constants) TransferSections() []biquad.Coefficients {
	lc := c.LowCutSection()
	hc := c.HighCutSections()

	return []biquad.Coefficients{lc, lc, hc[0], hc[1]}
}
