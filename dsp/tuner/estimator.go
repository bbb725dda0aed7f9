package tuner

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-tuner/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// ErrInvalidConfig is returned for unusable analysis settings.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// Key maxima below this fraction of the strongest one are ignored.
	peakFraction = 0.9
	// Estimates with a lower normalized correlation are rejected.
	minClarity = 0.5
)

// Estimate is the result of analyzing one frame.
type Estimate struct {
	FreqHz  float64
	Clarity float64 // normalized autocorrelation at the chosen lag, in [0, 1]
	RMS     float64
}

// Estimator finds the fundamental of a fixed-size frame. It windows the frame
// with a Hann window, computes the autocorrelation through a zero-padded FFT,
// divides out the window's own autocorrelation and picks the first strong
// maximum within the configured lag range.
//
// An Estimator owns its scratch buffers and is not safe for concurrent use.
type Estimator struct {
	sampleRate float64
	frameSize  int
	minLag     int
	maxLag     int

	plan   *algofft.Plan[complex128]
	window []float64
	winACF []float64

	windowed []float64
	buf      []complex128
	spec     []complex128
	re, im   []float64
	power    []float64
	acf      []float64
}

// NewEstimator prepares an estimator for frames of frameSize samples.
// frameSize must be a power of two holding at least two periods of minHz.
func NewEstimator(sampleRate float64, frameSize int, minHz, maxHz float64) (*Estimator, error) {
	switch {
	case !(sampleRate > 0) || math.IsInf(sampleRate, 0):
		return nil, fmt.Errorf("tuner: sample rate must be > 0: %w", ErrInvalidConfig)
	case !(minHz > 0) || !(maxHz > minHz):
		return nil, fmt.Errorf("tuner: frequency range [%v, %v]: %w", minHz, maxHz, ErrInvalidConfig)
	case maxHz >= sampleRate/2:
		return nil, fmt.Errorf("tuner: max frequency %v must be below Nyquist %v: %w", maxHz, sampleRate/2, ErrInvalidConfig)
	case frameSize < 16 || frameSize&(frameSize-1) != 0:
		return nil, fmt.Errorf("tuner: frame size %d must be a power of two >= 16: %w", frameSize, ErrInvalidConfig)
	}

	minLag := int(math.Floor(sampleRate / maxHz))
	maxLag := int(math.Ceil(sampleRate / minHz))
	if minLag < 2 {
		minLag = 2
	}

	if 2*(maxLag+1) > frameSize {
		return nil, fmt.Errorf("tuner: frame size %d too short for %v Hz: %w", frameSize, minHz, ErrInvalidConfig)
	}

	fftSize := 2 * frameSize
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("tuner: failed to create FFT plan: %w", err)
	}

	e := &Estimator{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		minLag:     minLag,
		maxLag:     maxLag,
		plan:       plan,
		window:     window.Generate(window.TypeHann, frameSize),
		winACF:     make([]float64, maxLag+2),
		windowed:   make([]float64, frameSize),
		buf:        make([]complex128, fftSize),
		spec:       make([]complex128, fftSize),
		re:         make([]float64, fftSize),
		im:         make([]float64, fftSize),
		power:      make([]float64, fftSize),
		acf:        make([]float64, maxLag+2),
	}

	if err := e.autocorrelate(e.window); err != nil {
		return nil, err
	}

	copy(e.winACF, e.acf)

	return e, nil
}

// FrameSize returns the number of samples Estimate expects.
func (e *Estimator) FrameSize() int { return e.frameSize }

// LagRange returns the smallest and largest period, in samples, that can be
// reported.
func (e *Estimator) LagRange() (minLag, maxLag int) { return e.minLag, e.maxLag }

// Estimate analyzes frame, oldest sample first. ok is false when no periodic
// component with sufficient clarity lies in the configured range. The RMS is
// reported in both cases.
func (e *Estimator) Estimate(frame []float64) (est Estimate, ok bool) {
	if len(frame) != e.frameSize {
		return Estimate{}, false
	}

	var mean float64
	for _, v := range frame {
		mean += v
	}

	mean /= float64(len(frame))

	var energy float64
	for i, v := range frame {
		d := v - mean
		e.windowed[i] = d
		energy += d * d
	}

	est.RMS = math.Sqrt(energy / float64(len(frame)))
	if energy == 0 {
		return est, false
	}

	vecmath.MulBlockInPlace(e.windowed, e.window)
	if err := e.autocorrelate(e.windowed); err != nil {
		return est, false
	}

	// Normalized autocorrelation: r(τ) / (r(0) · rw(τ)).
	nacf := e.acf
	for tau := range nacf {
		nacf[tau] /= e.winACF[tau]
	}

	lag, clarity, found := e.pickPeak(nacf)
	if !found {
		return est, false
	}

	freq := e.sampleRate / lag
	est.FreqHz = freq
	est.Clarity = clarity

	return est, clarity >= minClarity && freq >= e.sampleRate/float64(e.maxLag) && freq <= e.sampleRate/float64(e.minLag)
}

// autocorrelate fills e.acf[0:maxLag+2] with the autocorrelation of x
// normalized to acf[0] == 1.
func (e *Estimator) autocorrelate(x []float64) error {
	for i := range e.buf {
		e.buf[i] = 0
	}

	for i, v := range x {
		e.buf[i] = complex(v, 0)
	}

	if err := e.plan.Forward(e.spec, e.buf); err != nil {
		return fmt.Errorf("tuner: forward FFT failed: %w", err)
	}

	for i, c := range e.spec {
		e.re[i] = real(c)
		e.im[i] = imag(c)
	}

	vecmath.Power(e.power, e.re, e.im)
	for i, p := range e.power {
		e.spec[i] = complex(p, 0)
	}

	if err := e.plan.Inverse(e.buf, e.spec); err != nil {
		return fmt.Errorf("tuner: inverse FFT failed: %w", err)
	}

	r0 := real(e.buf[0])
	if r0 == 0 {
		return errors.New("tuner: zero energy")
	}

	for tau := range e.acf {
		e.acf[tau] = real(e.buf[tau]) / r0
	}

	return nil
}

// pickPeak skips the lobe around lag zero, collects the maximum of every
// following positive lobe and returns the first one within peakFraction of
// the strongest, refined by parabolic interpolation.
func (e *Estimator) pickPeak(nacf []float64) (lag, value float64, ok bool) {
	tau := 1
	for tau <= e.maxLag && nacf[tau] > 0 {
		tau++
	}

	bestTau, bestVal := -1, 0.0
	firstTau := -1
	var keys [64]int
	nkeys := 0

	for tau <= e.maxLag {
		for tau <= e.maxLag && nacf[tau] <= 0 {
			tau++
		}

		peak := -1
		for tau <= e.maxLag && nacf[tau] > 0 {
			if peak < 0 || nacf[tau] > nacf[peak] {
				peak = tau
			}

			tau++
		}

		if peak < e.minLag {
			continue
		}

		if nkeys < len(keys) {
			keys[nkeys] = peak
			nkeys++
		}

		if nacf[peak] > bestVal {
			bestTau, bestVal = peak, nacf[peak]
		}
	}

	if bestTau < 0 {
		return 0, 0, false
	}

	for _, k := range keys[:nkeys] {
		if nacf[k] >= peakFraction*bestVal {
			firstTau = k

			break
		}
	}

	if firstTau < 0 {
		firstTau = bestTau
	}

	lag, value = parabolic(nacf, firstTau)

	return lag, math.Min(value, 1), true
}

// parabolic refines the maximum at index i through its two neighbors.
func parabolic(y []float64, i int) (float64, float64) {
	if i <= 0 || i >= len(y)-1 {
		return float64(i), y[i]
	}

	a, b, c := y[i-1], y[i], y[i+1]
	den := a - 2*b + c
	if den == 0 {
		return float64(i), b
	}

	d := 0.5 * (a - c) / den

	return float64(i) + d, b - 0.25*(a-c)*d
}
