package response

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-tuner/dsp/core"
)

// Processor is a stateful block filter under test.
type Processor interface {
	ProcessBlock(buf []float64)
	Reset()
}

// Config controls the stimulus of a measurement.
type Config struct {
	// SettleSeconds of stimulus are discarded before measuring.
	SettleSeconds float64
	// MeasureSeconds is the approximate analysis window; it is rounded to
	// a whole number of cycles of the drive frequency.
	MeasureSeconds float64
	// Amplitude of the drive sine.
	Amplitude float64
	// BlockSize is the length of the blocks passed to ProcessBlock.
	BlockSize int
}

// DefaultConfig returns a half-second settle, one-second window at -6 dBFS,
// processed in 256-sample blocks.
func DefaultConfig() Config {
	return Config{
		SettleSeconds:  0.5,
		MeasureSeconds: 1,
		Amplitude:      0.5,
		BlockSize:      256,
	}
}

// Point is one measured response value.
type Point struct {
	FreqHz   float64
	Gain     float64
	GainDB   float64
	PhaseRad float64
}

var errSilentInput = errors.New("response: drive signal has no energy at the measured frequency")

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.SettleSeconds < 0 {
		cfg.SettleSeconds = def.SettleSeconds
	}

	if cfg.MeasureSeconds <= 0 {
		cfg.MeasureSeconds = def.MeasureSeconds
	}

	if cfg.Amplitude <= 0 {
		cfg.Amplitude = def.Amplitude
	}

	if cfg.BlockSize <= 0 {
		cfg.BlockSize = def.BlockSize
	}

	return cfg
}

// blocks holds the drive and output blocks reused across a sweep.
type blocks struct {
	in, out []float64
}

// Measure resets p, drives it with a sine at freqHz and returns the settled
// gain and phase shift. freqHz must lie in (0, sampleRate/2).
func Measure(p Processor, freqHz, sampleRate float64, cfg Config) (Point, error) {
	var b blocks

	return measure(p, freqHz, sampleRate, cfg, &b)
}

func measure(p Processor, freqHz, sampleRate float64, cfg Config, b *blocks) (Point, error) {
	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return Point{}, fmt.Errorf("response: frequency %v must lie in (0, %v)", freqHz, sampleRate/2)
	}

	cfg = normalize(cfg)

	gin, err := NewGoertzel(freqHz, sampleRate)
	if err != nil {
		return Point{}, fmt.Errorf("response: %w", err)
	}

	gout, _ := NewGoertzel(freqHz, sampleRate)

	settle := int(math.Round(cfg.SettleSeconds * sampleRate))
	cycles := math.Max(1, math.Round(freqHz*cfg.MeasureSeconds))
	window := int(math.Round(cycles * sampleRate / freqHz))

	p.Reset()
	step := 2 * math.Pi * freqHz / sampleRate
	b.in = core.EnsureLen(b.in, cfg.BlockSize)
	b.out = core.EnsureLen(b.out, cfg.BlockSize)
	in, out := b.in, b.out

	total := settle + window
	for pos := 0; pos < total; pos += cfg.BlockSize {
		n := min(cfg.BlockSize, total-pos)
		for i := range n {
			in[i] = cfg.Amplitude * math.Sin(step*float64(pos+i))
		}

		copy(out[:n], in[:n])
		p.ProcessBlock(out[:n])

		// Only the part of the block inside the window is analyzed.
		skip := max(0, settle-pos)
		if skip < n {
			gin.ProcessBlock(in[skip:n])
			gout.ProcessBlock(out[skip:n])
		}
	}

	xin := gin.Bin()
	if cmplx.Abs(xin) == 0 {
		return Point{}, errSilentInput
	}

	h := gout.Bin() / xin

	gain := cmplx.Abs(h)

	return Point{
		FreqHz:   freqHz,
		Gain:     gain,
		GainDB:   20 * math.Log10(gain),
		PhaseRad: cmplx.Phase(h),
	}, nil
}

// Sweep measures every frequency in freqs.
func Sweep(p Processor, freqs []float64, sampleRate float64, cfg Config) ([]Point, error) {
	points := make([]Point, 0, len(freqs))
	var b blocks
	for _, f := range freqs {
		pt, err := measure(p, f, sampleRate, cfg, &b)
		if err != nil {
			return nil, err
		}

		points = append(points, pt)
	}

	return points, nil
}

// LogFrequencies returns n logarithmically spaced frequencies from lo to hi
// inclusive.
func LogFrequencies(lo, hi float64, n int) []float64 {
	if n <= 0 || lo <= 0 || hi <= 0 {
		return nil
	}

	if n == 1 {
		return []float64{lo}
	}

	out := make([]float64, n)
	ratio := math.Log(hi / lo)
	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}

	return out
}
