package lowhighcut

import (
	"fmt"

	"github.com/cwbudde/algo-tuner/dsp/filter/biquad"
)

// Cascade is the band-limiting filter. It owns its constants and its
// recursive state; one goroutine at a time may use it.
type Cascade struct {
	design Design
	consts Constants
	state  State
}

// Option configures a Cascade.
type Option func(*Design)

// WithLowCut sets the break frequency of the low-cut stages.
func WithLowCut(hz float64) Option {
	return func(d *Design) { d.LowCutHz = hz }
}

// WithHighCut sets the -3 dB frequency of the Butterworth lowpass.
func WithHighCut(hz float64) Option {
	return func(d *Design) { d.HighCutHz = hz }
}

// WithDesign replaces both cutoffs.
func WithDesign(design Design) Option {
	return func(d *Design) { *d = design }
}

// New returns a cascade initialized for sampleRate. Without options it uses
// [DefaultDesign].
func New(sampleRate uint32, opts ...Option) (*Cascade, error) {
	design := DefaultDesign()
	for _, opt := range opts {
		if opt != nil {
			opt(&design)
		}
	}

	if err := design.Validate(); err != nil {
		return nil, fmt.Errorf("lowhighcut: %w", err)
	}

	c := &Cascade{design: design}
	c.Init(sampleRate)

	return c, nil
}

// Init recomputes all constants for sampleRate and resets the state. It is
// called once before the first Process and again on every sample-rate
// change; it must not overlap a Process call.
func (c *Cascade) Init(sampleRate uint32) {
	c.consts = c.design.Solve(sampleRate)
	c.Reset()
}

// Reset clears the recursive state without touching the constants.
func (c *Cascade) Reset() {
	c.state = State{}
}

// tick runs one sample through every stage and rotates the histories.
func (c *Cascade) tick(x float64) float64 {
	st := &c.state
	k := &c.consts

	x += st.Seed.Step()
	x = st.LowCut[0].Step(x, k.LowCut)
	x = st.LowCut[1].Step(x, k.LowCut)
	x = st.Sections[0].Step(x, k.Sections[0])
	y := st.Sections[1].Step(x, k.Sections[1])

	st.rotate()

	return y
}

// Process filters len(in) samples of in into out. out must hold at least
// len(in) samples; in and out may be the same slice. Process never
// allocates and never fails: an empty in is a no-op and a short out is a
// caller error that panics on the bounds check.
func (c *Cascade) Process(in, out []float32) {
	if len(in) == 0 {
		return
	}

	_ = out[len(in)-1] // bounds check hint

	for i, x := range in {
		out[i] = float32(c.tick(float64(x)))
	}
}

// ProcessSample filters one sample at full precision.
func (c *Cascade) ProcessSample(x float64) float64 {
	return c.tick(x)
}

// ProcessBlock filters buf in place at full precision.
func (c *Cascade) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = c.tick(x)
	}
}

// SampleRate returns the rate passed to the last Init.
func (c *Cascade) SampleRate() uint32 { return c.consts.SampleRate }

// Design returns the cutoffs the cascade was built with.
func (c *Cascade) Design() Design { return c.design }

// Constants returns the coefficients in use.
func (c *Cascade) Constants() Constants { return c.consts }

// State returns a copy of the recursive state.
func (c *Cascade) State() State { return c.state }

// SetState restores a state previously returned by State.
func (c *Cascade) SetState(st State) { c.state = st }

// Response returns the analytic frequency response of the whole cascade at
// freqHz, evaluated for the clamped sample rate.
func (c *Cascade) Response(freqHz float64) complex128 {
	return biquad.CascadeResponse(c.consts.TransferSections(), 1, freqHz, c.consts.Rate)
}

// MagnitudeDB returns 20*log10(|Response(freqHz)|).
func (c *Cascade) MagnitudeDB(freqHz float64) float64 {
	return biquad.CascadeMagnitudeDB(c.consts.TransferSections(), 1, freqHz, c.consts.Rate)
}
