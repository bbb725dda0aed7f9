package lowhighcut

import "github.com/cwbudde/algo-tuner/dsp/core"

// seedImpulse is the amplitude of the one-off excitation of the seed stage.
const seedImpulse = 1e-20

// Every stage splits its per-sample work into Step, which computes the
// current value from the input and the held history, and Rotate, which
// shifts the history by one sample. A cascade runs Step on all stages
// before it runs Rotate on any of them.

// SeedStage emits a vanishingly small signal that keeps the recursions of
// the following stages off exact zero. An impulse on the first sample after
// reset drives the accumulator Cur = impulse - Prev, which then alternates
// between +1e-20 and -1e-20 at the Nyquist rate.
type SeedStage struct {
	// Primed is the one-sample delay cell of the impulse generator. It is
	// false only until the first sample after reset has been rotated out.
	Primed bool

	Cur, Prev float64
}

// Step computes the seed output for the current sample.
func (s *SeedStage) Step() float64 {
	var impulse float64
	if !s.Primed {
		impulse = seedImpulse
	}

	s.Cur = impulse - s.Prev

	return s.Cur
}

// Rotate shifts the history by one sample.
func (s *SeedStage) Rotate() {
	s.Primed = true
	s.Prev = s.Cur
}

// LowCutStage is a DC blocker: the first difference of its input feeds a
// leaky integrator.
type LowCutStage struct {
	In, InPrev float64
	Cur, Prev  float64
}

// Step filters x with c and returns the stage output.
func (s *LowCutStage) Step(x float64, c LowCutCoefficients) float64 {
	s.In = x
	s.Cur = c.Gain * ((x - s.InPrev) + c.Decay*s.Prev)

	return s.Cur
}

// Rotate shifts the history by one sample.
func (s *LowCutStage) Rotate() {
	s.InPrev = s.In
	s.Prev = s.Cur
}

// SectionStage is one direct form II lowpass section. Cur, Prev and Prev2
// hold the intermediate recursive variable at n, n-1 and n-2.
type SectionStage struct {
	Cur, Prev, Prev2 float64
}

// Step filters x with c and returns the section output.
func (s *SectionStage) Step(x float64, c SectionCoefficients) float64 {
	s.Cur = x - c.Norm*(c.Feedback2*s.Prev2+c.Feedback1*s.Prev)

	return c.Norm * (s.Prev2 + (s.Cur + 2*s.Prev))
}

// Rotate shifts the history by one sample.
func (s *SectionStage) Rotate() {
	s.Prev2 = s.Prev
	s.Prev = s.Cur
}

// State is the complete recursive memory of a [Cascade]. The zero value is
// the reset state.
type State struct {
	Seed     SeedStage
	LowCut   [2]LowCutStage
	Sections [2]SectionStage
}

// rotate shifts every stage history. It runs once per sample after all
// stages have stepped.
func (st *State) rotate() {
	st.Seed.Rotate()
	st.LowCut[0].Rotate()
	st.LowCut[1].Rotate()
	st.Sections[0].Rotate()
	st.Sections[1].Rotate()
}

// IsFinite reports whether no history value is NaN or infinite.
func (st *State) IsFinite() bool {
	vals := [...]float64{
		st.Seed.Cur, st.Seed.Prev,
		st.LowCut[0].In, st.LowCut[0].InPrev, st.LowCut[0].Cur, st.LowCut[0].Prev,
		st.LowCut[1].In, st.LowCut[1].InPrev, st.LowCut[1].Cur, st.LowCut[1].Prev,
		st.Sections[0].Cur, st.Sections[0].Prev, st.Sections[0].Prev2,
		st.Sections[1].Cur, st.Sections[1].Prev, st.Sections[1].Prev2,
	}

	for _, v := range vals {
		if !core.IsFinite(v) {
			return false
		}
	}

	return true
}
