package tuner

import "math"

// Defaults for NewTracker.
const (
	DefaultThresholdDB  = -60.0
	DefaultMinFrequency = 30.0
	DefaultMaxFrequency = 1500.0

	// smoothing is the number of estimates the slow note detection takes
	// the median of.
	smoothing = 5
)

type config struct {
	frameSize   int
	thresholdDB float64
	fastNote    bool
	minHz       float64
	maxHz       float64
	onFrequency func(freqHz float64)
}

// Option configures a Tracker.
type Option func(*config)

// WithFrameSize sets the analysis frame length. It must be a power of two.
// By default it is derived from the sample rate and the minimum frequency.
func WithFrameSize(n int) Option {
	return func(c *config) { c.frameSize = n }
}

// WithThresholdDB sets the level gate. Frames with an RMS level below it
// report no pitch.
func WithThresholdDB(db float64) Option {
	return func(c *config) { c.thresholdDB = db }
}

// WithFastNote reports every raw estimate instead of the median of the last
// five.
func WithFastNote(enabled bool) Option {
	return func(c *config) { c.fastNote = enabled }
}

// WithMinFrequency sets the lowest detectable frequency.
func WithMinFrequency(hz float64) Option {
	return func(c *config) { c.minHz = hz }
}

// WithMaxFrequency sets the highest detectable frequency.
func WithMaxFrequency(hz float64) Option {
	return func(c *config) { c.maxHz = hz }
}

// WithOnFrequency registers fn to be called from the analysis goroutine with
// every published frequency; 0 means no pitch.
func WithOnFrequency(fn func(freqHz float64)) Option {
	return func(c *config) { c.onFrequency = fn }
}

func defaultConfig() config {
	return config{
		thresholdDB: DefaultThresholdDB,
		minHz:       DefaultMinFrequency,
		maxHz:       DefaultMaxFrequency,
	}
}

// defaultFrameSize holds about two and a half periods of minHz.
func defaultFrameSize(sampleRate, minHz float64) int {
	need := int(math.Ceil(2.5 * sampleRate / minHz))
	n := 16
	for n < need {
		n <<= 1
	}

	return n
}
