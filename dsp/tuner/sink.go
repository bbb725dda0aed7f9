package tuner

// Sink accepts filtered periods from an audio callback. Implementations must
// return quickly and must not retain buf after Feed returns.
type Sink interface {
	Feed(buf []float32)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(buf []float32)

// Feed calls f(buf).
func (f SinkFunc) Feed(buf []float32) { f(buf) }

// RateSink is a Sink that depends on the stream rate. Hosts call
// SetSampleRate outside the real-time path whenever the rate changes.
type RateSink interface {
	Sink
	SetSampleRate(sampleRate uint32) error
}

// Discard is a Sink that ignores all input.
var Discard Sink = SinkFunc(func([]float32) {})

var _ RateSink = (*Tracker)(nil)
