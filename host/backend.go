package host

import (
	"context"
	"errors"
)

// ErrBackendClosed is returned by Run when a backend is used after it
// finished.
var ErrBackendClosed = errors.New("host: backend closed")

// Callbacks receives events from a Backend. Process runs on the backend's
// real-time path; all other methods run between periods.
type Callbacks interface {
	// Process handles one period. len(out) == len(in).
	Process(in, out []float32)
	SampleRateChanged(sampleRate uint32)
	BufferSizeChanged(frames int)
	Xrun()
	// Shutdown is called once when the backend stops; err is nil on a clean
	// end of stream.
	Shutdown(err error)
}

// Backend is a periodic source of audio periods.
type Backend interface {
	SampleRate() uint32
	BufferSize() int
	// Run announces the stream format to cb and then delivers periods until
	// the stream ends or ctx is canceled.
	Run(ctx context.Context, cb Callbacks) error
}
