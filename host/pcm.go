package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-tuner/dsp/core"
)

const bytesPerSample = 4

// PCMBackend is an offline Backend that reads mono little-endian float32
// samples from an io.Reader and delivers them in fixed periods. It optionally
// writes the output port to an io.Writer in the same format and can pace
// periods at the nominal rate.
type PCMBackend struct {
	r          io.Reader
	w          io.Writer
	sampleRate uint32
	period     int
	realtime   bool
	used       atomic.Bool
}

// PCMOption configures a PCMBackend.
type PCMOption func(*PCMBackend)

// WithOutput writes every processed period to w.
func WithOutput(w io.Writer) PCMOption {
	return func(b *PCMBackend) { b.w = w }
}

// WithRealtime paces periods at the sample rate instead of running as fast
// as the reader allows.
func WithRealtime(enabled bool) PCMOption {
	return func(b *PCMBackend) { b.realtime = enabled }
}

// NewPCMBackend creates a backend over r. Zero values fall back to the
// defaults of core.DefaultProcessorConfig.
func NewPCMBackend(r io.Reader, sampleRate uint32, period int, opts ...PCMOption) *PCMBackend {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(sampleRate), core.WithBlockSize(period))
	b := &PCMBackend{
		r:          r,
		sampleRate: cfg.SampleRate,
		period:     cfg.BlockSize,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// SampleRate implements Backend.
func (b *PCMBackend) SampleRate() uint32 { return b.sampleRate }

// BufferSize implements Backend.
func (b *PCMBackend) BufferSize() int { return b.period }

// Run implements Backend. A short final period is delivered with its actual
// length. Run may be called only once.
func (b *PCMBackend) Run(ctx context.Context, cb Callbacks) (err error) {
	if !b.used.CompareAndSwap(false, true) {
		return ErrBackendClosed
	}

	defer func() { cb.Shutdown(err) }()

	cb.SampleRateChanged(b.sampleRate)
	cb.BufferSizeChanged(b.period)

	raw := make([]byte, b.period*bytesPerSample)
	in := make([]float32, b.period)
	out := make([]float32, b.period)

	var tick <-chan time.Time
	if b.realtime {
		d := time.Duration(float64(b.period) / float64(b.sampleRate) * float64(time.Second))
		d = max(d, time.Nanosecond)

		ticker := time.NewTicker(d)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := io.ReadFull(b.r, raw)
		frames := n / bytesPerSample
		if frames > 0 {
			decode(in[:frames], raw)
			cb.Process(in[:frames], out[:frames])
			if b.w != nil {
				encode(raw, out[:frames])
				if _, werr := b.w.Write(raw[:frames*bytesPerSample]); werr != nil {
					return fmt.Errorf("host: write output: %w", werr)
				}
			}
		}

		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			return nil
		default:
			return fmt.Errorf("host: read input: %w", rerr)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
}

func decode(dst []float32, raw []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*bytesPerSample:]))
	}
}

func encode(raw []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(raw[i*bytesPerSample:], math.Float32bits(v))
	}
}

// EncodePCM converts samples to little-endian float32 bytes.
func EncodePCM(samples []float32) []byte {
	raw := make([]byte, len(samples)*bytesPerSample)
	encode(raw, samples)

	return raw
}

// DecodePCM converts little-endian float32 bytes to samples. Trailing bytes
// that do not form a whole sample are ignored.
func DecodePCM(raw []byte) []float32 {
	out := make([]float32, len(raw)/bytesPerSample)
	decode(out, raw)

	return out
}
