package host

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cwbudde/algo-tuner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Callbacks implementation that logs every event.
type recorder struct {
	events  []string
	rate    uint32
	frames  int
	periods []int
	input   []float32
	err     error
	xruns   int
	gain    float32
}

func (r *recorder) Process(in, out []float32) {
	r.periods = append(r.periods, len(in))
	r.input = append(r.input, in...)
	for i, v := range in {
		out[i] = v * r.gain
	}
}

func (r *recorder) SampleRateChanged(rate uint32) {
	r.events = append(r.events, "rate")
	r.rate = rate
}

func (r *recorder) BufferSizeChanged(frames int) {
	r.events = append(r.events, "size")
	r.frames = frames
}

func (r *recorder) Xrun() { r.xruns++ }

func (r *recorder) Shutdown(err error) {
	r.events = append(r.events, "shutdown")
	r.err = err
}

func TestPCMBackendDeliversPeriods(t *testing.T) {
	signal := testutil.Noise32(3, 0.5, 1000)
	var out bytes.Buffer
	b := NewPCMBackend(bytes.NewReader(EncodePCM(signal)), 44100, 256, WithOutput(&out))

	assert.EqualValues(t, 44100, b.SampleRate())
	assert.Equal(t, 256, b.BufferSize())

	rec := &recorder{gain: 2}
	require.NoError(t, b.Run(context.Background(), rec))

	assert.Equal(t, []string{"rate", "size", "shutdown"}, rec.events)
	assert.EqualValues(t, 44100, rec.rate)
	assert.Equal(t, 256, rec.frames)
	assert.Equal(t, []int{256, 256, 256, 232}, rec.periods)
	testutil.RequireBitIdentical32(t, rec.input, signal)
	assert.NoError(t, rec.err)

	got := DecodePCM(out.Bytes())
	require.Len(t, got, len(signal))
	for i := range got {
		require.Equal(t, 2*signal[i], got[i], "sample %d", i)
	}
}

func TestPCMBackendDefaults(t *testing.T) {
	b := NewPCMBackend(bytes.NewReader(nil), 0, 0)
	assert.EqualValues(t, 48000, b.SampleRate())
	assert.Equal(t, 256, b.BufferSize())

	rec := &recorder{}
	require.NoError(t, b.Run(context.Background(), rec))
	assert.Empty(t, rec.periods)
}

func TestPCMBackendTrailingBytes(t *testing.T) {
	raw := append(EncodePCM([]float32{1, 2, 3}), 0xff, 0xff)
	rec := &recorder{}
	require.NoError(t, NewPCMBackend(bytes.NewReader(raw), 48000, 2).Run(context.Background(), rec))
	assert.Equal(t, []float32{1, 2, 3}, rec.input)
	assert.Equal(t, []int{2, 1}, rec.periods)
}

func TestPCMBackendRunOnce(t *testing.T) {
	b := NewPCMBackend(bytes.NewReader(nil), 48000, 64)
	require.NoError(t, b.Run(context.Background(), &recorder{}))

	err := b.Run(context.Background(), &recorder{})
	assert.ErrorIs(t, err, ErrBackendClosed)
}

func TestPCMBackendCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	signal := make([]float32, 1024)
	err := NewPCMBackend(bytes.NewReader(EncodePCM(signal)), 48000, 64).Run(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, rec.err, context.Canceled)
	assert.Empty(t, rec.periods)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestPCMBackendErrors(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	err := NewPCMBackend(failingReader{boom}, 48000, 64).Run(context.Background(), rec)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, rec.err, boom)

	rec = &recorder{}
	signal := make([]float32, 64)
	err = NewPCMBackend(bytes.NewReader(EncodePCM(signal)), 48000, 64, WithOutput(failingWriter{})).
		Run(context.Background(), rec)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestPCMBackendRealtime(t *testing.T) {
	signal := make([]float32, 4*48)
	rec := &recorder{}
	b := NewPCMBackend(bytes.NewReader(EncodePCM(signal)), 48000, 48, WithRealtime(true))
	require.NoError(t, b.Run(context.Background(), rec))
	assert.Equal(t, []int{48, 48, 48, 48}, rec.periods)
}

func TestPCMBackendRealtimeSubNanosecondPeriod(t *testing.T) {
	signal := make([]float32, 3)
	rec := &recorder{}
	b := NewPCMBackend(bytes.NewReader(EncodePCM(signal)), 2000000000, 1, WithRealtime(true))
	require.NoError(t, b.Run(context.Background(), rec))
	assert.Equal(t, []int{1, 1, 1}, rec.periods)
}

func TestDecodePCM(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0xc0}
	assert.Equal(t, []float32{1, -2}, DecodePCM(raw))
	assert.Equal(t, raw, EncodePCM([]float32{1, -2}))
}
