package host

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-tuner/dsp/filter/lowhighcut"
	"github.com/cwbudde/algo-tuner/dsp/tuner"
	"github.com/cwbudde/algo-tuner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink keeps a copy of everything it is fed.
type recordSink struct {
	data  []float32
	calls int
}

func (s *recordSink) Feed(buf []float32) {
	s.data = append(s.data, buf...)
	s.calls++
}

func TestAdapterPassthroughAndFilter(t *testing.T) {
	sink := &recordSink{}
	a, err := NewAdapter(48000, WithSink(sink))
	require.NoError(t, err)

	signal := testutil.Noise32(7, 0.5, 4096)
	out := make([]float32, len(signal))
	start := 0
	for _, n := range testutil.Chunks(len(signal), 256, 128, 64) {
		a.Process(signal[start:start+n], out[start:start+n])
		start += n
	}

	testutil.RequireBitIdentical32(t, out, signal)

	ref, err := lowhighcut.New(48000)
	require.NoError(t, err)
	want := make([]float32, len(signal))
	ref.Process(signal, want)
	testutil.RequireBitIdentical32(t, sink.data, want)

	assert.EqualValues(t, sink.calls, a.Stats().Periods)
}

func TestAdapterInPlacePorts(t *testing.T) {
	sink := &recordSink{}
	a, err := NewAdapter(48000, WithSink(sink))
	require.NoError(t, err)

	buf := testutil.Sine32(440, 48000, 0.5, 256)
	orig := append([]float32(nil), buf...)
	a.Process(buf, buf)

	testutil.RequireBitIdentical32(t, buf, orig)
	require.Len(t, sink.data, 256)
}

func TestAdapterSampleRateChanged(t *testing.T) {
	sink := &recordSink{}
	a, err := NewAdapter(44100, WithSink(sink))
	require.NoError(t, err)
	assert.EqualValues(t, 44100, a.SampleRate())

	in := testutil.Sine32(220, 44100, 0.5, 256)
	out := make([]float32, 256)
	a.Process(in, out)

	a.SampleRateChanged(96000)
	assert.EqualValues(t, 96000, a.SampleRate())

	sink.data = sink.data[:0]
	a.Process(in, out)

	ref, err := lowhighcut.New(96000)
	require.NoError(t, err)
	want := make([]float32, 256)
	ref.Process(in, want)
	testutil.RequireBitIdentical32(t, sink.data, want)
}

func TestAdapterBufferSizeChanged(t *testing.T) {
	sink := &recordSink{}
	a, err := NewAdapter(48000, WithSink(sink), WithBlockSize(64))
	require.NoError(t, err)

	in := make([]float32, 128)
	out := make([]float32, 128)
	a.Process(in, out)
	assert.EqualValues(t, 1, a.Stats().Overruns)
	assert.Empty(t, sink.data)

	a.BufferSizeChanged(128)
	a.Process(in, out)
	assert.Len(t, sink.data, 128)
	assert.EqualValues(t, 1, a.Stats().Periods)
}

func TestAdapterSkipsWhileReconfiguring(t *testing.T) {
	sink := &recordSink{}
	a, err := NewAdapter(48000, WithSink(sink))
	require.NoError(t, err)

	in := testutil.Sine32(440, 48000, 0.5, 256)
	out := make([]float32, 256)

	a.mu.Lock()
	a.Process(in, out)
	a.mu.Unlock()

	testutil.RequireBitIdentical32(t, out, in)
	assert.Empty(t, sink.data)
	assert.EqualValues(t, 1, a.Stats().Skipped)
}

func TestAdapterFeedsTracker(t *testing.T) {
	tr, err := tuner.NewTracker(48000)
	require.NoError(t, err)
	a, err := NewAdapter(48000, WithSink(tr))
	require.NoError(t, err)

	signal := testutil.Sine32(440, 48000, 0.5, 48000)
	out := make([]float32, 256)
	for start := 0; start+256 <= len(signal); start += 256 {
		a.Process(signal[start:start+256], out)
	}

	assert.Zero(t, tr.Dropped())
}

func TestAdapterSampleRateChangeRetunesTracker(t *testing.T) {
	tr, err := tuner.NewTracker(48000)
	require.NoError(t, err)
	a, err := NewAdapter(48000, WithSink(tr))
	require.NoError(t, err)

	a.SampleRateChanged(44100)
	assert.EqualValues(t, 44100, tr.SampleRate())

	signal := testutil.Sine32(220, 44100, 0.5, 44100)
	out := make([]float32, 256)
	for start := 0; start+256 <= len(signal); start += 256 {
		a.Process(signal[start:start+256], out)
	}

	require.True(t, tr.Analyze())
	assert.InDelta(t, 220, tr.Frequency(), 1)
}

// rateSink accepts only one sample rate.
type rateSink struct {
	recordSink
	accept uint32
}

func (s *rateSink) SetSampleRate(sampleRate uint32) error {
	if sampleRate != s.accept {
		return errors.New("unsupported rate")
	}

	return nil
}

func TestAdapterMutesSinkOnRejectedRate(t *testing.T) {
	sink := &rateSink{accept: 48000}
	a, err := NewAdapter(48000, WithSink(sink))
	require.NoError(t, err)

	in := testutil.Sine32(440, 48000, 0.5, 256)
	out := make([]float32, 256)

	a.SampleRateChanged(22050)
	a.Process(in, out)
	assert.Empty(t, sink.data)
	testutil.RequireBitIdentical32(t, out, in)

	a.SampleRateChanged(48000)
	a.Process(in, out)
	assert.Len(t, sink.data, 256)
}

func TestAdapterInvalidDesign(t *testing.T) {
	_, err := NewAdapter(48000, WithFilterOptions(lowhighcut.WithHighCut(10)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, lowhighcut.ErrInvalidDesign))
}

func TestAdapterShutdown(t *testing.T) {
	a, err := NewAdapter(48000)
	require.NoError(t, err)

	select {
	case <-a.Done():
		t.Fatal("done before shutdown")
	default:
	}

	boom := errors.New("boom")
	a.Shutdown(boom)
	a.Shutdown(nil)
	<-a.Done()
	assert.Equal(t, boom, a.Err())
}

func TestAdapterXrun(t *testing.T) {
	a, err := NewAdapter(48000)
	require.NoError(t, err)
	a.Xrun()
	a.Xrun()
	assert.EqualValues(t, 2, a.Stats().Xruns)
}

func TestAdapterProcessDoesNotAllocate(t *testing.T) {
	a, err := NewAdapter(48000)
	require.NoError(t, err)

	in := testutil.Sine32(440, 48000, 0.5, 256)
	out := make([]float32, 256)
	allocs := testing.AllocsPerRun(200, func() {
		a.Process(in, out)
	})
	assert.Zero(t, allocs)
}

func BenchmarkAdapterProcess(b *testing.B) {
	a, err := NewAdapter(48000)
	if err != nil {
		b.Fatal(err)
	}

	in := testutil.Sine32(440, 48000, 0.5, 256)
	out := make([]float32, 256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Process(in, out)
	}
}
