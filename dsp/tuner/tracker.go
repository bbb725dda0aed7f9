package tuner

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-tuner/dsp/core"
	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat"
)

// Tracker follows the pitch of a stream delivered through Feed.
//
// Feed may be called from a real-time callback: it never blocks, never
// allocates and never logs. When the analysis goroutine holds the frame
// buffer the period is dropped and counted. Analysis starts with Start and
// ends with Stop or cancellation of the context given to Start.
type Tracker struct {
	cfg    config
	onFreq func(float64)

	mu      sync.Mutex // guards hop, ring, write, filled, pending
	hop     int
	ring    []float32
	write   int
	filled  int
	pending int

	wake chan struct{}

	freq      atomic.Uint64 // float64 bits
	clarity   atomic.Uint64 // float64 bits
	threshold atomic.Uint64 // linear RMS, float64 bits
	fastNote  atomic.Bool
	dropped   atomic.Uint64
	resets    atomic.Uint64

	analyzeMu  sync.Mutex // serializes analysis passes; guards the fields below
	sampleRate float64
	est        *Estimator
	frame      []float64
	history    []float64
	sorted     []float64
	seenReset  uint64

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewTracker creates a tracker for a stream at sampleRate.
func NewTracker(sampleRate uint32, opts ...Option) (*Tracker, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if math.IsNaN(cfg.thresholdDB) || math.IsInf(cfg.thresholdDB, 1) {
		return nil, fmt.Errorf("tuner: threshold %v dB: %w", cfg.thresholdDB, ErrInvalidConfig)
	}

	if !(cfg.minHz > 0) {
		return nil, fmt.Errorf("tuner: min frequency must be > 0: %w", ErrInvalidConfig)
	}

	est, err := cfg.estimator(sampleRate)
	if err != nil {
		return nil, err
	}

	frameSize := est.FrameSize()
	t := &Tracker{
		cfg:        cfg,
		onFreq:     cfg.onFrequency,
		hop:        frameSize / 4,
		ring:       make([]float32, frameSize),
		wake:       make(chan struct{}, 1),
		sampleRate: float64(sampleRate),
		est:        est,
		frame:      make([]float64, frameSize),
		history:    make([]float64, 0, smoothing),
		sorted:     make([]float64, 0, smoothing),
		done:       make(chan struct{}),
	}

	t.SetThresholdDB(cfg.thresholdDB)
	t.fastNote.Store(cfg.fastNote)

	return t, nil
}

// estimator builds the analyzer for sampleRate. Without an explicit frame
// size the frame follows the rate.
func (cfg config) estimator(sampleRate uint32) (*Estimator, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("tuner: sample rate must be > 0: %w", ErrInvalidConfig)
	}

	rate := float64(sampleRate)
	frameSize := cfg.frameSize
	if frameSize == 0 {
		frameSize = defaultFrameSize(rate, cfg.minHz)
	}

	return NewEstimator(rate, frameSize, cfg.minHz, cfg.maxHz)
}

// SampleRate returns the stream rate in Hz.
func (t *Tracker) SampleRate() float64 {
	t.analyzeMu.Lock()
	defer t.analyzeMu.Unlock()

	return t.sampleRate
}

// FrameSize returns the analysis frame length.
func (t *Tracker) FrameSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.ring)
}

// SetSampleRate rebuilds the analyzer for a new stream rate and discards
// buffered audio and the published estimate. On error the tracker keeps its
// previous rate. It must not be called from a real-time callback.
func (t *Tracker) SetSampleRate(sampleRate uint32) error {
	est, err := t.cfg.estimator(sampleRate)
	if err != nil {
		return err
	}

	t.analyzeMu.Lock()
	defer t.analyzeMu.Unlock()

	frameSize := est.FrameSize()
	t.sampleRate = float64(sampleRate)
	t.est = est
	if len(t.frame) != frameSize {
		t.frame = make([]float64, frameSize)
	}

	t.mu.Lock()
	if len(t.ring) != frameSize {
		t.ring = make([]float32, frameSize)
	}

	t.hop = frameSize / 4
	t.mu.Unlock()

	t.Reset()
	glog.V(1).Infof("tuner: sample rate %d Hz (frame %d)", sampleRate, frameSize)

	return nil
}

// Feed appends buf to the analysis frame and wakes the analysis goroutine.
func (t *Tracker) Feed(buf []float32) {
	if len(buf) == 0 {
		return
	}

	if !t.mu.TryLock() {
		t.dropped.Add(1)

		return
	}

	n := len(t.ring)
	if len(buf) > n {
		buf = buf[len(buf)-n:]
	}

	k := copy(t.ring[t.write:], buf)
	copy(t.ring, buf[k:])
	t.write = (t.write + len(buf)) % n
	t.filled = min(t.filled+len(buf), n)
	t.pending += len(buf)
	ready := t.filled == n && t.pending >= t.hop

	t.mu.Unlock()

	if ready {
		select {
		case t.wake <- struct{}{}:
		default:
		}
	}
}

// Start launches the analysis goroutine. Later calls are no-ops.
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		ctx, t.cancel = context.WithCancel(ctx)
		go t.run(ctx)
	})
}

// Stop ends the analysis goroutine and waits for it. It is a no-op if Start
// was never called. Start and Stop must not be called concurrently.
func (t *Tracker) Stop() {
	if t.cancel == nil {
		return
	}

	t.cancel()
	<-t.done
}

// Frequency returns the last published frequency in Hz, or 0 when no pitch
// is detected.
func (t *Tracker) Frequency() float64 {
	return math.Float64frombits(t.freq.Load())
}

// Clarity returns the normalized correlation of the last raw estimate.
func (t *Tracker) Clarity() float64 {
	return math.Float64frombits(t.clarity.Load())
}

// Note places the current frequency on temperament tuned to reference. ok is
// false when no pitch is detected or the mapping fails.
func (t *Tracker) Note(temperament Temperament, reference float64) (Note, bool) {
	f := t.Frequency()
	if f <= 0 {
		return Note{}, false
	}

	n, err := temperament.Note(f, reference)
	if err != nil {
		return Note{}, false
	}

	return n, true
}

// SetThresholdDB changes the level gate.
func (t *Tracker) SetThresholdDB(db float64) {
	t.threshold.Store(math.Float64bits(core.DBToLinear(db)))
}

// ThresholdDB returns the level gate in dB.
func (t *Tracker) ThresholdDB() float64 {
	return core.LinearToDB(math.Float64frombits(t.threshold.Load()))
}

// SetFastNote switches between raw and median-smoothed reporting.
func (t *Tracker) SetFastNote(enabled bool) { t.fastNote.Store(enabled) }

// FastNote reports whether raw estimates are published.
func (t *Tracker) FastNote() bool { return t.fastNote.Load() }

// Dropped returns the number of periods discarded by Feed.
func (t *Tracker) Dropped() uint64 { return t.dropped.Load() }

// Reset discards buffered audio and the published estimate.
func (t *Tracker) Reset() {
	t.mu.Lock()
	core.Zero32(t.ring)
	t.write, t.filled, t.pending = 0, 0, 0
	t.mu.Unlock()

	t.resets.Add(1)
	t.freq.Store(0)
	t.clarity.Store(0)
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	glog.V(1).Infof("tuner: analysis started (frame %d)", t.FrameSize())
	defer glog.V(1).Infof("tuner: analysis stopped (%d periods dropped)", t.Dropped())

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.wake:
		}

		t.Analyze()
	}
}

// Analyze runs one analysis pass on the calling goroutine if at least a hop
// of new audio arrived since the last pass, and reports whether it did.
// The analysis goroutine uses the same path, so calls may overlap it.
func (t *Tracker) Analyze() bool {
	t.analyzeMu.Lock()
	defer t.analyzeMu.Unlock()

	if !t.snapshot() {
		return false
	}

	t.analyze()

	return true
}

// snapshot copies the ring, oldest sample first, into t.frame.
func (t *Tracker) snapshot() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filled < len(t.ring) || t.pending < t.hop {
		return false
	}

	t.pending = 0
	n := core.Widen(t.frame, t.ring[t.write:])
	core.Widen(t.frame[n:], t.ring[:t.write])

	return true
}

func (t *Tracker) analyze() {
	if r := t.resets.Load(); r != t.seenReset {
		t.seenReset = r
		t.history = t.history[:0]
	}

	est, ok := t.est.Estimate(t.frame)
	threshold := math.Float64frombits(t.threshold.Load())
	if !ok || est.RMS < threshold {
		t.history = t.history[:0]
		t.publish(0, est.Clarity)

		return
	}

	glog.V(2).Infof("tuner: %.2f Hz clarity %.3f rms %.4f", est.FreqHz, est.Clarity, est.RMS)

	if t.fastNote.Load() {
		t.publish(est.FreqHz, est.Clarity)

		return
	}

	if len(t.history) == smoothing {
		copy(t.history, t.history[1:])
		t.history = t.history[:smoothing-1]
	}

	t.history = append(t.history, est.FreqHz)
	t.publish(median(t.sorted[:0], t.history), est.Clarity)
}

func (t *Tracker) publish(freq, clarity float64) {
	t.freq.Store(math.Float64bits(freq))
	t.clarity.Store(math.Float64bits(clarity))
	if t.onFreq != nil {
		t.onFreq(freq)
	}
}

// median returns the median of values, using scratch for sorting.
func median(scratch, values []float64) float64 {
	scratch = append(scratch, values...)
	slices.Sort(scratch)

	return stat.Quantile(0.5, stat.Empirical, scratch, nil)
}
