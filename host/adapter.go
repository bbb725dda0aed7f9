package host

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-tuner/dsp/core"
	"github.com/cwbudde/algo-tuner/dsp/filter/lowhighcut"
	"github.com/cwbudde/algo-tuner/dsp/tuner"
	"github.com/golang/glog"
)

// Stats counts events on the processing path.
type Stats struct {
	Periods  uint64 // periods filtered and fed to the sink
	Skipped  uint64 // periods passed through while reconfiguring
	Overruns uint64 // periods longer than the scratch buffer
	Xruns    uint64
}

// AdapterOption configures an Adapter.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	sink      tuner.Sink
	filter    []lowhighcut.Option
	blockSize int
}

// WithSink sets the consumer of filtered periods. The default discards them.
func WithSink(s tuner.Sink) AdapterOption {
	return func(c *adapterConfig) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithFilterOptions passes options to the cascade.
func WithFilterOptions(opts ...lowhighcut.Option) AdapterOption {
	return func(c *adapterConfig) { c.filter = append(c.filter, opts...) }
}

// WithBlockSize preallocates scratch space for periods of n frames.
func WithBlockSize(n int) AdapterOption {
	return func(c *adapterConfig) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// Adapter is the process callback of the tuner. Every period it copies the
// input to the output unchanged, filters a private copy and feeds the
// filtered copy to the sink.
//
// Format changes take the adapter's lock. Process only tries it and passes
// the period through unfiltered while a change is in progress, so it never
// blocks.
type Adapter struct {
	mu        sync.Mutex // guards cascade, scratch, sinkMuted
	cascade   *lowhighcut.Cascade
	scratch   []float32
	sink      tuner.Sink
	sinkMuted bool

	periods  atomic.Uint64
	skipped  atomic.Uint64
	overruns atomic.Uint64
	xruns    atomic.Uint64

	shutdownOnce sync.Once
	done         chan struct{}
	err          error
}

var _ Callbacks = (*Adapter)(nil)

// NewAdapter creates an adapter whose cascade is initialized for sampleRate.
func NewAdapter(sampleRate uint32, opts ...AdapterOption) (*Adapter, error) {
	cfg := adapterConfig{
		sink:      tuner.Discard,
		blockSize: core.DefaultProcessorConfig().BlockSize,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	cascade, err := lowhighcut.New(sampleRate, cfg.filter...)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	return &Adapter{
		cascade: cascade,
		scratch: make([]float32, cfg.blockSize),
		sink:    cfg.sink,
		done:    make(chan struct{}),
	}, nil
}

// Process implements Callbacks.
func (a *Adapter) Process(in, out []float32) {
	copy(out, in)

	if !a.mu.TryLock() {
		a.skipped.Add(1)

		return
	}

	defer a.mu.Unlock()

	if len(in) > len(a.scratch) {
		a.overruns.Add(1)

		return
	}

	buf := a.scratch[:len(in)]
	copy(buf, in)
	a.cascade.Process(buf, buf)
	if !a.sinkMuted {
		a.sink.Feed(buf)
	}

	a.periods.Add(1)
}

// SampleRateChanged reinitializes the cascade for the new rate and passes
// the rate on to a sink implementing tuner.RateSink. A sink that rejects
// the rate is not fed until a later rate is accepted.
func (a *Adapter) SampleRateChanged(sampleRate uint32) {
	glog.Infof("Samplerate %dHz", sampleRate)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cascade.Init(sampleRate)

	rs, ok := a.sink.(tuner.RateSink)
	if !ok {
		return
	}

	if err := rs.SetSampleRate(sampleRate); err != nil {
		glog.Warningf("sink rejected sample rate %d: %s", sampleRate, err)
		a.sinkMuted = true

		return
	}

	a.sinkMuted = false
}

// BufferSizeChanged grows the scratch buffer to hold frames samples.
func (a *Adapter) BufferSizeChanged(frames int) {
	glog.Infof("Buffersize is %d samples", frames)

	a.mu.Lock()
	a.scratch = core.EnsureLen32(a.scratch, frames)
	a.mu.Unlock()
}

// Xrun counts an over- or underrun reported by the backend.
func (a *Adapter) Xrun() {
	n := a.xruns.Add(1)
	glog.Warningf("xrun %d", n)
}

// Shutdown records the backend's final error and releases Done.
func (a *Adapter) Shutdown(err error) {
	a.shutdownOnce.Do(func() {
		if err != nil {
			glog.Warningf("backend shut down: %s", err)
		} else {
			glog.Info("backend shut down")
		}

		a.err = err
		close(a.done)
	})
}

// Done is closed after Shutdown.
func (a *Adapter) Done() <-chan struct{} { return a.done }

// Err returns the error passed to Shutdown. It is valid after Done is closed.
func (a *Adapter) Err() error {
	<-a.done

	return a.err
}

// SampleRate returns the rate the cascade is initialized for.
func (a *Adapter) SampleRate() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.cascade.SampleRate()
}

// Stats returns a snapshot of the counters.
func (a *Adapter) Stats() Stats {
	return Stats{
		Periods:  a.periods.Load(),
		Skipped:  a.skipped.Load(),
		Overruns: a.overruns.Load(),
		Xruns:    a.xruns.Load(),
	}
}
