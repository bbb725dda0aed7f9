// Command xtuner runs the tuner's band-limiting filter and pitch tracker over
// a raw PCM stream and prints the detected notes.
//
// The input is mono little-endian float32 PCM. Session commands arrive as
// signals: SIGUSR1 shows readings, SIGUSR2 hides them, SIGHUP prints the
// current settings and SIGINT/SIGTERM quit.
//
// Examples:
//
//	xtuner -input guitar.f32 -rate 44100
//	arecord -f FLOAT_LE -c 1 -r 48000 -t raw | xtuner
//	xtuner -response -rate 48000
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"text/tabwriter"

	"github.com/cwbudde/algo-tuner/dsp/filter/lowhighcut"
	"github.com/cwbudde/algo-tuner/dsp/tuner"
	"github.com/cwbudde/algo-tuner/host"
	"github.com/cwbudde/algo-tuner/measure/response"
	"github.com/golang/glog"
)

var (
	input       = flag.String("input", "-", "raw float32 LE mono PCM file, - for stdin")
	rate        = flag.Uint("rate", 48000, "sample rate in Hz")
	period      = flag.Int("period", 256, "frames per process callback")
	reference   = flag.Float64("ref", tuner.DefaultReference, "reference pitch of A4 in Hz (427..453)")
	temperament = flag.String("temperament", tuner.TET12.String(), "one of 12-TET, 19-TET, 24-TET, 31-TET, 53-TET")
	threshold   = flag.Float64("threshold", tuner.DefaultThresholdDB, "level gate in dB")
	fast        = flag.Bool("fast", false, "fast note detection (no median smoothing)")
	realtime    = flag.Bool("realtime", false, "pace periods at the sample rate")
	showResp    = flag.Bool("response", false, "print the analytic and measured filter response and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xtuner [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Detects the pitch of a mono float32 PCM stream.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	defer glog.Flush()

	if *rate == 0 || *rate > math.MaxUint32 {
		glog.Exitf("-rate %d is out of range", *rate)
	}

	sampleRate := uint32(*rate)

	if *showResp {
		if err := printResponse(os.Stdout, sampleRate); err != nil {
			glog.Exitf("unable to compute response: %s", err)
		}

		return
	}

	temp, err := tuner.ParseTemperament(*temperament)
	if err != nil {
		glog.Exitf("%s, pick one of: 12-TET, 19-TET, 24-TET, 31-TET, 53-TET", err)
	}

	if *reference < tuner.MinReference || *reference > tuner.MaxReference {
		glog.Exitf("-ref %v is outside [%v, %v]", *reference, tuner.MinReference, tuner.MaxReference)
	}

	r, closeInput, err := openInput(*input)
	if err != nil {
		glog.Exitf("unable to open input %q: %s", *input, err)
	}

	defer closeInput()

	disp := &display{out: os.Stdout, temperament: temp, reference: *reference}
	disp.shown.Store(true)

	tr, err := tuner.NewTracker(sampleRate,
		tuner.WithThresholdDB(*threshold),
		tuner.WithFastNote(*fast),
		tuner.WithOnFrequency(disp.update),
	)
	if err != nil {
		glog.Exitf("unable to create tracker: %s", err)
	}

	adapter, err := host.NewAdapter(sampleRate, host.WithSink(tr), host.WithBlockSize(*period))
	if err != nil {
		glog.Exitf("unable to create adapter: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, host.SessionSignals...)
	defer signal.Stop(sigs)

	session := host.NewSessionHandler(disp)
	go func() {
		if err := session.Serve(ctx, host.ForwardSignals(ctx, sigs)); err == nil {
			cancel()
		}
	}()

	tr.Start(ctx)
	backend := host.NewPCMBackend(r, sampleRate, *period, host.WithRealtime(*realtime))
	runErr := backend.Run(ctx, adapter)
	tr.Stop()
	tr.Analyze()

	stats := adapter.Stats()
	glog.Infof("periods %d, skipped %d, overruns %d, xruns %d, tracker drops %d",
		stats.Periods, stats.Skipped, stats.Overruns, stats.Xruns, tr.Dropped())

	if runErr != nil && ctx.Err() == nil {
		glog.Exitf("backend failed: %s", runErr)
	}

	disp.final(tr.Frequency())
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { _ = f.Close() }, nil
}

// display prints note readings and implements host.Controller.
type display struct {
	out         io.Writer
	temperament tuner.Temperament
	reference   float64
	shown       atomic.Bool

	mu   sync.Mutex
	last string
}

var _ host.Controller = (*display)(nil)

func (d *display) Show() { d.shown.Store(true) }
func (d *display) Hide() { d.shown.Store(false) }

// Save prints the settings; xtuner keeps no configuration on disk.
func (d *display) Save() error {
	glog.Infof("settings: -temperament %s -ref %v -threshold %v -fast=%v",
		d.temperament, d.reference, *threshold, *fast)

	return nil
}

func (d *display) format(freq float64) string {
	if freq <= 0 {
		return "--"
	}

	n, err := d.temperament.Note(freq, d.reference)
	if err != nil {
		return "--"
	}

	return fmt.Sprintf("%-8s %8.2f Hz %+6.1f cents", n.Name(), freq, n.Cents)
}

// update is called from the tracker goroutine. Repeated lines are skipped.
func (d *display) update(freq float64) {
	if !d.shown.Load() {
		return
	}

	line := d.format(freq)

	d.mu.Lock()
	defer d.mu.Unlock()
	if line == d.last {
		return
	}

	d.last = line
	_, _ = fmt.Fprintln(d.out, line)
}

func (d *display) final(freq float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = fmt.Fprintf(d.out, "final: %s\n", d.format(freq))
}

func printResponse(w io.Writer, sampleRate uint32) error {
	c, err := lowhighcut.New(sampleRate)
	if err != nil {
		return err
	}

	hi := math.Min(10000, 0.45*float64(c.Constants().Rate))
	freqs := response.LogFrequencies(10, hi, 19)
	points, err := response.Sweep(c, freqs, float64(c.Constants().Rate), response.DefaultConfig())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frequency [Hz]\tAnalytic [dB]\tMeasured [dB]\tPhase [deg]\n")
	fmt.Fprintf(tw, "--------------\t-------------\t-------------\t-----------\n")
	for _, p := range points {
		fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t%.1f\n",
			p.FreqHz, c.MagnitudeDB(p.FreqHz), p.GainDB, p.PhaseRad*180/math.Pi)
	}

	return tw.Flush()
}
