// Package tuner estimates the fundamental frequency of a filtered mono
// stream and maps it to notes of an equal temperament.
//
// The entry point for audio code is the [Sink] capability: a real-time
// callback hands every filtered period to Sink.Feed. [Tracker] implements
// Sink without blocking or allocating; its analysis runs on a worker
// goroutine that applies an [Estimator] (normalized square difference
// function computed by FFT autocorrelation) to the most recent frame.
//
// Temperaments with 12, 19, 24, 31 and 53 steps per octave are supported
// relative to a reference pitch between 427 and 453 Hz.
package tuner
