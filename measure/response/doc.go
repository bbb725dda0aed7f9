// Package response measures the frequency response of a block processor by
// simulation: it drives a sine through the processor, waits for transients
// to settle and compares input and output at the drive frequency with
// Goertzel analyzers.
//
// The measured curve complements analytic responses computed from
// coefficients; agreement between the two shows that a runtime filter keeps
// its state correctly across blocks.
package response
