// Package biquad describes second-order IIR sections by their normalized
// transfer-function coefficients and evaluates their frequency response.
//
// The runtime filters in this module keep their own recursive state in
// named per-stage structures; [Coefficients] is the common description used
// to analyse them. First-order sections are expressed with B2 = A2 = 0.
package biquad
