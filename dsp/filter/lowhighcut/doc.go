// Package lowhighcut provides the band-limiting filter that conditions a
// mono input stream for fundamental-frequency estimation.
//
// The [Cascade] is a fixed chain of recursive stages run once per sample:
//
//	seed -> low-cut -> low-cut -> section -> section -> output
//
// The two low-cut stages are one-pole DC blockers (first difference into a
// leaky integrator) breaking at 23 Hz; they remove rumble and DC drift. The
// two second-order sections form a 4th-order Butterworth lowpass at 999 Hz
// that removes upper harmonics and noise above the range a tuner cares
// about. A seed stage injects a ±1e-20 Nyquist-rate signal so the recursions
// never decay into denormal numbers during silence.
//
// Coefficients are derived by [Solve] from the runtime sample rate, clamped
// to [1, 192000]. [Cascade.Process] allocates nothing, takes no locks and
// may filter in place; it is meant to run inside an audio callback.
// [Cascade.Init] and [Cascade.Reset] must not run concurrently with it.
package lowhighcut
