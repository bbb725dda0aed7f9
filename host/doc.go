// Package host connects the band-limiting filter and a pitch sink to a
// periodic audio callback.
//
// A [Backend] drives a [Callbacks] implementation the way an audio server
// does: it announces the sample rate and period size, then calls Process
// once per period. [Adapter] is the Callbacks implementation used by the
// tuner; [PCMBackend] is an offline backend that reads raw PCM from an
// io.Reader. Session commands (show, hide, save, quit) reach a [Controller]
// through [SessionHandler].
package host
