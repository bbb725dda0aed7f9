//go:build !unix

package host

import "os"

// SignalCommand maps os.Interrupt to CommandQuit.
func SignalCommand(sig os.Signal) (Command, bool) {
	if sig == os.Interrupt {
		return CommandQuit, true
	}

	return 0, false
}

// SessionSignals lists the signals SignalCommand understands.
var SessionSignals = []os.Signal{os.Interrupt}
