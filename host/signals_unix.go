//go:build unix

package host

import (
	"os"
	"syscall"
)

// SignalCommand maps process signals to session commands: SIGINT, SIGTERM
// and SIGQUIT quit, SIGUSR1 shows, SIGUSR2 hides and SIGHUP saves.
func SignalCommand(sig os.Signal) (Command, bool) {
	switch sig {
	case os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT:
		return CommandQuit, true
	case syscall.SIGUSR1:
		return CommandShow, true
	case syscall.SIGUSR2:
		return CommandHide, true
	case syscall.SIGHUP:
		return CommandSave, true
	default:
		return 0, false
	}
}

// SessionSignals lists the signals SignalCommand understands.
var SessionSignals = []os.Signal{
	os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT,
	syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP,
}
