package host

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/glog"
)

// Controller is the part of the application a session manager may drive.
type Controller interface {
	Show()
	Hide()
	Save() error
}

// Command is a session-management request.
type Command int

// Session commands.
const (
	CommandShow Command = iota + 1
	CommandHide
	CommandSave
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandShow:
		return "show"
	case CommandHide:
		return "hide"
	case CommandSave:
		return "save"
	case CommandQuit:
		return "quit"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// SessionHandler applies commands to a Controller.
type SessionHandler struct {
	ctrl Controller
}

// NewSessionHandler returns a handler for ctrl.
func NewSessionHandler(ctrl Controller) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

// Serve applies commands until CommandQuit arrives, cmds is closed or ctx is
// canceled. A failed save is logged and does not end the session. It
// returns ctx.Err() on cancellation and nil otherwise.
func (h *SessionHandler) Serve(ctx context.Context, cmds <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}

			if quit := h.Handle(cmd); quit {
				return nil
			}
		}
	}
}

// Handle applies one command and reports whether it ends the session.
func (h *SessionHandler) Handle(cmd Command) (quit bool) {
	glog.V(1).Infof("session: %s", cmd)

	switch cmd {
	case CommandShow:
		h.ctrl.Show()
	case CommandHide:
		h.ctrl.Hide()
	case CommandSave:
		if err := h.ctrl.Save(); err != nil {
			glog.Warningf("session: save failed: %s", err)
		}
	case CommandQuit:
		return true
	default:
		glog.Warningf("session: ignoring %s", cmd)
	}

	return false
}

// ForwardSignals translates signals from sigs into commands until ctx is
// canceled or sigs is closed; the returned channel is then closed.
func ForwardSignals(ctx context.Context, sigs <-chan os.Signal) <-chan Command {
	cmds := make(chan Command)
	go func() {
		defer close(cmds)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-sigs:
				if !ok {
					return
				}

				cmd, known := SignalCommand(sig)
				if !known {
					continue
				}

				select {
				case cmds <- cmd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return cmds
}
