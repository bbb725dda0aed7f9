package host

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	shown   int
	hidden  int
	saves   int
	saveErr error
}

func (c *fakeController) Show() { c.shown++ }
func (c *fakeController) Hide() { c.hidden++ }
func (c *fakeController) Save() error {
	c.saves++

	return c.saveErr
}

func TestSessionHandlerServe(t *testing.T) {
	ctrl := &fakeController{saveErr: errors.New("read-only")}
	cmds := make(chan Command, 8)
	cmds <- CommandShow
	cmds <- CommandSave
	cmds <- CommandHide
	cmds <- CommandShow
	cmds <- Command(42)
	cmds <- CommandQuit
	cmds <- CommandHide

	require.NoError(t, NewSessionHandler(ctrl).Serve(context.Background(), cmds))
	assert.Equal(t, 2, ctrl.shown)
	assert.Equal(t, 1, ctrl.hidden)
	assert.Equal(t, 1, ctrl.saves)
	assert.Len(t, cmds, 1, "commands after quit stay queued")
}

func TestSessionHandlerClosedChannel(t *testing.T) {
	cmds := make(chan Command)
	close(cmds)
	assert.NoError(t, NewSessionHandler(&fakeController{}).Serve(context.Background(), cmds))
}

func TestSessionHandlerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSessionHandler(&fakeController{}).Serve(ctx, make(chan Command))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "show", CommandShow.String())
	assert.Equal(t, "quit", CommandQuit.String())
	assert.Equal(t, "Command(9)", Command(9).String())
}

func TestForwardSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 2)
	cmds := ForwardSignals(ctx, sigs)
	sigs <- os.Kill
	sigs <- os.Interrupt

	select {
	case cmd := <-cmds:
		assert.Equal(t, CommandQuit, cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("no command forwarded")
	}

	close(sigs)
	_, ok := <-cmds
	assert.False(t, ok)
}

func TestSignalCommand(t *testing.T) {
	cmd, ok := SignalCommand(os.Interrupt)
	require.True(t, ok)
	assert.Equal(t, CommandQuit, cmd)

	_, ok = SignalCommand(os.Kill)
	assert.False(t, ok)
	assert.Contains(t, SessionSignals, os.Interrupt)
}
