package engine

import (
	"runtime"
	"sync"
)

// command is one unit of work executed on the worker goroutine. A nil fn
// is the stop sentinel.
type command struct {
	fn  func() error
	ret chan error
}

// dispatcher serializes all engine work onto a single dedicated goroutine.
// Submission hands over exactly one command at a time and blocks the caller
// until it has been executed; graphics contexts with thread affinity never
// see more than one thread.
type dispatcher struct {
	cmds chan command
	wg   sync.WaitGroup
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		// Unbuffered on purpose: the handoff is synchronous and there is
		// never more than one command in flight.
		cmds: make(chan command),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()

	// The native graphics context is current on this thread for the whole
	// lifetime of the engine context.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for cmd := range d.cmds {
		if cmd.fn == nil {
			cmd.ret <- nil
			return
		}
		cmd.ret <- cmd.fn()
	}
}

// dispatch runs fn on the worker and returns its result. Safe for
// concurrent use; concurrent callers are strictly serialized.
func (d *dispatcher) dispatch(fn func() error) error {
	cmd := command{fn: fn, ret: make(chan error)}
	d.cmds <- cmd
	return <-cmd.ret
}

// stop terminates the worker after the commands already submitted have
// drained. The dispatcher must not be used afterwards.
func (d *dispatcher) stop() {
	cmd := command{ret: make(chan error)}
	d.cmds <- cmd
	<-cmd.ret
	d.wg.Wait()
}
