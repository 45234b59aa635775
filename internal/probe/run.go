package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Current process state
type State string

const (
	// The emitter is still running
	StateRunning State = "RUNNING"
	// The emitter exited on its own. See the exit code for success
	StateComplete State = "COMPLETE"
	// We killed the emitter
	StateStopped State = "STOPPED"
	// The emitter was terminated by writing to a pipe nobody reads anymore
	StateBrokenPipe State = "BROKEN_PIPE"
)

func NewState(processExited bool, e *exec.ExitError) State {
	if !processExited {
		return StateRunning
	}

	// ExitCode() returns -1 if the process was terminated by a signal
	if e != nil && e.ExitCode() == -1 {
		if status, ok := e.ProcessState.Sys().(syscall.WaitStatus); ok {
			switch status.Signal() {
			case unix.SIGKILL:
				// Probably us, by way of Stop()
				return StateStopped
			case unix.SIGPIPE:
				return StateBrokenPipe
			}
		}
	}
	return StateComplete
}

type Status struct {
	CurrentState State
	ReturnCode   *int
}

type RunArgs struct {
	// Path to the emitter executable
	Command string
	// Full argument list, including argv[0]
	Args    []string
	// Process environment. nil inherits ours
	Env     []string
}

// Run is an emitter process whose stdout is connected to a pipe we own.
// Reading from Stdout() is how the probe plays the consumer.
type Run struct {
	sync.Mutex
	cmd           *exec.Cmd
	processExited bool
	exitErr       *exec.ExitError
	exited        chan struct{}

	stdout     *os.File
	stderr     bytes.Buffer
	detachOnce sync.Once
	detachErr  error
}

func Start(args RunArgs) (*Run, error) {
	readEnd, writeEnd, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("error creating output pipe: %w", err)
	}

	newRun := &Run{
		cmd: &exec.Cmd{
			Path:   args.Command,
			Args:   args.Args,
			Env:    args.Env,
			Stdout: writeEnd,
		},
		exited: make(chan struct{}),
		stdout: readEnd,
	}
	newRun.cmd.Stderr = &newRun.stderr

	err = newRun.cmd.Start()
	// The child has its own copy of the write end now. Holding on to ours
	// would keep the reader from ever seeing EOF
	_ = writeEnd.Close()
	if err != nil {
		_ = readEnd.Close()
		return nil, fmt.Errorf("error starting process: %w", err)
	}

	// Watch for the process to exit and record how it went
	go func() {
		defer close(newRun.exited)

		err := newRun.cmd.Wait()
		newRun.Lock()
		defer newRun.Unlock()

		newRun.processExited = true
		newRun.exitErr, _ = err.(*exec.ExitError)
	}()

	return newRun, nil
}

// Read end of the emitter's stdout
func (r *Run) Stdout() io.Reader {
	return r.stdout
}

// Detach closes our end of the pipe, exactly like a consumer that exits
// early. The emitter's next write will fail.
// Safe for multiple calls
func (r *Run) Detach() error {
	r.detachOnce.Do(func() {
		r.detachErr = r.stdout.Close()
	})
	return r.detachErr
}

func (r *Run) Status() Status {
	r.Lock()
	exited := r.processExited
	exitErr := r.exitErr
	r.Unlock()

	var exitCode *int
	if exited {
		tmp := r.cmd.ProcessState.ExitCode()
		if exitErr != nil {
			tmp = exitErr.ExitCode()
		}
		exitCode = &tmp
	}

	return Status{
		CurrentState: NewState(exited, exitErr),
		ReturnCode:   exitCode,
	}
}

func (r *Run) Stop() error {
	var err error
	r.Lock()
	if !r.processExited {
		err = r.cmd.Process.Kill()
	}
	r.Unlock()

	if err != nil {
		err = fmt.Errorf("failed to send kill signal to process: %w", err)
	}
	return err
}

// Exited is closed once the process has exited
func (r *Run) Exited() <-chan struct{} {
	return r.exited
}

// Wait blocks until the process exits and returns its final status
func (r *Run) Wait() Status {
	<-r.exited
	return r.Status()
}

// Whatever the process wrote to stderr. Blocks until the process exits
func (r *Run) Stderr() string {
	<-r.exited
	return r.stderr.String()
}

// Capture starts an emitter and observes its output until EOF, or until
// 'limit' arrivals when limit > 0, after which it hangs up on the emitter.
// Either way Capture waits for the process to exit. Cancelling ctx, or a
// failure while reading, kills the process.
func Capture(ctx context.Context, args RunArgs, limit int) (Trace, Status, error) {
	run, err := Start(args)
	if err != nil {
		return nil, Status{}, err
	}
	defer run.Detach()

	var trace Trace
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var readErr error
		trace, readErr = Observe(run.Stdout(), limit)
		return errors.Join(readErr, run.Detach())
	})
	g.Go(func() error {
		select {
		case <-run.Exited():
			return nil
		case <-gctx.Done():
			// Killing the emitter closes the write end of the pipe,
			// which gets the reader out of its blocking read
			stopErr := run.Stop()
			<-run.Exited()
			return errors.Join(gctx.Err(), stopErr)
		}
	})

	err = g.Wait()
	return trace, run.Status(), err
}
