// Package executor runs a shell command as a detached background process and
// supervises it until it exits or its timeout elapses.
//
// The command is wrapped so the backgrounded subshell reports its own PID and
// its success through marker files (see package markers). The supervisor
// never waits on the command directly; it polls the process table one timer
// tick at a time and escalates to a kill when the iteration budget runs out.
package executor

import (
	"fmt"
	"os/exec"

	"github.com/gptscript-ai/shellexec/pkg/markers"
	"github.com/gptscript-ai/shellexec/pkg/mvl"
	"github.com/gptscript-ai/shellexec/pkg/timer"
)

var log = mvl.Package()

// Executor supervises exactly one command. It is not safe for concurrent use
// and cannot be reused once Execute has been called.
type Executor struct {
	command string
	opts    Options
	timer   *timer.Timer
	files   *markers.Files
	pipes   Pipes

	state   State
	pid     int
	cmd     *exec.Cmd
	streams *streams
	log     *mvl.Logger
}

func New(command string, opts ...Options) *Executor {
	opt := complete(opts...)

	t := timer.New()
	t.SetTimeout(opt.Timeout)
	t.SetPollInterval(opt.PollInterval)

	files := markers.New(opt.WorkDir)
	if opt.MarkerPrefix != "" {
		files.SetPrefix(opt.MarkerPrefix)
	}

	return &Executor{
		command: command,
		opts:    opt,
		timer:   t,
		files:   files,
		pipes:   *opt.Pipes,
		log:     &log,
	}
}

// Timer exposes the timeout and poll interval. Changes apply to the next Execute.
func (e *Executor) Timer() *timer.Timer {
	return e.timer
}

// Markers exposes the marker files, e.g. to choose the identifier or work
// directory before Execute.
func (e *Executor) Markers() *markers.Files {
	return e.files
}

func (e *Executor) Pipes() Pipes {
	return e.pipes
}

func (e *Executor) SetPipes(pipes Pipes) {
	e.pipes = pipes
}

func (e *Executor) State() State {
	return e.state
}

func (e *Executor) Command() string {
	return e.command
}

// PID is the backgrounded subshell's PID, or 0 before it has been discovered.
func (e *Executor) PID() int {
	return e.pid
}

// FullCommand is the script handed to the shell.
func (e *Executor) FullCommand() string {
	return wrapCommand(e.command, e.files.SuccessPath(), e.files.ProcessIDPath(), e.pipes.Stdin)
}

// Execute launches the command and blocks until it exits or is killed. It
// returns the captured stdout on success, and otherwise one of
// *TimeoutError, *CommandFailedError, ErrProcessNotCreated,
// ErrInvalidCommand or ErrAlreadyExecuted. Marker files are removed before
// it returns.
func (e *Executor) Execute() (string, error) {
	if e.state != NotStarted {
		return "", ErrAlreadyExecuted
	}

	e.log = log.Fields("id", e.files.ID(), "command", e.command)
	if e.log.IsDebug() {
		e.log.Debugf("running %s -c %q", e.opts.Shell, e.FullCommand())
	}
	o := e.run()
	e.finish(o)

	if o.kind != outcomeCompleted {
		e.log.Debugf("execution ended in state %s", e.state)
	}
	return o.result(e.FullCommand())
}

type outcomeKind int

const (
	outcomeCompleted outcomeKind = iota
	outcomeFailed
	outcomeTimedOut
	outcomeNotCreated
	outcomeLaunchError
)

// outcome is the result of one run before it is turned into Execute's
// return values.
type outcome struct {
	kind   outcomeKind
	stdout string
	stderr string
	pid    int
	err    error
}

func (o outcome) result(command string) (string, error) {
	switch o.kind {
	case outcomeCompleted:
		return o.stdout, nil
	case outcomeFailed:
		return "", &CommandFailedError{Stderr: o.stderr}
	case outcomeTimedOut:
		return "", &TimeoutError{PID: o.pid, Command: command}
	case outcomeNotCreated:
		if o.stderr != "" {
			return "", fmt.Errorf("%w: %s", ErrProcessNotCreated, o.stderr)
		}
		return "", ErrProcessNotCreated
	default:
		return "", o.err
	}
}

func (e *Executor) run() outcome {
	if err := validateCommand(e.command); err != nil {
		e.state = LaunchFailed
		return outcome{kind: outcomeLaunchError, err: err}
	}

	if err := e.launch(); err != nil {
		e.state = LaunchFailed
		return outcome{kind: outcomeLaunchError, err: err}
	}
	e.state = Launched

	pid, ok := e.discoverPID()
	if !ok {
		e.state = LaunchFailed
		e.log.Warnf("no process id written to %s after %d attempts", e.files.ProcessIDPath(), e.opts.MaxPIDAttempts)
		terminate(e.cmd)
		_, stderr := e.streams.drain(e.opts.DrainGrace)
		return outcome{kind: outcomeNotCreated, stderr: stderr}
	}
	e.pid = pid
	e.log = e.log.Fields("pid", pid)
	e.state = Polling

	budget := e.timer.IterationBudget()
	e.log.Debugf("polling every %s, up to %d times", e.timer.PollInterval(), budget)
	for i := 0; i <= budget; i++ {
		if !processAlive(pid) {
			break
		}
		if i == budget {
			e.kill()
			e.state = TimedOut
			return outcome{kind: outcomeTimedOut, pid: pid}
		}
		e.timer.Tick()
	}

	stdout, stderr := e.streams.drain(e.opts.DrainGrace)
	if !e.files.SuccessExists() {
		e.state = Failed
		return outcome{kind: outcomeFailed, stdout: stdout, stderr: stderr, pid: pid}
	}

	e.state = Completed
	return outcome{kind: outcomeCompleted, stdout: stdout, stderr: stderr, pid: pid}
}

// launch starts the wrapping shell without waiting for the command.
func (e *Executor) launch() error {
	cmd, err := newLauncher(e.opts.Shell, e.FullCommand())
	if err != nil {
		return err
	}
	cmd.Env = e.opts.Env

	s, err := openStreams(cmd, e.pipes, e.opts.Stdin)
	if err != nil {
		return fmt.Errorf("creating pipes: %w", err)
	}
	if err := cmd.Start(); err != nil {
		s.close()
		return fmt.Errorf("starting %s: %w", e.opts.Shell, err)
	}
	s.started()

	e.cmd, e.streams = cmd, s
	e.log.Debugf("launched %s (pid %d)", e.opts.Shell, cmd.Process.Pid)

	// The launcher backgrounds everything and exits almost immediately.
	// Reap it so it does not linger as a zombie.
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// discoverPID waits for the subshell to record its PID. The shell writes the
// marker asynchronously, so a missing or partial marker is retried.
func (e *Executor) discoverPID() (int, bool) {
	for attempt := 1; attempt <= e.opts.MaxPIDAttempts; attempt++ {
		if pid, ok := e.files.ProcessID(); ok {
			e.log.Debugf("found process id %d after %d attempt(s)", pid, attempt)
			return pid, true
		}
		if attempt < e.opts.MaxPIDAttempts {
			e.timer.Tick()
		}
	}
	return 0, false
}

func (e *Executor) kill() {
	e.log.Warnf("timeout of %s reached, killing process", e.timer.Timeout())
	terminate(e.cmd)
	forceKill(e.cmd, e.pid)
}

// finish removes the markers and, unless the command completed, makes sure
// nothing it started is left running.
func (e *Executor) finish(o outcome) {
	e.files.Cleanup()
	if o.kind != outcomeCompleted {
		terminate(e.cmd)
	}
	if e.streams != nil {
		e.streams.close()
	}
}
