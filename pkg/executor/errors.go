package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcessNotCreated means the PID marker never appeared, so the
	// backgrounded command could not be located.
	ErrProcessNotCreated = errors.New("max attempts count reached, cannot locate the started process")
	ErrInvalidCommand    = errors.New("invalid command")
	ErrAlreadyExecuted   = errors.New("executor has already run its command")
	// ErrUnsupportedPlatform is returned where there is no POSIX shell and
	// process groups to supervise a detached command with.
	ErrUnsupportedPlatform = errors.New("detached execution is not supported on this platform")
)

// TimeoutError is returned when the command outlived its timeout and was killed.
type TimeoutError struct {
	PID     int
	Command string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("exec timeout reached, process (%d) killed. Command: %s", e.PID, e.Command)
}

// CommandFailedError is returned when the command exited without touching the
// success marker, i.e. it exited non-zero or was killed by something else.
type CommandFailedError struct {
	Stderr string
}

func (e *CommandFailedError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return "command executed with failure"
	}
	return "command executed with failure: " + msg
}
