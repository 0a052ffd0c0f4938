package executor

import (
	"io"
	"os"
	"time"

	"github.com/gptscript-ai/shellexec/pkg/timer"
)

const (
	DefaultShell          = "/bin/sh"
	DefaultMaxPIDAttempts = 200
	DefaultDrainGrace     = time.Second
)

// Pipes selects which standard streams are connected to the supervisor.
// Streams that are not piped are inherited from the current process.
type Pipes struct {
	Stdin  bool
	Stdout bool
	Stderr bool
}

// DefaultPipes captures stdout and stderr and leaves stdin unconnected.
var DefaultPipes = Pipes{Stdout: true, Stderr: true}

type Options struct {
	// Timeout defaults to 5s. Use Timer().SetTimeout for a zero timeout.
	Timeout      time.Duration
	PollInterval time.Duration
	// WorkDir holds the marker files, defaulting to the OS temp directory.
	WorkDir        string
	MarkerPrefix   string
	Shell          string
	MaxPIDAttempts int
	// DrainGrace bounds how long output is read after the command exits, in
	// case a background child it left behind keeps the pipes open.
	DrainGrace time.Duration
	Pipes      *Pipes
	// Stdin is fed to the command when Pipes.Stdin is set.
	Stdin io.Reader
	Env   []string
}

func complete(opts ...Options) (result Options) {
	for _, opt := range opts {
		result.Timeout = firstSet(opt.Timeout, result.Timeout)
		result.PollInterval = firstSet(opt.PollInterval, result.PollInterval)
		result.WorkDir = firstSet(opt.WorkDir, result.WorkDir)
		result.MarkerPrefix = firstSet(opt.MarkerPrefix, result.MarkerPrefix)
		result.Shell = firstSet(opt.Shell, result.Shell)
		result.MaxPIDAttempts = firstSet(opt.MaxPIDAttempts, result.MaxPIDAttempts)
		result.DrainGrace = firstSet(opt.DrainGrace, result.DrainGrace)
		result.Pipes = firstSet(opt.Pipes, result.Pipes)
		if opt.Stdin != nil {
			result.Stdin = opt.Stdin
		}
		if len(opt.Env) > 0 {
			result.Env = opt.Env
		}
	}
	if result.Timeout == 0 {
		result.Timeout = timer.DefaultTimeout
	}
	if result.PollInterval <= 0 {
		result.PollInterval = timer.DefaultPollInterval
	}
	if result.WorkDir == "" {
		result.WorkDir = os.TempDir()
	}
	if result.Shell == "" {
		result.Shell = DefaultShell
	}
	if result.MaxPIDAttempts <= 0 {
		result.MaxPIDAttempts = DefaultMaxPIDAttempts
	}
	if result.DrainGrace <= 0 {
		result.DrainGrace = DefaultDrainGrace
	}
	if result.Pipes == nil {
		p := DefaultPipes
		result.Pipes = &p
	}
	if len(result.Env) == 0 {
		result.Env = os.Environ()
	}
	return
}

// firstSet returns the first non-zero value, so later options override earlier ones.
func firstSet[T comparable](in ...T) (result T) {
	for _, i := range in {
		if i != result {
			return i
		}
	}
	return
}
