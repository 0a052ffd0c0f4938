//go:build !windows

package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func newTestExecutor(t *testing.T, command string, opts ...Options) *Executor {
	t.Helper()
	dir := fs.NewDir(t, "executor")
	return New(command, append([]Options{{
		WorkDir:      dir.Path(),
		PollInterval: 10 * time.Millisecond,
	}}, opts...)...)
}

func requireNoMarkers(t *testing.T, e *Executor) {
	t.Helper()
	require.NoFileExists(t, e.Markers().SuccessPath())
	require.NoFileExists(t, e.Markers().ProcessIDPath())
}

func TestExecuteEcho(t *testing.T) {
	e := newTestExecutor(t, "echo hi")

	out, err := e.Execute()
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
	require.Equal(t, Completed, e.State())
	require.Positive(t, e.PID())
	requireNoMarkers(t, e)
}

func TestExecuteMatchesSynchronousOutput(t *testing.T) {
	e := newTestExecutor(t, `printf 'a b\n'; for i in 1 2 3; do echo "line $i"; done`)

	out, err := e.Execute()
	require.NoError(t, err)
	require.Equal(t, "a b\nline 1\nline 2\nline 3\n", out)
}

func TestExecuteShellSyntax(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
		failed  bool
	}{
		{name: "TrailingSemicolon", command: "echo hi;", want: "hi\n"},
		{name: "TrailingAmpersand", command: "echo hi &", want: "hi\n"},
		{name: "Comment", command: "echo hi # greet", want: "hi\n"},
		{name: "MultiLine", command: "echo a\necho b", want: "a\nb\n"},
		{name: "MultiLineLastFails", command: "echo a\nfalse", failed: true},
		{name: "Subshell", command: "(echo hi)", want: "hi\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(t, tt.command, Options{MaxPIDAttempts: 20})

			out, err := e.Execute()
			if tt.failed {
				var failed *CommandFailedError
				require.ErrorAs(t, err, &failed)
				require.Equal(t, Failed, e.State())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
			require.Equal(t, Completed, e.State())
		})
	}
}

func TestExecuteExitNonZero(t *testing.T) {
	e := newTestExecutor(t, "exit 1")

	_, err := e.Execute()
	var failed *CommandFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, Failed, e.State())
	requireNoMarkers(t, e)
}

func TestExecuteFailureCarriesStderr(t *testing.T) {
	e := newTestExecutor(t, "echo partial; echo 'went wrong' >&2; exit 3")

	_, err := e.Execute()
	var failed *CommandFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "went wrong\n", failed.Stderr)
}

func TestExecuteTimeout(t *testing.T) {
	e := newTestExecutor(t, "sleep 10", Options{Timeout: time.Second})

	start := time.Now()
	_, err := e.Execute()
	elapsed := time.Since(start)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, e.PID(), timeout.PID)
	require.Equal(t, e.FullCommand(), timeout.Command)
	require.Equal(t, TimedOut, e.State())
	require.Less(t, elapsed, 5*time.Second)
	requireNoMarkers(t, e)

	// A killed subshell may stay behind as an unreaped zombie under init;
	// processAlive counts that as gone.
	require.Eventually(t, func() bool {
		return !processAlive(timeout.PID)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestExecuteZeroTimeoutKillsOnFirstIteration(t *testing.T) {
	e := newTestExecutor(t, "sleep 10")
	e.Timer().SetTimeout(0)
	require.Zero(t, e.Timer().IterationBudget())

	_, err := e.Execute()
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
}

func TestExecuteProcessNotCreated(t *testing.T) {
	// The shell cannot write the PID marker into a directory that does not exist.
	missing := filepath.Join(fs.NewDir(t, "executor").Path(), "missing")
	e := New("true", Options{
		WorkDir:        missing,
		PollInterval:   time.Millisecond,
		MaxPIDAttempts: 200,
	})

	start := time.Now()
	_, err := e.Execute()
	require.ErrorIs(t, err, ErrProcessNotCreated)
	require.Equal(t, LaunchFailed, e.State())
	require.Zero(t, e.PID())
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteInvalidCommand(t *testing.T) {
	e := newTestExecutor(t, `echo "unterminated`)

	_, err := e.Execute()
	require.ErrorIs(t, err, ErrInvalidCommand)
	require.Equal(t, LaunchFailed, e.State())
}

func TestExecuteMissingShell(t *testing.T) {
	e := newTestExecutor(t, "echo hi", Options{Shell: "/nonexistent/shell"})

	_, err := e.Execute()
	require.Error(t, err)
	require.Equal(t, LaunchFailed, e.State())
}

func TestExecuteTwice(t *testing.T) {
	e := newTestExecutor(t, "echo once")

	_, err := e.Execute()
	require.NoError(t, err)

	_, err = e.Execute()
	require.ErrorIs(t, err, ErrAlreadyExecuted)
	require.Equal(t, Completed, e.State())
}

func TestExecuteStdin(t *testing.T) {
	e := newTestExecutor(t, "tr a-z A-Z", Options{
		Pipes: &Pipes{Stdin: true, Stdout: true, Stderr: true},
		Stdin: strings.NewReader("hello stdin"),
	})

	out, err := e.Execute()
	require.NoError(t, err)
	require.Equal(t, "HELLO STDIN", out)
}

func TestExecuteStdoutNotPiped(t *testing.T) {
	e := newTestExecutor(t, "true")
	e.SetPipes(Pipes{Stderr: true})

	out, err := e.Execute()
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestExecuteEnvironment(t *testing.T) {
	e := newTestExecutor(t, `echo "$SHELLEXEC_TEST_VALUE"`, Options{
		Env: append(os.Environ(), "SHELLEXEC_TEST_VALUE=passed through"),
	})

	out, err := e.Execute()
	require.NoError(t, err)
	require.Equal(t, "passed through\n", out)
}

func TestExecuteLargeOutput(t *testing.T) {
	// Well past the pipe buffer, so output has to be read while the command runs.
	e := newTestExecutor(t, "i=0; while [ $i -lt 20000 ]; do echo 0123456789; i=$((i+1)); done")

	out, err := e.Execute()
	require.NoError(t, err)
	require.Len(t, out, 20000*11)
}

func TestExecuteBackgroundChildHoldsPipe(t *testing.T) {
	e := newTestExecutor(t, "(sleep 3 &) ; echo done", Options{DrainGrace: 100 * time.Millisecond})

	start := time.Now()
	out, err := e.Execute()
	require.NoError(t, err)
	require.Equal(t, "done\n", out)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestExecuteConcurrent(t *testing.T) {
	const n = 10

	var (
		wg   sync.WaitGroup
		outs = make([]string, n)
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := newTestExecutor(t, fmt.Sprintf("echo %d", i))
			outs[i], errs[i] = e.Execute()
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprintf("%d\n", i), outs[i])
	}
}
