//go:build !windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func newLauncher(shell, script string) (*exec.Cmd, error) {
	cmd := exec.Command(shell, "-c", script)
	// A fresh process group holds the launcher and everything it
	// backgrounds, so the detached subtree can be signalled as one.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return cmd, nil
}

// terminate asks the launcher's process group to exit.
func terminate(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	signalGroup(cmd.Process.Pid, unix.SIGTERM)
}

// forceKill kills the backgrounded PID and whatever is left of the group.
func forceKill(cmd *exec.Cmd, pid int) {
	if pid > 0 {
		if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			log.Warnf("failed to kill process %d: %v", pid, err)
		}
	}
	if cmd != nil && cmd.Process != nil {
		signalGroup(cmd.Process.Pid, unix.SIGKILL)
	}
}

func signalGroup(pgid int, sig unix.Signal) {
	if err := unix.Kill(-pgid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		log.Debugf("failed to send %v to process group %d: %v", sig, pgid, err)
	}
}

// signalAlive reports whether pid exists using kill(pid, 0). EPERM still
// means the process exists, it just belongs to someone else.
func signalAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
