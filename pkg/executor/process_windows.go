package executor

import (
	"os/exec"
)

func newLauncher(string, string) (*exec.Cmd, error) {
	return nil, ErrUnsupportedPlatform
}

func terminate(*exec.Cmd) {}

func forceKill(*exec.Cmd, int) {}

func processAlive(int) bool {
	return false
}
