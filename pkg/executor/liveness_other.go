//go:build !windows && !linux

package executor

func processAlive(pid int) bool {
	return signalAlive(pid)
}
