package executor

import (
	"sync"

	"github.com/prometheus/procfs"
)

var procFS = sync.OnceValues(procfs.NewDefaultFS)

// processAlive looks the PID up in /proc. Zombies count as exited: the
// detached subshell is reparented on exit and may sit unreaped for a while.
func processAlive(pid int) bool {
	fs, err := procFS()
	if err != nil {
		return signalAlive(pid)
	}
	p, err := fs.Proc(pid)
	if err != nil {
		return false
	}
	stat, err := p.Stat()
	if err != nil {
		return false
	}
	switch stat.State {
	case "Z", "X", "x":
		return false
	}
	return true
}
