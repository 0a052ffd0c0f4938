package integration

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
)

func binPath() string {
	if runtime.GOOS == "windows" {
		return "..\\bin\\shellexec.exe"
	}
	return "../bin/shellexec"
}

// ShellExec runs the built binary. Tests are skipped until `go build -o
// bin/shellexec .` has been run from the repository root.
func ShellExec(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	if _, err := os.Stat(binPath()); errors.Is(err, os.ErrNotExist) {
		t.Skipf("%s not built", binPath())
	}

	var outBuf, errBuf bytes.Buffer
	cmd := exec.Command(binPath(), args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.Env = append(os.Environ(), "SHELLEXEC_CONFIG_FILE="+t.TempDir()+"/none.yaml")
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
