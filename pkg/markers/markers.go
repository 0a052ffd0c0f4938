// Package markers manages the sentinel files a detached shell command uses to
// report back to its supervisor: one holding the backgrounded PID and one
// whose existence means the command exited zero.
package markers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gptscript-ai/shellexec/pkg/mvl"
	"github.com/gptscript-ai/shellexec/pkg/version"
)

var log = mvl.Package()

type Kind string

const (
	KindSuccess   Kind = "success"
	KindProcessID Kind = "process_id"
)

// DefaultPrefix is the first segment of every marker file name.
const DefaultPrefix = version.ProgramName

// IdentifierAlreadySetError is returned by SetID once an identifier has been
// assigned, either explicitly or by a previous call to ID.
type IdentifierAlreadySetError struct {
	ID string
}

func (e *IdentifierAlreadySetError) Error() string {
	return fmt.Sprintf("unique id already set for marker files (%s)", e.ID)
}

// Files resolves and removes the marker pair of a single execution. It is not
// safe for concurrent use; each supervisor owns its own instance.
type Files struct {
	dir    string
	prefix string
	id     string
}

// New returns Files rooted at dir, or at the OS temp directory when dir is empty.
func New(dir string) *Files {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Files{
		dir:    dir,
		prefix: DefaultPrefix,
	}
}

func (f *Files) Dir() string {
	return f.dir
}

// SetDir changes the work directory. Markers already written under the old
// directory are not moved.
func (f *Files) SetDir(dir string) {
	f.dir = dir
}

func (f *Files) Prefix() string {
	return f.prefix
}

func (f *Files) SetPrefix(prefix string) {
	f.prefix = prefix
}

// ID returns the execution identifier, generating one on first use.
func (f *Files) ID() string {
	if f.id == "" {
		f.id = newID()
	}
	return f.id
}

func (f *Files) SetID(id string) error {
	if f.id != "" {
		return &IdentifierAlreadySetError{ID: f.id}
	}
	if id == "" {
		return fmt.Errorf("unique id must not be empty")
	}
	f.id = id
	return nil
}

func (f *Files) Path(kind Kind) string {
	name := f.prefix + "__" + string(kind) + "__" + f.ID()
	return filepath.Join(f.dir, name)
}

func (f *Files) SuccessPath() string {
	return f.Path(KindSuccess)
}

func (f *Files) ProcessIDPath() string {
	return f.Path(KindProcessID)
}

func (f *Files) SuccessExists() bool {
	_, err := os.Stat(f.SuccessPath())
	return err == nil
}

// ProcessID reads the PID marker. It reports false while the marker is
// missing, partially written, or holds anything but a positive integer.
func (f *Files) ProcessID() (int, bool) {
	data, err := os.ReadFile(f.ProcessIDPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Cleanup removes both markers. Missing files and removal errors are ignored.
func (f *Files) Cleanup() {
	for _, kind := range []Kind{KindProcessID, KindSuccess} {
		p := f.Path(kind)
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Debugf("failed to remove marker %s: %v", p, err)
		}
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
