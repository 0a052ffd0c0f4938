package executor

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// capture is one output pipe and everything read from it so far.
type capture struct {
	r, w *os.File
	buf  bytes.Buffer
}

func newCapture() (*capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &capture{r: r, w: w}, nil
}

func (c *capture) String() string {
	if c == nil {
		return ""
	}
	return c.buf.String()
}

// streams owns the parent's ends of the child's standard streams. The pipes
// are plain *os.File values so exec.Cmd.Wait never waits on them; the
// detached command usually outlives the launcher shell.
type streams struct {
	stdout, stderr *capture
	stdinR, stdinW *os.File
	input          io.Reader

	drainers errgroup.Group
	drained  chan struct{}
	release  sync.Once
}

func openStreams(cmd *exec.Cmd, pipes Pipes, input io.Reader) (_ *streams, err error) {
	s := &streams{input: input}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	cmd.Stdout = os.Stdout
	if pipes.Stdout {
		if s.stdout, err = newCapture(); err != nil {
			return nil, err
		}
		cmd.Stdout = s.stdout.w
	}

	cmd.Stderr = os.Stderr
	if pipes.Stderr {
		if s.stderr, err = newCapture(); err != nil {
			return nil, err
		}
		cmd.Stderr = s.stderr.w
	}

	if pipes.Stdin {
		if s.stdinR, s.stdinW, err = os.Pipe(); err != nil {
			return nil, err
		}
		// Passed as descriptor stdinFD, see wrapCommand.
		cmd.ExtraFiles = []*os.File{s.stdinR}
	}

	return s, nil
}

func (s *streams) captures() []*capture {
	var result []*capture
	for _, c := range []*capture{s.stdout, s.stderr} {
		if c != nil {
			result = append(result, c)
		}
	}
	return result
}

// started hands the child ends over to the child and begins reading.
func (s *streams) started() {
	for _, c := range s.captures() {
		c := c
		_ = c.w.Close()
		s.drainers.Go(func() error {
			_, err := io.Copy(&c.buf, c.r)
			if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		})
	}

	if s.stdinR != nil {
		_ = s.stdinR.Close()
		go func() {
			if s.input != nil {
				_, _ = io.Copy(s.stdinW, s.input)
			}
			_ = s.stdinW.Close()
		}()
	}

	s.drained = make(chan struct{})
	go func() {
		if err := s.drainers.Wait(); err != nil {
			log.Debugf("failed reading command output: %v", err)
		}
		close(s.drained)
	}()
}

// drain waits for both outputs to reach EOF, giving up after grace.
func (s *streams) drain(grace time.Duration) (stdout, stderr string) {
	if s.drained != nil {
		select {
		case <-s.drained:
		case <-time.After(grace):
			log.Debugf("output still open %s after exit, closing", grace)
			s.interrupt()
			<-s.drained
		}
	}
	return s.stdout.String(), s.stderr.String()
}

// interrupt unblocks readers that are still waiting on a writer.
func (s *streams) interrupt() {
	for _, c := range s.captures() {
		if err := c.r.SetReadDeadline(time.Now()); err != nil {
			_ = c.r.Close()
		}
	}
}

// close stops all readers and releases every descriptor. Safe to call twice.
func (s *streams) close() {
	s.release.Do(func() {
		if s.drained != nil {
			s.interrupt()
			<-s.drained
		}
		for _, c := range s.captures() {
			_ = c.r.Close()
			_ = c.w.Close()
		}
		for _, f := range []*os.File{s.stdinR, s.stdinW} {
			if f != nil {
				_ = f.Close()
			}
		}
	})
}
