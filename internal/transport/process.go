package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ecerr "enginectl/internal/errors"
	"enginectl/util"
)

// DefaultKillGrace is how long a closed process may take to exit on
// its own before it is killed.
const DefaultKillGrace = 500 * time.Millisecond

// Process runs an engine executable on this machine.  The engine gets
// its own process group so that helpers it spawns die with it.
type Process struct {
	Path      string
	Args      []string
	Dir       string
	Env       []string // appended to the inherited environment
	KillGrace time.Duration
	Logger    *util.Logger
}

func (p *Process) String() string {
	return strings.Join(append([]string{p.Path}, p.Args...), " ")
}

// Launch starts the process.  Closing the stream closes the engine's
// stdin, then kills the process group if the engine has not exited
// within KillGrace.
func (p *Process) Launch(ctx context.Context) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := exec.LookPath(p.Path)
	if err != nil {
		return nil, &ecerr.ProcessError{Op: "lookup", Path: p.Path, Err: err}
	}

	// The pipes are ours rather than exec's so that waiting for the
	// process never closes stdout under a pending read.
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, &ecerr.ProcessError{Op: "pipe", Path: path, Err: err}
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW)
		return nil, &ecerr.ProcessError{Op: "pipe", Path: path, Err: err}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(inR, inW, outR, outW)
		return nil, &ecerr.ProcessError{Op: "pipe", Path: path, Err: err}
	}

	cmd := exec.Command(path, p.Args...)
	cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		cmd.Env = append(os.Environ(), p.Env...)
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = inR, outW, errW
	setProcessGroup(cmd)

	err = cmd.Start()
	closeAll(inR, outW, errW)
	if err != nil {
		closeAll(inW, outR, errR)
		return nil, &ecerr.ProcessError{Op: "start", Path: path, Err: err}
	}

	grace := p.KillGrace
	if grace <= 0 {
		grace = DefaultKillGrace
	}
	name := filepath.Base(path)
	s := &processStream{
		cmd:    cmd,
		name:   name,
		stdin:  inW,
		stdout: outR,
		grace:  grace,
		logger: p.Logger,
		exited: make(chan struct{}),
	}
	p.Logger.Verbose("started %s (pid %d)", name, cmd.Process.Pid)

	go s.wait()
	go func() {
		defer errR.Close()
		sc := bufio.NewScanner(errR)
		for sc.Scan() {
			p.Logger.Verbose("%s stderr: %s", name, sc.Text())
		}
	}()
	return s, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}

type processStream struct {
	cmd    *exec.Cmd
	name   string
	stdin  *os.File
	stdout *os.File
	grace  time.Duration
	logger *util.Logger

	exited  chan struct{}
	waitErr error

	once     sync.Once
	closeErr error
}

func (s *processStream) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *processStream) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *processStream) wait() {
	s.waitErr = s.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case s.waitErr == nil:
		s.logger.Verbose("%s exited", s.name)
	case errors.As(s.waitErr, &exitErr):
		s.logger.Verbose("%s exited: %v", s.name, exitErr)
	default:
		s.logger.Warn("%s: wait: %v", s.name, s.waitErr)
	}
	close(s.exited)
}

func (s *processStream) Close() error {
	s.once.Do(func() {
		s.stdin.Close()

		t := time.NewTimer(s.grace)
		defer t.Stop()
		select {
		case <-s.exited:
		case <-t.C:
			s.logger.Verbose("%s did not exit within %s, killing it", s.name, s.grace)
			if err := killGroup(s.cmd.Process); err != nil {
				s.closeErr = &ecerr.ProcessError{Op: "kill", Path: s.cmd.Path, Err: err}
			}
			<-s.exited
		}
		s.stdout.Close()
	})
	return s.closeErr
}
