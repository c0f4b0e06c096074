// Package launch starts per-site development servers.
//
// Launch returns as soon as the process has started; the process then runs on
// its own with the terminal's stdout/stderr. A goroutine per process waits for
// it to exit and hands the result to an optional monitoring hook.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
)

// DefaultCommand runs the template's dev script.
var DefaultCommand = []string{"npm", "run", "dev"}

// ErrNoCommand is returned when the launcher has no command configured.
var ErrNoCommand = errors.New("no dev server command configured")

// Request describes one dev server to start.
type Request struct {
	Domain string
	Dir    string
	Port   int
}

// Handle identifies a started dev server.
type Handle struct {
	Domain string
	Dir    string
	Port   int
	PID    int
}

// ExitFunc observes a dev server's termination. err is nil on a clean exit.
type ExitFunc func(h Handle, err error)

// Launcher starts dev servers without waiting for them.
type Launcher interface {
	Launch(ctx context.Context, req Request) (Handle, error)
}

// ExecLauncher starts dev servers as child processes.
type ExecLauncher struct {
	command []string
	env     map[string]string
	stdout  io.Writer
	stderr  io.Writer
	onExit  ExitFunc

	wg sync.WaitGroup
}

// Option configures an ExecLauncher.
type Option func(*ExecLauncher)

// WithOutput redirects the children's output (default: os.Stdout/os.Stderr).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(l *ExecLauncher) { l.stdout, l.stderr = stdout, stderr }
}

// WithEnv adds variables to every child's environment.
func WithEnv(env map[string]string) Option {
	return func(l *ExecLauncher) { l.env = env }
}

// WithExitHook installs the monitoring hook.
func WithExitHook(fn ExitFunc) Option {
	return func(l *ExecLauncher) { l.onExit = fn }
}

// NewExecLauncher returns a launcher running command (argv form). An empty
// command falls back to DefaultCommand.
func NewExecLauncher(command []string, opts ...Option) *ExecLauncher {
	if len(command) == 0 {
		command = DefaultCommand
	}
	l := &ExecLauncher{
		command: append([]string(nil), command...),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the command in req.Dir with PORT set and returns immediately.
// The context only guards the start; the process outlives it.
func (l *ExecLauncher) Launch(ctx context.Context, req Request) (Handle, error) {
	if len(l.command) == 0 || l.command[0] == "" {
		return Handle{}, ErrNoCommand
	}
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	// #nosec G204 -- the dev server command comes from operator configuration.
	cmd := exec.Command(l.command[0], l.command[1:]...)
	cmd.Dir = req.Dir
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Env = cmd.Environ()
	for k, v := range l.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, "PORT="+strconv.Itoa(req.Port))

	if err := cmd.Start(); err != nil {
		return Handle{}, fmt.Errorf("start %s in %s: %w", l.command[0], req.Dir, err)
	}

	h := Handle{Domain: req.Domain, Dir: req.Dir, Port: req.Port, PID: cmd.Process.Pid}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		err := cmd.Wait()
		if l.onExit != nil {
			l.onExit(h, err)
		}
	}()
	return h, nil
}

// Wait blocks until every launched process has exited and its hook has run.
func (l *ExecLauncher) Wait() {
	l.wg.Wait()
}
