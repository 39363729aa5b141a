package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Exit describes how a child process ended.
type Exit struct {
	Code   int            // -1 when killed by a signal or when waiting failed
	Signal syscall.Signal // non-zero when killed by a signal
	Err    error          // set when the exit status could not be read
}

func (e Exit) String() string {
	switch {
	case e.Err != nil:
		return "wait error: " + e.Err.Error()
	case e.Signal != 0:
		return "signal " + e.Signal.String()
	default:
		return fmt.Sprintf("exit status %d", e.Code)
	}
}

// Child is one running worker process.
type Child interface {
	PID() int
	Signal(sig os.Signal) error
	// Wait blocks until the process exits. It is called once.
	Wait() Exit
}

type Launcher interface {
	Launch(ctx context.Context, botID int) (Child, error)
}

// ExecLauncher starts the worker binary with BOT_ID set for the identity.
// Output is passed through so every worker logs into the supervisor's streams.
type ExecLauncher struct {
	Binary string
	Env    []string // defaults to the supervisor's environment
	Stdout io.Writer
	Stderr io.Writer
}

func (l *ExecLauncher) Launch(ctx context.Context, botID int) (Child, error) {
	env := l.Env
	if env == nil {
		env = os.Environ()
	}

	// no CommandContext: shutdown forwards SIGINT instead of killing
	cmd := exec.Command(l.Binary)
	cmd.Env = append(append([]string{}, env...), fmt.Sprintf("BOT_ID=%d", botID))
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s for bot %d: %w", l.Binary, botID, err)
	}

	return &execChild{cmd: cmd}, nil
}

type execChild struct {
	cmd *exec.Cmd
}

func (c *execChild) PID() int {
	return c.cmd.Process.Pid
}

func (c *execChild) Signal(sig os.Signal) error {
	return c.cmd.Process.Signal(sig)
}

func (c *execChild) Wait() Exit {
	err := c.cmd.Wait()
	if err == nil {
		return Exit{Code: 0}
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Exit{Code: -1, Err: err}
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Exit{Code: -1, Signal: ws.Signal()}
	}

	return Exit{Code: exitErr.ExitCode()}
}
