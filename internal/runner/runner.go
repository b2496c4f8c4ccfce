// Package runner executes external commands and returns their standard
// output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single command when none is configured.
const DefaultTimeout = 60 * time.Second

// ErrTimeout is returned when a command outlives its deadline.
var ErrTimeout = errors.New("command timed out")

// Runner runs a command to completion and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// Exec runs commands on the local host.
type Exec struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewExec returns an Exec that gives every command at most timeout to
// finish. A zero timeout selects DefaultTimeout.
func NewExec(log logrus.FieldLogger, timeout time.Duration) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exec{
		log:     log.WithField("package", "runner"),
		timeout: timeout,
	}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	log := e.log.WithField("command", command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	hideWindow(cmd)

	start := time.Now()
	err := cmd.Run()
	log = log.WithField("duration", time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		log.Warn("Command timed out")
		return "", fmt.Errorf("%s: %w after %s", command, ErrTimeout, e.timeout)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.WithField("exit_code", exitErr.ExitCode()).Debug("Command failed")
			return "", &ExitError{
				Command:  command,
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return "", fmt.Errorf("run %s: %w", command, err)
	}

	log.Debug("Command finished")
	return stdout.String(), nil
}
