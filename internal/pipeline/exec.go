package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// termGrace is how long a cancelled process gets between SIGTERM and
// SIGKILL.
const termGrace = 5 * time.Second

// ExitError reports a simulator process that ran and failed.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("pipeline: %q exited with code %d: %s",
		e.Command, e.Code, strings.TrimSpace(e.Stderr))
}

// Execute runs command in dir, appending its stdout to log.txt there.
// Cancelling ctx sends SIGTERM and escalates to SIGKILL after a grace
// period.
func Execute(ctx context.Context, dir, command string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("pipeline: empty command")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = termGrace

	logFile, err := os.OpenFile(filepath.Join(dir, "log.txt"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	var stderr bytes.Buffer
	cmd.Stdout = logFile
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Command: command, Code: ee.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("pipeline: running %q: %w", command, err)
	}
	return nil
}
