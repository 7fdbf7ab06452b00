package producer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecConfig describes one external producer command.
type ExecConfig struct {
	// Command is the executable to run. Required.
	Command string

	// Args are passed to the command verbatim.
	Args []string

	// WorkDir is the working directory for the command. Empty means the
	// process working directory.
	WorkDir string

	// Timeout bounds one invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
}

// ExecProducer invokes an external command: the task description goes to
// stdin, the produced content comes back on stdout. Non-zero exit is a
// production failure with the stderr tail in the error.
type ExecProducer struct {
	cfg ExecConfig
}

// NewExec creates an ExecProducer for the given command.
func NewExec(cfg ExecConfig) (*ExecProducer, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("producer command is required")
	}
	return &ExecProducer{cfg: cfg}, nil
}

// Produce runs the command with task on stdin and returns its stdout.
func (p *ExecProducer) Produce(ctx context.Context, task string) (string, error) {
	cmdCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, p.cfg.Command, p.cfg.Args...)
	cmd.Dir = p.cfg.WorkDir
	cmd.Stdin = strings.NewReader(task)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("producer %s timed out after %s", p.cfg.Command, p.cfg.Timeout)
		}
		return "", fmt.Errorf("producer %s failed: %w: %s",
			p.cfg.Command, err, stderrTail(stderr.String()))
	}

	return stdout.String(), nil
}

// stderrTail keeps the last few lines of stderr for error messages.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
