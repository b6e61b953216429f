package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured outcome of one git invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs git subcommands in a directory.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// CommandError is a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct {
	// Binary defaults to "git".
	Binary string
}

// Run executes git with args in dir. A non-zero exit is returned as a *CommandError
// along with the captured output.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &CommandError{Args: args, ExitCode: result.ExitCode, Stderr: result.Stderr}
		}
		return result, fmt.Errorf("failed to run git %s: %w", strings.Join(args, " "), err)
	}
	return result, nil
}
