// Package exec abstracts external command execution so CLI-backed secret
// providers can be exercised against mocks. The vault-CLI provider never
// calls os/exec directly; it goes through a CommandExecutor injected at
// construction time.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// CommandExecutor runs an external command and captures its output.
type CommandExecutor interface {
	// Execute runs name with args under ctx. The command is killed when
	// ctx expires. Returns captured stdout, stderr and the run error.
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor is the production implementation backed by os/exec.
type RealCommandExecutor struct{}

// Execute runs the command and buffers both output streams.
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Default returns the production executor.
func Default() CommandExecutor {
	return &RealCommandExecutor{}
}

// Installed reports whether an executable named name is on PATH.
// Providers use it for the cliInstalled half of their health checks.
func Installed(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ExitCode extracts the process exit code from an Execute error.
// Returns -1 when err carries no exit status (start failure, timeout kill).
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
