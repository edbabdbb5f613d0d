// Package execenv runs a child command with the environment the loader
// injected and with its output filtered through the masking writer.
package execenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/masking"
)

// Executor runs commands after the environment pipeline has loaded
// variables and registered their secrets for masking.
type Executor struct {
	logger  *logging.Logger
	tracker *masking.Tracker
}

// New creates an executor. A nil tracker disables output masking.
func New(logger *logging.Logger, tracker *masking.Tracker) *Executor {
	return &Executor{logger: logger, tracker: tracker}
}

// ExecOptions configures one command run.
type ExecOptions struct {
	Command    []string // command and arguments
	PrintVars  bool     // print loaded variables, values masked
	LoadedVars []string // names the loader injected, shown by PrintVars
	WorkingDir string
	Timeout    int       // seconds; 0 disables
	Stdout     io.Writer // defaults to os.Stdout
	Stderr     io.Writer // defaults to os.Stderr
	Stdin      io.Reader // defaults to os.Stdin
}

// ExitError reports a child process that ran and exited non-zero. The
// caller decides how to propagate the code.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// Exec runs the command with the current process environment. Child
// stdout and stderr pass through the masking writer, so a secret echoed
// by the child never reaches the terminal in plaintext.
func (e *Executor) Exec(ctx context.Context, opts ExecOptions) error {
	if len(opts.Command) == 0 {
		return jerrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., jellos exec -- npm start)",
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Second)
		defer cancel()
	}

	name := opts.Command[0]
	if _, err := exec.LookPath(name); err != nil {
		return jerrors.UserError{
			Message:    fmt.Sprintf("Command '%s' not found", name),
			Suggestion: "Check the spelling and that the command is installed and on PATH",
			Err:        err,
		}
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	if e.tracker != nil {
		mout := masking.NewWriter(stdout, e.tracker)
		merr := masking.NewWriter(stderr, e.tracker)
		defer func() {
			_ = mout.Flush()
			_ = merr.Flush()
		}()
		stdout, stderr = mout, merr
	}

	if opts.PrintVars {
		e.printEnvironment(stdout, opts.LoadedVars)
	}

	cmd := exec.CommandContext(ctx, name, opts.Command[1:]...)
	// The loader already injected variables into this process, so the
	// child inherits them.
	cmd.Env = os.Environ()
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = stdin
	if opts.WorkingDir != "" {
		cmd.Dir = opts.WorkingDir
	}

	e.logger.Debug("executing: %s", strings.Join(opts.Command, " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return jerrors.CommandError{
				Command:    strings.Join(opts.Command, " "),
				Message:    fmt.Sprintf("timed out after %ds", opts.Timeout),
				Suggestion: "Increase --timeout or check why the command hangs",
			}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				// Terminated by a signal.
				code = 1
			}
			return ExitError{Code: code}
		}
		return jerrors.CommandError{
			Command:    strings.Join(opts.Command, " "),
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// printEnvironment lists loaded variables with positionally masked
// values. It writes through the same (masked) stream as the child.
func (e *Executor) printEnvironment(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "No environment variables loaded")
		return
	}

	fmt.Fprintf(w, "Loaded %d environment variables:\n", len(names))
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Fprintf(w, "  %s=%s\n", name, masking.MaskValue(os.Getenv(name)))
	}
	fmt.Fprintln(w)
}

// dangerousCommands trip ValidateCommand. Basic safety, not a security
// boundary.
var dangerousCommands = []string{
	"rm", "rmdir", "del", "format", "fdisk",
	"dd", "mkfs", "parted", "shutdown", "reboot",
}

// ValidateCommand checks that a command exists and is not on the
// dangerous list. Callers treat failures as warnings or hard errors as
// suits them.
func ValidateCommand(command []string) error {
	if len(command) == 0 {
		return jerrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., jellos exec -- npm start)",
		}
	}

	name := command[0]
	if _, err := exec.LookPath(name); err != nil {
		return jerrors.UserError{
			Message:    fmt.Sprintf("Command '%s' not found", name),
			Suggestion: "Check the spelling and that the command is installed and on PATH",
			Err:        err,
		}
	}

	for _, dangerous := range dangerousCommands {
		if name == dangerous || strings.HasSuffix(name, "/"+dangerous) {
			return jerrors.UserError{
				Message:    fmt.Sprintf("Potentially dangerous command '%s'", name),
				Suggestion: "Use this command with extreme caution or consider safer alternatives",
			}
		}
	}

	return nil
}
