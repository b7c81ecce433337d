package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner executes the external cargo queries.
type Runner interface {
	// Metadata runs `cargo metadata` and decodes its JSON document.
	Metadata(ctx context.Context, inv *Invocation) (*Metadata, error)

	// Check runs `cargo check --message-format=json` to completion and returns
	// its captured output.
	Check(ctx context.Context, inv *Invocation) (*CheckOutput, error)
}

// CheckOutput is the captured result of a finished `cargo check`.
type CheckOutput struct {
	// Stdout is the newline-delimited JSON message stream.
	Stdout io.Reader

	// ExitCode is the process exit status. cargo exits non-zero when the crate
	// fails to compile, which does not invalidate the messages already emitted.
	ExitCode int

	// Stderr is the captured human-readable output.
	Stderr string
}

// CommandError describes a cargo process that could not be run or exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	cmd := "cargo " + strings.Join(e.Args, " ")
	if e.Exited() {
		msg := strings.TrimSpace(e.Stderr)
		if msg == "" {
			return fmt.Sprintf("%s: exit status %d", cmd, e.ExitCode)
		}
		return fmt.Sprintf("%s: exit status %d: %s", cmd, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Exited reports whether the process started and exited with a non-zero status,
// as opposed to failing to start at all.
func (e *CommandError) Exited() bool {
	var exitErr *exec.ExitError
	return errors.As(e.Err, &exitErr)
}

// CommandRunner runs cargo as a child process.
type CommandRunner struct {
	// Cargo is the executable to run. Defaults to $CARGO, then "cargo".
	Cargo string

	// Env is appended to the current process environment.
	Env []string
}

// NewCommandRunner creates a runner for the given cargo executable.
func NewCommandRunner(cargo string) *CommandRunner {
	return &CommandRunner{Cargo: cargo}
}

func (r *CommandRunner) executable() string {
	if r.Cargo != "" {
		return r.Cargo
	}
	if env := os.Getenv("CARGO"); env != "" {
		return env
	}
	return "cargo"
}

// Metadata implements Runner.
func (r *CommandRunner) Metadata(ctx context.Context, inv *Invocation) (*Metadata, error) {
	args := inv.MetadataArgs()
	stdout, stderr, err := r.run(ctx, inv.Dir(), args)
	if err != nil {
		return nil, &CommandError{Args: args, ExitCode: exitCode(err), Stderr: stderr, Err: err}
	}

	meta, err := ParseMetadata(stdout)
	if err != nil {
		return nil, &CommandError{Args: args, Stderr: stderr, Err: err}
	}
	return meta, nil
}

// Check implements Runner. A non-zero exit is reported through
// CheckOutput.ExitCode; only a failure to start or read the process is an error.
func (r *CommandRunner) Check(ctx context.Context, inv *Invocation) (*CheckOutput, error) {
	args := inv.CheckArgs()
	stdout, stderr, err := r.run(ctx, inv.Dir(), args)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &CommandError{Args: args, ExitCode: -1, Stderr: stderr, Err: err}
		}
	}

	return &CheckOutput{
		Stdout:   bytes.NewReader(stdout),
		ExitCode: exitCode(err),
		Stderr:   stderr,
	}, nil
}

// run executes cargo and waits for it to exit.
func (r *CommandRunner) run(ctx context.Context, dir string, args []string) ([]byte, string, error) {
	startTime := time.Now()

	log.Debug().
		Str("cargo", r.executable()).
		Strs("args", args).
		Str("dir", dir).
		Msg("executing cargo")

	cmd := exec.CommandContext(ctx, r.executable(), args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	log.Debug().
		Strs("args", args).
		Int("exit_code", exitCode(err)).
		Int("stdout_bytes", stdoutBuf.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("cargo finished")

	return stdoutBuf.Bytes(), stderrBuf.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
