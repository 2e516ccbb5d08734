package nmcli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shazow/nmctl/network"
)

// Target selects which external program a command is sent to.
type Target int

const (
	TargetTool Target = iota
	TargetSecretBus
)

func (t Target) String() string {
	switch t {
	case TargetTool:
		return "nmcli"
	case TargetSecretBus:
		return "dbus-send"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

const (
	// StatusLaunchFailed is reported when the program could not be started.
	StatusLaunchFailed = -1
	// StatusCanceled is reported when the context ended before the program did.
	StatusCanceled = -2
	// StatusNotFound is nmcli's exit code for an unknown connection.
	StatusNotFound = 10
)

// Result is the outcome of one command.
type Result struct {
	Status int
	Output string
}

// OK reports whether the command exited successfully.
func (r Result) OK() bool {
	return r.Status == 0
}

// Transport executes commands against the network tool or the secret bus.
//
// Execute never fails with a Go error: launch failures are reported as a
// non-zero Status with the OS error text as Output.
type Transport interface {
	Execute(ctx context.Context, target Target, args ...string) Result
}

// CommandError describes a command that exited with a non-zero status.
type CommandError struct {
	Args   []string
	Status int
	Output string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed with status %d: %s", redact(e.Args), e.Status, strings.TrimSpace(e.Output))
}

// Is allows errors.Is(err, network.ErrNotFound) for nmcli's not-found status.
func (e *CommandError) Is(target error) bool {
	switch target {
	case network.ErrNotFound:
		return e.Status == StatusNotFound
	case network.ErrOperationFailed:
		return e.Status != StatusNotFound
	case network.ErrNotAvailable:
		return e.Status == StatusLaunchFailed
	}
	return false
}

func commandError(args []string, r Result) error {
	return &CommandError{Args: args, Status: r.Status, Output: r.Output}
}

// ExecTransport runs nmcli and dbus-send as child processes.
type ExecTransport struct {
	// Programs maps a target to the executable that serves it.
	Programs map[Target]string
	// Timeout bounds every command when non-zero.
	Timeout time.Duration

	logger *slog.Logger
}

// NewExecTransport creates an ExecTransport with the default program names.
func NewExecTransport(logger *slog.Logger) *ExecTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecTransport{
		Programs: map[Target]string{
			TargetTool:      "nmcli",
			TargetSecretBus: "dbus-send",
		},
		logger: logger,
	}
}

// Execute runs the target's program with args, merging stdout and stderr.
func (t *ExecTransport) Execute(ctx context.Context, target Target, args ...string) Result {
	program, ok := t.Programs[target]
	if !ok {
		return Result{Status: StatusLaunchFailed, Output: fmt.Sprintf("no program configured for %s", target)}
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	query := isQuery(args)
	t.logger.Debug("sending command", "target", target, "args", redact(args))

	cmd := exec.CommandContext(ctx, program, args...)
	// Confirmation messages are parsed, so they must not be localized.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.CombinedOutput()

	r := Result{Output: string(out)}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		r.Status = StatusCanceled
		r.Output = ctx.Err().Error()
	case errors.As(err, &exitErr):
		r.Status = exitErr.ExitCode()
	case err != nil:
		r.Status = StatusLaunchFailed
		r.Output = err.Error()
	}

	if query {
		if !r.OK() {
			t.logger.Debug("query failed", "target", target, "status", r.Status)
		}
		return r
	}
	t.logger.Debug("command finished", "target", target, "status", r.Status, "output", strings.TrimSpace(r.Output))
	return r
}

// isQuery reports whether args are a read-only query whose output should
// stay out of the logs.
func isQuery(args []string) bool {
	for _, a := range args {
		switch a {
		case "show", "list", "status", "--version", "--print-reply":
			return true
		}
	}
	return false
}

var secretArgs = map[string]bool{
	"password":                     true,
	"802-11-wireless-security.psk": true,
}

// redact returns a copy of args with secret values masked.
func redact(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i++ {
		if secretArgs[out[i]] {
			out[i+1] = "***"
			i++
		}
	}
	return out
}
