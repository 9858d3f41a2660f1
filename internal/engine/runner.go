package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// OutputFlag binds one engine output parameter to a resolved path, in the
// order the graph expects its flags.
type OutputFlag struct {
	Flag string
	Path string
}

// Request describes one headless engine invocation. The engine is launched
// as {Executable} {Driver} --hip {GraphFile} --topnet {NodePath} ... and
// told where every input lives and where every output must land; it never
// chooses paths itself.
type Request struct {
	Executable string
	Driver     string
	GraphFile  string
	NodePath   string
	Iteration  int

	// Input artifacts; either may be empty when the selected mode does not
	// need it.
	SplinePath  string
	MeshSetPath string
	// MeshDriven selects the graph's input mode: false cooks from the
	// spline description, true from the exported mesh set.
	MeshDriven bool

	Outputs []OutputFlag
	Timeout time.Duration
}

// Args builds the deterministic argument list for the invocation.
func (r Request) Args() []string {
	args := []string{
		r.Driver,
		"--hip", r.GraphFile,
		"--topnet", r.NodePath,
	}
	if r.MeshSetPath != "" {
		args = append(args, "--file1_path", r.MeshSetPath)
	}
	if r.SplinePath != "" {
		args = append(args, "--splines_path", r.SplinePath)
	}
	for _, out := range r.Outputs {
		args = append(args, out.Flag, out.Path)
	}
	args = append(args, "--iteration_number", strconv.Itoa(r.Iteration))
	switchVal := "0"
	if r.MeshDriven {
		switchVal = "1"
	}
	args = append(args, "--switch_bool", switchVal)
	return args
}

// Outcome classifies a finished (or aborted) engine invocation. A zero
// exit code is necessary but not sufficient for success: the caller must
// re-discover the declared output artifacts before trusting it.
type Outcome struct {
	ExitCode int
	Output   string
	TimedOut bool
	Elapsed  time.Duration
}

// Completed reports whether the process itself finished cleanly. It says
// nothing about whether the outputs exist.
func (o Outcome) Completed() bool {
	return o.ExitCode == 0 && !o.TimedOut
}

// ErrorHint scans the captured output for the first line that looks like an
// engine error. Best effort only; the authoritative signal is output
// re-discovery.
func (o Outcome) ErrorHint() string {
	for _, line := range strings.Split(o.Output, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "traceback") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// Runner launches headless engine processes and waits for them. The wait
// is a real blocking wait: cancellation comes from the context (timeout or
// an externally requested abort), which kills the whole process group.
type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// InvokeRequest resolves a Request into an invocation.
func (r *Runner) InvokeRequest(ctx context.Context, req Request) (Outcome, error) {
	return r.Invoke(ctx, req.Executable, req.Args(), req.Timeout)
}

// Invoke runs the engine synchronously and classifies the result. The
// returned error covers launch problems only (missing executable and the
// like); a non-zero exit or timeout comes back in the Outcome.
func (r *Runner) Invoke(ctx context.Context, executable string, args []string, timeout time.Duration) (Outcome, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, executable, args...)
	// The engine forks workers; kill the whole group on cancel so no
	// orphaned cook keeps writing into the output directory.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
	cmd.WaitDelay = 5 * time.Second

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	r.logger.Info("launching headless engine",
		"executable", executable, "args", len(args), "timeout", timeout)

	start := time.Now()
	err := cmd.Run()
	outcome := Outcome{
		Output:  buf.String(),
		Elapsed: time.Since(start),
	}

	if ctx.Err() != nil {
		// Timeout and external abort classify the same way; partial output
		// written before the kill is never trusted.
		outcome.TimedOut = true
		outcome.ExitCode = -1
		r.logger.Warn("headless engine aborted",
			"elapsed", outcome.Elapsed, "cause", ctx.Err())
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			r.logger.Warn("headless engine failed",
				"exit_code", outcome.ExitCode, "hint", outcome.ErrorHint())
			return outcome, nil
		}
		return outcome, err
	}

	if cmd.ProcessState != nil {
		outcome.ExitCode = cmd.ProcessState.ExitCode()
	}
	r.logger.Info("headless engine finished",
		"exit_code", outcome.ExitCode, "elapsed", outcome.Elapsed)
	return outcome, nil
}
