package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

const instrumentationName = "github.com/fyrsmithlabs/failfix/internal/executor"

const (
	// DefaultTimeout bounds each command.
	DefaultTimeout = 300 * time.Second

	// DefaultStderrLimit is the number of stderr characters kept per command.
	DefaultStderrLimit = 500
)

// Config configures an Executor.
type Config struct {
	// WorkDir is where commands run.
	WorkDir string

	// Timeout applies to each command independently.
	Timeout time.Duration

	// StderrLimit is the number of characters of stderr kept.
	StderrLimit int

	// Parallelism bounds how many descriptors ApplyAll runs at once.
	// Commands within one descriptor always run in order.
	Parallelism int
}

// Executor applies auto-fixable descriptors.
type Executor struct {
	runner Runner
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer
}

// New creates an Executor. Zero config values take defaults; a nil logger
// discards output.
func New(runner Runner, cfg Config, logger *zap.Logger) *Executor {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StderrLimit <= 0 {
		cfg.StderrLimit = DefaultStderrLimit
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		runner: runner,
		cfg:    cfg,
		logger: logger.Named("executor"),
		tracer: otel.Tracer(instrumentationName),
	}
}

// Apply runs the descriptor's commands in declared order. A descriptor that
// is not auto-fixable is returned unattempted with Err set to
// ErrNotAutoFixable; no command reaches the runner.
func (e *Executor) Apply(ctx context.Context, d remediation.Descriptor) Result {
	res := Result{Descriptor: d}
	if !d.AutoFixable {
		res.Err = ErrNotAutoFixable
		res.Log = ErrNotAutoFixable.Error()
		return res
	}

	ctx, span := e.tracer.Start(ctx, "executor.apply",
		trace.WithAttributes(
			attribute.String("remediation.category", string(d.Category)),
			attribute.String("remediation.title", d.Title),
		))
	defer span.End()

	res.Attempted = true
	lines := make([]string, 0, len(d.Commands))
	for _, command := range d.Commands {
		if remediation.IsAdvisory(command) {
			res.Skipped = append(res.Skipped, command)
			continue
		}
		outcome, line := e.run(ctx, command)
		res.Outcomes = append(res.Outcomes, outcome)
		lines = append(lines, line)
		if outcome.Status == StatusSucceeded {
			res.Applied = true
		}
	}
	res.Log = strings.Join(lines, "\n")

	span.SetAttributes(attribute.Bool("remediation.applied", res.Applied))
	e.logger.Info("remediation attempted",
		zap.String("title", d.Title),
		zap.Bool("applied", res.Applied),
		zap.Int("commands", len(res.Outcomes)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res
}

// ApplyAll applies every descriptor and returns results in input order.
// Up to Parallelism descriptors run concurrently.
func (e *Executor) ApplyAll(ctx context.Context, descriptors []remediation.Descriptor) []Result {
	results := make([]Result, len(descriptors))

	var g errgroup.Group
	g.SetLimit(e.cfg.Parallelism)
	for i, d := range descriptors {
		g.Go(func() error {
			results[i] = e.Apply(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// run executes one command under its own timeout and formats its log line.
func (e *Executor) run(ctx context.Context, command string) (Outcome, string) {
	ctx, span := e.tracer.Start(ctx, "executor.command",
		trace.WithAttributes(attribute.String("command", command)))
	defer span.End()

	cmdCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	e.logger.Info("executing", zap.String("command", command), zap.String("dir", e.cfg.WorkDir))

	start := time.Now()
	stderr, err := e.runner.Run(cmdCtx, e.cfg.WorkDir, command)
	outcome := Outcome{Command: command, Duration: time.Since(start)}

	var line string
	switch {
	case err == nil:
		outcome.Status = StatusSucceeded
		line = "✓ " + command
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		outcome.Status = StatusTimedOut
		outcome.Stderr = truncateRunes(stderr, e.cfg.StderrLimit)
		line = fmt.Sprintf("⏱ %s (timed out)", command)
	default:
		outcome.Status = StatusFailed
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || stderr != "" {
			outcome.Stderr = truncateRunes(stderr, e.cfg.StderrLimit)
			line = "✗ " + command + "\n" + outcome.Stderr
		} else {
			outcome.Stderr = truncateRunes(err.Error(), e.cfg.StderrLimit)
			line = fmt.Sprintf("✗ %s: %s", command, outcome.Stderr)
		}
	}

	span.SetAttributes(attribute.String("command.status", string(outcome.Status)))
	if outcome.Status != StatusSucceeded {
		span.SetStatus(codes.Error, string(outcome.Status))
		e.logger.Warn("command did not succeed",
			zap.String("command", command),
			zap.String("status", string(outcome.Status)),
			zap.Duration("duration", outcome.Duration),
			zap.String("stderr", outcome.Stderr),
		)
	}
	return outcome, line
}
