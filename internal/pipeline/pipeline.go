// Package pipeline runs one failure analysis end to end: classify, suggest,
// optionally remediate and commit, report, and request a single retry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/failfix/internal/classify"
	"github.com/fyrsmithlabs/failfix/internal/executor"
	"github.com/fyrsmithlabs/failfix/internal/logging"
	"github.com/fyrsmithlabs/failfix/internal/metrics"
	"github.com/fyrsmithlabs/failfix/internal/publish"
	"github.com/fyrsmithlabs/failfix/internal/redact"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

const instrumentationName = "github.com/fyrsmithlabs/failfix/internal/pipeline"

// Classifier detects failure categories in job output.
type Classifier interface {
	Classify(text, jobName string) (*classify.Classification, error)
}

// Suggester maps a classification to remediation descriptors.
type Suggester interface {
	Suggest(cls *classify.Classification) []remediation.Descriptor
}

// Remediator runs auto-fixable descriptors.
type Remediator interface {
	ApplyAll(ctx context.Context, descriptors []remediation.Descriptor) []executor.Result
}

// Committer commits and pushes working tree changes.
type Committer interface {
	CommitAndPush(ctx context.Context, titles []string, branch string) publish.CommitResult
}

// Commenter posts the report to a pull request.
type Commenter interface {
	PostReport(ctx context.Context, prNumber int, r publish.Report) (publish.CommentResult, error)
}

// Retrier requests a rerun of the failed jobs.
type Retrier interface {
	Retry(ctx context.Context) bool
}

// ScrubFunc removes secrets from text before it is published.
type ScrubFunc func(content, workdir string) (redact.Result, error)

// Deps are the collaborators of a Runner. Classifier and Suggester are
// required; a nil optional collaborator skips its stage.
type Deps struct {
	Classifier Classifier
	Suggester  Suggester
	Remediator Remediator
	Committer  Committer
	Commenter  Commenter
	Retrier    Retrier
	Scrub      ScrubFunc
	Metrics    *metrics.Recorder

	// Stdout receives the text report; nil discards it.
	Stdout io.Writer
}

// Input is one failed job to analyze.
type Input struct {
	Text     string
	JobName  string
	Workflow string
	RunID    string
	PRNumber int
	Branch   string
	WorkDir  string

	AutoFix       bool
	Retry         bool
	RedactSecrets bool

	// ReportFile receives the text report; empty skips the file.
	ReportFile   string
	SnippetLimit int
}

// Result is what a run did.
type Result struct {
	Outcome        string
	Classification *classify.Classification
	Descriptors    []remediation.Descriptor
	Results        []executor.Result
	Commit         *publish.CommitResult
	Comment        *publish.CommentResult
	Retried        bool
	Report         string

	// Errors are non-fatal stage failures, in the order they happened.
	Errors []string
}

// Runner executes the pipeline.
type Runner struct {
	deps   Deps
	logger *logging.Logger
	now    func() time.Time
}

// New creates a Runner.
func New(deps Deps, logger *logging.Logger) (*Runner, error) {
	if deps.Classifier == nil || deps.Suggester == nil {
		return nil, errors.New("pipeline: classifier and suggester are required")
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{deps: deps, logger: logger.Named("pipeline"), now: time.Now}, nil
}

// Run analyzes in. It returns a StageError wrapping ErrNoInput when in.Text
// is empty; a text that matches no rule completes with no report. Failures
// of commit, comment, retry and report writing are recorded in
// Result.Errors and do not fail the run.
func (r *Runner) Run(ctx context.Context, in Input) (*Result, error) {
	start := r.now()
	res := &Result{}
	ctx = logging.WithRun(ctx, logging.Run{Job: in.JobName, RunID: in.RunID})

	if in.Text == "" {
		r.logger.Error(ctx, "no failure logs provided")
		r.finish(res, metrics.OutcomeNoInput, start)
		return res, newStageError(StageInput, SeverityCritical, ErrNoInput)
	}

	cls, err := r.classify(ctx, in)
	if err != nil {
		r.finish(res, metrics.OutcomeError, start)
		return res, newStageError(StageClassify, SeverityCritical, err)
	}
	res.Classification = cls
	ctx = logging.WithRun(ctx, logging.Run{Job: in.JobName, RunID: in.RunID, AnalysisID: cls.ID})

	if cls.Empty() {
		r.logger.Info(ctx, "no known issue detected")
		r.finish(res, metrics.OutcomeNoIssues, start)
		return res, nil
	}
	r.logger.Info(ctx, "failure classified", zap.Strings("categories", categoryNames(cls)))

	res.Descriptors = r.deps.Suggester.Suggest(cls)

	if in.AutoFix && r.deps.Remediator != nil {
		res.Results = r.execute(ctx, res.Descriptors)
		if titles := executor.AppliedTitles(res.Results); len(titles) > 0 && r.deps.Committer != nil {
			commit := r.commit(ctx, titles, in.Branch)
			res.Commit = &commit
			if !commit.Committed && !errors.Is(commit.Err, publish.ErrNoChanges) {
				res.Errors = append(res.Errors, formatError(StageCommit, commit.Err))
			}
		}
	}

	report := publish.Report{
		Classification: r.publishable(ctx, cls, in),
		Descriptors:    res.Descriptors,
		Results:        res.Results,
		Commit:         res.Commit,
		Errors:         res.Errors,
		Workflow:       in.Workflow,
		RunID:          in.RunID,
		RetryEnabled:   in.Retry && r.deps.Retrier != nil,
		SnippetLimit:   in.SnippetLimit,
	}

	if in.PRNumber > 0 && r.deps.Commenter != nil {
		comment, err := r.comment(ctx, in.PRNumber, report)
		if err != nil {
			res.Errors = append(res.Errors, formatError(StageComment, err))
		} else {
			res.Comment = &comment
		}
	}

	if report.RetryEnabled {
		res.Retried = r.retry(ctx)
		report.Retried = &res.Retried
	}

	report.Errors = res.Errors
	res.Report = publish.RenderText(report)
	if _, err := io.WriteString(r.deps.Stdout, res.Report); err != nil {
		r.logger.Warn(ctx, "failed to print report", zap.Error(err))
	}
	if in.ReportFile != "" {
		if err := publish.WriteReport(in.ReportFile, res.Report); err != nil {
			r.logger.Warn(ctx, "failed to write report file", zap.String("path", in.ReportFile), zap.Error(err))
			res.Errors = append(res.Errors, formatError(StageReport, err))
		}
	}

	outcome := metrics.OutcomeReported
	if len(executor.AppliedTitles(res.Results)) > 0 {
		outcome = metrics.OutcomeRemediated
	}
	r.finish(res, outcome, start)
	return res, nil
}

func (r *Runner) classify(ctx context.Context, in Input) (*classify.Classification, error) {
	_, span := otel.Tracer(instrumentationName).Start(ctx, "pipeline.classify")
	defer span.End()

	cls, err := r.deps.Classifier.Classify(in.Text, in.JobName)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error(ctx, "classification failed", zap.Error(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("analysis.id", cls.ID),
		attribute.Int("issues", len(cls.Issues)),
	)
	if m := r.deps.Metrics; m != nil {
		for _, issue := range cls.Issues {
			m.Category(string(issue.Category), string(issue.Severity))
		}
	}
	return cls, nil
}

func (r *Runner) execute(ctx context.Context, descriptors []remediation.Descriptor) []executor.Result {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "pipeline.execute")
	defer span.End()

	results := r.deps.Remediator.ApplyAll(ctx, descriptors)

	applied := 0
	for _, res := range results {
		if res.Applied {
			applied++
		}
		if m := r.deps.Metrics; m != nil {
			for _, o := range res.Outcomes {
				m.Command(string(o.Status))
			}
			if res.Applied {
				m.Applied()
			}
		}
	}
	span.SetAttributes(attribute.Int("remediation.applied", applied))
	r.logger.Info(ctx, "remediation finished", zap.Int("descriptors", len(results)), zap.Int("applied", applied))
	return results
}

func (r *Runner) commit(ctx context.Context, titles []string, branch string) publish.CommitResult {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "pipeline.commit")
	defer span.End()

	commit := r.deps.Committer.CommitAndPush(ctx, titles, branch)
	span.SetAttributes(attribute.Bool("git.committed", commit.Committed))
	return commit
}

// publishable returns cls with its snippet scrubbed of secrets. When
// scrubbing fails the snippet is dropped rather than published as-is.
func (r *Runner) publishable(ctx context.Context, cls *classify.Classification, in Input) *classify.Classification {
	if !in.RedactSecrets || r.deps.Scrub == nil || cls.Snippet == "" {
		return cls
	}
	out := *cls
	scrubbed, err := r.deps.Scrub(cls.Snippet, in.WorkDir)
	if err != nil {
		r.logger.Warn(ctx, "secret scan failed, omitting snippet from report", zap.Error(err))
		out.Snippet = ""
		return &out
	}
	if scrubbed.Redacted() {
		r.logger.Warn(ctx, "secrets redacted from snippet", zap.Int("findings", len(scrubbed.Findings)))
	}
	out.Snippet = scrubbed.Content
	return &out
}

func (r *Runner) comment(ctx context.Context, prNumber int, report publish.Report) (publish.CommentResult, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "pipeline.report")
	defer span.End()
	span.SetAttributes(attribute.Int("github.pr_number", prNumber))

	res, err := r.deps.Commenter.PostReport(ctx, prNumber, report)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	return res, nil
}

func (r *Runner) retry(ctx context.Context) bool {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "pipeline.retry")
	defer span.End()

	ok := r.deps.Retrier.Retry(ctx)
	span.SetAttributes(attribute.Bool("retry.triggered", ok))
	return ok
}

func (r *Runner) finish(res *Result, outcome string, start time.Time) {
	res.Outcome = outcome
	if m := r.deps.Metrics; m != nil {
		m.Run(outcome, r.now().Sub(start))
	}
}

func categoryNames(cls *classify.Classification) []string {
	out := make([]string, len(cls.Issues))
	for i, issue := range cls.Issues {
		out[i] = string(issue.Category)
	}
	return out
}

// String summarizes a result for logs.
func (r *Result) String() string {
	if r.Classification == nil {
		return r.Outcome
	}
	return fmt.Sprintf("%s: %d issues, %d fixes applied", r.Outcome, len(r.Classification.Issues), len(executor.AppliedTitles(r.Results)))
}
