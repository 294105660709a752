// Package rerun asks the code host to re-run the failed jobs of a workflow run.
package rerun

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/go-github/v57/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/githubapi"
)

const instrumentationName = "github.com/fyrsmithlabs/failfix/internal/rerun"

// Trigger requests a single rerun of a run's failed jobs.
type Trigger struct {
	client     *github.Client
	repository string
	runID      string
	logger     *zap.Logger
}

// NewTrigger creates a Trigger. Missing values are reported by Retry, not here.
func NewTrigger(client *github.Client, repository, runID string, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		client:     client,
		repository: repository,
		runID:      runID,
		logger:     logger.Named("rerun"),
	}
}

// Retry sends one rerun request and reports whether it was accepted (HTTP 201).
// It never retries and never returns an error: failures are logged.
func (t *Trigger) Retry(ctx context.Context) bool {
	if t.client == nil || t.repository == "" || t.runID == "" {
		t.logger.Warn("missing GitHub token, repository or run ID, cannot trigger retry")
		return false
	}
	owner, repo, err := config.SplitRepository(t.repository)
	if err != nil {
		t.logger.Warn("cannot trigger retry", zap.Error(err))
		return false
	}
	runID, err := strconv.ParseInt(t.runID, 10, 64)
	if err != nil || runID <= 0 {
		t.logger.Warn("cannot trigger retry: invalid run ID", zap.String("run_id", t.runID))
		return false
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "rerun.failed_jobs")
	defer span.End()
	span.SetAttributes(attribute.String("github.repository", t.repository), attribute.Int64("github.run_id", runID))

	resp, err := t.client.Actions.RerunFailedJobsByID(ctx, owner, repo, runID)
	code := githubapi.StatusCode(resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		t.logger.Warn("failed to trigger retry", zap.Int64("run_id", runID), zap.Int("status", code), zap.Error(err))
		return false
	}
	if code != http.StatusCreated {
		span.SetStatus(codes.Error, "unexpected status")
		t.logger.Warn("failed to trigger retry", zap.Int64("run_id", runID), zap.Int("status", code))
		return false
	}

	t.logger.Info("retry triggered for failed jobs", zap.Int64("run_id", runID))
	return true
}
