package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/failfix/internal/publish"

// MsgNoChanges is the CommitResult message for a clean working tree.
const MsgNoChanges = "No changes to commit"

// ErrNoChanges is the CommitResult error for a clean working tree.
var ErrNoChanges = errors.New("no changes to commit")

// CommitResult is the outcome of CommitAndPush.
type CommitResult struct {
	Committed bool     `json:"committed"`
	Message   string   `json:"message"`
	Hash      string   `json:"hash,omitempty"`
	Titles    []string `json:"titles,omitempty"`

	// Err is ErrNoChanges or the git failure when Committed is false.
	Err error `json:"-"`
}

// Committer commits remediation changes and pushes them.
type Committer struct {
	repo   Repository
	logger *zap.Logger
}

// NewCommitter creates a Committer. A nil logger discards output.
func NewCommitter(repo Repository, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Committer{repo: repo, logger: logger.Named("publish")}
}

// CommitAndPush stages all changes, commits them with a message listing
// titles and pushes to branch. A clean working tree returns Committed=false
// without staging, committing or pushing. Git failures are reported in the
// result, never returned.
func (c *Committer) CommitAndPush(ctx context.Context, titles []string, branch string) CommitResult {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "publish.commit_and_push")
	defer span.End()
	span.SetAttributes(attribute.String("git.branch", branch), attribute.Int("remediation.applied", len(titles)))

	fail := func(err error) CommitResult {
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("commit and push failed", zap.String("branch", branch), zap.Error(err))
		return CommitResult{Message: fmt.Sprintf("Failed to commit: %v", err), Titles: titles, Err: err}
	}

	changed, err := c.repo.HasChanges(ctx)
	if err != nil {
		return fail(err)
	}
	if !changed {
		c.logger.Info("working tree clean, nothing to commit")
		return CommitResult{Message: MsgNoChanges, Titles: titles, Err: ErrNoChanges}
	}

	if err := c.repo.StageAll(ctx); err != nil {
		return fail(err)
	}
	hash, err := c.repo.Commit(ctx, CommitMessage(titles))
	if err != nil {
		return fail(err)
	}
	if err := c.repo.Push(ctx, branch); err != nil {
		return fail(err)
	}

	c.logger.Info("fixes committed and pushed", zap.String("branch", branch), zap.String("hash", hash))
	return CommitResult{
		Committed: true,
		Message:   fmt.Sprintf("Fixes committed and pushed to %s", branch),
		Hash:      hash,
		Titles:    titles,
	}
}

// CommitMessage builds the bot commit message. The trailer keeps CI from
// running on the bot's own commit.
func CommitMessage(titles []string) string {
	var b strings.Builder
	b.WriteString("fix: Auto-fix CI failures\n\n")
	b.WriteString("Applied automatic fixes:\n")
	for _, t := range titles {
		b.WriteString("- " + t + "\n")
	}
	b.WriteString("\nGenerated by failfix\n")
	b.WriteString("[skip ci]\n")
	return b.String()
}
