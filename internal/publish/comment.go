package publish

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/githubapi"
)

// CommentResult is the outcome of posting a report.
type CommentResult struct {
	// Posted is false when the step was skipped for missing configuration.
	Posted  bool   `json:"posted"`
	Updated bool   `json:"updated"`
	URL     string `json:"url,omitempty"`
}

// CommentOptions configures a CommentPoster.
type CommentOptions struct {
	// UpdateExisting edits the previous failfix comment instead of adding one.
	UpdateExisting bool

	// Retry applies to listing and editing only; creation is attempted once.
	Retry *githubapi.RetryConfig
}

// CommentPoster posts reports as issue comments on a pull request.
type CommentPoster struct {
	client *github.Client
	owner  string
	repo   string
	opts   CommentOptions
	logger *zap.Logger
}

// NewCommentPoster creates a poster for repository ("owner/name"). A nil
// client or an empty repository makes every Post a logged no-op.
func NewCommentPoster(client *github.Client, repository string, opts CommentOptions, logger *zap.Logger) (*CommentPoster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &CommentPoster{client: client, opts: opts, logger: logger.Named("publish")}
	if repository != "" {
		owner, name, err := config.SplitRepository(repository)
		if err != nil {
			return nil, err
		}
		p.owner, p.repo = owner, name
	}
	return p, nil
}

// PostReport renders r as markdown and posts it to the pull request.
func (p *CommentPoster) PostReport(ctx context.Context, prNumber int, r Report) (CommentResult, error) {
	return p.Post(ctx, prNumber, RenderMarkdown(r))
}

// Post sends body as a comment. Creation succeeds only on HTTP 201.
func (p *CommentPoster) Post(ctx context.Context, prNumber int, body string) (CommentResult, error) {
	if p.client == nil || p.repo == "" {
		p.logger.Warn("GitHub token or repository not configured, skipping report comment")
		return CommentResult{}, nil
	}
	if prNumber <= 0 {
		p.logger.Warn("no pull request number, skipping report comment")
		return CommentResult{}, nil
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "publish.post_report")
	defer span.End()
	span.SetAttributes(attribute.Int("github.pr_number", prNumber), attribute.Bool("comment.upsert", p.opts.UpdateExisting))

	res, err := p.post(ctx, prNumber, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("failed to post report comment", zap.Int("pr", prNumber), zap.Error(err))
		return CommentResult{}, err
	}
	p.logger.Info("report comment posted", zap.Int("pr", prNumber), zap.String("url", res.URL), zap.Bool("updated", res.Updated))
	return res, nil
}

func (p *CommentPoster) post(ctx context.Context, prNumber int, body string) (CommentResult, error) {
	if p.opts.UpdateExisting {
		existing, err := p.findExisting(ctx, prNumber)
		if err != nil {
			return CommentResult{}, err
		}
		if existing != nil {
			var updated *github.IssueComment
			_, err := githubapi.Do(ctx, p.opts.Retry, p.logger, func() (*github.Response, error) {
				var resp *github.Response
				var err error
				updated, resp, err = p.client.Issues.EditComment(ctx, p.owner, p.repo, existing.GetID(), &github.IssueComment{Body: &body})
				return resp, err
			})
			if err != nil {
				return CommentResult{}, fmt.Errorf("failed to update comment: %w", err)
			}
			return CommentResult{Posted: true, Updated: true, URL: updated.GetHTMLURL()}, nil
		}
	}

	created, resp, err := p.client.Issues.CreateComment(ctx, p.owner, p.repo, prNumber, &github.IssueComment{Body: &body})
	if err != nil {
		return CommentResult{}, fmt.Errorf("failed to create comment: %w", err)
	}
	if code := githubapi.StatusCode(resp); code != http.StatusCreated {
		return CommentResult{}, fmt.Errorf("failed to create comment: unexpected status %d", code)
	}
	return CommentResult{Posted: true, URL: created.GetHTMLURL()}, nil
}

// findExisting pages through the PR's comments looking for CommentMarker.
func (p *CommentPoster) findExisting(ctx context.Context, prNumber int) (*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		var comments []*github.IssueComment
		resp, err := githubapi.Do(ctx, p.opts.Retry, p.logger, func() (*github.Response, error) {
			var resp *github.Response
			var err error
			comments, resp, err = p.client.Issues.ListComments(ctx, p.owner, p.repo, prNumber, opts)
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list comments: %w", err)
		}
		for _, c := range comments {
			if strings.Contains(c.GetBody(), CommentMarker) {
				return c, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}
