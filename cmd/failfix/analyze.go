package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/failfix/internal/classify"
	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/executor"
	"github.com/fyrsmithlabs/failfix/internal/githubapi"
	"github.com/fyrsmithlabs/failfix/internal/logging"
	"github.com/fyrsmithlabs/failfix/internal/metrics"
	"github.com/fyrsmithlabs/failfix/internal/pipeline"
	"github.com/fyrsmithlabs/failfix/internal/publish"
	"github.com/fyrsmithlabs/failfix/internal/redact"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
	"github.com/fyrsmithlabs/failfix/internal/rerun"
	"github.com/fyrsmithlabs/failfix/internal/telemetry"
)

type analyzeOptions struct {
	*rootOptions
	autoFix bool
	noRetry bool
	branch  string
	pr      int
	workdir string
	job     string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a failed job, apply fixes, report and retry",
		Long: `Analyze the output of a failed CI job.

The log is read from the given file, from stdin with "-", from
FAILURE_LOGS_FILE, or from stdin when it is piped.

Examples:
  # Analyze a saved log and post the report to PR 42
  failfix analyze build.log --pr 42

  # Apply auto-fixable remediations without retrying the job
  cat build.log | failfix analyze - --auto-fix --no-retry`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return runAnalyze(cmd, args, cfg)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.autoFix, "auto-fix", false, "run auto-fixable remediation commands (AUTO_FIX)")
	f.BoolVar(&opts.noRetry, "no-retry", false, "do not request a rerun of the failed jobs")
	f.StringVar(&opts.branch, "branch", "", "branch to push fixes to (GITHUB_REF_NAME)")
	f.IntVar(&opts.pr, "pr", 0, "pull request to comment on (PR_NUMBER)")
	f.StringVar(&opts.workdir, "workdir", "", "working tree to remediate (FAILFIX_WORKDIR)")
	f.StringVar(&opts.job, "job", "", "name of the failed job (JOB_NAME)")
	return cmd
}

// apply overrides cfg with the flags the user actually set.
func (o *analyzeOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("auto-fix") {
		cfg.Remediation.AutoFix = o.autoFix
	}
	if f.Changed("no-retry") {
		cfg.Retry.Enabled = !o.noRetry
	}
	if f.Changed("branch") {
		cfg.Publish.Branch = o.branch
	}
	if f.Changed("pr") {
		cfg.GitHub.PRNumber = o.pr
	}
	if f.Changed("workdir") {
		cfg.Job.WorkDir = o.workdir
	}
	if f.Changed("job") {
		cfg.Job.Name = o.job
	}
}

func runAnalyze(cmd *cobra.Command, args []string, cfg *config.Config) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zlog := logger.Underlying()

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version), zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			zlog.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	text, err := loadInput(args, cfg, cmd.InOrStdin(), zlog)
	if err != nil {
		return err
	}

	deps, err := buildDeps(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	deps.Stdout = cmd.OutOrStdout()

	runner, err := pipeline.New(deps, logger)
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx, pipeline.Input{
		Text:          text,
		JobName:       cfg.Job.Name,
		Workflow:      cfg.Job.Workflow,
		RunID:         cfg.GitHub.RunID,
		PRNumber:      cfg.GitHub.PRNumber,
		Branch:        cfg.Publish.Branch,
		WorkDir:       cfg.Job.WorkDir,
		AutoFix:       cfg.Remediation.AutoFix,
		Retry:         cfg.Retry.Enabled,
		RedactSecrets: cfg.Publish.RedactSecrets,
		ReportFile:    cfg.Publish.ReportFile,
		SnippetLimit:  cfg.Publish.SnippetLimit,
	})

	if err := deps.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		zlog.Warn("failed to write metrics", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}
	logger.Info(ctx, "analysis complete", zap.Stringer("result", res))
	return nil
}

// buildDeps wires the pipeline collaborators from cfg. Missing credentials
// and a missing git repository disable their stages instead of failing.
func buildDeps(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pipeline.Deps, error) {
	catalog, err := remediation.Load(cfg.Remediation.CatalogFile)
	if err != nil {
		return pipeline.Deps{}, fmt.Errorf("loading remediation catalog: %w", err)
	}

	deps := pipeline.Deps{
		Classifier: classify.Default(),
		Suggester:  catalog,
		Remediator: executor.New(
			executor.ShellRunner{Shell: cfg.Remediation.Shell},
			executor.Config{
				WorkDir:     cfg.Job.WorkDir,
				Timeout:     cfg.Remediation.CommandTimeout,
				StderrLimit: cfg.Remediation.StderrLimit,
				Parallelism: cfg.Remediation.Parallelism,
			},
			logger,
		),
		Scrub:   redact.Redact,
		Metrics: metrics.NewRecorder(),
	}

	client, err := githubapi.NewClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL)
	switch {
	case errors.Is(err, githubapi.ErrNoToken):
		logger.Warn("GITHUB_TOKEN not set, report comment and retry are disabled")
		client = nil
	case err != nil:
		return pipeline.Deps{}, err
	default:
		logger.Debug("GitHub client configured", logging.Secret("token", cfg.GitHub.Token))
	}

	commenter, err := publish.NewCommentPoster(client, cfg.GitHub.Repository,
		publish.CommentOptions{UpdateExisting: cfg.Publish.UpdateExistingComment}, logger)
	if err != nil {
		return pipeline.Deps{}, err
	}
	deps.Commenter = commenter
	deps.Retrier = rerun.NewTrigger(client, cfg.GitHub.Repository, cfg.GitHub.RunID, logger)

	if cfg.Remediation.AutoFix {
		repo, err := publish.OpenGitRepository(cfg.Job.WorkDir, publish.GitOptions{
			AuthorName:  cfg.Publish.AuthorName,
			AuthorEmail: cfg.Publish.AuthorEmail,
			Token:       cfg.GitHub.Token,
		})
		if err != nil {
			logger.Warn("fixes will not be committed", zap.Error(err))
		} else {
			deps.Committer = publish.NewCommitter(repo, logger)
		}
	}

	return deps, nil
}

