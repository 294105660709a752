package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/failfix/internal/classify"
	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/pipeline"
	"github.com/fyrsmithlabs/failfix/internal/publish"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

// classifyOutput is the --json shape of the classify command.
type classifyOutput struct {
	Classification *classify.Classification `json:"classification"`
	Suggestions    []remediation.Descriptor `json:"suggestions"`
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	var job string

	cmd := &cobra.Command{
		Use:   "classify [file|-]",
		Short: "Classify a failed job's output without side effects",
		Long: `Classify the output of a failed CI job and print the suggested fixes.

Nothing is executed, committed, posted or retried.

Examples:
  failfix classify build.log
  cat build.log | failfix classify - --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("job") {
				cfg.Job.Name = job
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			text, err := loadInput(args, cfg, cmd.InOrStdin(), logger.Underlying())
			if err != nil {
				return err
			}
			if text == "" {
				return &pipeline.StageError{Stage: pipeline.StageInput, Severity: pipeline.SeverityCritical, Err: pipeline.ErrNoInput}
			}

			catalog, err := remediation.Load(cfg.Remediation.CatalogFile)
			if err != nil {
				return fmt.Errorf("loading remediation catalog: %w", err)
			}
			cls, err := classify.Default().Classify(text, cfg.Job.Name)
			if err != nil {
				return err
			}
			suggestions := catalog.Suggest(cls)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(classifyOutput{Classification: cls, Suggestions: suggestions})
			}
			if cls.Empty() {
				_, err := fmt.Fprintln(out, "No known issue detected")
				return err
			}
			_, err = fmt.Fprint(out, publish.RenderText(publish.Report{
				Classification: cls,
				Descriptors:    suggestions,
				Workflow:       cfg.Job.Workflow,
				RunID:          cfg.GitHub.RunID,
			}))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the classification as JSON")
	cmd.Flags().StringVar(&job, "job", "", "name of the failed job (JOB_NAME)")
	return cmd
}
