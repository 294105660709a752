// Package main implements the failfix CLI, which classifies a failed CI job,
// optionally applies known fixes, reports the analysis and retries the job.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/logging"
	"github.com/fyrsmithlabs/failfix/internal/pipeline"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	err := newRootCmd().Execute()
	os.Exit(pipeline.ExitCode(err))
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "failfix",
		Short: "Classify and remediate CI failures",
		Long: `failfix reads the output of a failed CI job, detects known failure
categories, suggests fixes and can apply the safe ones automatically.

Configuration comes from an optional YAML file (--config), the environment a
CI runner exports (JOB_NAME, GITHUB_TOKEN, GITHUB_REPOSITORY, PR_NUMBER, ...)
and command-line flags, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newClassifyCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.Fields["version"] = version
	return logging.NewLogger(lc, nil)
}

// readInput returns the failure text from path, "-" for stdin, or stdin when
// path is empty and stdin is not a terminal. No source yields "".
func readInput(path string, stdin io.Reader) (string, error) {
	switch {
	case path == "-":
		return readAll(stdin)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read logs file %s: %w", path, err)
		}
		return string(data), nil
	case stdinIsPiped(stdin):
		return readAll(stdin)
	default:
		return "", nil
	}
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(data), nil
}

// stdinIsPiped reports whether r is a non-terminal file or any other reader.
func stdinIsPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

// loadInput reads the failure text. A positional path must exist; a logs file
// named by configuration that is missing falls back to stdin, since runners
// export FAILURE_LOGS_FILE whether or not the previous step wrote it.
func loadInput(args []string, cfg *config.Config, stdin io.Reader, logger *zap.Logger) (string, error) {
	if len(args) > 0 {
		return readInput(args[0], stdin)
	}
	path := cfg.Job.LogsFile
	if path == "" || path == "-" {
		return readInput(path, stdin)
	}
	text, err := readInput(path, stdin)
	if errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Warn("configured logs file not found, reading stdin", zap.String("path", path))
		}
		return readInput("", stdin)
	}
	return text, err
}
