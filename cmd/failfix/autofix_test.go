//go:build unix

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyze_AutoFixCommitsAndPushes runs a catalog override that edits the
// working tree and checks the fix lands on the remote branch.
func TestAnalyze_AutoFixCommitsAndPushes(t *testing.T) {
	clearEnv(t)

	remoteDir := t.TempDir()
	remote, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	workDir := t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "main.go"), []byte("package main\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	catalog := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalog, []byte(`descriptors:
  - category: lint_error
    title: Fix Linting Issues
    description: Style violations
    commands:
      - "# review remaining warnings by hand"
      - "echo formatted > style.txt"
      - "exit 3"
    auto_fixable: true
`), 0o644))
	t.Setenv("FAILFIX_CATALOG_FILE", catalog)

	out, code := execute(t, "", "analyze", writeLog(t, "eslint found 3 lint errors\n"),
		"--auto-fix", "--no-retry", "--workdir", workDir, "--branch", "autofix")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Fix Linting Issues: applied")
	assert.Contains(t, out, "✓ echo formatted > style.txt")
	assert.Contains(t, out, "✗ exit 3")
	assert.Contains(t, out, "(skipped) # review remaining warnings by hand")
	assert.Contains(t, out, "Commit: Fixes committed and pushed to autofix")

	ref, err := remote.Reference(plumbing.NewBranchReferenceName("autofix"), true)
	require.NoError(t, err)
	commit, err := remote.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Contains(t, commit.Message, "- Fix Linting Issues")
	assert.Contains(t, commit.Message, "[skip ci]")

	_, err = commit.File("style.txt")
	assert.NoError(t, err, "the fix is in the pushed commit")
}
