package publish

import (
	"context"
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
	"go.uber.org/zap/zaptest"
)

// newWorkRepo creates a working repository with one commit and a bare
// "origin" remote it can push to.
func newWorkRepo(t *testing.T) (workDir string, remote *git.Repository) {
	t.Helper()

	remoteDir := t.TempDir()
	remote, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	workDir = t.TempDir()
	repo, err := git.PlainInit(workDir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remoteDir}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "README.md"), []byte("hello\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return workDir, remote
}

func TestGitRepository_CleanTree(t *testing.T) {
	dir, _ := newWorkRepo(t)

	repo, err := OpenGitRepository(dir, GitOptions{AuthorName: "failfix", AuthorEmail: "bot@example.com"})
	require.NoError(t, err)

	changed, err := repo.HasChanges(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGitRepository_CommitAndPushEndToEnd(t *testing.T) {
	dir, remote := newWorkRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed.txt"), []byte("formatted\n"), 0o644))

	repo, err := OpenGitRepository(dir, GitOptions{AuthorName: "failfix", AuthorEmail: "bot@example.com"})
	require.NoError(t, err)

	res := NewCommitter(repo, zaptest.NewLogger(t)).
		CommitAndPush(context.Background(), []string{"Fix linting issues"}, "autofix")
	require.True(t, res.Committed, res.Message)

	ref, err := remote.Reference(plumbing.NewBranchReferenceName("autofix"), true)
	require.NoError(t, err)
	assert.Equal(t, res.Hash, ref.Hash().String())

	commit, err := remote.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "failfix", commit.Author.Name)
	assert.Contains(t, commit.Message, "- Fix linting issues")
	assert.Contains(t, commit.Message, "[skip ci]")

	changed, err := repo.HasChanges(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "tree is clean after commit")
}

func TestGitRepository_PushFailureIsReported(t *testing.T) {
	dir, _ := newWorkRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed.txt"), []byte("x\n"), 0o644))

	repo, err := OpenGitRepository(dir, GitOptions{AuthorName: "failfix", AuthorEmail: "bot@example.com", Remote: "missing"})
	require.NoError(t, err)

	res := NewCommitter(repo, nil).CommitAndPush(context.Background(), []string{"x"}, "main")
	assert.False(t, res.Committed)
	assert.Contains(t, res.Message, "Failed to commit")
}

func TestOpenGitRepository_NotARepo(t *testing.T) {
	_, err := OpenGitRepository(t.TempDir(), GitOptions{})
	assert.Error(t, err)
}
