package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRepo struct {
	changed    bool
	changesErr error
	stageErr   error
	commitErr  error
	pushErr    error

	calls   []string
	message string
	branch  string
}

func (f *fakeRepo) HasChanges(context.Context) (bool, error) {
	f.calls = append(f.calls, "status")
	return f.changed, f.changesErr
}

func (f *fakeRepo) StageAll(context.Context) error {
	f.calls = append(f.calls, "add")
	return f.stageErr
}

func (f *fakeRepo) Commit(_ context.Context, message string) (string, error) {
	f.calls = append(f.calls, "commit")
	f.message = message
	if f.commitErr != nil {
		return "", f.commitErr
	}
	return "abc123", nil
}

func (f *fakeRepo) Push(_ context.Context, branch string) error {
	f.calls = append(f.calls, "push")
	f.branch = branch
	return f.pushErr
}

func TestCommitAndPush_CleanTreeTouchesNothing(t *testing.T) {
	repo := &fakeRepo{}
	c := NewCommitter(repo, zaptest.NewLogger(t))

	res := c.CommitAndPush(context.Background(), []string{"Fix linting issues"}, "main")

	assert.False(t, res.Committed)
	assert.Equal(t, MsgNoChanges, res.Message)
	assert.ErrorIs(t, res.Err, ErrNoChanges)
	assert.Equal(t, []string{"status"}, repo.calls)
}

func TestCommitAndPush_Success(t *testing.T) {
	repo := &fakeRepo{changed: true}
	c := NewCommitter(repo, nil)

	titles := []string{"Fix linting issues", "Fix dependency issues"}
	res := c.CommitAndPush(context.Background(), titles, "feature/x")

	require.True(t, res.Committed)
	assert.Equal(t, "abc123", res.Hash)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Fixes committed and pushed to feature/x", res.Message)
	assert.Equal(t, []string{"status", "add", "commit", "push"}, repo.calls)
	assert.Equal(t, "feature/x", repo.branch)
	assert.Equal(t, CommitMessage(titles), repo.message)
}

func TestCommitAndPush_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		repo      *fakeRepo
		wantCalls []string
	}{
		{name: "status", repo: &fakeRepo{changesErr: boom}, wantCalls: []string{"status"}},
		{name: "add", repo: &fakeRepo{changed: true, stageErr: boom}, wantCalls: []string{"status", "add"}},
		{name: "commit", repo: &fakeRepo{changed: true, commitErr: boom}, wantCalls: []string{"status", "add", "commit"}},
		{name: "push", repo: &fakeRepo{changed: true, pushErr: boom}, wantCalls: []string{"status", "add", "commit", "push"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewCommitter(tt.repo, nil).CommitAndPush(context.Background(), []string{"x"}, "main")
			assert.False(t, res.Committed)
			assert.Contains(t, res.Message, "Failed to commit")
			assert.Contains(t, res.Message, "boom")
			assert.ErrorIs(t, res.Err, boom)
			assert.Equal(t, tt.wantCalls, tt.repo.calls)
		})
	}
}

func TestCommitMessage(t *testing.T) {
	msg := CommitMessage([]string{"Fix linting issues", "Fix dependency issues"})

	assert.Equal(t, "fix: Auto-fix CI failures\n\n"+
		"Applied automatic fixes:\n"+
		"- Fix linting issues\n"+
		"- Fix dependency issues\n"+
		"\nGenerated by failfix\n"+
		"[skip ci]\n", msg)
}
