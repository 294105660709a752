package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/fyrsmithlabs/failfix/internal/config"
)

// Repository is the version-control surface CommitAndPush needs.
type Repository interface {
	// HasChanges reports uncommitted changes, untracked files included.
	HasChanges(ctx context.Context) (bool, error)
	// StageAll stages every change, deletions included.
	StageAll(ctx context.Context) error
	// Commit records the index and returns the commit hash.
	Commit(ctx context.Context, message string) (string, error)
	// Push publishes the current commit to branch on the remote.
	Push(ctx context.Context, branch string) error
}

// GitOptions configures a GitRepository.
type GitOptions struct {
	AuthorName  string
	AuthorEmail string
	Remote      string        // default "origin"
	Token       config.Secret // HTTPS push credential; empty uses the remote's own auth
}

// GitRepository implements Repository on a go-git working tree.
type GitRepository struct {
	repo   *git.Repository
	author object.Signature
	remote string
	auth   transport.AuthMethod
	now    func() time.Time
}

// OpenGitRepository opens the repository containing dir.
func OpenGitRepository(dir string, opts GitOptions) (*GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", dir, err)
	}

	remote := opts.Remote
	if remote == "" {
		remote = git.DefaultRemoteName
	}

	var auth transport.AuthMethod
	if opts.Token.IsSet() {
		auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token.Value()}
	}

	return &GitRepository{
		repo:   repo,
		author: object.Signature{Name: opts.AuthorName, Email: opts.AuthorEmail},
		remote: remote,
		auth:   auth,
		now:    time.Now,
	}, nil
}

func (g *GitRepository) HasChanges(ctx context.Context) (bool, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("reading status: %w", err)
	}
	return !status.IsClean(), nil
}

func (g *GitRepository) StageAll(ctx context.Context) error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

func (g *GitRepository) Commit(ctx context.Context, message string) (string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}
	author := g.author
	author.When = g.now()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	return hash.String(), nil
}

// Push points refs/heads/<branch> at HEAD and pushes it. CI checkouts are
// often detached, so the local branch ref is moved rather than assumed.
func (g *GitRepository) Push(ctx context.Context, branch string) error {
	head, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	local := plumbing.NewBranchReferenceName(branch)
	if head.Name() != local {
		if err := g.repo.Storer.SetReference(plumbing.NewHashReference(local, head.Hash())); err != nil {
			return fmt.Errorf("updating %s: %w", local, err)
		}
	}

	err = g.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: g.remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(local + ":" + local)},
		Auth:       g.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git push %s %s: %w", g.remote, branch, err)
	}
	return nil
}
