// Package githubapi builds authenticated go-github clients and retries
// idempotent calls through transient failures.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/failfix/internal/config"
)

// ErrNoToken is returned when no credential is configured.
var ErrNoToken = errors.New("GitHub token not set")

// NewClient creates a GitHub client authenticated with token. apiURL
// overrides the API root (GITHUB_API_URL on Enterprise runners); empty keeps
// the public API.
func NewClient(ctx context.Context, token config.Secret, apiURL string) (*github.Client, error) {
	if !token.IsSet() {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if apiURL != "" {
		base, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		if base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("invalid GitHub API URL %q: missing scheme or host", apiURL)
		}
		client.BaseURL = base
	}
	return client, nil
}

// StatusCode safely extracts the HTTP status code from a GitHub response.
func StatusCode(resp *github.Response) int {
	if resp != nil && resp.Response != nil {
		return resp.Response.StatusCode
	}
	return 0
}
