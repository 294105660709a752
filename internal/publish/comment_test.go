package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/failfix/internal/githubapi"
)

func testClient(t *testing.T, handler http.Handler) *github.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

var fastRetry = &githubapi.RetryConfig{
	MaxRetries:        2,
	InitialBackoff:    time.Millisecond,
	MaxBackoff:        5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestCommentPoster_Create(t *testing.T) {
	var body string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var c github.IssueComment
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		body = c.GetBody()
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1,"html_url":"https://github.com/acme/widgets/pull/7#issuecomment-1"}`)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	res, err := p.PostReport(context.Background(), 7, sampleReport(t))
	require.NoError(t, err)
	assert.True(t, res.Posted)
	assert.False(t, res.Updated)
	assert.Equal(t, "https://github.com/acme/widgets/pull/7#issuecomment-1", res.URL)
	assert.Contains(t, body, CommentMarker)
}

func TestCommentPoster_CreateRequires201(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"id":1}`)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{Retry: fastRetry}, nil)
	require.NoError(t, err)

	res, err := p.Post(context.Background(), 7, "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 200")
	assert.False(t, res.Posted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCommentPoster_CreateIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{Retry: fastRetry}, nil)
	require.NoError(t, err)

	_, err = p.Post(context.Background(), 7, "body")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCommentPoster_UpdateExisting(t *testing.T) {
	var edited string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method, "must not create when a marker comment exists")
		fmt.Fprintf(w, `[{"id":10,"body":"unrelated"},{"id":11,"body":%q}]`, CommentMarker+"\nold")
	})
	mux.HandleFunc("/repos/acme/widgets/issues/comments/11", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var c github.IssueComment
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		edited = c.GetBody()
		fmt.Fprint(w, `{"id":11,"html_url":"https://example.com/c/11"}`)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{UpdateExisting: true, Retry: fastRetry}, nil)
	require.NoError(t, err)

	res, err := p.Post(context.Background(), 7, CommentMarker+"\nnew")
	require.NoError(t, err)
	assert.True(t, res.Posted)
	assert.True(t, res.Updated)
	assert.Equal(t, "https://example.com/c/11", res.URL)
	assert.Equal(t, CommentMarker+"\nnew", edited)
}

func TestCommentPoster_UpdateExistingFallsBackToCreate(t *testing.T) {
	var created atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `[{"id":10,"body":"unrelated"}]`)
			return
		}
		created.Store(true)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":12}`)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{UpdateExisting: true, Retry: fastRetry}, nil)
	require.NoError(t, err)

	res, err := p.Post(context.Background(), 7, "body")
	require.NoError(t, err)
	assert.True(t, res.Posted)
	assert.False(t, res.Updated)
	assert.True(t, created.Load())
}

func TestCommentPoster_ListIsRetried(t *testing.T) {
	var lists atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if lists.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})

	p, err := NewCommentPoster(testClient(t, mux), "acme/widgets", CommentOptions{UpdateExisting: true, Retry: fastRetry}, nil)
	require.NoError(t, err)

	res, err := p.Post(context.Background(), 7, "body")
	require.NoError(t, err)
	assert.True(t, res.Posted)
	assert.Equal(t, int32(2), lists.Load())
}

func TestCommentPoster_SkipsWithoutConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		client *github.Client
		repo   string
		pr     int
	}{
		{name: "no client", repo: "acme/widgets", pr: 7},
		{name: "no repository", client: github.NewClient(nil), pr: 7},
		{name: "no pull request", client: github.NewClient(nil), repo: "acme/widgets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewCommentPoster(tt.client, tt.repo, CommentOptions{}, zaptest.NewLogger(t))
			require.NoError(t, err)

			res, err := p.Post(context.Background(), tt.pr, "body")
			require.NoError(t, err)
			assert.False(t, res.Posted)
		})
	}
}

func TestNewCommentPoster_InvalidRepository(t *testing.T) {
	_, err := NewCommentPoster(nil, "nope", CommentOptions{}, nil)
	assert.Error(t, err)
}
