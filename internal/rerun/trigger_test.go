package rerun

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, status int, calls *atomic.Int32) *github.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/actions/runs/555/rerun-failed-jobs", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

func TestRetry_Accepted(t *testing.T) {
	var calls atomic.Int32
	trig := NewTrigger(serve(t, http.StatusCreated, &calls), "acme/widgets", "555", nil)

	assert.True(t, trig.Retry(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetry_RejectedStatusIsSingleAttempt(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusForbidden, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			trig := NewTrigger(serve(t, status, &calls), "acme/widgets", "555", nil)

			assert.False(t, trig.Retry(context.Background()))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestRetry_MissingConfiguration(t *testing.T) {
	var calls atomic.Int32
	client := serve(t, http.StatusCreated, &calls)

	tests := []struct {
		name   string
		client *github.Client
		repo   string
		runID  string
	}{
		{name: "no client", repo: "acme/widgets", runID: "555"},
		{name: "no repository", client: client, runID: "555"},
		{name: "no run id", client: client, repo: "acme/widgets"},
		{name: "bad repository", client: client, repo: "acme", runID: "555"},
		{name: "non-numeric run id", client: client, repo: "acme/widgets", runID: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			trig := NewTrigger(tt.client, tt.repo, tt.runID, zap.New(core))

			assert.False(t, trig.Retry(context.Background()))
			assert.Equal(t, 1, logs.Len(), "the skip is logged")
		})
	}
	assert.Zero(t, calls.Load(), "no request without full configuration")
}
