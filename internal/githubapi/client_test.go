package githubapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/failfix/internal/config"
)

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	require.ErrorIs(t, err, ErrNoToken)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c, err := NewClient(context.Background(), config.Secret("tok"), "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/", c.BaseURL.String())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), config.Secret("tok"), "not a url")
	require.Error(t, err)
}

func TestNewClient_SendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"failfix"}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), config.Secret("ghs_abc"), srv.URL+"/api/v3")
	require.NoError(t, err)

	user, _, err := c.Users.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "failfix", user.GetLogin())
	assert.Equal(t, "Bearer ghs_abc", gotAuth)
	assert.Equal(t, "/api/v3/user", gotPath)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 201, StatusCode(respWithStatus(201)))
}
