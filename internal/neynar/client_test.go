package neynar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/v2/farcaster/user/bulk", r.URL.Path)
		assert.Equal(t, "4242", r.URL.Query().Get("fids"))
		assert.Equal(t, "test-key", r.Header.Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveUsername(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"username", `{"users":[{"fid":4242,"username":"alice","display_name":"Alice A"}]}`, "alice"},
		{"display name fallback", `{"users":[{"fid":4242,"display_name":"Alice A"}]}`, "Alice A"},
		{"unknown fid", `{"users":[]}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newServer(t, http.StatusOK, tt.body, &hits)
			c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})

			got, err := c.ResolveUsername(context.Background(), "4242")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
		})
	}
}

func TestResolveUsername_SkipsLookup(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusOK, `{"users":[]}`, &hits)

	tests := []struct {
		name     string
		key      string
		playerID string
	}{
		{"no api key", "", "4242"},
		{"user id is not a fid", "test-key", "9f1c2a4e-0000-4000-8000-000000000000"},
		{"zero fid", "test-key", "0"},
		{"empty id", "test-key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(Config{APIKey: tt.key, BaseURL: srv.URL, HTTPClient: srv.Client()})
			got, err := c.ResolveUsername(context.Background(), tt.playerID)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestResolveUsername_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		var hits int32
		srv := newServer(t, http.StatusUnauthorized, `{"message":"bad key"}`, &hits)
		c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})

		_, err := c.ResolveUsername(context.Background(), "4242")
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr), "err = %v", err)
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		var hits int32
		srv := newServer(t, http.StatusOK, `{"users":`, &hits)
		c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})

		_, err := c.ResolveUsername(context.Background(), "4242")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		var hits int32
		srv := newServer(t, http.StatusOK, `{"users":[]}`, &hits)
		c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.ResolveUsername(ctx, "4242")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: " key "})
	assert.True(t, c.Enabled())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.http)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}
