package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_SendsJSONAndDecodes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "yes", r.URL.Query().Get("debug"))
		assert.Equal(t, "static", r.Header.Get("X-Static"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ops@example.com", in["email"])

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t-1"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", WithHeader("X-Static", "static"))

	var out struct {
		Token string `json:"token"`
	}
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Query:  url.Values{"debug": {"yes"}},
		Header: http.Header{"Authorization": {"Bearer abc"}},
		Body:   map[string]string{"email": "ops@example.com"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "t-1", out.Token)
}

func TestClient_Do_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	t.Cleanup(srv.Close)

	err := NewClient(srv.URL).Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Contains(t, se.Body, "token expired")
}
