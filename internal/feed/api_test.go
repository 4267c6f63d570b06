package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "admin123" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "tok-123",
				"user":  map[string]any{"role": "super_admin"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	token, role, err := c.Login(context.Background(), "admin@stitchworks.test", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "super_admin", role)

	_, _, err = c.Login(context.Background(), "admin@stitchworks.test", "wrong")
	assert.Error(t, err)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]int{"unread_count": 4})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "") // trailing slash is trimmed
	c.SetToken("tok-abc")

	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestClientNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	err = c.MarkRead(context.Background(), "n1")
	assert.Error(t, err)
}
