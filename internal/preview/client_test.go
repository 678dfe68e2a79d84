package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	t.Run("parses a successful answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://example.com", body["url"])

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Result{
				Success:  true,
				Title:    "Example Domain",
				SiteName: "example.com",
			})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "")
		defer c.Close()

		result, err := c.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Example Domain", result.Title)
		assert.Equal(t, "example.com", result.SiteName)
	})

	t.Run("sends the bearer token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Result{Success: false})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-token")
		defer c.Close()

		result, err := c.Fetch(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "")
		defer c.Close()

		_, err := c.Fetch(context.Background(), "https://example.com")
		assert.Error(t, err)
	})
}
