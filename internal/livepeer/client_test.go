// internal/livepeer/client_test.go
package livepeer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", "http://example.com").Configured())
	assert.True(t, NewClient("key", "http://example.com").Configured())

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestCreateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stream", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "main stage", body["name"])
		assert.Equal(t, true, body["record"])

		json.NewEncoder(w).Encode(Stream{
			ID:         "st-1",
			Name:       "main stage",
			StreamKey:  "sk-secret",
			PlaybackID: "pb-123",
			Record:     true,
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	stream, err := client.CreateStream(context.Background(), "main stage", true)
	require.NoError(t, err)
	assert.Equal(t, "pb-123", stream.PlaybackID)
	assert.Equal(t, "sk-secret", stream.StreamKey)
}

func TestRequestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/asset/request-upload", r.URL.Path)
		json.NewEncoder(w).Encode(Upload{
			URL:   "https://upload.example.com/asset",
			Asset: Asset{ID: "as-1", Name: "episode 1", PlaybackID: "pb-456"},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	upload, err := client.RequestUpload(context.Background(), "episode 1")
	require.NoError(t, err)
	assert.Equal(t, "pb-456", upload.Asset.PlaybackID)
	assert.NotEmpty(t, upload.URL)
}

func TestAPIErrorSurfacesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":["invalid api key"]}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", srv.URL)
	_, err := client.CreateStream(context.Background(), "x", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestDeleteStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/stream/st-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	assert.NoError(t, client.DeleteStream(context.Background(), "st-1"))
}
