package oembed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Lookup(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Contains(t, r.URL.Query().Get("url"), "nJZcbidTutE")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"title": "Never Gonna Give You Up",
			"author_name": "Rick Astley",
			"provider_name": "YouTube",
			"thumbnail_url": "https://i.ytimg.com/vi/nJZcbidTutE/hqdefault.jpg"
		}`))
	}))
	defer server.Close()

	client := New()
	client.baseURL = server.URL

	meta, err := client.Lookup(context.Background(), "nJZcbidTutE")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", meta.Title)
	assert.Equal(t, "Rick Astley", meta.AuthorName)
	assert.Equal(t, "YouTube", meta.ProviderName)

	// Second lookup is served from the cache.
	meta2, err := client.Lookup(context.Background(), "nJZcbidTutE")
	require.NoError(t, err)
	assert.Equal(t, meta, meta2)
	assert.Equal(t, int64(1), hits.Load())
}

func TestClient_Lookup_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New()
	client.baseURL = server.URL

	_, err := client.Lookup(context.Background(), "gone4012345")
	assert.Error(t, err)
}

func TestClient_Lookup_EmptyID(t *testing.T) {
	client := New()
	_, err := client.Lookup(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_TrackMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title": "Plastic Love", "author_name": "Mariya Takeuchi"}`))
	}))
	defer server.Close()

	client := New()
	client.baseURL = server.URL

	title, artist, err := client.TrackMetadata(context.Background(), "Y7G-tYRzwYY")
	require.NoError(t, err)
	assert.Equal(t, "Plastic Love", title)
	assert.Equal(t, "Mariya Takeuchi", artist)
}
