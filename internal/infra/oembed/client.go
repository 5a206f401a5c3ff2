// Package oembed provides a client for the external provider's oEmbed
// metadata endpoint.
package oembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Metadata represents the oEmbed response fields the engine cares about.
type Metadata struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Client is an oEmbed API client with an in-memory cache keyed by video ID.
type Client struct {
	baseURL    string
	httpClient *http.Client

	cacheMu sync.RWMutex
	cache   map[string]*Metadata
}

// New creates a new oEmbed client against the provider's public endpoint.
func New() *Client {
	return &Client{
		baseURL:    "https://www.youtube.com/oembed",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]*Metadata),
	}
}

// Lookup retrieves metadata for a provider video ID.
func (c *Client) Lookup(ctx context.Context, videoID string) (*Metadata, error) {
	if videoID == "" {
		return nil, errors.New("video ID is required")
	}

	c.cacheMu.RLock()
	if meta, ok := c.cache[videoID]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("oembed: cache hit: video_id=%s", videoID)
		return meta, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("url", fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID))
	params.Set("format", "json")
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 404 and 401 mean the video is gone or not embeddable.
		return nil, errors.Newf("oembed request failed with status %d for video %s", resp.StatusCode, videoID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	c.cacheMu.Lock()
	c.cache[videoID] = &meta
	c.cacheMu.Unlock()

	return &meta, nil
}

// TrackMetadata returns display metadata for an ingested track. It
// satisfies the ingest.Enricher interface.
func (c *Client) TrackMetadata(ctx context.Context, videoID string) (title, artist string, err error) {
	meta, err := c.Lookup(ctx, videoID)
	if err != nil {
		return "", "", err
	}
	return meta.Title, meta.AuthorName, nil
}
