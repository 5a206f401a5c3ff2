// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external playback provider backing a track.
type Provider string

const (
	// ProviderYouTube is the embedded video provider for externally-backed tracks.
	ProviderYouTube Provider = "youtube"
)

// Placeholder display values for ingested tracks with no metadata.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// ExternalRef links a track to an external provider instance.
// A track carrying an ExternalRef is played through an embedded player;
// a track without one is driven by the simulated local clock.
type ExternalRef struct {
	Provider  Provider // Provider identifier
	VideoID   string   // Opaque 11-character provider video ID
	SourceURL string   // Original URL the track was ingested from
}

// Track represents one playable item.
// The backing source (External present or absent) is immutable after creation.
type Track struct {
	ID          string        // Unique stable identifier, never reused
	Title       string        // Display title
	Artist      string        // Display artist
	Album       string        // Display album
	CoverArtURL string        // Cover art URL
	Duration    time.Duration // Zero when unknown (freshly ingested external track)
	External    *ExternalRef  // Present iff backed by the external provider
}

// NewCatalogTrack creates a locally-simulated track with catalog metadata.
func NewCatalogTrack(title, artist, album, coverArtURL string, duration time.Duration) Track {
	return Track{
		ID:          uuid.New().String(),
		Title:       title,
		Artist:      artist,
		Album:       album,
		CoverArtURL: coverArtURL,
		Duration:    duration,
	}
}

// NewExternalTrack creates a provider-backed track. Empty title or artist
// fall back to placeholder strings. Duration stays zero until the embedded
// player reports the real value.
func NewExternalTrack(videoID, sourceURL, title, artist string) Track {
	if title == "" {
		title = UnknownTitle
	}
	if artist == "" {
		artist = UnknownArtist
	}
	return Track{
		ID:          uuid.New().String(),
		Title:       title,
		Artist:      artist,
		CoverArtURL: ThumbnailURL(videoID),
		External: &ExternalRef{
			Provider:  ProviderYouTube,
			VideoID:   videoID,
			SourceURL: sourceURL,
		},
	}
}

// IsExternal reports whether the track is backed by the external provider.
func (t *Track) IsExternal() bool {
	return t.External != nil
}

// ThumbnailURL derives the cover art URL for a provider video ID.
func ThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID)
}
