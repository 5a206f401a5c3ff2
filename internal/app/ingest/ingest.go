// Package ingest parses user-supplied media URLs into playable tracks.
package ingest

import (
	"context"
	"net/url"
	"regexp"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tonearm/tonearm/internal/domain/track"
)

// ErrInvalidSourceURL signals that the input matched no known watch-page
// shape or carried a malformed video ID. The caller's queue is untouched.
var ErrInvalidSourceURL = errors.New("invalid source URL")

// videoIDLength is the fixed length of provider video IDs.
const videoIDLength = 11

// Known watch-page shapes, tried in priority order: the music subdomain
// pattern first, then the canonical video subdomain pattern. The trailing
// boundary keeps a longer v= value from matching on its first 11 characters.
var watchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|/)music\.youtube\.com/watch\?(?:[^#]*&)?v=([\w-]{11})(?:[^\w-]|$)`),
	regexp.MustCompile(`(?:^|/)(?:www\.|m\.)?youtube\.com/watch\?(?:[^#]*&)?v=([\w-]{11})(?:[^\w-]|$)`),
}

// recognizedHosts are the hosts accepted by the generic-URL fallback.
var recognizedHosts = map[string]bool{
	"music.youtube.com": true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"youtube.com":       true,
}

// Enricher fills missing display metadata for a provider video.
// Lookups are best-effort; failures never fail the ingest.
type Enricher interface {
	TrackMetadata(ctx context.Context, videoID string) (title, artist string, err error)
}

// Ingestor validates external media URLs and builds tracks from them.
type Ingestor struct {
	enricher Enricher
}

// New creates a new Ingestor. The enricher may be nil, in which case
// ingested tracks keep their hints or placeholder metadata.
func New(enricher Enricher) *Ingestor {
	return &Ingestor{enricher: enricher}
}

// Ingest parses rawURL into an externally-backed track. It is a pure parse:
// appending the result to the queue is the caller's explicit next step.
// Returns ErrInvalidSourceURL when no known shape matches or the extracted
// ID is not exactly 11 characters.
func (i *Ingestor) Ingest(ctx context.Context, rawURL, titleHint, artistHint string) (track.Track, error) {
	videoID := ExtractVideoID(rawURL)
	if videoID == "" {
		return track.Track{}, errors.Wrapf(ErrInvalidSourceURL, "url %q", rawURL)
	}

	title, artist := titleHint, artistHint
	if i.enricher != nil && (title == "" || artist == "") {
		metaTitle, metaArtist, err := i.enricher.TrackMetadata(ctx, videoID)
		if err != nil {
			zlog.Debug().Msgf("ingest: metadata lookup failed, using placeholders: video_id=%s error=%v", videoID, err)
		} else {
			if title == "" {
				title = metaTitle
			}
			if artist == "" {
				artist = metaArtist
			}
		}
	}

	return track.NewExternalTrack(videoID, rawURL, title, artist), nil
}

// ExtractVideoID extracts the provider video ID from a watch-page URL.
// Pattern matching runs first; when no pattern matches, the URL is parsed
// generically and the "v" query parameter is read, restricted to recognized
// hosts. Returns "" when nothing valid is found.
func ExtractVideoID(rawURL string) string {
	for _, re := range watchPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}

	// Generic fallback: parse the URL and read the v parameter directly.
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if !recognizedHosts[u.Host] {
		return ""
	}
	id := u.Query().Get("v")
	if len(id) != videoIDLength {
		return ""
	}
	return id
}
