// Package gmusic implements the remote music service client: account
// login, catalog feeds (tracks and playlists), stream-URL issuance, and
// raw content access for streaming and size probing.
package gmusic

import (
	"context"
	"io"
)

// TrackRecord is one track as reported by the service's catalog feed.
// Optional fields are zero-valued when the feed omits them.
type TrackRecord struct {
	ID          string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	Year        int

	// EstimatedSize is the service's approximate byte count for the
	// track's audio. The exact length is only known after a probe.
	EstimatedSize int64

	// CreationTimestamp and RecentTimestamp are epoch microseconds,
	// zero when the feed omits them.
	CreationTimestamp int64
	RecentTimestamp   int64

	Comment     string
	AlbumArtURL string
}

// DeviceRecord is one device registered to the account. Stream-URL
// issuance requires the id of one of these.
type DeviceRecord struct {
	ID   string
	Name string
	Type string
}

// PlaylistEntry is one position in a playlist. Track is non-nil when the
// feed embedded the full record inline; otherwise only TrackID is set and
// the track must be resolved against the catalog.
type PlaylistEntry struct {
	TrackID string
	Track   *TrackRecord
}

// PlaylistRecord is one playlist with its entries in server-declared order.
type PlaylistRecord struct {
	ID      string
	Name    string
	Entries []PlaylistEntry
}

// Stream is an open remote byte stream and its declared content length.
type Stream struct {
	Body io.ReadCloser

	// ContentLength is the remote Content-Length header value, -1 when
	// the server did not declare one.
	ContentLength int64
}

// Close closes the underlying response body.
func (s *Stream) Close() error {
	return s.Body.Close()
}

// Service is the music service capability consumed by the library and
// filesystem layers. Implementations block; there are no retries and no
// timeouts, a hung remote call hangs the caller.
type Service interface {
	// ListTracks returns every track in the account's catalog.
	ListTracks(ctx context.Context) ([]TrackRecord, error)

	// ListPlaylists returns every user playlist with its entries.
	ListPlaylists(ctx context.Context) ([]PlaylistRecord, error)

	// StreamURL issues a short-lived URL for the track's audio bytes.
	StreamURL(ctx context.Context, trackID, deviceID string) (string, error)

	// ContentLength performs a metadata-only probe (HEAD) against a
	// content URL and returns the declared byte length.
	ContentLength(ctx context.Context, url string) (int64, error)

	// OpenStream performs a streaming GET against a content URL.
	OpenStream(ctx context.Context, url string) (*Stream, error)
}
