// Package gmusictest provides an in-memory Service implementation for
// tests.
package gmusictest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gmusicfs/gmusicfs/internal/gmusic"
)

// Fake is an in-memory music service. Stream URLs take the form
// fake://track/{id}; cover and other content is served from the Content
// map keyed by URL.
type Fake struct {
	Tracks    []gmusic.TrackRecord
	Playlists []gmusic.PlaylistRecord

	// Content maps a URL to the bytes served for it. Track audio is
	// keyed by TrackURL(id).
	Content map[string][]byte

	// Errors returned by the corresponding calls when non-nil.
	TracksErr    error
	PlaylistsErr error
	StreamURLErr error
	ProbeErr     error
	OpenErr      error

	mu         sync.Mutex
	ProbeCalls []string
	OpenCalls  []string
}

var _ gmusic.Service = (*Fake)(nil)

// TrackURL is the stream URL the fake issues for a track id.
func TrackURL(id string) string {
	return "fake://track/" + id
}

func (f *Fake) ListTracks(ctx context.Context) ([]gmusic.TrackRecord, error) {
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return f.Tracks, nil
}

func (f *Fake) ListPlaylists(ctx context.Context) ([]gmusic.PlaylistRecord, error) {
	if f.PlaylistsErr != nil {
		return nil, f.PlaylistsErr
	}
	return f.Playlists, nil
}

func (f *Fake) StreamURL(ctx context.Context, trackID, deviceID string) (string, error) {
	if f.StreamURLErr != nil {
		return "", f.StreamURLErr
	}
	return TrackURL(trackID), nil
}

func (f *Fake) ContentLength(ctx context.Context, url string) (int64, error) {
	f.mu.Lock()
	f.ProbeCalls = append(f.ProbeCalls, url)
	f.mu.Unlock()
	if f.ProbeErr != nil {
		return 0, f.ProbeErr
	}
	data, ok := f.Content[url]
	if !ok {
		return 0, fmt.Errorf("no content for %s", url)
	}
	return int64(len(data)), nil
}

func (f *Fake) OpenStream(ctx context.Context, url string) (*gmusic.Stream, error) {
	f.mu.Lock()
	f.OpenCalls = append(f.OpenCalls, url)
	f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	data, ok := f.Content[url]
	if !ok {
		return nil, fmt.Errorf("no content for %s", url)
	}
	return &gmusic.Stream{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: int64(len(data)),
	}, nil
}
