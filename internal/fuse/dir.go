package fuse

import (
	"context"
	"fmt"

	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// CoverFileName is the synthetic cover-image entry listed in album
// directories that have cover art.
const CoverFileName = "cover.jpg"

// listDir produces the ordered entries for a directory-shaped target,
// including the synthetic dot entries. Enumerating an album directory in
// true-size mode probes each track's exact size, mirroring the attribute
// sizes readers are about to stat.
func (f *FileSystem) listDir(ctx context.Context, target Target) ([]string, error) {
	lib := f.library()
	entries := []string{".", ".."}

	switch target.Kind {
	case KindRoot:
		return append(entries, "artists", "playlists"), nil

	case KindArtists:
		for _, artist := range lib.Artists() {
			entries = append(entries, f.transform(artist.NormName()))
		}
		return entries, nil

	case KindPlaylists:
		for _, playlist := range lib.Playlists() {
			entries = append(entries, f.transform(playlist.Dirname()))
		}
		return entries, nil

	case KindArtistDir:
		for _, album := range target.Artist.Albums() {
			entries = append(entries, fmt.Sprintf("%04d - %s",
				album.Year(), f.transform(album.NormTitle())))
		}
		return entries, nil

	case KindAlbumDir:
		for _, track := range target.Album.Tracks() {
			if err := lib.EnsureTrackSize(ctx, track); err != nil {
				return nil, err
			}
			entries = append(entries, fmt.Sprintf("%03d - %s.mp3",
				track.TrackNumber, f.transform(library.FormatName(track.Title))))
		}
		if target.Album.CoverURL() != "" {
			entries = append(entries, CoverFileName)
		}
		return entries, nil

	case KindPlaylistDir:
		for i, track := range target.Playlist.Tracks() {
			if err := lib.EnsureTrackSize(ctx, track); err != nil {
				return nil, err
			}
			name := fmt.Sprintf("%03d - %s - %s - %s.mp3",
				i+1, track.Artist, track.Album, track.Title)
			entries = append(entries, f.transform(library.FormatName(name)))
		}
		return entries, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "not a directory")
}
