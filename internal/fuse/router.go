package fuse

import (
	"regexp"
	"strconv"

	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// PathKind classifies a virtual path against the fixed grammar.
type PathKind int

const (
	KindNone PathKind = iota
	KindRoot
	KindArtists
	KindArtistDir
	KindAlbumDir
	KindTrackFile
	KindCoverFile
	KindPlaylists
	KindPlaylistDir
	KindPlaylistTrackFile
)

// route pairs one grammar shape with its classification. The table is
// ordered like the grammar; shapes are structurally disjoint so at most
// one entry matches a given path.
type route struct {
	kind PathKind
	re   *regexp.Regexp
}

var routes = []route{
	{KindRoot, regexp.MustCompile(`^/$`)},
	{KindArtists, regexp.MustCompile(`^/artists$`)},
	{KindArtistDir, regexp.MustCompile(`^/artists/([^/]+)$`)},
	{KindAlbumDir, regexp.MustCompile(`^/artists/([^/]+)/([0-9]{4}) - ([^/]+)$`)},
	{KindTrackFile, regexp.MustCompile(`^/artists/([^/]+)/([0-9]{4}) - ([^/]+)/([0-9]+) - (.+)\.mp3$`)},
	{KindCoverFile, regexp.MustCompile(`^/artists/([^/]+)/([0-9]{4}) - ([^/]+)/([^/]+)\.jpg$`)},
	{KindPlaylists, regexp.MustCompile(`^/playlists$`)},
	{KindPlaylistDir, regexp.MustCompile(`^/playlists/([^/]+)$`)},
	{KindPlaylistTrackFile, regexp.MustCompile(`^/playlists/([^/]+)/([0-9]+) - .+\.mp3$`)},
}

// Classify matches path against the grammar and returns its kind plus
// the captured segments. KindNone means no shape matched.
func Classify(path string) (PathKind, []string) {
	for _, r := range routes {
		if m := r.re.FindStringSubmatch(path); m != nil {
			return r.kind, m[1:]
		}
	}
	return KindNone, nil
}

// Target is a classified path resolved to its catalog entities. Fields
// above the matched level are nil: an album directory resolves Artist
// and Album but no Track.
type Target struct {
	Kind     PathKind
	Artist   *library.Artist
	Album    *library.Album
	Playlist *library.Playlist
	Track    *library.Track
}

// Resolve classifies path and resolves every named entity against the
// catalog. Both an unmatched path and an unresolvable entity yield a
// not-found error; classification success alone does not guarantee
// existence.
func Resolve(lib *library.Library, path string) (Target, error) {
	kind, parts := Classify(path)
	notFound := func() (Target, error) {
		return Target{}, errors.New(errors.ErrCodeNotFound, "no such entry").WithPath(path)
	}

	target := Target{Kind: kind}
	switch kind {
	case KindNone:
		return notFound()

	case KindRoot, KindArtists, KindPlaylists:
		return target, nil

	case KindArtistDir:
		artist, ok := lib.Artist(parts[0])
		if !ok {
			return notFound()
		}
		target.Artist = artist
		return target, nil

	case KindAlbumDir, KindTrackFile, KindCoverFile:
		artist, ok := lib.Artist(parts[0])
		if !ok {
			return notFound()
		}
		album, ok := artist.Album(parts[2])
		if !ok {
			return notFound()
		}
		target.Artist = artist
		target.Album = album
		if kind == KindTrackFile {
			track, ok := album.TrackNamed(parts[4])
			if !ok {
				return notFound()
			}
			target.Track = track
		}
		return target, nil

	case KindPlaylistDir, KindPlaylistTrackFile:
		playlist, ok := lib.Playlist(parts[0])
		if !ok {
			return notFound()
		}
		target.Playlist = playlist
		if kind == KindPlaylistTrackFile {
			ordinal, err := strconv.Atoi(parts[1])
			if err != nil {
				return notFound()
			}
			track, ok := playlist.TrackAt(ordinal)
			if !ok {
				return notFound()
			}
			target.Track = track
		}
		return target, nil
	}
	return notFound()
}

// IsDir reports whether the kind names a directory-shaped path.
func (k PathKind) IsDir() bool {
	switch k {
	case KindRoot, KindArtists, KindArtistDir, KindAlbumDir, KindPlaylists, KindPlaylistDir:
		return true
	}
	return false
}
