package library

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gmusicfs/gmusicfs/internal/gmusic"
	"github.com/gmusicfs/gmusicfs/internal/id3v1"
)

// unknownArtist buckets tracks whose album-artist and artist fields are
// both blank.
const unknownArtist = "Unknown"

// Scanner aggregates the remote catalog into a Library.
type Scanner struct {
	Service  gmusic.Service
	DeviceID string

	// TrueFileSize enables blocking exact-size probes; without it the
	// service's estimates are reported.
	TrueFileSize bool

	Log zerolog.Logger
}

// Library is the aggregated catalog index: artists keyed by normalized
// name, tracks keyed by id, playlists keyed by normalized name. It is
// read-only after Scan; a rescan produces a new Library that the caller
// swaps in atomically.
type Library struct {
	artists   map[string]*Artist
	tracks    map[string]*Track
	playlists map[string]*Playlist

	svc      gmusic.Service
	deviceID string
	trueSize bool
	log      zerolog.Logger
}

// Empty returns a library with no catalog, used when the initial scan is
// deferred.
func (s Scanner) Empty() *Library {
	return &Library{
		artists:   make(map[string]*Artist),
		tracks:    make(map[string]*Track),
		playlists: make(map[string]*Playlist),
		svc:       s.Service,
		deviceID:  s.DeviceID,
		trueSize:  s.TrueFileSize,
		log:       s.Log,
	}
}

// Scan fetches the full catalog and aggregates it in one pass. A fetch
// failure aborts the scan; there are no retries.
func (s Scanner) Scan(ctx context.Context) (*Library, error) {
	lib := s.Empty()

	s.Log.Info().Msg("gathering track information")
	records, err := s.Service.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		lib.addTrack(rec)
	}

	playlists, err := s.Service.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range playlists {
		lib.addPlaylist(rec)
	}

	s.Log.Info().
		Int("tracks", len(records)).
		Int("artists", len(lib.artists)).
		Int("playlists", len(lib.playlists)).
		Msg("catalog scan complete")
	return lib, nil
}

func (l *Library) addTrack(rec gmusic.TrackRecord) {
	track := newTrack(rec)

	// The album-artist wins over the track artist when present, so
	// compilations file under one directory.
	artistName := FormatName(rec.AlbumArtist)
	if strings.TrimSpace(artistName) == "" {
		artistName = FormatName(rec.Artist)
	}
	if strings.TrimSpace(artistName) == "" {
		artistName = unknownArtist
	}

	key := strings.ToLower(artistName)
	artist, ok := l.artists[key]
	if !ok {
		artist = newArtist(artistName)
		l.artists[key] = artist
	}
	artist.albumOrCreate(rec.Album).addTrack(track)

	// Tracks without an id are browsable but unaddressable by playlists.
	if rec.ID != "" {
		l.tracks[rec.ID] = track
	}
}

func (l *Library) addPlaylist(rec gmusic.PlaylistRecord) {
	pl := &Playlist{
		name:    rec.Name,
		dirname: strings.TrimSpace(FormatName(rec.Name)),
	}
	for _, entry := range rec.Entries {
		if entry.Track != nil {
			pl.tracks = append(pl.tracks, newTrack(*entry.Track))
			continue
		}
		track, ok := l.tracks[entry.TrackID]
		if !ok {
			l.log.Warn().
				Str("playlist", rec.Name).
				Str("track_id", entry.TrackID).
				Msg("playlist entry references unknown track, skipping")
			continue
		}
		pl.tracks = append(pl.tracks, track)
	}
	l.playlists[strings.ToLower(pl.dirname)] = pl
}

// Artist resolves an artist by formatted name, case-insensitively.
func (l *Library) Artist(name string) (*Artist, bool) {
	ar, ok := l.artists[strings.ToLower(name)]
	return ar, ok
}

// Playlist resolves a playlist by formatted name, case-insensitively.
func (l *Library) Playlist(name string) (*Playlist, bool) {
	p, ok := l.playlists[strings.ToLower(name)]
	return p, ok
}

// TrackCount is the number of id-addressable tracks in the catalog.
func (l *Library) TrackCount() int {
	return len(l.tracks)
}

// Track resolves a track by catalog id.
func (l *Library) Track(id string) (*Track, bool) {
	t, ok := l.tracks[id]
	return t, ok
}

// Artists returns every artist sorted by normalized name.
func (l *Library) Artists() []*Artist {
	artists := make([]*Artist, 0, len(l.artists))
	for _, ar := range l.artists {
		artists = append(artists, ar)
	}
	sort.Slice(artists, func(i, j int) bool {
		return strings.ToLower(artists[i].normName) < strings.ToLower(artists[j].normName)
	})
	return artists
}

// Playlists returns every playlist sorted by directory name.
func (l *Library) Playlists() []*Playlist {
	playlists := make([]*Playlist, 0, len(l.playlists))
	for _, p := range l.playlists {
		playlists = append(playlists, p)
	}
	sort.Slice(playlists, func(i, j int) bool {
		return strings.ToLower(playlists[i].dirname) < strings.ToLower(playlists[j].dirname)
	})
	return playlists
}

// TrueFileSize reports whether exact-size probing is enabled.
func (l *Library) TrueFileSize() bool {
	return l.trueSize
}

// StreamURL issues a streaming URL for the track using the library's
// registered device.
func (l *Library) StreamURL(ctx context.Context, t *Track) (string, error) {
	return l.svc.StreamURL(ctx, t.ID, l.deviceID)
}

// EnsureTrackSize probes and caches the track's exact file size. It is a
// no-op when probing is disabled or the size is already known. The cached
// size includes the synthesized trailer, matching what readers consume.
func (l *Library) EnsureTrackSize(ctx context.Context, t *Track) error {
	if !l.trueSize {
		return nil
	}
	if _, ok := t.ExactSize(); ok {
		return nil
	}
	url, err := l.StreamURL(ctx, t)
	if err != nil {
		return err
	}
	n, err := l.svc.ContentLength(ctx, url)
	if err != nil {
		return err
	}
	t.SetExactSize(n + id3v1.TagSize)
	return nil
}

// EnsureCoverSize probes and caches the album cover's content length,
// returning the cached value. It must only be called when the album has a
// cover URL and probing is enabled.
func (l *Library) EnsureCoverSize(ctx context.Context, a *Album) (int64, error) {
	if n, ok := a.CoverSize(); ok {
		return n, nil
	}
	n, err := l.svc.ContentLength(ctx, a.CoverURL())
	if err != nil {
		return 0, err
	}
	a.SetCoverSize(n)
	n, _ = a.CoverSize()
	return n, nil
}

// OpenStream performs the blocking streaming GET for a content URL.
func (l *Library) OpenStream(ctx context.Context, url string) (*gmusic.Stream, error) {
	return l.svc.OpenStream(ctx, url)
}
