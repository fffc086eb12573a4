package fuse

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmusicfs/gmusicfs/internal/config"
	"github.com/gmusicfs/gmusicfs/internal/gmusic"
	"github.com/gmusicfs/gmusicfs/internal/gmusic/gmusictest"
	"github.com/gmusicfs/gmusicfs/internal/id3v1"
	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

type fsOption func(*config.Options, *library.Scanner)

func withLowercase() fsOption {
	return func(o *config.Options, s *library.Scanner) { o.Lowercase = true }
}

func withTrueFileSize() fsOption {
	return func(o *config.Options, s *library.Scanner) {
		o.TrueFileSize = true
		s.TrueFileSize = true
	}
}

func newTestFS(t *testing.T, fake *gmusictest.Fake, opts ...fsOption) *FileSystem {
	t.Helper()
	scanner := library.Scanner{
		Service:  fake,
		DeviceID: "dev",
		Log:      zerolog.Nop(),
	}
	options := config.NewDefault()
	options.MountPoint = t.TempDir()
	for _, opt := range opts {
		opt(options, &scanner)
	}
	fs := NewFileSystem(scanner, options, nil, zerolog.Nop())
	require.NoError(t, fs.Rescan(context.Background()))
	return fs
}

func TestGetAttrDirectories(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	for _, path := range []string{
		"/", "/artists", "/playlists",
		"/artists/The Band",
		"/artists/The Band/2009 - First Light",
		"/playlists/Mix",
	} {
		attr, err := fs.GetAttr(context.Background(), path)
		require.NoError(t, err, path)
		assert.True(t, attr.Dir, path)
		assert.Equal(t, uint32(2), attr.Nlink, path)
		assert.Equal(t, int64(0), attr.Mtime.Unix(), path)
	}
}

func TestGetAttrTrack(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	attr, err := fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/001 - Intro.mp3")
	require.NoError(t, err)

	assert.False(t, attr.Dir)
	assert.Equal(t, int64(1000), attr.Size, "estimated size before any probe")
	assert.Equal(t, int64(1300000000), attr.Ctime.Unix())
	assert.Equal(t, int64(1300000000), attr.Mtime.Unix())
	assert.Equal(t, int64(1400000000), attr.Atime.Unix())

	// Outro carries no timestamps, so they stay at the epoch.
	attr, err = fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/002 - Outro.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(0), attr.Mtime.Unix())
}

func TestGetAttrTrackAfterProbe(t *testing.T) {
	audio := make([]byte, 5000)
	fake := testCatalog()
	fake.Content = map[string][]byte{
		gmusictest.TrackURL("t1"): audio,
		gmusictest.TrackURL("t2"): audio,
		"http://art/fl.jpg":       make([]byte, 777),
	}
	fs := newTestFS(t, fake, withTrueFileSize())

	// Enumerating the album probes the exact sizes.
	_, err := fs.ListDir(context.Background(), "/artists/The Band/2009 - First Light")
	require.NoError(t, err)

	attr, err := fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/001 - Intro.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(5000+id3v1.TagSize), attr.Size,
		"probed size must include the trailer")
}

func TestGetAttrCoverPlaceholder(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	attr, err := fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(config.DefaultCoverPlaceholderSize), attr.Size)
}

func TestGetAttrCoverProbed(t *testing.T) {
	fake := testCatalog()
	fake.Content = map[string][]byte{"http://art/fl.jpg": make([]byte, 777)}
	fs := newTestFS(t, fake, withTrueFileSize())

	attr, err := fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(777), attr.Size)

	// The probe result is cached on the album.
	_, err = fs.GetAttr(context.Background(),
		"/artists/The Band/2009 - First Light/cover.jpg")
	require.NoError(t, err)
	assert.Len(t, fake.ProbeCalls, 1)
}

func TestGetAttrCoverWithoutArt(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	// The S/T album has no art ref anywhere.
	_, err := fs.GetAttr(context.Background(),
		"/artists/Slash-Burn/0000 - S-T/cover.jpg")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetAttrNotFound(t *testing.T) {
	fs := newTestFS(t, testCatalog())
	_, err := fs.GetAttr(context.Background(), "/artists/Nobody")
	assert.True(t, errors.IsNotFound(err))
}

func TestListDirRoot(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	entries, err := fs.ListDir(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "artists", "playlists"}, entries)
}

func TestListDirArtists(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	entries, err := fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "Slash-Burn", "The Band"}, entries)
}

func TestListDirArtistAlbums(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	entries, err := fs.ListDir(context.Background(), "/artists/The Band")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "2009 - First Light"}, entries)

	// No track year on S/T, so the directory gets the zero sentinel.
	entries, err = fs.ListDir(context.Background(), "/artists/Slash-Burn")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "0000 - S-T"}, entries)
}

func TestListDirAlbum(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	entries, err := fs.ListDir(context.Background(), "/artists/The Band/2009 - First Light")
	require.NoError(t, err)
	assert.Equal(t, []string{
		".", "..",
		"001 - Intro.mp3",
		"002 - Outro.mp3",
		"cover.jpg",
	}, entries)

	entries, err = fs.ListDir(context.Background(), "/artists/Slash-Burn/0000 - S-T")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "001 - Sliced-Diced.mp3"}, entries,
		"no cover entry without art")
}

func TestListDirPlaylistsAndOrdinals(t *testing.T) {
	fake := &gmusictest.Fake{
		Tracks: []gmusic.TrackRecord{
			{ID: "a", Title: "High", Artist: "X", Album: "LP", TrackNumber: 9},
			{ID: "b", Title: "Low", Artist: "X", Album: "LP", TrackNumber: 1},
		},
		Playlists: []gmusic.PlaylistRecord{{
			Name: "Mix",
			Entries: []gmusic.PlaylistEntry{
				{TrackID: "a"},
				{TrackID: "b"},
			},
		}},
	}
	fs := newTestFS(t, fake)

	entries, err := fs.ListDir(context.Background(), "/playlists/Mix")
	require.NoError(t, err)
	assert.Equal(t, []string{
		".", "..",
		"001 - X - LP - High.mp3",
		"002 - X - LP - Low.mp3",
	}, entries, "ordinals follow playlist position, not track numbers")
}

func TestListDirLowercase(t *testing.T) {
	fs := newTestFS(t, testCatalog(), withLowercase())

	entries, err := fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "slash-burn", "the band"}, entries)

	entries, err = fs.ListDir(context.Background(), "/artists/the band/2009 - first light")
	require.NoError(t, err)
	assert.Contains(t, entries, "001 - intro.mp3")
	assert.Contains(t, entries, "cover.jpg")
}

func TestListDirIdempotent(t *testing.T) {
	fs := newTestFS(t, testCatalog())

	for _, path := range []string{"/", "/artists", "/playlists",
		"/artists/The Band", "/artists/The Band/2009 - First Light", "/playlists/Mix"} {
		first, err := fs.ListDir(context.Background(), path)
		require.NoError(t, err)
		second, err := fs.ListDir(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, first, second, path)
	}
}

func TestListDirOnFile(t *testing.T) {
	fs := newTestFS(t, testCatalog())
	_, err := fs.ListDir(context.Background(),
		"/artists/The Band/2009 - First Light/001 - Intro.mp3")
	assert.True(t, errors.IsNotFound(err))
}

// Every track reachable through an album listing must route back to
// itself, for the whole catalog.
func TestListingResolutionRoundTrip(t *testing.T) {
	fs := newTestFS(t, testCatalog())
	lib := fs.library()

	artists, err := fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)

	seen := 0
	for _, artistName := range artists[2:] {
		albums, err := fs.ListDir(context.Background(), "/artists/"+artistName)
		require.NoError(t, err)
		for _, albumName := range albums[2:] {
			albumPath := "/artists/" + artistName + "/" + albumName
			files, err := fs.ListDir(context.Background(), albumPath)
			require.NoError(t, err)
			for _, file := range files[2:] {
				if file == CoverFileName {
					continue
				}
				target, err := Resolve(lib, albumPath+"/"+file)
				require.NoError(t, err, "path %s must resolve", albumPath+"/"+file)
				require.NotNil(t, target.Track)
				seen++
			}
		}
	}
	assert.Equal(t, 3, seen, "every catalog track is reachable")
}

func TestOpenReadReleaseTrack(t *testing.T) {
	audio := bytes.Repeat([]byte{0xAB}, 300)
	fake := &gmusictest.Fake{
		Tracks: []gmusic.TrackRecord{
			{ID: "t1", Title: "Song", Artist: "Band", Album: "LP",
				TrackNumber: 1, EstimatedSize: int64(300 + id3v1.TagSize)},
		},
		Content: map[string][]byte{gmusictest.TrackURL("t1"): audio},
	}
	fs := newTestFS(t, fake)
	path := "/artists/Band/0000 - LP/001 - Song.mp3"

	fh, err := fs.Open(context.Background(), path)
	require.NoError(t, err)
	require.NotZero(t, fh)

	// One read spanning the whole file: audio plus synthesized trailer.
	buf := make([]byte, 300+id3v1.TagSize)
	n, err := fs.Read(context.Background(), path, buf, 0, fh)
	require.NoError(t, err)
	require.Equal(t, 300+id3v1.TagSize, n)

	assert.Equal(t, audio, buf[:300])
	trailer := buf[300:]
	assert.Equal(t, []byte("TAG"), trailer[0:3])
	assert.Equal(t, []byte("Song"), trailer[3:7])
	assert.Equal(t, []byte("Band"), trailer[33:37])
	assert.Equal(t, []byte("LP"), trailer[63:65])
	assert.Equal(t, byte(12), trailer[127], "genre byte is Other")

	require.NoError(t, fs.Release(context.Background(), path, fh))

	// The handle is gone after release.
	_, err = fs.Read(context.Background(), path, buf, 0, fh)
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.ErrCodeContractViolation, code)
}

func TestReadSequentialWindows(t *testing.T) {
	audio := make([]byte, 300)
	for i := range audio {
		audio[i] = byte(i)
	}
	fake := &gmusictest.Fake{
		Tracks: []gmusic.TrackRecord{
			{ID: "t1", Title: "Song", Artist: "Band", Album: "LP", TrackNumber: 1},
		},
		Content: map[string][]byte{gmusictest.TrackURL("t1"): audio},
	}
	fs := newTestFS(t, fake)
	path := "/artists/Band/0000 - LP/001 - Song.mp3"

	fh, err := fs.Open(context.Background(), path)
	require.NoError(t, err)

	// First window ends inside the audio payload: no trailer.
	first := make([]byte, 256)
	n, err := fs.Read(context.Background(), path, first, 0, fh)
	require.NoError(t, err)
	require.Equal(t, 256, n)
	assert.Equal(t, audio[:256], first)
	assert.NotContains(t, string(first), "TAG")

	// Final window covers the remaining 44 audio bytes plus the trailer.
	final := make([]byte, 44+id3v1.TagSize)
	n, err = fs.Read(context.Background(), path, final, 256, fh)
	require.NoError(t, err)
	require.Equal(t, 44+id3v1.TagSize, n)
	assert.Equal(t, audio[256:], final[:44])
	assert.Equal(t, []byte("TAG"), final[44:47])

	require.NoError(t, fs.Release(context.Background(), path, fh))
}

func TestReadWindowSmallerThanTrailer(t *testing.T) {
	audio := bytes.Repeat([]byte{0xCD}, 300)
	fake := &gmusictest.Fake{
		Tracks: []gmusic.TrackRecord{
			{ID: "t1", Title: "Song", Artist: "Band", Album: "LP", TrackNumber: 1},
		},
		Content: map[string][]byte{gmusictest.TrackURL("t1"): audio},
	}
	fs := newTestFS(t, fake)
	path := "/artists/Band/0000 - LP/001 - Song.mp3"

	fh, err := fs.Open(context.Background(), path)
	require.NoError(t, err)

	// Drain all but the last 20 audio bytes.
	head := make([]byte, 280)
	n, err := fs.Read(context.Background(), path, head, 0, fh)
	require.NoError(t, err)
	require.Equal(t, 280, n)

	// The window past the payload is smaller than the trailer: the
	// remaining audio comes back as a short count, never a partial
	// trailer.
	tail := make([]byte, 100)
	n, err = fs.Read(context.Background(), path, tail, 280, fh)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, audio[280:], tail[:20])
	assert.NotContains(t, string(tail[:n]), "TAG")

	require.NoError(t, fs.Release(context.Background(), path, fh))
}

func TestReadCoverHasNoTrailer(t *testing.T) {
	cover := bytes.Repeat([]byte{0xFF}, 64)
	fake := testCatalog()
	fake.Content = map[string][]byte{"http://art/fl.jpg": cover}
	fs := newTestFS(t, fake)
	path := "/artists/The Band/2009 - First Light/cover.jpg"

	fh, err := fs.Open(context.Background(), path)
	require.NoError(t, err)

	// Ask past the end: a short count comes back, nothing synthesized.
	buf := make([]byte, 256)
	n, err := fs.Read(context.Background(), path, buf, 0, fh)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	assert.Equal(t, cover, buf[:64])

	require.NoError(t, fs.Release(context.Background(), path, fh))
}

func TestOpenNotFound(t *testing.T) {
	fs := newTestFS(t, testCatalog())
	_, err := fs.Open(context.Background(), "/artists/Nobody/2000 - X/001 - Y.mp3")
	assert.True(t, errors.IsNotFound(err))

	// Directories are not streamable.
	_, err = fs.Open(context.Background(), "/artists/The Band")
	assert.True(t, errors.IsNotFound(err))
}

func TestOpenStreamFailure(t *testing.T) {
	fake := testCatalog()
	fake.OpenErr = errors.New(errors.ErrCodeStreamOpen, "remote refused")
	fs := newTestFS(t, fake)

	_, err := fs.Open(context.Background(),
		"/artists/The Band/2009 - First Light/001 - Intro.mp3")
	require.Error(t, err)
	assert.False(t, errors.IsNotFound(err))
}

func TestReleaseUnknownHandleIsNoOp(t *testing.T) {
	fs := newTestFS(t, testCatalog())
	assert.NoError(t, fs.Release(context.Background(), "/whatever", 42))
}

func TestRescanFailureKeepsCatalog(t *testing.T) {
	fake := testCatalog()
	fs := newTestFS(t, fake)

	fake.TracksErr = errors.New(errors.ErrCodeCatalogFetch, "feed down")
	err := fs.Rescan(context.Background())
	require.Error(t, err)

	// The previous catalog is still served.
	entries, err := fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)
	assert.Contains(t, entries, "The Band")
}

func TestSkipInitialScanMountsEmpty(t *testing.T) {
	scanner := library.Scanner{
		Service:  testCatalog(),
		DeviceID: "dev",
		Log:      zerolog.Nop(),
	}
	options := config.NewDefault()
	options.MountPoint = t.TempDir()
	fs := NewFileSystem(scanner, options, nil, zerolog.Nop())

	entries, err := fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, entries)

	// A later rescan fills the tree.
	require.NoError(t, fs.Rescan(context.Background()))
	entries, err = fs.ListDir(context.Background(), "/artists")
	require.NoError(t, err)
	assert.Contains(t, entries, "The Band")
}
