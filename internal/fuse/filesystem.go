package fuse

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gmusicfs/gmusicfs/internal/config"
	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/internal/metrics"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// Operations is the path-keyed callback set the kernel bridge drives.
// NotFound errors map to the bridge's missing-entry signal; every other
// error maps to a generic I/O failure for that call only.
type Operations interface {
	GetAttr(ctx context.Context, path string) (Attr, error)
	ListDir(ctx context.Context, path string) ([]string, error)
	Open(ctx context.Context, path string) (uint64, error)
	Read(ctx context.Context, path string, buf []byte, offset int64, fh uint64) (int, error)
	Release(ctx context.Context, path string, fh uint64) error
}

// FileSystem implements Operations over the aggregated catalog. The
// catalog reference is swapped atomically on rescan so in-flight
// operations never observe a partially built graph.
type FileSystem struct {
	lib     atomic.Pointer[library.Library]
	scanner library.Scanner

	sessions   *sessionTable
	nextHandle atomic.Uint64

	transform            func(string) string
	coverPlaceholderSize int64

	metrics *metrics.Collector
	log     zerolog.Logger
}

var _ Operations = (*FileSystem)(nil)

// NewFileSystem builds the filesystem core around a catalog scanner.
// The initial catalog is the scanner's empty library; call Rescan to
// aggregate.
func NewFileSystem(scanner library.Scanner, opts *config.Options,
	collector *metrics.Collector, log zerolog.Logger) *FileSystem {

	f := &FileSystem{
		scanner:              scanner,
		sessions:             newSessionTable(),
		transform:            identity,
		coverPlaceholderSize: opts.CoverPlaceholderSize,
		metrics:              collector,
		log:                  log.With().Str("component", "fuse").Logger(),
	}
	if opts.Lowercase {
		f.transform = strings.ToLower
	}
	f.lib.Store(scanner.Empty())
	return f
}

func identity(s string) string { return s }

// library returns the current catalog snapshot.
func (f *FileSystem) library() *library.Library {
	return f.lib.Load()
}

// Rescan aggregates a fresh catalog and installs it atomically. A fetch
// failure leaves the previous catalog in place.
func (f *FileSystem) Rescan(ctx context.Context) error {
	lib, err := f.scanner.Scan(ctx)
	if err != nil {
		return err
	}
	f.lib.Store(lib)
	f.metrics.SetCatalogTracks(lib.TrackCount())
	f.log.Info().Msg("catalog installed")
	return nil
}

// GetAttr resolves path and synthesizes its attributes.
func (f *FileSystem) GetAttr(ctx context.Context, path string) (attr Attr, err error) {
	defer func(start time.Time) { f.metrics.RecordOperation("getattr", start, err) }(time.Now())

	target, err := Resolve(f.library(), path)
	if err != nil {
		return Attr{}, err
	}
	return f.attrFor(ctx, target)
}

// ListDir resolves a directory-shaped path and enumerates it.
func (f *FileSystem) ListDir(ctx context.Context, path string) (entries []string, err error) {
	defer func(start time.Time) { f.metrics.RecordOperation("readdir", start, err) }(time.Now())

	target, err := Resolve(f.library(), path)
	if err != nil {
		return nil, err
	}
	if !target.Kind.IsDir() {
		return nil, errors.New(errors.ErrCodeNotFound, "not a directory").WithPath(path)
	}
	return f.listDir(ctx, target)
}

// Open resolves path to a remote content URL, issues the blocking
// streaming GET, and registers the session under a fresh handle.
func (f *FileSystem) Open(ctx context.Context, path string) (fh uint64, err error) {
	defer func(start time.Time) { f.metrics.RecordOperation("open", start, err) }(time.Now())

	lib := f.library()
	target, err := Resolve(lib, path)
	if err != nil {
		return 0, err
	}

	var (
		url   string
		track *library.Track
	)
	switch target.Kind {
	case KindTrackFile, KindPlaylistTrackFile:
		track = target.Track
		url, err = lib.StreamURL(ctx, track)
		if err != nil {
			return 0, err
		}
	case KindCoverFile:
		url = target.Album.CoverURL()
		if url == "" {
			return 0, errors.New(errors.ErrCodeNotFound, "album has no cover").WithPath(path)
		}
	default:
		return 0, errors.New(errors.ErrCodeNotFound, "not a streamable file").WithPath(path)
	}

	stream, err := lib.OpenStream(ctx, url)
	if err != nil {
		return 0, err
	}

	fh = f.nextHandle.Add(1)
	f.sessions.put(fh, &session{stream: stream, track: track})
	f.metrics.StreamOpened()
	f.log.Debug().Str("path", path).Uint64("fh", fh).Msg("stream opened")
	return fh, nil
}

// Read delivers the next window of the handle's stream, splicing the
// synthesized trailer into a track's final window.
func (f *FileSystem) Read(ctx context.Context, path string, buf []byte, offset int64, fh uint64) (n int, err error) {
	defer func(start time.Time) { f.metrics.RecordOperation("read", start, err) }(time.Now())

	s, ok := f.sessions.get(fh)
	if !ok {
		// Reading a handle that was never opened is caller misuse,
		// not a user condition.
		f.log.Error().Str("path", path).Uint64("fh", fh).Msg("read on unknown handle")
		return 0, errors.New(errors.ErrCodeContractViolation, "read on unknown handle").WithPath(path)
	}

	n, err = s.read(buf, offset)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStreamRead, "stream read", err).WithPath(path)
	}
	f.metrics.AddBytesStreamed(n)
	return n, nil
}

// Release closes and discards the handle's stream. Releasing an unknown
// handle is a no-op.
func (f *FileSystem) Release(ctx context.Context, path string, fh uint64) (err error) {
	defer func(start time.Time) { f.metrics.RecordOperation("release", start, err) }(time.Now())

	s, ok := f.sessions.remove(fh)
	if !ok {
		return nil
	}
	if cerr := s.stream.Close(); cerr != nil {
		f.log.Warn().Err(cerr).Uint64("fh", fh).Msg("closing stream")
	}
	f.metrics.StreamClosed()
	f.log.Debug().Uint64("fh", fh).Int64("bytes_read", s.bytesRead).Msg("stream released")
	return nil
}
