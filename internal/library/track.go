package library

import (
	"sync/atomic"
	"time"

	"github.com/gmusicfs/gmusicfs/internal/gmusic"
)

// Track is one catalog track. All fields are fixed at aggregation time;
// only the probed exact size is populated later, at most once.
type Track struct {
	ID          string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	Year        int
	Comment     string
	ArtURL      string

	// EstimatedSize is the service's approximate audio byte count,
	// reported as the file size until an exact probe has run.
	EstimatedSize int64

	creationMicros int64
	recentMicros   int64

	// exactSize is the probed remote content length plus the trailer
	// size, zero while unknown.
	exactSize atomic.Int64
}

func newTrack(rec gmusic.TrackRecord) *Track {
	return &Track{
		ID:             rec.ID,
		Title:          rec.Title,
		Artist:         rec.Artist,
		AlbumArtist:    rec.AlbumArtist,
		Album:          rec.Album,
		TrackNumber:    rec.TrackNumber,
		Year:           rec.Year,
		Comment:        rec.Comment,
		ArtURL:         rec.AlbumArtURL,
		EstimatedSize:  rec.EstimatedSize,
		creationMicros: rec.CreationTimestamp,
		recentMicros:   rec.RecentTimestamp,
	}
}

// ExactSize returns the probed full file size (audio plus trailer) and
// whether a probe has completed.
func (t *Track) ExactSize() (int64, bool) {
	n := t.exactSize.Load()
	return n, n != 0
}

// SetExactSize records a probed full file size. The first successful
// probe wins for the process lifetime.
func (t *Track) SetExactSize(n int64) {
	t.exactSize.CompareAndSwap(0, n)
}

// Size is the byte count to report for the track's virtual file: the
// probed exact size when known, else the service's estimate.
func (t *Track) Size() int64 {
	if n, ok := t.ExactSize(); ok {
		return n
	}
	return t.EstimatedSize
}

// CreationTime returns the catalog's creation timestamp, or a zero time
// when the feed omitted it.
func (t *Track) CreationTime() time.Time {
	return microsToTime(t.creationMicros)
}

// RecentTime returns the catalog's last-played timestamp, or a zero time
// when the feed omitted it.
func (t *Track) RecentTime() time.Time {
	return microsToTime(t.recentMicros)
}

// Feed timestamps are epoch microseconds; attributes want seconds. A
// missing timestamp stays at the epoch.
func microsToTime(micros int64) time.Time {
	if micros == 0 {
		return time.Unix(0, 0)
	}
	return time.Unix(micros/1e6, 0)
}
