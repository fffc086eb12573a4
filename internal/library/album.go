package library

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Album is an ordered collection of tracks under one artist. Albums are
// identified within their artist by the case-insensitive formatted title.
type Album struct {
	title     string
	normTitle string

	tracks []*Track
	sorted bool

	// coverSize caches the probed cover content length, zero while
	// unknown.
	coverSize atomic.Int64
}

func newAlbum(title string) *Album {
	return &Album{
		title:     title,
		normTitle: FormatName(title),
		sorted:    true,
	}
}

// Title is the album's original catalog title.
func (a *Album) Title() string {
	return a.title
}

// NormTitle is the formatted title used for directory names and lookups.
func (a *Album) NormTitle() string {
	return a.normTitle
}

func (a *Album) addTrack(t *Track) {
	a.tracks = append(a.tracks, t)
	a.sorted = false
}

// Tracks returns the album's tracks ordered by track number. The sort is
// applied lazily after inserts and is stable, so equal track numbers keep
// their aggregation order.
func (a *Album) Tracks() []*Track {
	if !a.sorted {
		sort.SliceStable(a.tracks, func(i, j int) bool {
			return a.tracks[i].TrackNumber < a.tracks[j].TrackNumber
		})
		a.sorted = true
	}
	return a.tracks
}

// TrackNamed resolves a track by its formatted title, case-insensitively.
func (a *Album) TrackNamed(title string) (*Track, bool) {
	want := strings.ToLower(title)
	for _, t := range a.Tracks() {
		if strings.ToLower(FormatName(t.Title)) == want {
			return t, true
		}
	}
	return nil, false
}

// CoverURL is the album's cover-art URL, taken from the first track that
// carries one. Empty when no track has art.
func (a *Album) CoverURL() string {
	for _, t := range a.Tracks() {
		if t.ArtURL != "" {
			return t.ArtURL
		}
	}
	return ""
}

// CoverSize returns the probed cover content length and whether a probe
// has completed.
func (a *Album) CoverSize() (int64, bool) {
	n := a.coverSize.Load()
	return n, n != 0
}

// SetCoverSize records a probed cover content length. The first
// successful probe wins for the process lifetime.
func (a *Album) SetCoverSize(n int64) {
	a.coverSize.CompareAndSwap(0, n)
}

// Year is the album's representative year: the most frequent non-zero
// track year, ties broken by which year was seen first in track order.
// Zero when no track carries a year.
func (a *Album) Year() int {
	type yearCount struct {
		year  int
		count int
	}
	var counts []yearCount
	index := make(map[int]int)
	for _, t := range a.Tracks() {
		if t.Year == 0 {
			continue
		}
		if i, ok := index[t.Year]; ok {
			counts[i].count++
			continue
		}
		index[t.Year] = len(counts)
		counts = append(counts, yearCount{year: t.Year, count: 1})
	}
	if len(counts) == 0 {
		return 0
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	return counts[0].year
}
