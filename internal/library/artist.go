package library

import (
	"sort"
	"strings"
)

// Artist groups albums under one display name. Album titles are unique
// per artist, case-insensitively.
type Artist struct {
	name     string
	normName string
	albums   map[string]*Album
}

func newArtist(name string) *Artist {
	return &Artist{
		name:     name,
		normName: FormatName(name),
		albums:   make(map[string]*Album),
	}
}

// Name is the artist's original catalog name.
func (ar *Artist) Name() string {
	return ar.name
}

// NormName is the formatted name used for directory names and lookups.
func (ar *Artist) NormName() string {
	return ar.normName
}

// Album resolves an album by formatted title, case-insensitively.
func (ar *Artist) Album(title string) (*Album, bool) {
	a, ok := ar.albums[strings.ToLower(title)]
	return a, ok
}

// Albums returns the artist's albums sorted by formatted title, so
// repeated enumerations yield identical output.
func (ar *Artist) Albums() []*Album {
	albums := make([]*Album, 0, len(ar.albums))
	for _, a := range ar.albums {
		albums = append(albums, a)
	}
	sort.Slice(albums, func(i, j int) bool {
		return albums[i].normTitle < albums[j].normTitle
	})
	return albums
}

func (ar *Artist) albumOrCreate(title string) *Album {
	key := strings.ToLower(FormatName(title))
	if a, ok := ar.albums[key]; ok {
		return a
	}
	a := newAlbum(title)
	ar.albums[key] = a
	return a
}
