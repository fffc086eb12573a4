package library

// Playlist is an ordered list of track references reproducing the
// server-declared order. Entries are never re-sorted; their virtual
// filenames encode the 1-based position in this list, not the track's own
// track number.
type Playlist struct {
	name    string
	dirname string
	tracks  []*Track
}

// Name is the playlist's original display name.
func (p *Playlist) Name() string {
	return p.name
}

// Dirname is the formatted, whitespace-trimmed directory name.
func (p *Playlist) Dirname() string {
	return p.dirname
}

// Tracks returns the playlist's tracks in server order.
func (p *Playlist) Tracks() []*Track {
	return p.tracks
}

// TrackAt resolves a 1-based playlist position.
func (p *Playlist) TrackAt(ordinal int) (*Track, bool) {
	if ordinal < 1 || ordinal > len(p.tracks) {
		return nil, false
	}
	return p.tracks[ordinal-1], true
}
