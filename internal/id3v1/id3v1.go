// Package id3v1 encodes the legacy 128-byte metadata block that players
// expect at the very end of an MP3 file. Streamed tracks have no file to
// append it to, so the filesystem synthesizes the block and splices it
// into the final read window.
package id3v1

// TagSize is the fixed encoded size of the trailer block. Reported track
// file sizes include it on top of the audio byte count.
const TagSize = 128

// GenreOther is the catch-all genre code. The remote service's genre
// strings are not part of this tag standard's vocabulary, so every track
// is tagged as Other.
const GenreOther = 12

// Tag is the metadata carried by one trailer block. Text fields are
// truncated or zero-padded to their fixed widths on encoding.
type Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Genre   byte
}

// Encode renders the tag as its fixed 128-byte wire form: a 3-byte "TAG"
// marker, 30-byte title, artist, and album fields, a 4-byte year, a
// 30-byte comment, and a single genre byte.
func (t Tag) Encode() []byte {
	buf := make([]byte, 0, TagSize)
	buf = append(buf, "TAG"...)
	buf = appendFixed(buf, t.Title, 30)
	buf = appendFixed(buf, t.Artist, 30)
	buf = appendFixed(buf, t.Album, 30)
	buf = appendFixed(buf, t.Year, 4)
	buf = appendFixed(buf, t.Comment, 30)
	buf = append(buf, t.Genre)
	return buf
}

func appendFixed(buf []byte, s string, width int) []byte {
	field := make([]byte, width)
	copy(field, s)
	return append(buf, field...)
}
