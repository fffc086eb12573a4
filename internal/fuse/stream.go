package fuse

import (
	"io"
	"sync"

	"github.com/gmusicfs/gmusicfs/internal/gmusic"
	"github.com/gmusicfs/gmusicfs/internal/id3v1"
	"github.com/gmusicfs/gmusicfs/internal/library"
)

// session is one open streaming read: the remote byte stream plus the
// cumulative count of bytes handed to the reader. Reads are strictly
// sequential; nothing already delivered is buffered.
type session struct {
	stream    *gmusic.Stream
	track     *library.Track // nil for cover images
	bytesRead int64
}

// sessionTable maps bridge-issued handles to active sessions. Two
// operations may target different handles concurrently, so the table is
// mutex-guarded; a single handle's open/read/release sequence is ordered
// by the caller.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[uint64]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[uint64]*session)}
}

func (st *sessionTable) put(fh uint64, s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[fh] = s
}

func (st *sessionTable) get(fh uint64) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[fh]
	return s, ok
}

func (st *sessionTable) remove(fh uint64) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[fh]
	if ok {
		delete(st.sessions, fh)
	}
	return s, ok
}

// read fills buf for the window starting at offset. When the window
// extends past the end of the true audio payload of a track, the last
// trailer-sized slice of the window is synthesized instead of read from
// the network: the remote file ends at ContentLength but readers size
// their reads for ContentLength plus the trailer. The trailer is only
// ever delivered whole; a final window smaller than the trailer gets the
// remaining audio bytes and a short count.
func (s *session) read(buf []byte, offset int64) (int, error) {
	size := len(buf)
	spliceTrailer := s.track != nil &&
		s.stream.ContentLength >= 0 &&
		offset+int64(size) > s.stream.ContentLength &&
		size >= id3v1.TagSize

	n := 0
	var err error
	if spliceTrailer {
		n, err = readAvailable(s.stream.Body, buf[:size-id3v1.TagSize])
		if err != nil {
			return 0, err
		}
		n += copy(buf[n:], s.trailer())
	} else {
		n, err = readAvailable(s.stream.Body, buf)
		if err != nil {
			return 0, err
		}
	}
	s.bytesRead += int64(size)
	return n, nil
}

// trailer builds the track's synthesized metadata block. The year slot
// is rendered as a literal zero and the genre is always Other; the
// service's own genre vocabulary has no place in this tag format.
func (s *session) trailer() []byte {
	return id3v1.Tag{
		Title:   s.track.Title,
		Artist:  s.track.Artist,
		Album:   s.track.Album,
		Year:    "0",
		Comment: s.track.Comment,
		Genre:   id3v1.GenreOther,
	}.Encode()
}

// readAvailable reads exactly len(buf) bytes unless the stream ends
// first, in which case the short count is returned without error.
func readAvailable(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}
