package fuse

import (
	"context"
	"time"

	"github.com/gmusicfs/gmusicfs/internal/library"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// Attr is the synthesized metadata for one virtual entry, independent of
// the kernel bridge's stat layout.
type Attr struct {
	Dir   bool
	Size  int64
	Nlink uint32
	Ctime time.Time
	Mtime time.Time
	Atime time.Time
}

// Directories report epoch-zero timestamps so mirroring tools treat
// remote content as never newer than a local copy.
var epochZero = time.Unix(0, 0)

func dirAttr() Attr {
	return Attr{
		Dir:   true,
		Nlink: 2,
		Ctime: epochZero,
		Mtime: epochZero,
		Atime: epochZero,
	}
}

func trackAttr(t *library.Track) Attr {
	return Attr{
		Size:  t.Size(),
		Nlink: 1,
		Ctime: t.CreationTime(),
		Mtime: t.CreationTime(),
		Atime: t.RecentTime(),
	}
}

// attrFor computes attributes for a resolved target. Covers are the one
// case with a side effect: in true-size mode the cover URL is probed (and
// cached on the album) so the reported size is exact.
func (f *FileSystem) attrFor(ctx context.Context, target Target) (Attr, error) {
	if target.Kind.IsDir() {
		return dirAttr(), nil
	}

	switch target.Kind {
	case KindTrackFile, KindPlaylistTrackFile:
		return trackAttr(target.Track), nil

	case KindCoverFile:
		if target.Album.CoverURL() == "" {
			return Attr{}, errors.New(errors.ErrCodeNotFound, "album has no cover")
		}
		size := f.coverPlaceholderSize
		if lib := f.library(); lib.TrueFileSize() {
			probed, err := lib.EnsureCoverSize(ctx, target.Album)
			if err != nil {
				return Attr{}, err
			}
			size = probed
		}
		return Attr{
			Size:  size,
			Nlink: 1,
			Ctime: epochZero,
			Mtime: epochZero,
			Atime: epochZero,
		}, nil
	}
	return Attr{}, errors.New(errors.ErrCodeNotFound, "no such entry")
}
