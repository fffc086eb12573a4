package fuse

import (
	"context"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// Host adapts the Operations core to the cgofuse callback contract.
// Everything the kernel sends arrives here; errors are folded to the two
// errno values the bridge understands.
type Host struct {
	fuse.FileSystemBase

	core Operations
}

// NewHost wraps an Operations implementation for mounting.
func NewHost(core Operations) *Host {
	return &Host{core: core}
}

// Getattr gets file attributes.
func (h *Host) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	attr, err := h.core.GetAttr(context.Background(), path)
	if err != nil {
		return errnoFor(err)
	}
	fillStat(stat, attr)
	return 0
}

// Readdir reads directory contents.
func (h *Host) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	entries, err := h.core.ListDir(context.Background(), path)
	if err != nil {
		return errnoFor(err)
	}
	for _, name := range entries {
		if !fill(name, nil, 0) {
			break
		}
	}
	return 0
}

// Open opens a file and returns the session handle.
func (h *Host) Open(path string, flags int) (int, uint64) {
	fh, err := h.core.Open(context.Background(), path)
	if err != nil {
		return errnoFor(err), ^uint64(0)
	}
	return 0, fh
}

// Read reads from an open file.
func (h *Host) Read(path string, buff []byte, ofst int64, fh uint64) int {
	n, err := h.core.Read(context.Background(), path, buff, ofst, fh)
	if err != nil {
		return errnoFor(err)
	}
	return n
}

// Release closes an open file.
func (h *Host) Release(path string, fh uint64) int {
	if err := h.core.Release(context.Background(), path, fh); err != nil {
		return errnoFor(err)
	}
	return 0
}

func fillStat(stat *fuse.Stat_t, attr Attr) {
	if attr.Dir {
		stat.Mode = fuse.S_IFDIR | 0o755
	} else {
		stat.Mode = fuse.S_IFREG | 0o444
	}
	stat.Size = attr.Size
	stat.Nlink = attr.Nlink
	stat.Ctim = fuse.NewTimespec(attr.Ctime)
	stat.Mtim = fuse.NewTimespec(attr.Mtime)
	stat.Atim = fuse.NewTimespec(attr.Atime)
}

// errnoFor maps a structured error to the bridge's signal: missing
// entries are ENOENT, everything else is a generic I/O failure.
func errnoFor(err error) int {
	if errors.IsNotFound(err) {
		return -fuse.ENOENT
	}
	return -fuse.EIO
}
