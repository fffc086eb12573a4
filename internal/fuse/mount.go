package fuse

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/gmusicfs/gmusicfs/internal/config"
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// Manager owns the mounted lifetime of one filesystem host.
type Manager struct {
	host *fuse.FileSystemHost
	opts *config.Options
	log  zerolog.Logger

	mu      sync.Mutex
	mounted bool
}

// NewManager prepares a mount for the given operations core.
func NewManager(core Operations, opts *config.Options, log zerolog.Logger) *Manager {
	host := fuse.NewFileSystemHost(NewHost(core))
	return &Manager{
		host: host,
		opts: opts,
		log:  log.With().Str("component", "mount").Logger(),
	}
}

// Mount serves the filesystem at the configured mount point. It blocks
// until the filesystem is unmounted, mirroring how the kernel bridge
// drives operations from its own loop.
func (m *Manager) Mount() error {
	m.mu.Lock()
	if m.mounted {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeMountFailed, "filesystem already mounted")
	}
	m.mounted = true
	m.mu.Unlock()

	options := []string{
		"-o", "ro",
		"-o", "fsname=gmusicfs",
		"-o", "subtype=gmusicfs",
	}
	if m.opts.AllowOther {
		options = append(options, "-o", "allow_other")
	}

	m.log.Info().Str("mountpoint", m.opts.MountPoint).Msg("filesystem ready")
	if ok := m.host.Mount(m.opts.MountPoint, options); !ok {
		m.mu.Lock()
		m.mounted = false
		m.mu.Unlock()
		return errors.Newf(errors.ErrCodeMountFailed, "mount at %s failed", m.opts.MountPoint)
	}
	return nil
}

// Unmount detaches the filesystem. Safe to call from a signal handler
// while Mount is blocked serving.
func (m *Manager) Unmount() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mounted {
		return nil
	}
	if ok := m.host.Unmount(); !ok {
		return errors.Newf(errors.ErrCodeUnmountFailed, "unmount of %s failed", m.opts.MountPoint)
	}
	m.mounted = false
	m.log.Info().Str("mountpoint", m.opts.MountPoint).Msg("filesystem unmounted")
	return nil
}
