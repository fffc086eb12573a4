package config

import (
	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// DefaultCoverPlaceholderSize is the size reported for cover images when
// exact-size probing is off. It is deliberately large so readers can map
// the file before the true length is known; it carries no meaning beyond
// that.
const DefaultCoverPlaceholderSize = 10000000

// Options are the mount-time settings recognized by gmusicfs.
type Options struct {
	// MountPoint is the directory the filesystem is mounted on.
	MountPoint string `yaml:"mount_point"`

	// CredentialsPath overrides the default ~/.gmusicfs location.
	CredentialsPath string `yaml:"credentials_path"`

	// TrueFileSize pays a network probe per file for exact sizes
	// instead of the service's estimates.
	TrueFileSize bool `yaml:"true_file_size"`

	// Lowercase folds every rendered path segment to lower case.
	Lowercase bool `yaml:"lowercase"`

	// AllowOther widens mount visibility to all users. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other"`

	// SkipInitialScan mounts an empty tree and defers catalog
	// aggregation until a rescan is requested.
	SkipInitialScan bool `yaml:"skip_initial_scan"`

	// Foreground keeps the process attached to the terminal.
	Foreground bool `yaml:"foreground"`

	// Verbosity: 0 warnings, 1 info, 2 debug.
	Verbosity int `yaml:"verbosity"`

	// MetricsPort serves prometheus metrics when non-zero.
	MetricsPort int `yaml:"metrics_port"`

	// CoverPlaceholderSize is the reported cover size when probing is
	// off.
	CoverPlaceholderSize int64 `yaml:"cover_placeholder_size"`
}

// NewDefault returns the default mount options.
func NewDefault() *Options {
	return &Options{
		CoverPlaceholderSize: DefaultCoverPlaceholderSize,
	}
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	if o.MountPoint == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "mount point is required")
	}
	if o.Verbosity < 0 || o.Verbosity > 2 {
		return errors.New(errors.ErrCodeInvalidConfig, "verbosity must be 0, 1 or 2")
	}
	if o.MetricsPort < 0 || o.MetricsPort > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "metrics port must be a valid TCP port")
	}
	if o.CoverPlaceholderSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cover placeholder size must be positive")
	}
	return nil
}
