package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

func writeCredFile(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CredentialsFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	// Umask-proof the intended mode.
	require.NoError(t, os.Chmod(path, perm))
	return path
}

const validCreds = "username: user@example.com\npassword: hunter2\ndeviceId: 0x3d65f4f8291dba68\n"

func TestLoadCredentials(t *testing.T) {
	path := writeCredFile(t, validCreds, 0o600)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "3d65f4f8291dba68", creds.DeviceID, "0x prefix must be stripped")
}

func TestLoadCredentialsKeepsUnprefixedDeviceID(t *testing.T) {
	path := writeCredFile(t,
		"username: u\npassword: p\ndeviceId: 3d65f4f8291dba68\n", 0o600)

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "3d65f4f8291dba68", creds.DeviceID)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.ErrCodeNoCredentials, code)
}

func TestLoadCredentialsWidePermissions(t *testing.T) {
	for _, perm := range []os.FileMode{0o644, 0o640, 0o604, 0o666} {
		path := writeCredFile(t, validCreds, perm)
		_, err := LoadCredentials(path)
		require.Error(t, err, "mode %04o must be rejected", perm)
		code, _ := errors.CodeOf(err)
		assert.Equal(t, errors.ErrCodeCredentialsExposed, code)
	}
}

func TestLoadCredentialsOwnerOnlyModesAccepted(t *testing.T) {
	for _, perm := range []os.FileMode{0o600, 0o400} {
		path := writeCredFile(t, validCreds, perm)
		_, err := LoadCredentials(path)
		assert.NoError(t, err, "mode %04o must be accepted", perm)
	}
}

func TestLoadCredentialsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no username", "password: p\ndeviceId: d\n"},
		{"no password", "username: u\ndeviceId: d\n"},
		{"no device id", "username: u\npassword: p\n"},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCredFile(t, tt.content, 0o600)
			_, err := LoadCredentials(path)
			require.Error(t, err)
			code, _ := errors.CodeOf(err)
			assert.Equal(t, errors.ErrCodeNoCredentials, code)
		})
	}
}

func TestLoadLoginCredentialsWithoutDeviceID(t *testing.T) {
	// Listing registered devices is how the deviceId gets discovered in
	// the first place, so it must load without one.
	path := writeCredFile(t, "username: u\npassword: p\n", 0o600)

	creds, err := LoadLoginCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "u", creds.Username)
	assert.Equal(t, "p", creds.Password)
	assert.Empty(t, creds.DeviceID)
}

func TestLoadLoginCredentialsStillValidates(t *testing.T) {
	path := writeCredFile(t, "username: u\npassword: p\n", 0o644)
	_, err := LoadLoginCredentials(path)
	require.Error(t, err)
	code, _ := errors.CodeOf(err)
	assert.Equal(t, errors.ErrCodeCredentialsExposed, code)

	path = writeCredFile(t, "password: p\n", 0o600)
	_, err = LoadLoginCredentials(path)
	require.Error(t, err)
	code, _ = errors.CodeOf(err)
	assert.Equal(t, errors.ErrCodeNoCredentials, code)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{"defaults with mount point", func(o *Options) {}, false},
		{"missing mount point", func(o *Options) { o.MountPoint = "" }, true},
		{"verbosity out of range", func(o *Options) { o.Verbosity = 3 }, true},
		{"negative metrics port", func(o *Options) { o.MetricsPort = -1 }, true},
		{"metrics port too large", func(o *Options) { o.MetricsPort = 70000 }, true},
		{"zero placeholder size", func(o *Options) { o.CoverPlaceholderSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewDefault()
			opts.MountPoint = "/mnt/music"
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
