package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/gmusicfs/gmusicfs/pkg/errors"
)

// CredentialsFileName is the default credentials file under the user's
// home directory.
const CredentialsFileName = ".gmusicfs"

// Credentials holds the account identity used to log in to the music
// service and the registered device id used for stream-URL issuance.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DeviceID string `yaml:"deviceId"`
}

// DefaultCredentialsPath returns the default credentials file location.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNoCredentials, "resolve home directory", err)
	}
	return filepath.Join(home, CredentialsFileName), nil
}

// LoadCredentials reads and validates the credentials file at path. A
// missing file, a file readable by group or others, or a missing field is
// reported as a credential error; nothing ever silently defaults.
func LoadCredentials(path string) (*Credentials, error) {
	creds, err := loadCredentialsFile(path)
	if err != nil {
		return nil, err
	}
	if creds.DeviceID == "" {
		return nil, errors.Newf(errors.ErrCodeNoCredentials,
			"no deviceId could be read from %s", path)
	}
	creds.DeviceID = strings.TrimPrefix(creds.DeviceID, "0x")
	return creds, nil
}

// LoadLoginCredentials reads only the account identity from path. The
// device-listing mode runs before a deviceId exists, so only username and
// password are required; the permission gate still applies.
func LoadLoginCredentials(path string) (*Credentials, error) {
	return loadCredentialsFile(path)
}

func loadCredentialsFile(path string) (*Credentials, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.Newf(errors.ErrCodeNoCredentials,
			"no credentials file at %s; create it with your username, password and deviceId and chmod 600 it", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNoCredentials,
			fmt.Sprintf("stat %s", path), err)
	}

	// Refuse to use the file before reading a byte of it if anyone but
	// the owner can see it.
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return nil, errors.Newf(errors.ErrCodeCredentialsExposed,
			"credentials file %s has mode %04o; run: chmod 600 %s", path, perm, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNoCredentials,
			fmt.Sprintf("read %s", path), err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNoCredentials,
			fmt.Sprintf("parse %s", path), err)
	}

	if creds.Username == "" || creds.Password == "" {
		return nil, errors.Newf(errors.ErrCodeNoCredentials,
			"no username/password could be read from %s", path)
	}

	return &creds, nil
}
