/*
Package config provides configuration management for gmusicfs.

Two inputs are handled: the credentials file (username, password, and the
registered device id, refused unless readable only by its owner) and the
mount-time options assembled from command-line flags. Both are validated
before any network call is attempted.

Credentials file format (default ~/.gmusicfs):

	username: someone@example.com
	password: app-password
	deviceId: 0x3d65f4f8291dba68

The 0x prefix on the device id is accepted and stripped.
*/
package config
