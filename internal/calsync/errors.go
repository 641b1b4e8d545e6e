// internal/calsync/errors.go
package calsync

import "errors"

var (
	// ErrNotConnected — the user has no Google Calendar credential.
	ErrNotConnected = errors.New("Not connected to Google Calendar")

	// ErrNotConfigured — the user has no enabled sync settings; setup
	// must run first.
	ErrNotConfigured = errors.New("Google Calendar sync is not configured. Run setup first")
)
