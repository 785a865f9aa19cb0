package domain

import "errors"

var (
	// ErrProcessNotFound is returned when the target process is not running.
	ErrProcessNotFound = errors.New("process not found")

	// ErrUnsupportedPlatform is returned by OS integrations on non-Windows builds.
	ErrUnsupportedPlatform = errors.New("not supported on this platform")

	// ErrAlreadyStarted is returned when a component is started twice.
	ErrAlreadyStarted = errors.New("already started")

	// ErrInstanceRunning is returned when another instance owns the control channel.
	ErrInstanceRunning = errors.New("another instance is already running")
)
