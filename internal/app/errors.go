package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrSessionNotFound indicates an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotStarted indicates a call before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrTimelineUnavailable indicates a timeline request without a completed video report.
	ErrTimelineUnavailable = errors.New("timeline unavailable")
)
