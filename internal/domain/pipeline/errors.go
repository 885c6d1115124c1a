package pipeline

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrEmptyArtifact indicates Start was called with nothing to analyze.
	ErrEmptyArtifact = errors.New("empty artifact")
	// ErrAlreadyRunning indicates Start was called while uploading or analyzing.
	ErrAlreadyRunning = errors.New("analysis already running")
)

// Failure reasons the pipeline itself produces.
const (
	ReasonInvalidReport = "invalid report"
	ReasonUploadFailed  = "upload failed"
)
