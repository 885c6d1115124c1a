package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrScorerUnavailable indicates the remote scorer cannot be reached or its breaker is open.
	ErrScorerUnavailable = errors.New("scorer unavailable")
	// ErrBackpressure indicates the scoring queue is full.
	ErrBackpressure = errors.New("scoring queue full")
	// ErrNoReport indicates a successful response that carried no report.
	ErrNoReport = errors.New("scorer returned no report")
)

// Reasons shown to users for failures that carry no scorer message.
const (
	ReasonBusy        = "analysis service busy"
	ReasonUnavailable = "analysis service unavailable"
	ReasonFailed      = "analysis failed"
)

// RejectedError is a failure the scorer explained itself. Reason is safe to show.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("scorer rejected artifact: %s", e.Reason)
}

// Reason turns a scorer error into a user-displayable string.
func Reason(err error) string {
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected) && rejected.Reason != "":
		return rejected.Reason
	case errors.Is(err, ErrBackpressure):
		return ReasonBusy
	case errors.Is(err, ErrScorerUnavailable):
		return ReasonUnavailable
	default:
		return ReasonFailed
	}
}
