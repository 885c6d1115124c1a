package report

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidReport indicates a score outside [0,100] or a broken segment order.
	ErrInvalidReport = errors.New("invalid report")
	// ErrMalformedTimecode indicates a segment boundary that is not m:ss.
	ErrMalformedTimecode = errors.New("malformed timecode")
)
