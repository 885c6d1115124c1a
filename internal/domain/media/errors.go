package media

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidMediaKind indicates a MIME type the intake does not accept.
	ErrInvalidMediaKind = errors.New("invalid media kind")
	// ErrEmptyFile indicates a file with no content.
	ErrEmptyFile = errors.New("empty file")
	// ErrMalformedDataURL indicates a capture frame that is not a base64 data URL.
	ErrMalformedDataURL = errors.New("malformed data url")
	// ErrUnknownKind indicates an intake kind other than image or video.
	ErrUnknownKind = errors.New("unknown intake kind")
)
