package timeline

import (
	"errors"

	"github.com/okian/wudao/internal/domain/report"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMalformedTimecode is the report package's sentinel, re-exported for callers
	// that only deal with playback.
	ErrMalformedTimecode = report.ErrMalformedTimecode
	// ErrSegmentNotFound indicates a jump to an index outside the segment list.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrNilPlayer indicates a Sync constructed without a playback source.
	ErrNilPlayer = errors.New("nil player")
	// ErrInvalidPosition indicates a negative or non-finite playback offset.
	ErrInvalidPosition = errors.New("invalid playback position")
	// ErrAnnotationNotFound indicates an unknown annotation id.
	ErrAnnotationNotFound = errors.New("annotation not found")
	// ErrInvalidAnnotation indicates an annotation missing its content.
	ErrInvalidAnnotation = errors.New("invalid annotation")
)
