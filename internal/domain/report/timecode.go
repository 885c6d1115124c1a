package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Timecode is a playback offset written as m:ss, e.g. "0:09" or "12:30".
type Timecode string

// Seconds parses the timecode. Minutes are unbounded, seconds must be two
// digits below 60. No check is made against the artifact duration.
func (t Timecode) Seconds() (int, error) {
	mm, ss, ok := strings.Cut(string(t), ":")
	if !ok || mm == "" || len(ss) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, string(t))
	}
	minutes, err := parseDigits(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, string(t))
	}
	seconds, err := parseDigits(ss)
	if err != nil || seconds >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, string(t))
	}
	return minutes*60 + seconds, nil
}

// FormatTimecode renders whole seconds as m:ss.
func FormatTimecode(seconds int) Timecode {
	if seconds < 0 {
		seconds = 0
	}
	return Timecode(fmt.Sprintf("%d:%02d", seconds/60, seconds%60))
}

// parseDigits rejects signs and spaces that strconv.Atoi would let through.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
