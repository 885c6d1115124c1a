// Package timeline maps a playback position onto the scored segments of a
// video report and drives the external player for jump-to-segment.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/pkg/metrics"
)

// ParseTimecode converts m:ss to seconds (minutes*60 + seconds).
func ParseTimecode(s string) (int, error) {
	return report.Timecode(s).Seconds()
}

type span struct {
	start, end float64
}

// Highlight is the result of observing a playback position.
type Highlight struct {
	// Index is the segment containing the position, or -1 in a gap.
	Index   int
	Segment report.Segment
	// Changed reports whether Index differs from the previous observation.
	Changed bool
}

// Found reports whether the position fell inside a segment.
func (h Highlight) Found() bool { return h.Index >= 0 }

// Sync binds an ordered segment list to a player.
type Sync struct {
	mu       sync.Mutex
	segments []report.Segment
	spans    []span
	player   Player
	playing  bool
	current  int
}

// New validates the segments and binds them to player. Segments must be
// well formed, disjoint and increasing, the same rules a report obeys.
func New(segments []report.Segment, player Player) (*Sync, error) {
	if player == nil {
		return nil, ErrNilPlayer
	}
	if err := (report.Report{Segments: segments}).Validate(); err != nil {
		return nil, err
	}
	s := &Sync{
		segments: make([]report.Segment, len(segments)),
		spans:    make([]span, len(segments)),
		player:   player,
		current:  -1,
	}
	copy(s.segments, segments)
	for i, seg := range segments {
		start, end, _ := seg.Bounds()
		s.spans[i] = span{start: float64(start), end: float64(end)}
	}
	return s, nil
}

// Segments returns a copy of the bound segments.
func (s *Sync) Segments() []report.Segment {
	out := make([]report.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// CurrentSegment returns the unique segment whose [start, end) contains
// position, or false when position falls in a gap.
func (s *Sync) CurrentSegment(position float64) (report.Segment, bool) {
	i := s.indexOf(position)
	if i < 0 {
		return report.Segment{}, false
	}
	return s.segments[i], true
}

func (s *Sync) indexOf(position float64) int {
	i := sort.Search(len(s.spans), func(i int) bool { return s.spans[i].end > position })
	if i < len(s.spans) && s.spans[i].start <= position {
		return i
	}
	return -1
}

// Observe resolves position and records it as the highlighted segment.
func (s *Sync) Observe(position float64) Highlight {
	i := s.indexOf(position)

	s.mu.Lock()
	changed := i != s.current
	s.current = i
	s.mu.Unlock()

	h := Highlight{Index: i, Changed: changed}
	if i >= 0 {
		h.Segment = s.segments[i]
	}
	return h
}

// JumpTo seeks the player to the segment's start and resumes playback if
// it was paused.
func (s *Sync) JumpTo(seg report.Segment) error {
	start, err := seg.Start.Seconds()
	if err != nil {
		return fmt.Errorf("jump to %q: %w", seg.Name, err)
	}
	return s.JumpToPosition(float64(start))
}

// JumpToPosition seeks to an arbitrary offset in seconds and resumes playback
// if it was paused. Offsets past the last segment are allowed; the player
// knows the real duration.
func (s *Sync) JumpToPosition(seconds float64) error {
	if !validPosition(seconds) {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, seconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Seek(seconds)
	metrics.RecordTimelineSeek()
	if !s.playing {
		s.player.Play()
		s.playing = true
	}
	return nil
}

func validPosition(seconds float64) bool {
	return seconds >= 0 && !math.IsInf(seconds, 1)
}

// JumpToIndex jumps to the i-th bound segment.
func (s *Sync) JumpToIndex(i int) (report.Segment, error) {
	if i < 0 || i >= len(s.segments) {
		return report.Segment{}, fmt.Errorf("%w: index %d of %d", ErrSegmentNotFound, i, len(s.segments))
	}
	seg := s.segments[i]
	return seg, s.JumpTo(seg)
}

// TogglePlay pauses a playing player or resumes a paused one.
func (s *Sync) TogglePlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.player.Pause()
	} else {
		s.player.Play()
	}
	s.playing = !s.playing
	return s.playing
}

// SetPlaying consumes a play/pause change emitted by the player itself.
func (s *Sync) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = playing
}

// Playing reports the current play indicator.
func (s *Sync) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
