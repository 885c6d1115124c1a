// Package report holds the typed result of an analysis run and the rules a
// scorer's output must satisfy before it is shown to anyone.
package report

import (
	"fmt"
	"maps"
	"slices"
)

// Score bounds shared by overall, metric and segment scores.
const (
	MinScore = 0
	MaxScore = 100
)

// Metric names a sub-score.
type Metric string

// Metric names produced by the scorers.
const (
	MetricPoseAccuracy Metric = "pose_accuracy"
	MetricBalance      Metric = "balance"
	MetricPower        Metric = "power"
	MetricSpeed        Metric = "speed"
	MetricSmoothness   Metric = "smoothness"
	MetricRhythm       Metric = "rhythm"
)

// ImageMetrics and VideoMetrics list the sub-scores expected per artifact kind,
// in display order.
var (
	ImageMetrics = []Metric{MetricPoseAccuracy, MetricBalance, MetricPower, MetricSpeed}
	VideoMetrics = []Metric{MetricPoseAccuracy, MetricSmoothness, MetricBalance, MetricPower, MetricRhythm}
)

// Segment is a scored sub-range of a video artifact.
type Segment struct {
	Start       Timecode `json:"start"`
	End         Timecode `json:"end"`
	Name        string   `json:"name"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Bounds returns the segment's [start, end) in seconds.
func (s Segment) Bounds() (start, end int, err error) {
	if start, err = s.Start.Seconds(); err != nil {
		return 0, 0, err
	}
	if end, err = s.End.Seconds(); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Report is the outcome of one analysis run. Segments are only set for video.
type Report struct {
	OverallScore int            `json:"overall_score"`
	Metrics      map[Metric]int `json:"metrics"`
	Issues       []string       `json:"issues"`
	Suggestions  []string       `json:"suggestions"`
	Segments     []Segment      `json:"segments,omitempty"`
}

// Option applies a configuration option to a Report under construction.
type Option func(*Report)

// WithIssues sets the report-level issues.
func WithIssues(issues ...string) Option {
	return func(r *Report) { r.Issues = slices.Clone(issues) }
}

// WithSuggestions sets the report-level suggestions.
func WithSuggestions(suggestions ...string) Option {
	return func(r *Report) { r.Suggestions = slices.Clone(suggestions) }
}

// WithSegments sets the ordered video segments.
func WithSegments(segments ...Segment) Option {
	return func(r *Report) { r.Segments = cloneSegments(segments) }
}

// New builds and validates a report. The inputs are copied.
func New(overall int, metrics map[Metric]int, opts ...Option) (Report, error) {
	r := Report{
		OverallScore: overall,
		Metrics:      maps.Clone(metrics),
		Issues:       []string{},
		Suggestions:  []string{},
	}
	if r.Metrics == nil {
		r.Metrics = map[Metric]int{}
	}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.Validate(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// Validate checks every score lies in [0,100] and that segments are well
// formed, pairwise disjoint and chronologically increasing.
func (r Report) Validate() error {
	if !inRange(r.OverallScore) {
		return fmt.Errorf("%w: overall score %d out of range", ErrInvalidReport, r.OverallScore)
	}
	for _, name := range slices.Sorted(maps.Keys(r.Metrics)) {
		if v := r.Metrics[name]; !inRange(v) {
			return fmt.Errorf("%w: metric %s score %d out of range", ErrInvalidReport, name, v)
		}
	}

	prevEnd := -1
	for i, seg := range r.Segments {
		if !inRange(seg.Score) {
			return fmt.Errorf("%w: segment %d score %d out of range", ErrInvalidReport, i, seg.Score)
		}
		start, end, err := seg.Bounds()
		if err != nil {
			return fmt.Errorf("%w: segment %d: %w", ErrInvalidReport, i, err)
		}
		if start >= end {
			return fmt.Errorf("%w: segment %d starts at %s, not before %s", ErrInvalidReport, i, seg.Start, seg.End)
		}
		if start < prevEnd {
			return fmt.Errorf("%w: segment %d overlaps its predecessor", ErrInvalidReport, i)
		}
		prevEnd = end
	}
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (r Report) Clone() Report {
	out := r
	out.Metrics = maps.Clone(r.Metrics)
	out.Issues = slices.Clone(r.Issues)
	out.Suggestions = slices.Clone(r.Suggestions)
	out.Segments = cloneSegments(r.Segments)
	return out
}

func cloneSegments(in []Segment) []Segment {
	if in == nil {
		return nil
	}
	out := make([]Segment, len(in))
	for i, s := range in {
		s.Issues = slices.Clone(s.Issues)
		s.Suggestions = slices.Clone(s.Suggestions)
		out[i] = s
	}
	return out
}

func inRange(v int) bool { return v >= MinScore && v <= MaxScore }
