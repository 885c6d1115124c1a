package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/report"
)

// Default simulated analysis latency per kind.
const (
	defaultImageLatency = 2 * time.Second
	defaultVideoLatency = 3 * time.Second
)

// Option applies a configuration option to the SimulatedScorer.
type Option func(*SimulatedScorer)

// WithLatency sets the simulated analysis latency for kind. Zero returns immediately.
func WithLatency(kind media.Kind, latency time.Duration) Option {
	return func(s *SimulatedScorer) {
		if latency >= 0 {
			s.latency[kind] = latency
		}
	}
}

// SimulatedScorer stands in for the computer-vision backend. It waits a fixed
// latency and returns the same report for every artifact of a kind.
type SimulatedScorer struct {
	latency map[media.Kind]time.Duration
}

// NewSimulatedScorer creates a scorer with 2s image and 3s video latency.
func NewSimulatedScorer(opts ...Option) *SimulatedScorer {
	s := &SimulatedScorer{
		latency: map[media.Kind]time.Duration{
			media.KindImage: defaultImageLatency,
			media.KindVideo: defaultVideoLatency,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score waits out the simulated latency and returns the reference report.
func (s *SimulatedScorer) Score(ctx context.Context, req Request) (report.Report, error) {
	if latency := s.latency[req.Artifact.Kind]; latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return report.Report{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	switch req.Artifact.Kind {
	case media.KindVideo:
		return VideoReport(), nil
	case media.KindImage:
		return ImageReport(), nil
	default:
		return report.Report{}, &RejectedError{Reason: fmt.Sprintf("unsupported artifact kind %q", req.Artifact.Kind)}
	}
}

// ImageReport is the reference result for a single pose photo.
func ImageReport() report.Report {
	r, err := report.New(85,
		map[report.Metric]int{
			report.MetricPoseAccuracy: 87,
			report.MetricBalance:      82,
			report.MetricPower:        88,
			report.MetricSpeed:        83,
		},
		report.WithIssues(
			"右腿膝盖角度偏小，建议加强腿部力量",
			"躯干稍微前倾，影响整体平衡性",
			"手臂伸展不够充分，减弱了力量传导",
		),
		report.WithSuggestions(
			"增加下肢力量训练，尤其是大腿前侧肌群",
			"练习核心稳定性，保持躯干挺直",
			"增加肩部灵活性训练，提高上肢伸展幅度",
		),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// VideoReport is the reference result for a routine video. Report-level
// issues and suggestions are the segment ones in timeline order.
func VideoReport() report.Report {
	segments := []report.Segment{
		{
			Start: "0:00", End: "0:08", Name: "起势", Score: 90,
			Issues:      []string{"身体重心略有不稳"},
			Suggestions: []string{"加强下肢力量训练，增强稳定性"},
		},
		{
			Start: "0:09", End: "0:15", Name: "左掌右拳", Score: 85,
			Issues:      []string{"右拳出击力度不足", "左掌护体不到位"},
			Suggestions: []string{"练习单体右拳发力训练", "注意左掌位置，应贴近身体"},
		},
		{
			Start: "0:16", End: "0:24", Name: "下蹲转身", Score: 92,
			Issues:      []string{"转身略显僵硬"},
			Suggestions: []string{"增加髋关节灵活性训练"},
		},
		{
			Start: "0:25", End: "0:35", Name: "收势", Score: 86,
			Issues:      []string{"收势不够稳健", "呼吸节奏不协调"},
			Suggestions: []string{"练习站桩提升稳定性", "加强呼吸与动作的配合"},
		},
	}
	var issues, suggestions []string
	for _, seg := range segments {
		issues = append(issues, seg.Issues...)
		suggestions = append(suggestions, seg.Suggestions...)
	}

	r, err := report.New(88,
		map[report.Metric]int{
			report.MetricPoseAccuracy: 87,
			report.MetricSmoothness:   89,
			report.MetricBalance:      90,
			report.MetricPower:        85,
			report.MetricRhythm:       88,
		},
		report.WithIssues(issues...),
		report.WithSuggestions(suggestions...),
		report.WithSegments(segments...),
	)
	if err != nil {
		panic(err)
	}
	return r
}
