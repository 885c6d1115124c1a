// Package scoring defines the contract between the analysis pipeline and the
// service that turns an artifact into a report, plus the upload step that
// precedes it.
package scoring

import (
	"context"

	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/report"
)

// Request is what a scorer receives for one run.
type Request struct {
	Artifact media.Artifact
	// Routine optionally names the form being performed, e.g. "太极拳".
	Routine string
}

// Scorer computes a report for an artifact. Implementations may take an
// unbounded amount of time and must honor ctx for cancellation. The returned
// report is validated by the caller.
type Scorer interface {
	Score(ctx context.Context, req Request) (report.Report, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, req Request) (report.Report, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, req Request) (report.Report, error) {
	return f(ctx, req)
}

// Uploader moves an artifact to the scoring side and reports coarse progress.
// Progress values are non-decreasing, within 0..100, and the last call is 100
// when Upload returns nil.
type Uploader interface {
	Upload(ctx context.Context, a media.Artifact, progress func(int)) error
}
