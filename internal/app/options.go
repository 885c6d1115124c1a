package service

import (
	"github.com/okian/wudao/internal/config"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/scoring"
	"github.com/okian/wudao/pkg/logger"
)

// OptionsFromConfig translates process configuration into service options.
// A non-empty ScorerURL selects the HTTP scorer; otherwise sessions are
// answered by the simulated scorer.
func OptionsFromConfig(cfg *config.Config, log logger.Logger) []Option {
	uploader := scoring.NewTickUploader(
		scoring.WithStep(media.KindImage, cfg.UploadStepImage),
		scoring.WithStep(media.KindVideo, cfg.UploadStepVideo),
		scoring.WithTick(cfg.UploadTick()),
		scoring.WithBudget(cfg.UploadBudget()),
	)

	var scorer scoring.Scorer
	if cfg.ScorerURL != "" {
		scorer = scoring.NewHTTPScorer(cfg.ScorerURL,
			scoring.WithTimeout(cfg.ScorerTimeout()),
			scoring.WithRateLimit(cfg.ScorerRatePerSec, max(1, int(cfg.ScorerRatePerSec))),
			scoring.WithBreaker(uint32(max(cfg.BreakerFailures, 1)), 0), //nolint:gosec // bounded above
			scoring.WithLogger(log),
		)
	} else {
		scorer = scoring.NewSimulatedScorer(
			scoring.WithLatency(media.KindImage, cfg.AnalysisLatencyImage()),
			scoring.WithLatency(media.KindVideo, cfg.AnalysisLatencyVideo()),
		)
	}

	return []Option{
		WithLogger(log),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithUploader(uploader),
		WithScorer(scorer),
		WithSessionTTL(cfg.SessionTTL()),
		WithCatalogFoldCase(cfg.CatalogFoldCase),
	}
}
