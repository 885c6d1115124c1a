package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	eventqueue "github.com/okian/wudao/internal/adapters/mq/queue"
	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/internal/domain/scoring"
)

// queuedScorer is the Scorer sessions see. It hands each call to the worker
// pool and waits for the answer, so the number of concurrent backend calls is
// bounded by the pool size and bursts beyond the queue fail fast.
type queuedScorer struct {
	queue eventqueue.Queue
}

func (q *queuedScorer) Score(ctx context.Context, req scoring.Request) (report.Report, error) {
	reply := make(chan eventqueue.Result, 1)
	job := eventqueue.Job{
		ID:      uuid.NewString(),
		Ctx:     ctx,
		Request: req,
		Reply:   reply,
	}
	if !q.queue.Enqueue(ctx, job) {
		if q.queue.IsClosed() {
			return report.Report{}, fmt.Errorf("%w: %w", scoring.ErrScorerUnavailable, eventqueue.ErrStopped)
		}
		return report.Report{}, scoring.ErrBackpressure
	}

	select {
	case res := <-reply:
		return res.Report, res.Err
	case <-ctx.Done():
		return report.Report{}, fmt.Errorf("waiting for scorer: %w", ctx.Err())
	}
}
