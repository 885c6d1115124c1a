package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/wudao/internal/adapters/mq/queue"
	worker "github.com/okian/wudao/internal/adapters/mq/worker"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockScorer struct {
	mu     sync.Mutex
	calls  int
	errors map[string]error
}

func newMockScorer() *mockScorer {
	return &mockScorer{errors: make(map[string]error)}
}

func (ms *mockScorer) Score(_ context.Context, req scoring.Request) (report.Report, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.calls++
	if err, ok := ms.errors[req.Artifact.ID]; ok {
		return report.Report{}, err
	}
	return scoring.ImageReport(), nil
}

func (ms *mockScorer) callCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.calls
}

func newJob(ctx context.Context, id string) (queue.Job, chan queue.Result) {
	reply := make(chan queue.Result, 1)
	return queue.Job{
		ID:      id,
		Ctx:     ctx,
		Request: scoring.Request{Artifact: media.Artifact{ID: id, Kind: media.KindImage, Data: []byte{1}}},
		Reply:   reply,
	}, reply
}

func await(reply <-chan queue.Result) (queue.Result, bool) {
	select {
	case res := <-reply:
		return res, true
	case <-time.After(time.Second):
		return queue.Result{}, false
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		scorer := newMockScorer()
		w := worker.NewInMemoryWorker(q, scorer, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			job, reply := newJob(context.Background(), "a1")
			q.jobs <- job
			res, ok := await(reply)

			convey.Convey("Then the scorer's report is sent back", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Report.OverallScore, convey.ShouldEqual, 85)
			})
		})

		convey.Convey("When the scorer fails", func() {
			scorer.errors["bad"] = &scoring.RejectedError{Reason: "blurry"}
			job, reply := newJob(context.Background(), "bad")
			q.jobs <- job
			res, ok := await(reply)

			convey.Convey("Then the error is sent back", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(scoring.Reason(res.Err), convey.ShouldEqual, "blurry")
			})
		})

		convey.Convey("When the caller gave up before the job was picked", func() {
			jobCtx, jobCancel := context.WithCancel(context.Background())
			jobCancel()
			job, reply := newJob(jobCtx, "gone")
			q.jobs <- job
			res, ok := await(reply)

			convey.Convey("Then the scorer is not called", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(errors.Is(res.Err, context.Canceled), convey.ShouldBeTrue)
				convey.So(scorer.callCount(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shut down", func() {
			err := w.Shutdown(context.Background())
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		scorer := newMockScorer()
		pool := worker.NewPool(3, q, scorer)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs are queued", func() {
			replies := make([]chan queue.Result, 20)
			for i := range replies {
				job, reply := newJob(context.Background(), "job")
				replies[i] = reply
				convey.So(q.Enqueue(ctx, job), convey.ShouldBeTrue)
			}

			convey.Convey("Then each is answered exactly once", func() {
				for _, reply := range replies {
					res, ok := await(reply)
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(res.Err, convey.ShouldBeNil)
				}
				convey.So(scorer.callCount(), convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When shut down", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), newMockScorer())
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
