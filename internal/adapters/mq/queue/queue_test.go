package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/scoring"
)

func newJob(id string) Job {
	return Job{
		ID:      id,
		Ctx:     context.Background(),
		Request: scoring.Request{Artifact: media.Artifact{ID: id, Kind: media.KindImage}},
		Reply:   make(chan Result, 1),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	job := <-q.Dequeue(ctx)
	if job.ID != "job1" {
		t.Errorf("expected job1, got %v", job.ID)
	}
	if job.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, newJob("job2")) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, newJob("job3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producers, perProducer := 10, 100

	done := make(chan bool, producers)
	for i := 0; i < producers; i++ {
		go func(id int) {
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, newJob(fmt.Sprintf("job%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, producers*perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for job := range q.Dequeue(ctx) {
				consumed <- job.ID
			}
		}()
	}

	for i := 0; i < producers; i++ {
		<-done
	}

	deadline := time.After(2 * time.Second)
	for n := 0; n < producers*perProducer; n++ {
		select {
		case <-consumed:
		case <-deadline:
			t.Fatalf("consumed only %d jobs", n)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, newJob("job1")) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, newJob("job2")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Pending jobs drain, then the channel closes.
	jobs := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	var drained []string
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				if len(drained) != 1 || drained[0] != "job1" {
					t.Errorf("expected [job1] drained, got %v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, job.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}

func TestInMemoryQueue_AbandonedConsumerAnswersJob(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	job := newJob("job1")
	reply := make(chan Result, 1)
	job.Reply = reply
	if !q.Enqueue(context.Background(), job) {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	// A consumer that has already given up takes the job off the channel and
	// must still answer it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := q.Dequeue(ctx)

	select {
	case res := <-reply:
		if !errors.Is(res.Err, ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected the job to be answered")
	}
	for range out {
		t.Error("expected no delivery to a cancelled consumer")
	}
}
