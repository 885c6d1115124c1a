// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/wudao/internal/adapters/mq/queue"
	workerpool "github.com/okian/wudao/internal/adapters/mq/worker"
	"github.com/okian/wudao/internal/adapters/repository"
	"github.com/okian/wudao/internal/domain/catalog"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/pipeline"
	"github.com/okian/wudao/internal/domain/scoring"
	"github.com/okian/wudao/pkg/logger"
	"github.com/okian/wudao/pkg/metrics"
)

const (
	defaultQueueSize  = 1_000
	defaultSessionTTL = 30 * time.Minute
)

// Service owns the analysis sessions, the shared scorer queue and the
// read-only catalogs.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions repository.Store[*Session]
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	scorer   scoring.Scorer
	uploader scoring.Uploader
	dispatch *queuedScorer
	coaches  *catalog.Engine[catalog.Coach]
	courses  *catalog.Engine[catalog.Course]

	// Configuration
	workerCount     int
	queueSize       int
	sessionTTL      time.Duration
	janitorInterval time.Duration
	foldCase        bool

	// State
	started bool
	stopCh  chan struct{}
	janitor sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending scorer calls.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScorer replaces the simulated scorer.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithUploader replaces the default tick uploader.
func WithUploader(u scoring.Uploader) Option {
	return func(s *Service) {
		if u != nil {
			s.uploader = u
		}
	}
}

// WithSessionTTL expires sessions idle for at least ttl. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithJanitorInterval sets how often expired sessions are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithCatalogFoldCase makes catalog search case-insensitive.
func WithCatalogFoldCase(enabled bool) Option {
	return func(s *Service) {
		s.foldCase = enabled
	}
}

// WithSessionStore replaces the in-memory session store.
func WithSessionStore(store repository.Store[*Session]) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		sessionTTL:  defaultSessionTTL,
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.janitorInterval == 0 {
		s.janitorInterval = max(s.sessionTTL/4, time.Second)
	}
	if s.scorer == nil {
		s.scorer = scoring.NewSimulatedScorer()
	}
	if s.uploader == nil {
		s.uploader = scoring.NewTickUploader()
	}
	if s.sessions == nil {
		s.sessions = repository.NewMemoryStore[*Session]()
	}
	s.coaches = catalog.NewCoachEngine(catalog.Coaches(), catalog.WithFoldCase(s.foldCase))
	s.courses = catalog.NewCourseEngine(catalog.Courses(), catalog.WithFoldCase(s.foldCase))
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting analysis service...")

	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.dispatch = &queuedScorer{queue: s.queue}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.scorer, workerpool.WithPoolLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))

	s.stopCh = make(chan struct{})
	if s.sessionTTL > 0 {
		s.janitor.Add(1)
		go s.sweep(s.stopCh)
	}

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop drops every session, cancels their runs and shuts the worker pool down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping analysis service...")
	s.janitor.Wait()

	for _, sess := range s.sessions.Clear(ctx) {
		sess.Close()
		sess.Pipeline.Wait()
	}

	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "analysis service stopped")
	if err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	return nil
}

// CreateSession opens an analysis page for kind.
func (s *Service) CreateSession(ctx context.Context, kind media.Kind) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	id := uuid.NewString()
	p := pipeline.New(s.uploader, s.dispatch,
		pipeline.WithLogger(s.logger.With(logger.String("session", id))),
	)
	sess, err := newSession(id, kind, p)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(ctx, id, sess)
	s.logger.Debug(ctx, "session created", logger.String("session", id), logger.String("kind", string(kind)))
	return sess, nil
}

// Session returns a live session and refreshes its idle timer.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// CloseSession removes a session and cancels its run.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	sess, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Close()
	return nil
}

// Coaches filters and sorts the coach catalog.
func (s *Service) Coaches(c catalog.Criteria) ([]catalog.Coach, error) {
	return s.coaches.Apply(c)
}

// Courses filters and sorts the course catalog.
func (s *Service) Courses(c catalog.Criteria) ([]catalog.Course, error) {
	return s.courses.Apply(c)
}

// CoachTags returns the selectable coach specialties.
func (s *Service) CoachTags() []string { return s.coaches.Tags() }

// CourseTags returns the selectable course categories.
func (s *Service) CourseTags() []string { return s.courses.Tags() }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"sessionTTL":  s.sessionTTL.String(),
		"coaches":     s.coaches.Len(),
		"courses":     s.courses.Len(),
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["sessions"] = s.sessions.Count(ctx)
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func (s *Service) sweep(stop <-chan struct{}) {
	defer s.janitor.Done()
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			expired := s.sessions.Expire(ctx, now, s.sessionTTL)
			for _, sess := range expired {
				sess.Close()
			}
			if len(expired) > 0 {
				s.logger.Info(ctx, "expired idle sessions", logger.Int("count", len(expired)))
			}
		}
	}
}
