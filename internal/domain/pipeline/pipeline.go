// Package pipeline drives one artifact at a time through upload and analysis
// to a validated report.
//
// Idle -> Uploading(0..100) -> Analyzing -> Complete(report) | Failed(reason).
// Reset returns to Idle from anywhere and discards whatever the abandoned
// run produces later.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/scoring"
	"github.com/okian/wudao/pkg/logger"
	"github.com/okian/wudao/pkg/metrics"
)

const defaultSubscriberBuffer = 64

// Failure categories used as metric labels. Reasons from the scorer are free
// text and are not used as labels.
const (
	failureInvalidReport = "invalid_report"
	failureUpload        = "upload"
	failureScorer        = "scorer"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSubscriberBuffer sets the channel size handed to subscribers.
func WithSubscriberBuffer(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.subBuffer = n
		}
	}
}

// StartOption customizes a single run.
type StartOption func(*scoring.Request)

// WithRoutine names the form performed in the artifact.
func WithRoutine(routine string) StartOption {
	return func(r *scoring.Request) { r.Routine = routine }
}

// Snapshot is a state together with the run that produced it.
type Snapshot struct {
	RunID string
	State State
}

// Pipeline is a single-run state machine. It is safe for concurrent use.
type Pipeline struct {
	uploader scoring.Uploader
	scorer   scoring.Scorer
	logger   logger.Logger

	mu        sync.Mutex
	state     State
	gen       uint64
	runID     string
	cancel    context.CancelFunc
	subs      map[int]chan Snapshot
	nextSub   int
	subBuffer int

	runs sync.WaitGroup
}

// New creates an idle pipeline.
func New(uploader scoring.Uploader, scorer scoring.Scorer, opts ...Option) *Pipeline {
	p := &Pipeline{
		uploader:  uploader,
		scorer:    scorer,
		logger:    logger.Nop(),
		state:     Idle(),
		subs:      make(map[int]chan Snapshot),
		subBuffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins a fresh run for a. The run outlives ctx's cancellation but
// keeps its values; only Reset stops it.
func (p *Pipeline) Start(ctx context.Context, a media.Artifact, opts ...StartOption) error {
	if a.Empty() || len(a.Data) == 0 {
		return ErrEmptyArtifact
	}
	req := scoring.Request{Artifact: a}
	for _, opt := range opts {
		opt(&req)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Running() {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.gen++
	p.runID = uuid.NewString()
	p.cancel = cancel
	p.setLocked(Uploading(0))
	metrics.RecordRunStarted()

	gen, runID := p.gen, p.runID
	p.runs.Add(1)
	go func() {
		defer p.runs.Done()
		defer cancel()
		p.run(runCtx, gen, runID, req)
	}()
	return nil
}

// Reset returns to Idle, cancels any in-flight run and discards its results.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	wasRunning := p.state.Running()
	p.gen++
	p.runID = ""
	p.setLocked(Idle())
	if wasRunning {
		metrics.RecordRunReset()
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the current state with its run id.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{RunID: p.runID, State: p.state}
}

// Subscribe streams snapshots, starting with the current one. A slow reader
// loses the oldest pending snapshot, never the newest. Call the returned
// func to unsubscribe.
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	ch := make(chan Snapshot, p.subBuffer)
	ch <- Snapshot{RunID: p.runID, State: p.state}
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

// Wait blocks until every run goroutine, including abandoned ones, has returned.
func (p *Pipeline) Wait() {
	p.runs.Wait()
}

func (p *Pipeline) run(ctx context.Context, gen uint64, runID string, req scoring.Request) {
	kind := string(req.Artifact.Kind)
	log := p.logger.With(logger.String("run_id", runID), logger.String("kind", kind))

	uploadStart := time.Now()
	err := p.uploader.Upload(ctx, req.Artifact, func(progress int) {
		p.advance(gen, Uploading(progress))
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn(ctx, "upload failed", logger.Error(err))
		p.fail(gen, ReasonUploadFailed, failureUpload)
		return
	}
	p.advance(gen, Uploading(100))
	metrics.RecordUploadLatency(float64(time.Since(uploadStart).Milliseconds()))

	if !p.advance(gen, Analyzing()) {
		return
	}
	analysisStart := time.Now()
	r, err := p.scorer.Score(ctx, req)
	metrics.RecordAnalysisLatency(kind, float64(time.Since(analysisStart).Milliseconds()))

	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		p.dropIfStale(gen)
	case err != nil:
		log.Warn(ctx, "analysis failed", logger.Error(err))
		p.fail(gen, scoring.Reason(err), failureScorer)
	default:
		if verr := r.Validate(); verr != nil {
			log.Warn(ctx, "scorer returned an invalid report", logger.Error(verr))
			p.fail(gen, ReasonInvalidReport, failureInvalidReport)
			return
		}
		if p.advance(gen, Complete(r.Clone())) {
			metrics.RecordRunCompleted()
			metrics.RecordReportScore(kind, r.OverallScore)
			log.Debug(ctx, "analysis complete", logger.Int("overall_score", r.OverallScore))
		}
	}
}

func (p *Pipeline) fail(gen uint64, reason, category string) {
	if p.advance(gen, Failed(reason)) {
		metrics.RecordRunFailed(category)
	}
}

// advance applies st if gen is still the current run. Upload progress never
// moves backwards. A stale delivery is counted and dropped.
func (p *Pipeline) advance(gen uint64, st State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		if st.Phase() == PhaseComplete || st.Phase() == PhaseFailed {
			metrics.RecordLateReport()
		}
		return false
	}
	if cur, ok := p.state.Progress(); ok {
		if next, uploading := st.Progress(); uploading && next <= cur {
			return true
		}
	}
	if st.Terminal() {
		p.cancel = nil
	}
	p.setLocked(st)
	return true
}

func (p *Pipeline) dropIfStale(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		metrics.RecordLateReport()
	}
}

func (p *Pipeline) setLocked(st State) {
	p.state = st
	snap := Snapshot{RunID: p.runID, State: st}
	for _, ch := range p.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
