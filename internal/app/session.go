package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/pipeline"
	"github.com/okian/wudao/internal/domain/timeline"
)

// Session is one user's analysis page: a single-slot intake wired to its own
// pipeline, and a player proxy for the timeline once a video report exists.
// Sessions share nothing but the scorer queue.
type Session struct {
	ID        string
	Kind      media.Kind
	CreatedAt time.Time

	Intake      *media.Intake
	Pipeline    *pipeline.Pipeline
	Player      *timeline.CommandRecorder
	Annotations *timeline.Annotations

	mu      sync.Mutex
	sync    *timeline.Sync
	syncRun string
	playing bool
}

func newSession(id string, kind media.Kind, p *pipeline.Pipeline) (*Session, error) {
	notes := timeline.NewAnnotations()
	intake, err := media.NewIntake(kind, media.WithResetter(p), media.WithResetter(notes))
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:          id,
		Kind:        kind,
		CreatedAt:   time.Now(),
		Intake:      intake,
		Pipeline:    p,
		Player:      timeline.NewCommandRecorder(),
		Annotations: notes,
	}, nil
}

// Analyze starts a run on the held artifact. The start happens inside the
// intake's handoff so a concurrent clear cannot leave a run on a removed file.
func (s *Session) Analyze(ctx context.Context, routine string) error {
	return s.Intake.Handoff(func(a media.Artifact) error {
		return s.Pipeline.Start(ctx, a, pipeline.WithRoutine(routine))
	})
}

// Timeline returns the segment browser for the current completed video
// report. It is rebuilt whenever a new run completes.
func (s *Session) Timeline() (*timeline.Sync, error) {
	snap := s.Pipeline.Snapshot()
	r, ok := snap.State.Report()
	if !ok {
		return nil, fmt.Errorf("%w: no completed report", ErrTimelineUnavailable)
	}
	if s.Kind != media.KindVideo {
		return nil, fmt.Errorf("%w: %s reports have no segments", ErrTimelineUnavailable, s.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sync != nil && s.syncRun == snap.RunID {
		return s.sync, nil
	}
	ts, err := timeline.New(r.Segments, s.Player)
	if err != nil {
		return nil, err
	}
	if s.sync != nil {
		s.playing = s.sync.Playing()
	}
	ts.SetPlaying(s.playing)
	s.sync, s.syncRun = ts, snap.RunID
	return ts, nil
}

// Annotate pins a note to the held video. Notes are dropped with the video.
func (s *Session) Annotate(n timeline.Annotation) (timeline.Annotation, error) {
	if s.Kind != media.KindVideo {
		return timeline.Annotation{}, fmt.Errorf("%w: %s sessions take no annotations", ErrTimelineUnavailable, s.Kind)
	}
	var added timeline.Annotation
	err := s.Intake.Handoff(func(a media.Artifact) error {
		if a.Empty() {
			return fmt.Errorf("annotate: %w", pipeline.ErrEmptyArtifact)
		}
		var err error
		added, err = s.Annotations.Add(n)
		return err
	})
	return added, err
}

// JumpToAnnotation seeks the player to a note's position.
func (s *Session) JumpToAnnotation(id string) (timeline.Annotation, error) {
	n, err := s.Annotations.Get(id)
	if err != nil {
		return timeline.Annotation{}, err
	}
	ts, err := s.Timeline()
	if err != nil {
		return timeline.Annotation{}, err
	}
	return n, ts.JumpToPosition(n.Position)
}

// ReportPlayback records the client's own player state: position and
// whether it is playing.
func (s *Session) ReportPlayback(playing bool, position float64) {
	s.Player.SetPosition(position)
	s.mu.Lock()
	s.playing = playing
	ts := s.sync
	s.mu.Unlock()
	if ts != nil {
		ts.SetPlaying(playing)
	}
}

// Close drops the artifact, which also resets the pipeline.
func (s *Session) Close() {
	s.Intake.Clear()
}
