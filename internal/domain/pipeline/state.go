package pipeline

import "github.com/okian/wudao/internal/domain/report"

// Phase names a pipeline state.
type Phase string

// Pipeline phases.
const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseAnalyzing Phase = "analyzing"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// State is one pipeline state. Its payload is only reachable for the phase
// that carries it, so progress cannot leak outside Uploading.
type State struct {
	phase    Phase
	progress int
	report   report.Report
	reason   string
}

// Idle is the initial state.
func Idle() State { return State{phase: PhaseIdle} }

// Uploading carries upload progress in 0..100.
func Uploading(progress int) State {
	return State{phase: PhaseUploading, progress: max(0, min(progress, 100))}
}

// Analyzing has no progress.
func Analyzing() State { return State{phase: PhaseAnalyzing} }

// Complete carries the validated report.
func Complete(r report.Report) State { return State{phase: PhaseComplete, report: r} }

// Failed carries a user-displayable reason.
func Failed(reason string) State { return State{phase: PhaseFailed, reason: reason} }

// Phase returns the state's phase.
func (s State) Phase() Phase {
	if s.phase == "" {
		return PhaseIdle
	}
	return s.phase
}

// Progress returns the upload progress; ok is false outside Uploading.
func (s State) Progress() (progress int, ok bool) {
	return s.progress, s.phase == PhaseUploading
}

// Report returns a copy of the report; ok is false outside Complete.
func (s State) Report() (r report.Report, ok bool) {
	if s.phase != PhaseComplete {
		return report.Report{}, false
	}
	return s.report.Clone(), true
}

// Reason returns the failure reason; ok is false outside Failed.
func (s State) Reason() (reason string, ok bool) {
	return s.reason, s.phase == PhaseFailed
}

// Running reports whether a run is in flight.
func (s State) Running() bool {
	return s.phase == PhaseUploading || s.phase == PhaseAnalyzing
}

// Terminal reports whether the state accepts a new Start.
func (s State) Terminal() bool { return !s.Running() }
