// Package media holds the single-slot intake that accepts one image or video
// artifact from an upload or a live capture.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/wudao/pkg/metrics"
)

// Kind is the artifact kind an intake accepts.
type Kind string

// Supported kinds.
const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindImage, KindVideo:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Artifact is an accepted file. Data is owned by the intake and must not be
// modified by callers.
type Artifact struct {
	ID        string
	Kind      Kind
	MIMEType  string
	Name      string
	Data      []byte
	SourceURL string
}

// Empty reports whether a is the zero artifact.
func (a Artifact) Empty() bool { return a.ID == "" }

// File is an upload as received at the boundary.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Resetter is notified whenever the held artifact is removed or replaced so
// that no result is shown against an artifact that is gone.
type Resetter interface {
	Reset()
}

// Option applies a configuration option to the Intake.
type Option func(*Intake)

// WithResetter binds the pipeline that must be reset on clear or replace.
func WithResetter(r Resetter) Option {
	return func(in *Intake) {
		if r != nil {
			in.resetters = append(in.resetters, r)
		}
	}
}

// Intake holds at most one artifact of its kind.
type Intake struct {
	mu        sync.Mutex
	kind      Kind
	held      Artifact
	resetters []Resetter
}

// NewIntake creates an empty intake for kind.
func NewIntake(kind Kind, opts ...Option) (*Intake, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	in := &Intake{kind: kind}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Kind returns the kind this intake accepts.
func (in *Intake) Kind() Kind { return in.kind }

// Accept validates f and stores it, silently replacing any held artifact.
func (in *Intake) Accept(f File) (Artifact, error) {
	mediaType, err := in.check(f.MIMEType)
	if err != nil {
		return Artifact{}, err
	}
	if len(f.Data) == 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name)
	}
	a := Artifact{
		ID:       uuid.NewString(),
		Kind:     in.kind,
		MIMEType: mediaType,
		Name:     f.Name,
		Data:     f.Data,
	}
	in.store(a)
	return a, nil
}

// AcceptCapture stores a live-capture frame given as a base64 data URL. The
// URL is kept as the artifact's SourceURL.
func (in *Intake) AcceptCapture(name, dataURL string) (Artifact, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return Artifact{}, ErrMalformedDataURL
	}
	declared := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	mediaType, err := in.check(declared)
	if err != nil {
		return Artifact{}, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrMalformedDataURL, err)
	}
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	a := Artifact{
		ID:        uuid.NewString(),
		Kind:      in.kind,
		MIMEType:  mediaType,
		Name:      name,
		Data:      data,
		SourceURL: dataURL,
	}
	in.store(a)
	return a, nil
}

// Clear drops the held artifact. Calling it on an empty intake still resets
// the bound pipeline and is otherwise a no-op.
func (in *Intake) Clear() {
	in.mu.Lock()
	in.held = Artifact{}
	in.mu.Unlock()
	in.reset()
}

// Artifact returns the held artifact, if any.
func (in *Intake) Artifact() (Artifact, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.held, !in.held.Empty()
}

// Handoff calls fn with the held artifact (the zero Artifact when empty) while
// the slot is locked. A Clear or Accept racing with fn waits for it and then
// resets the bound pipelines, so whatever fn started on the old artifact is
// discarded.
func (in *Intake) Handoff(fn func(Artifact) error) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return fn(in.held)
}

func (in *Intake) store(a Artifact) {
	in.mu.Lock()
	in.held = a
	in.mu.Unlock()
	in.reset()
}

func (in *Intake) reset() {
	for _, r := range in.resetters {
		r.Reset()
	}
}

// check returns the normalized media type if it matches the intake kind.
func (in *Intake) check(declared string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || !strings.HasPrefix(mediaType, string(in.kind)+"/") {
		metrics.RecordIntakeRejected(string(in.kind))
		return "", fmt.Errorf("%w: %q is not %s/*", ErrInvalidMediaKind, declared, in.kind)
	}
	return mediaType, nil
}
