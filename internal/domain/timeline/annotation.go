package timeline

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnnotationKind tells a typed note from a sketch over the frame.
type AnnotationKind string

// Annotation kinds.
const (
	AnnotationText    AnnotationKind = "text"
	AnnotationDrawing AnnotationKind = "drawing"
)

// Annotation is a note pinned to a playback offset of the held video.
type Annotation struct {
	ID       string         `json:"id"`
	Position float64        `json:"position"`
	Kind     AnnotationKind `json:"kind"`
	Content  string         `json:"content"`
	// Drawing is a data URL of the sketch; only set for drawing notes.
	Drawing   string    `json:"drawing,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Annotations is a session's note list, kept ordered by position. Notes at
// the same position stay in the order they were added. It is safe for
// concurrent use.
type Annotations struct {
	mu    sync.Mutex
	items []Annotation
	now   func() time.Time
}

// NewAnnotations returns an empty list.
func NewAnnotations() *Annotations {
	return &Annotations{now: time.Now}
}

// Add validates note, assigns its id and creation time and inserts it.
func (a *Annotations) Add(note Annotation) (Annotation, error) {
	if !validPosition(note.Position) {
		return Annotation{}, fmt.Errorf("%w: %v", ErrInvalidPosition, note.Position)
	}
	note.Content = strings.TrimSpace(note.Content)
	switch note.Kind {
	case AnnotationText:
		if note.Content == "" {
			return Annotation{}, fmt.Errorf("%w: text note without content", ErrInvalidAnnotation)
		}
		note.Drawing = ""
	case AnnotationDrawing:
		if !strings.HasPrefix(note.Drawing, "data:image/") {
			return Annotation{}, fmt.Errorf("%w: drawing must be an image data URL", ErrInvalidAnnotation)
		}
	default:
		return Annotation{}, fmt.Errorf("%w: kind %q", ErrInvalidAnnotation, note.Kind)
	}
	note.ID = uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()
	note.CreatedAt = a.now()
	i := sort.Search(len(a.items), func(i int) bool { return a.items[i].Position > note.Position })
	a.items = slices.Insert(a.items, i, note)
	return note, nil
}

// List returns a copy of the notes in position order.
func (a *Annotations) List() []Annotation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.items)
}

// Get returns the note with id.
func (a *Annotations) Get(id string) (Annotation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i := a.index(id); i >= 0 {
		return a.items[i], nil
	}
	return Annotation{}, fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
}

// Delete removes the note with id.
func (a *Annotations) Delete(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
	}
	a.items = slices.Delete(a.items, i, i+1)
	return nil
}

// Len returns the number of notes.
func (a *Annotations) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Reset drops every note. Notes belong to one video, so the intake calls
// this when the video is removed or replaced.
func (a *Annotations) Reset() {
	a.mu.Lock()
	a.items = nil
	a.mu.Unlock()
}

func (a *Annotations) index(id string) int {
	return slices.IndexFunc(a.items, func(n Annotation) bool { return n.ID == id })
}
