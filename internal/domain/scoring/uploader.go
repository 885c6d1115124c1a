package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wudao/internal/domain/media"
)

// Default upload cadence.
const (
	defaultImageStep    = 10
	defaultVideoStep    = 5
	defaultUploadTick   = 300 * time.Millisecond
	defaultUploadBudget = 3 * time.Second
	uploadComplete      = 100
)

// UploaderOption applies a configuration option to the TickUploader.
type UploaderOption func(*TickUploader)

// WithStep sets the progress increment per tick for kind.
func WithStep(kind media.Kind, step int) UploaderOption {
	return func(u *TickUploader) {
		if step > 0 && step <= uploadComplete {
			u.steps[kind] = step
		}
	}
}

// WithTick sets the interval between progress ticks. Zero ticks without waiting.
func WithTick(tick time.Duration) UploaderOption {
	return func(u *TickUploader) {
		if tick >= 0 {
			u.tick = tick
		}
	}
}

// WithBudget bounds the whole upload. Zero disables the bound.
func WithBudget(budget time.Duration) UploaderOption {
	return func(u *TickUploader) {
		if budget >= 0 {
			u.budget = budget
		}
	}
}

// TickUploader simulates an upload by advancing progress on a fixed cadence.
type TickUploader struct {
	steps  map[media.Kind]int
	tick   time.Duration
	budget time.Duration
}

// NewTickUploader creates an uploader with the reference cadence: 10% per
// tick for images, 5% for videos, one tick every 300ms, 3s overall.
func NewTickUploader(opts ...UploaderOption) *TickUploader {
	u := &TickUploader{
		steps: map[media.Kind]int{
			media.KindImage: defaultImageStep,
			media.KindVideo: defaultVideoStep,
		},
		tick:   defaultUploadTick,
		budget: defaultUploadBudget,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload reports step, 2*step, ... up to 100. When the budget runs out first
// progress jumps straight to 100.
func (u *TickUploader) Upload(ctx context.Context, a media.Artifact, progress func(int)) error {
	step, ok := u.steps[a.Kind]
	if !ok {
		step = defaultImageStep
	}

	var deadline <-chan time.Time
	if u.budget > 0 {
		timer := time.NewTimer(u.budget)
		defer timer.Stop()
		deadline = timer.C
	}

	var ticks <-chan time.Time
	if u.tick > 0 {
		ticker := time.NewTicker(u.tick)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for p := 0; p < uploadComplete; {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return fmt.Errorf("upload cancelled: %w", ctx.Err())
			case <-deadline:
				progress(uploadComplete)
				return nil
			case <-ticks:
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("upload cancelled: %w", err)
		}
		p = min(p+step, uploadComplete)
		progress(p)
	}
	return nil
}
