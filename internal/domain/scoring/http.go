package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/wudao/internal/domain/report"
	"github.com/okian/wudao/pkg/logger"
	"github.com/okian/wudao/pkg/metrics"
)

// Default remote scorer settings.
const (
	defaultHTTPTimeout      = 2 * time.Minute
	defaultBreakerFailures  = 5
	defaultBreakerOpenFor   = 30 * time.Second
	defaultBreakerName      = "scorer"
	maxResponseBytes        = 4 << 20
	multipartFieldFile      = "file"
	multipartFieldKind      = "kind"
	multipartFieldRoutine   = "routine"
	contentTypeHeader       = "Content-Type"
	contentDispositionValue = `form-data; name="%s"; filename="%s"`
)

// HTTPOption applies a configuration option to the HTTPScorer.
type HTTPOption func(*HTTPScorer)

// WithHTTPClient sets the client used for scorer calls.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPScorer) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds a single scorer call.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPScorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls per second. Zero disables the limiter.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(s *HTTPScorer) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker sets the consecutive failures that open the breaker and how
// long it stays open.
func WithBreaker(failures uint32, openFor time.Duration) HTTPOption {
	return func(s *HTTPScorer) {
		if failures > 0 {
			s.breakerFailures = failures
		}
		if openFor > 0 {
			s.breakerOpenFor = openFor
		}
	}
}

// WithLogger sets a custom logger for the scorer.
func WithLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// HTTPScorer calls a remote analysis service. The request is a multipart
// form with the artifact under "file" plus "kind" and "routine"; the reply is
// {"success": bool, "message": string, "report": {...}}.
type HTTPScorer struct {
	url             string
	client          *http.Client
	timeout         time.Duration
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[report.Report]
	breakerFailures uint32
	breakerOpenFor  time.Duration
	logger          logger.Logger
}

type scoreResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Report  *report.Report `json:"report"`
}

// NewHTTPScorer creates a scorer that posts to url.
func NewHTTPScorer(url string, opts ...HTTPOption) *HTTPScorer {
	s := &HTTPScorer{
		url:             url,
		client:          &http.Client{},
		timeout:         defaultHTTPTimeout,
		breakerFailures: defaultBreakerFailures,
		breakerOpenFor:  defaultBreakerOpenFor,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	failures := s.breakerFailures
	s.breaker = gobreaker.NewCircuitBreaker[report.Report](gobreaker.Settings{
		Name:    defaultBreakerName,
		Timeout: s.breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Rejections and caller cancellations say nothing about scorer health.
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			s.logger.Warn(context.Background(), "scorer breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	metrics.UpdateBreakerState(defaultBreakerName, int(gobreaker.StateClosed))
	return s
}

// Score posts the artifact and decodes the report. Open-breaker and transport
// failures wrap ErrScorerUnavailable; scorer-declared failures are *RejectedError.
func (s *HTTPScorer) Score(ctx context.Context, req Request) (report.Report, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return report.Report{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	r, err := s.breaker.Execute(func() (report.Report, error) {
		return s.post(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return report.Report{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, err)
	}
	return r, err
}

func (s *HTTPScorer) post(ctx context.Context, req Request) (report.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return report.Report{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, body)
	if err != nil {
		return report.Report{}, fmt.Errorf("build scorer request: %w", err)
	}
	httpReq.Header.Set(contentTypeHeader, contentType)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return report.Report{}, fmt.Errorf("scorer call: %w", ctxErr)
		}
		return report.Report{}, fmt.Errorf("%w: %w", ErrScorerUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return report.Report{}, fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return report.Report{}, fmt.Errorf("%w: decode response: %w", ErrScorerUnavailable, err)
	}
	if !out.Success || resp.StatusCode >= http.StatusBadRequest {
		reason := out.Message
		if reason == "" {
			reason = ReasonFailed
		}
		return report.Report{}, &RejectedError{Reason: reason}
	}
	if out.Report == nil {
		return report.Report{}, ErrNoReport
	}
	return *out.Report, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeRequest(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(contentDispositionValue, multipartFieldFile, quoteEscaper.Replace(req.Artifact.Name)))
	h.Set(contentTypeHeader, req.Artifact.MIMEType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("encode artifact: %w", err)
	}
	if _, err := part.Write(req.Artifact.Data); err != nil {
		return nil, "", fmt.Errorf("encode artifact: %w", err)
	}
	if err := mw.WriteField(multipartFieldKind, string(req.Artifact.Kind)); err != nil {
		return nil, "", fmt.Errorf("encode kind: %w", err)
	}
	if req.Routine != "" {
		if err := mw.WriteField(multipartFieldRoutine, req.Routine); err != nil {
			return nil, "", fmt.Errorf("encode routine: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
