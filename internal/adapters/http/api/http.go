// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	service "github.com/okian/wudao/internal/app"
	"github.com/okian/wudao/internal/domain/catalog"
	"github.com/okian/wudao/internal/domain/media"
	"github.com/okian/wudao/internal/domain/pipeline"
	"github.com/okian/wudao/internal/domain/timeline"
	"github.com/okian/wudao/pkg/logger"
)

const defaultMaxUploadBytes = 200 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CreateSession(ctx context.Context, kind media.Kind) (*service.Session, error)
	Session(ctx context.Context, id string) (*service.Session, error)
	CloseSession(ctx context.Context, id string) error

	Coaches(c catalog.Criteria) ([]catalog.Coach, error)
	Courses(c catalog.Criteria) ([]catalog.Course, error)
	CoachTags() []string
	CourseTags() []string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxUploadBytes caps artifact request bodies.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	validate       *validator.Validate
	maxUploadBytes int64
	logger         logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		deps:           deps,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger.Nop(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.handleCreateSession, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.handleCloseSession, "sessions"))

	mux.HandleFunc("PUT /sessions/{id}/artifact", MetricsMiddleware(s.handlePutArtifact, "artifact"))
	mux.HandleFunc("POST /sessions/{id}/artifact/capture", MetricsMiddleware(s.handleCapture, "artifact"))
	mux.HandleFunc("DELETE /sessions/{id}/artifact", MetricsMiddleware(s.handleClearArtifact, "artifact"))

	mux.HandleFunc("POST /sessions/{id}/analysis", MetricsMiddleware(s.handleStartAnalysis, "analysis"))
	mux.HandleFunc("GET /sessions/{id}/analysis", MetricsMiddleware(s.handleGetAnalysis, "analysis"))
	mux.HandleFunc("DELETE /sessions/{id}/analysis", MetricsMiddleware(s.handleResetAnalysis, "analysis"))
	mux.HandleFunc("GET /sessions/{id}/analysis/events", s.handleAnalysisEvents)

	mux.HandleFunc("GET /sessions/{id}/timeline", MetricsMiddleware(s.handleGetTimeline, "timeline"))
	mux.HandleFunc("POST /sessions/{id}/timeline/jump", MetricsMiddleware(s.handleJump, "timeline"))
	mux.HandleFunc("POST /sessions/{id}/timeline/toggle", MetricsMiddleware(s.handleToggle, "timeline"))
	mux.HandleFunc("POST /sessions/{id}/timeline/playback", MetricsMiddleware(s.handlePlayback, "timeline"))
	mux.HandleFunc("GET /sessions/{id}/timeline/annotations", MetricsMiddleware(s.handleListAnnotations, "annotations"))
	mux.HandleFunc("POST /sessions/{id}/timeline/annotations", MetricsMiddleware(s.handleAddAnnotation, "annotations"))
	mux.HandleFunc("DELETE /sessions/{id}/timeline/annotations/{note}", MetricsMiddleware(s.handleDeleteAnnotation, "annotations"))
	mux.HandleFunc("POST /sessions/{id}/timeline/annotations/{note}/jump", MetricsMiddleware(s.handleAnnotationJump, "annotations"))

	mux.HandleFunc("GET /catalog/coaches", MetricsMiddleware(s.handleCoaches, "catalog"))
	mux.HandleFunc("GET /catalog/courses", MetricsMiddleware(s.handleCourses, "catalog"))
}

// session resolves the {id} path value.
func (s *Server) session(r *http.Request) (*service.Session, error) {
	return s.deps.Session(r.Context(), r.PathValue("id"))
}

// decode reads an optional JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyError(err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return bodyError(err)
		}
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a domain error onto its HTTP status.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, timeline.ErrSegmentNotFound):
		return http.StatusNotFound, "segment_not_found"
	case errors.Is(err, timeline.ErrAnnotationNotFound):
		return http.StatusNotFound, "annotation_not_found"
	case errors.Is(err, media.ErrInvalidMediaKind):
		return http.StatusUnsupportedMediaType, "invalid_media_kind"
	case errors.Is(err, ErrPayloadTooBig):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		return http.StatusConflict, "already_running"
	case errors.Is(err, service.ErrTimelineUnavailable):
		return http.StatusConflict, "timeline_unavailable"
	case errors.Is(err, pipeline.ErrEmptyArtifact):
		return http.StatusUnprocessableEntity, "empty_artifact"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, media.ErrEmptyFile),
		errors.Is(err, media.ErrMalformedDataURL),
		errors.Is(err, media.ErrUnknownKind),
		errors.Is(err, catalog.ErrInvalidCriteria),
		errors.Is(err, timeline.ErrMalformedTimecode),
		errors.Is(err, timeline.ErrInvalidPosition),
		errors.Is(err, timeline.ErrInvalidAnnotation):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
