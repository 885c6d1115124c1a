package api

import (
	"net/http"

	"github.com/okian/wudao/internal/domain/timeline"
)

// handleListAnnotations handles GET /sessions/{id}/timeline/annotations.
// Notes come back ordered by position.
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	items := sess.Annotations.List()
	if items == nil {
		items = []timeline.Annotation{}
	}
	writeJSON(w, http.StatusOK, annotationsResponse{Items: items, Total: len(items)})
}

// handleAddAnnotation handles POST /sessions/{id}/timeline/annotations.
// Drawings carry a data URL, so the body shares the upload limit.
func (s *Server) handleAddAnnotation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req annotationRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	n, err := sess.Annotate(timeline.Annotation{
		Position: *req.Position,
		Kind:     timeline.AnnotationKind(req.Kind),
		Content:  req.Content,
		Drawing:  req.Drawing,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// handleDeleteAnnotation handles DELETE /sessions/{id}/timeline/annotations/{note}.
func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := sess.Annotations.Delete(r.PathValue("note")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnnotationJump handles POST /sessions/{id}/timeline/annotations/{note}/jump
// and returns the player commands the client should apply.
func (s *Server) handleAnnotationJump(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	n, err := sess.JumpToAnnotation(r.PathValue("note"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ts, err := sess.Timeline()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{
		Playing:    ts.Playing(),
		Annotation: &n,
		Commands:   sess.Player.Drain(),
	})
}
