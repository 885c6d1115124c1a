package api

import (
	"net/http"

	"github.com/okian/wudao/internal/domain/media"
)

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	kind, err := media.ParseKind(req.Kind)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sess, err := s.deps.CreateSession(r.Context(), kind)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID, Kind: sess.Kind})
}

// handleCloseSession handles DELETE /sessions/{id}.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
