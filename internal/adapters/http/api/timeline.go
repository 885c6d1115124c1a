package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// handleGetTimeline handles GET /sessions/{id}/timeline?position=SECONDS.
// Without position the last position reported by the client is used.
// Responds 204 when the position falls in a gap between segments.
func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ts, err := sess.Timeline()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	pos := sess.Player.Position()
	if raw := r.URL.Query().Get("position"); raw != "" {
		pos, err = strconv.ParseFloat(raw, 64)
		if err != nil || pos < 0 {
			s.writeFailure(w, r, fmt.Errorf("%w: position %q", ErrBadRequest, raw))
			return
		}
	}

	h := ts.Observe(pos)
	if !h.Found() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, highlightResponse{
		Index:    h.Index,
		Segment:  h.Segment,
		Changed:  h.Changed,
		Playing:  ts.Playing(),
		Position: pos,
	})
}

// handleJump handles POST /sessions/{id}/timeline/jump and returns the player
// commands the client should apply.
func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req jumpRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ts, err := sess.Timeline()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	seg, err := ts.JumpToIndex(*req.Segment)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{
		Playing:  ts.Playing(),
		Segment:  &seg,
		Commands: sess.Player.Drain(),
	})
}

// handleToggle handles POST /sessions/{id}/timeline/toggle.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	ts, err := sess.Timeline()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	playing := ts.TogglePlay()
	writeJSON(w, http.StatusOK, commandsResponse{Playing: playing, Commands: sess.Player.Drain()})
}

// handlePlayback handles POST /sessions/{id}/timeline/playback: the client
// reports its own player state and collects pending commands.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req playbackRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sess.ReportPlayback(req.Playing, req.Position)
	writeJSON(w, http.StatusOK, commandsResponse{Playing: req.Playing, Commands: sess.Player.Drain()})
}
