package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/wudao/pkg/logger"
)

// handleStartAnalysis handles POST /sessions/{id}/analysis.
func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var req startAnalysisRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := sess.Analyze(r.Context(), req.Routine); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, analysisView(sess.Pipeline.Snapshot()))
}

// handleGetAnalysis handles GET /sessions/{id}/analysis.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisView(sess.Pipeline.Snapshot()))
}

// handleResetAnalysis handles DELETE /sessions/{id}/analysis.
func (s *Server) handleResetAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sess.Pipeline.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalysisEvents handles GET /sessions/{id}/analysis/events as a
// server-sent event stream of snapshots. The stream starts with the current
// state and ends at the first state that is not running or when the client
// goes away.
func (s *Server) handleAnalysisEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusNotImplemented, "streaming_unsupported", nil)
		return
	}

	updates, cancel := sess.Pipeline.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	send := func(v analysisResponse) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			s.logger.Error(r.Context(), "encode analysis event", logger.Error(err))
			return false
		}
		if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok || !send(analysisView(snap)) || !snap.State.Running() {
				return
			}
		}
	}
}
