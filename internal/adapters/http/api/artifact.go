package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/okian/wudao/internal/domain/media"
)

const multipartMemory = 32 << 20

// handlePutArtifact handles PUT /sessions/{id}/artifact. The body is either
// the raw file with its own Content-Type or a multipart form with a "file"
// part. Replacing the artifact resets any analysis.
func (s *Server) handlePutArtifact(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	f, err := readUpload(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	a, err := sess.Intake.Accept(f)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artifactView(a))
}

func readUpload(r *http.Request) (media.File, error) {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return media.File{}, fmt.Errorf("%w: content type: %w", ErrBadRequest, err)
	}

	if ct != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return media.File{}, bodyError(err)
		}
		return media.File{Name: r.URL.Query().Get("name"), MIMEType: r.Header.Get("Content-Type"), Data: data}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return media.File{}, bodyError(err)
	}
	part, hdr, err := r.FormFile("file")
	if err != nil {
		return media.File{}, fmt.Errorf("%w: file part: %w", ErrBadRequest, err)
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		return media.File{}, bodyError(err)
	}
	return media.File{Name: hdr.Filename, MIMEType: hdr.Header.Get("Content-Type"), Data: data}, nil
}

func bodyError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: limit %d bytes", ErrPayloadTooBig, tooBig.Limit)
	}
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}

// handleCapture handles POST /sessions/{id}/artifact/capture with a camera
// frame encoded as a data URL.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	var req captureRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	a, err := sess.Intake.AcceptCapture(req.Name, req.DataURL)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artifactView(a))
}

// handleClearArtifact handles DELETE /sessions/{id}/artifact.
func (s *Server) handleClearArtifact(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sess.Intake.Clear()
	w.WriteHeader(http.StatusNoContent)
}
