package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/bulksend/internal/core"
)

const (
	// multipartOverhead is allowed on top of UPLOAD_MAX_FILE_SIZE for form
	// boundaries and the mensagem field.
	multipartOverhead = 64 << 10

	maxJSONBody = 1 << 20
)

var errNoFile = errors.New("no file provided")

// handleUploadCSV dispatches one message per valid contact in the uploaded
// file and responds with the aggregated report.
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	if !s.service.Status().Connected {
		s.respondError(w, r, core.ErrTransportNotReady, http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	body, template, cleanup, err := uploadSource(r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer cleanup()

	// A dropped client connection does not abort a half-sent campaign.
	ctx := WithRequestMetadata(context.WithoutCancel(r.Context()), r)

	report, err := s.service.Run(ctx, core.DispatchRequest{Body: body, Template: template})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// uploadSource returns the contact file and the optional template override.
// The body is either the raw file or a multipart form with a "file" part.
func uploadSource(r *http.Request, maxMemory int64) (io.Reader, string, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, r.URL.Query().Get("mensagem"), func() {}, nil
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, "", nil, fmt.Errorf("parse multipart form: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil, errNoFile
		}
		return nil, "", nil, fmt.Errorf("read form file: %w", err)
	}

	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}
	return file, r.FormValue("mensagem"), cleanup, nil
}

type sendOneRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`

	// Template overrides the configured message when set.
	Template string `json:"mensagem,omitempty"`
}

type sendOneResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleSendOne sends a single message to the contact in the JSON body.
func (s *Server) handleSendOne(w http.ResponseWriter, r *http.Request) {
	if !s.service.Status().Connected {
		s.respondError(w, r, core.ErrTransportNotReady, http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req sendOneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		err = fmt.Errorf("invalid request body: %w", err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.SendOne(ctx, req.Name, req.Phone, req.Template); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, sendOneResponse{
		Success: true,
		Message: fmt.Sprintf("Mensagem enviada para %s.", strings.TrimSpace(req.Name)),
	})
}

// handleStatus reports whether the transport is connected, for the UI poller.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

func (s *Server) handleDispatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, "Endpoint não encontrado. Use POST /upload-csv ou POST /enviar-whatsapp.")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	msg := "Método não permitido."
	switch r.URL.Path {
	case "/upload-csv", "/enviar-whatsapp":
		msg += " Use POST."
	case "/status", "/status/dispatches":
		msg += " Use GET."
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": msg})
}
