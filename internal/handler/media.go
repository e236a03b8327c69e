package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/internal/service"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
)

const (
	// uploadField is the multipart field carrying the file.
	uploadField = "file"

	// multipartOverhead allows for boundaries and part headers on top of the payload limit.
	multipartOverhead = 1 << 20
)

// MediaHandler handles media uploads.
type MediaHandler struct {
	service *service.MediaService
	logger  *logger.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(svc *service.MediaService, log *logger.Logger) *MediaHandler {
	return &MediaHandler{
		service: svc,
		logger:  log,
	}
}

// Upload handles POST /upload_media/
// The file part is streamed to storage without buffering the body.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if limit := h.service.MaxBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeServiceError(w, r, h.logger, "upload", service.ValidationError("upload", fmt.Errorf("expected multipart form: %w", err)))
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		writeServiceError(w, r, h.logger, "upload", h.classify(err))
		return
	}
	defer part.Close()

	filename := rawFilename(part)
	if _, err := h.service.Save(r.Context(), filename, part); err != nil {
		writeServiceError(w, r, h.logger, "upload", h.classify(err))
		return
	}

	writeJSON(w, http.StatusOK, &model.UploadResponse{
		Filename: filename,
		Message:  model.UploadSuccessMessage,
	})
}

// classify maps body-size overruns to too_large regardless of where they surfaced.
func (h *MediaHandler) classify(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return service.TooLargeError("upload", h.service.MaxBytes())
	}
	var se *service.Error
	if errors.As(err, &se) {
		return err
	}
	return service.ValidationError("upload", err)
}

// nextFilePart skips ahead to the upload field.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("multipart field %q is required", uploadField)
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField {
			return part, nil
		}
		part.Close()
	}
}

// rawFilename returns the client-supplied file name unmodified.
// multipart.Part.FileName strips directories, which would hide names the
// storage policy must reject.
func rawFilename(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return part.FileName()
	}
	return params["filename"]
}
