package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/chat-assistant/internal/model"
	"github.com/capitalize-ai/chat-assistant/pkg/logger"
	"github.com/capitalize-ai/chat-assistant/pkg/metrics"
)

// ErrInvalidFilename is returned for names that are not a bare file name.
var ErrInvalidFilename = errors.New("invalid file name")

// MediaService stores uploaded files under a single directory.
type MediaService struct {
	dir      string
	maxBytes int64
	events   EventPublisher
	logger   *logger.Logger
}

// NewMediaService creates a media service writing into dir. maxBytes <= 0
// disables the size limit. events may be nil.
func NewMediaService(dir string, maxBytes int64, events EventPublisher, log *logger.Logger) *MediaService {
	if log == nil {
		log = logger.NewNop()
	}
	return &MediaService{
		dir:      dir,
		maxBytes: maxBytes,
		events:   events,
		logger:   log,
	}
}

// Dir returns the storage directory.
func (s *MediaService) Dir() string {
	return s.dir
}

// MaxBytes returns the upload size limit, 0 when unlimited.
func (s *MediaService) MaxBytes() int64 {
	if s.maxBytes < 0 {
		return 0
	}
	return s.maxBytes
}

// CheckFilename reports whether name can be stored as-is.
func CheckFilename(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidFilename, name)
	case filepath.IsAbs(name):
		return fmt.Errorf("%w: %q is absolute", ErrInvalidFilename, name)
	}
	return nil
}

// Save streams r into dir/filename and returns the number of bytes written.
// An existing file with the same name is replaced atomically.
func (s *MediaService) Save(ctx context.Context, filename string, r io.Reader) (int64, error) {
	if err := CheckFilename(filename); err != nil {
		metrics.RecordUpload("rejected", 0)
		return 0, ValidationError("upload", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		metrics.RecordUpload("error", 0)
		return 0, StorageError("upload", fmt.Errorf("failed to create upload directory: %w", err))
	}

	tmpPath := filepath.Join(s.dir, "."+uuid.NewString()+".part")
	written, err := s.writeTemp(ctx, tmpPath, r)
	if err != nil {
		os.Remove(tmpPath)
		var se *Error
		if errors.As(err, &se) {
			metrics.RecordUpload(string(se.Kind), written)
			return written, err
		}
		metrics.RecordUpload("error", written)
		return written, StorageError("upload", err)
	}

	target := filepath.Join(s.dir, filename)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		metrics.RecordUpload("error", written)
		return written, StorageError("upload", fmt.Errorf("failed to store file: %w", err))
	}

	metrics.RecordUpload("success", written)
	s.logger.Info("media uploaded", zap.String("filename", filename), zap.Int64("bytes", written))
	publishEvent(ctx, s.events, s.logger, model.EventTypeMediaUploaded, "", map[string]any{
		"filename": filename,
		"bytes":    written,
	})

	return written, nil
}

func (s *MediaService) writeTemp(ctx context.Context, path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	src := io.Reader(&ctxReader{ctx: ctx, r: r})
	if limit := s.MaxBytes(); limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	written, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return written, &Error{Kind: KindStorage, Op: "upload", Err: err}
		}
		return written, fmt.Errorf("failed to write file: %w", err)
	}

	if limit := s.MaxBytes(); limit > 0 && written > limit {
		return written, TooLargeError("upload", limit)
	}
	return written, nil
}

// ctxReader stops a copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
