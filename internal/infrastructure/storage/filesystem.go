// Package storage archives rendered documents on the local file system or in
// an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBasePath = "/data/documents"
	defaultBaseURL  = "/api/v1/documents"
)

// FileSystemConfig configures a FileSystemSink
type FileSystemConfig struct {
	// BasePath is the root directory for stored documents
	BasePath string
	// BaseURL is the URL prefix under which stored documents are served
	BaseURL string
	Logger  *zap.Logger
}

// FileSystemSink stores documents under {base}/{organization}/{year}/{month}/{filename}
type FileSystemSink struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileSystemSink creates the base directory if needed
func NewFileSystemSink(cfg FileSystemConfig) (*FileSystemSink, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = defaultBasePath
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", cfg.BasePath), err)
	}

	return &FileSystemSink{
		basePath: cfg.BasePath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:   cfg.Logger.Named("document_storage"),
		now:      time.Now,
	}, nil
}

// Store writes the document. An existing file of the same name in the same
// month is replaced.
func (s *FileSystemSink) Store(ctx context.Context, req *rendering.StoreRequest) (*rendering.StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := validateStoreRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	relativePath := filepath.Join(
		req.OrganizationID.String(),
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		req.Filename,
	)
	fullPath := filepath.Join(s.basePath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, req.Data, 0o644); err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to write document", err)
	}

	url := s.URL(relativePath)
	s.logger.Info("Document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &rendering.StoreResult{
		Path: filepath.ToSlash(relativePath),
		URL:  url,
		Size: int64(len(req.Data)),
	}, nil
}

// Open returns a stored document by the relative path Store reported
func (s *FileSystemSink) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "document not found", err)
		}
		return nil, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to open document", err)
	}
	return file, nil
}

// Delete removes a stored document. A missing file is not an error.
func (s *FileSystemSink) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to delete document", err)
	}
	s.logger.Info("Document deleted", zap.String("path", path))
	return nil
}

// CleanupOlderThan removes stored PDFs last modified before now-age and
// returns how many were removed
func (s *FileSystemSink) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age)
	deleted := 0

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, rendering.NewRenderError(rendering.ErrCodeStorageFailed, "cleanup walk failed", err)
	}

	s.logger.Info("Document cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// URL returns the public URL of a stored document
func (s *FileSystemSink) URL(path string) string {
	return s.baseURL + "/" + filepath.ToSlash(filepath.Clean(path))
}

// resolve maps a relative path into the base directory, rejecting anything
// that would escape it
func (s *FileSystemSink) resolve(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if path == "" || filepath.IsAbs(cleanPath) || containsDotDot(path) {
		s.logger.Warn("Blocked document path", zap.String("path", path))
		return "", rendering.NewRenderError(rendering.ErrCodeStorageFailed, "invalid path", nil)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", rendering.NewRenderError(rendering.ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("Blocked document path escape",
			zap.String("path", path),
			zap.String("abs_path", absPath))
		return "", rendering.NewRenderError(rendering.ErrCodeStorageFailed, "invalid path", nil)
	}
	return absPath, nil
}

func validateStoreRequest(req *rendering.StoreRequest) error {
	switch {
	case req == nil:
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed, "store request is nil", nil)
	case req.OrganizationID == uuid.Nil:
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed, "organization ID is required", nil)
	case len(req.Data) == 0:
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed, "document data is empty", nil)
	case !validFilename(req.Filename):
		return rendering.NewRenderError(rendering.ErrCodeStorageFailed,
			fmt.Sprintf("invalid filename %q", req.Filename), nil)
	}
	return nil
}

// validFilename accepts a single path element
func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// containsDotDot reports whether the raw path has a ".." element
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}

var _ rendering.DocumentSink = (*FileSystemSink)(nil)
