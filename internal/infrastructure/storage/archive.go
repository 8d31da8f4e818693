package storage

import (
	"context"
	"fmt"

	"github.com/factuurdesk/backend/internal/infrastructure/config"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"go.uber.org/zap"
)

// Archive backends
const (
	ArchiveNone       = "none"
	ArchiveFileSystem = "filesystem"
	ArchiveS3         = "s3"
)

// NewArchive builds the configured archive sink. It returns (nil, nil) when
// archiving is off.
func NewArchive(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (rendering.DocumentSink, error) {
	switch cfg.Archive {
	case "", ArchiveNone:
		return nil, nil
	case ArchiveFileSystem:
		sink, err := NewFileSystemSink(FileSystemConfig{
			BasePath: cfg.BasePath,
			BaseURL:  cfg.BaseURL,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	case ArchiveS3:
		sink, err := NewS3DocumentSink(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive)
	}
}
