package media

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/observability"
)

// PostsPrefix is where post images live inside the storage.
const PostsPrefix = "posts"

// Service stores post images and their WebP thumbnails.
type Service struct {
	storage    Storage
	thumbnails bool
}

// NewService wraps storage; thumbnails toggles WebP thumbnail generation.
func NewService(storage Storage, thumbnails bool) *Service {
	return &Service{storage: storage, thumbnails: thumbnails}
}

// NewStorage builds the backend selected by MEDIA_BACKEND.
func NewStorage(cfg *config.Config) (Storage, error) {
	if cfg.MediaBackend == "s3" {
		return NewS3Storage(S3Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			SSLDisabled:    cfg.S3SSLDisabled,
		})
	}
	return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL), nil
}

// Store saves the original image and, when enabled, a thumbnail.
// A failed thumbnail is logged and leaves thumbKey empty.
func (s *Service) Store(ctx context.Context, up *Upload) (imageKey, thumbKey string, err error) {
	imageKey, err = s.storage.Save(ctx, &UploadObject{
		Prefix:   PostsPrefix,
		FileName: up.Name,
		Mime:     up.ContentType,
		Data:     up.Data,
	})
	if err != nil {
		observability.MediaUploads.WithLabelValues(s.storage.Name(), "error").Inc()
		return "", "", err
	}
	observability.MediaUploads.WithLabelValues(s.storage.Name(), "ok").Inc()

	if !s.thumbnails {
		return imageKey, "", nil
	}

	thumb, err := Thumbnail(up.Data)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "thumbnail generation failed",
			slog.String("image", imageKey), slog.String("error", err.Error()))
		return imageKey, "", nil
	}
	stem := strings.TrimSuffix(path.Base(imageKey), path.Ext(imageKey))
	thumbKey, err = s.storage.Save(ctx, &UploadObject{
		Prefix:   PostsPrefix + "/thumbs",
		FileName: stem + ".webp",
		Mime:     "image/webp",
		Data:     thumb,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "thumbnail upload failed",
			slog.String("image", imageKey), slog.String("error", err.Error()))
		return imageKey, "", nil
	}
	return imageKey, thumbKey, nil
}

// Remove deletes stored objects, ignoring empty keys. Failures are logged only.
func (s *Service) Remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			middleware.Logger.WarnContext(ctx, "media delete failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// URL resolves a stored key to its public URL.
func (s *Service) URL(key string) string {
	return s.storage.URL(key)
}
