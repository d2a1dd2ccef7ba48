package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/webp"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/storage"
)

// MaxUploadBytes is the largest object Ingest accepts.
const MaxUploadBytes = 10 << 20

type UploadResult struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	PublicURL string    `json:"publicUrl"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
}

type UploadService struct {
	db          database.Database
	guard       Guard
	store       storage.ObjectStore
	invalidator cache.Invalidator
	now         func() time.Time
	logger      zerolog.Logger
}

func NewUploadService(db database.Database, guard Guard, store storage.ObjectStore, invalidator cache.Invalidator) *UploadService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	return &UploadService{
		db:          db,
		guard:       guard,
		store:       store,
		invalidator: invalidator,
		now:         time.Now,
		logger:      log.With().Str("service", "uploadService").Logger(),
	}
}

func (s *UploadService) List(ctx context.Context) ([]*models.Upload, error) {
	uploads, err := s.db.UploadRepo().FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "uploads", err)
	}
	if uploads == nil {
		uploads = []*models.Upload{}
	}
	return uploads, nil
}

// Ingest stores body under yyyy/mm/<uuid>.<ext> and records it. Image
// dimensions are filled in when the body decodes as png, jpeg, gif or webp.
func (s *UploadService) Ingest(ctx context.Context, filename, contentType string, body []byte) (result *UploadResult, err error) {
	ctx, span := startSpan(ctx, "UploadService.Ingest", attribute.Int("upload.size", len(body)))
	defer func() { endSpan(span, err) }()

	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errs.NewMissingRequiredFieldError("file")
	}
	if len(body) > MaxUploadBytes {
		return nil, errs.NewMaxBodySizeExceededError(MaxUploadBytes)
	}

	contentType = uploadContentType(filename, contentType)
	id := uuid.New()
	key := fmt.Sprintf("%s/%s%s", s.now().UTC().Format("2006/01"), id, uploadExtension(filename, contentType))

	publicURL, err := s.store.Put(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	upload := &models.Upload{
		ID:        id,
		Path:      key,
		PublicURL: publicURL,
		Size:      int64(len(body)),
		Mime:      contentType,
		Source:    "s3",
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(body)); err == nil {
		width, height := cfg.Width, cfg.Height
		upload.Width = &width
		upload.Height = &height
	}

	if err := s.db.UploadRepo().Add(ctx, upload); err != nil {
		return nil, errs.NewDatabaseError("create", "upload", err)
	}

	s.logger.Info().Str("actor", actor.ID).Str("uploadID", id.String()).Str("path", key).Msg("Upload stored")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathMedia))
	return &UploadResult{
		ID:        upload.ID,
		Path:      upload.Path,
		PublicURL: upload.PublicURL,
		Width:     upload.Width,
		Height:    upload.Height,
	}, nil
}

// SoftDelete hides an upload from the media library. Uploads still used by an
// entity are kept.
func (s *UploadService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx database.Database) error {
		refs, err := tx.UploadRepo().CountReferences(ctx, id)
		if err != nil {
			return errs.NewDatabaseError("count references of", "upload", err)
		}
		if refs > 0 {
			return errs.NewConflictError(fmt.Sprintf("upload is used by %d entities", refs))
		}
		if err := tx.UploadRepo().SoftDelete(ctx, id); err != nil {
			return errs.NewDatabaseError("delete", "upload", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID).Str("uploadID", id.String()).Msg("Upload deleted")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathMedia))
	return nil
}

func uploadContentType(filename, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func uploadExtension(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 1 && len(ext) <= 8 && strings.Trim(ext[1:], "abcdefghijklmnopqrstuvwxyz0123456789") == "" {
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
