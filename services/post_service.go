package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

const postsTable = "blog_posts"

// PostService is the only writer of posts, their tag rows and their revisions.
type PostService struct {
	db            database.Database
	guard         Guard
	invalidator   cache.Invalidator
	now           func() time.Time
	keepRevisions int
	logger        zerolog.Logger
	metrics       Metrics
}

type PostServiceOption func(*PostService)

// WithPostClock replaces the clock used for publish timestamps and copy slugs.
func WithPostClock(now func() time.Time) PostServiceOption {
	return func(s *PostService) {
		s.now = now
	}
}

func NewPostService(db database.Database, guard Guard, invalidator cache.Invalidator, opts ...PostServiceOption) *PostService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	s := &PostService{
		db:            db,
		guard:         guard,
		invalidator:   invalidator,
		now:           time.Now,
		keepRevisions: database.DefaultRevisionsKept,
		logger:        log.With().Str("service", "postService").Logger(),
		metrics:       newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertResult reports the id of the saved post.
type UpsertResult struct {
	ID uuid.UUID `json:"id"`
	OK bool      `json:"ok"`
}

// Upsert validates in and persists it. A payload without an id creates a post.
// The post row, its tag rows, its upload references and the new revision are
// written in one transaction; the cache is signalled after commit.
func (s *PostService) Upsert(ctx context.Context, in PostInput) (result UpsertResult, err error) {
	ctx, span := startSpan(ctx, "PostService.Upsert", attribute.String("post.status", string(in.Status)))
	defer func() { endSpan(span, err) }()

	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return UpsertResult{}, err
	}

	valid, err := ValidatePost(in)
	if err != nil {
		s.metrics.ValidationFailures.Add(ctx, 1)
		return UpsertResult{}, err
	}

	readingTime := content.EstimateReadingTimeMinutes(content.ToPlainText(&valid.Content))

	var (
		saved   *models.Post
		oldSlug string
	)
	err = s.db.Transaction(ctx, func(tx database.Database) error {
		var existing *models.Post
		if valid.ID != nil {
			found, err := tx.PostRepo().FindByID(ctx, *valid.ID)
			if err != nil {
				return errs.NewDatabaseError("find", "post", err)
			}
			existing = found
			oldSlug = found.Slug
		}

		if err := s.checkCategory(ctx, tx, valid.CategoryID); err != nil {
			return err
		}

		post := s.buildPost(valid, existing, readingTime)
		if existing == nil {
			if err := tx.PostRepo().Add(ctx, post); err != nil {
				return errs.NewDatabaseError("create", "post", err)
			}
		} else {
			if err := tx.PostRepo().Update(ctx, post); err != nil {
				return errs.NewDatabaseError("update", "post", err)
			}
		}

		if err := tx.PostTagRepo().Replace(ctx, post.ID, []string(post.Tags)); err != nil {
			return errs.NewDatabaseError("sync tags of", "post", err)
		}
		if err := syncPostUploads(ctx, tx, post); err != nil {
			return err
		}
		if err := s.snapshot(ctx, tx, post.ID, valid.Content); err != nil {
			return err
		}

		saved = post
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("actor", actor.ID).Msg("Post upsert failed")
		return UpsertResult{}, err
	}

	s.metrics.PostSaves.Add(ctx, 1)
	span.SetAttributes(attribute.String("post.id", saved.ID.String()))
	s.logger.Info().
		Str("actor", actor.ID).
		Str("postID", saved.ID.String()).
		Str("slug", saved.Slug).
		Str("status", string(saved.Status)).
		Msg("Post saved")

	s.invalidator.Invalidate(ctx, cache.ForPost(saved.ID, saved.Slug, oldSlug))
	return UpsertResult{ID: saved.ID, OK: true}, nil
}

func (s *PostService) buildPost(valid ValidatedPost, existing *models.Post, readingTime int) *models.Post {
	post := &models.Post{}
	if existing != nil {
		post.ID = existing.ID
		post.CreatedAt = existing.CreatedAt
	}

	post.Title = valid.Title
	post.Slug = valid.NormalizedSlug
	post.Summary = valid.Summary
	post.CategoryID = valid.CategoryID
	post.Tags = models.StringArray(valid.Tags)
	post.HeroImageURL = nil
	if valid.HeroImageURL != "" {
		hero := valid.HeroImageURL
		post.HeroImageURL = &hero
	}
	post.ContentJSON = datatypes.NewJSONType(valid.Content)
	post.Status = valid.Status
	post.PublishedAt = ResolvePublishedAt(valid.Status, valid.PublishedAt, existing, s.now())
	post.ReadingTimeMinutes = readingTime
	return post
}

func (s *PostService) checkCategory(ctx context.Context, tx database.Database, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := tx.CategoryRepo().FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewValidationError([]errs.Violation{{Field: "categoryId", Message: "does not exist"}})
		}
		return errs.NewDatabaseError("find", "category", err)
	}
	return nil
}

// snapshot records the content as the newest revision and prunes older ones.
func (s *PostService) snapshot(ctx context.Context, tx database.Database, postID uuid.UUID, doc content.Document) error {
	if _, err := tx.RevisionRepo().RecordSnapshot(ctx, postID, doc); err != nil {
		return errs.NewDatabaseError("record", "revision", err)
	}
	pruned, err := tx.RevisionRepo().PruneExcess(ctx, postID, s.keepRevisions)
	if err != nil {
		return errs.NewDatabaseError("prune", "revisions", err)
	}
	if pruned > 0 {
		s.metrics.RevisionsPruned.Add(ctx, pruned)
	}
	return nil
}

// syncPostUploads points the upload references of post at the uploads used as
// its hero image or inside its content.
func syncPostUploads(ctx context.Context, tx database.Database, post *models.Post) error {
	urls := post.Content().Images()
	if post.HeroImageURL != nil {
		urls = append(urls, *post.HeroImageURL)
	}
	ids, err := tx.UploadRepo().FindIDsByPublicURL(ctx, urls)
	if err != nil {
		return errs.NewDatabaseError("find", "uploads", err)
	}
	if err := tx.UploadRepo().ReplaceReferences(ctx, postsTable, post.ID, ids); err != nil {
		return errs.NewDatabaseError("sync upload references of", "post", err)
	}
	return nil
}

// Duplicate copies a post into a new draft with its own slug, tags and a single
// revision.
func (s *PostService) Duplicate(ctx context.Context, id uuid.UUID) (result UpsertResult, err error) {
	ctx, span := startSpan(ctx, "PostService.Duplicate", attribute.String("post.id", id.String()))
	defer func() { endSpan(span, err) }()

	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return UpsertResult{}, err
	}

	var created *models.Post
	err = s.db.Transaction(ctx, func(tx database.Database) error {
		source, err := tx.PostRepo().FindByID(ctx, id)
		if err != nil {
			return errs.NewDatabaseError("find", "post", err)
		}

		copied := &models.Post{
			Title:              source.Title + " (Copy)",
			Slug:               Slugify(fmt.Sprintf("%s-copy-%d", source.Slug, s.now().UnixMilli())),
			Summary:            source.Summary,
			CategoryID:         source.CategoryID,
			Tags:               append(models.StringArray{}, source.Tags...),
			HeroImageURL:       source.HeroImageURL,
			ContentJSON:        datatypes.NewJSONType(source.Content()),
			Status:             models.PostStatusDraft,
			ReadingTimeMinutes: source.ReadingTimeMinutes,
		}
		if err := tx.PostRepo().Add(ctx, copied); err != nil {
			return errs.NewDatabaseError("create", "post", err)
		}
		if err := tx.PostTagRepo().Replace(ctx, copied.ID, []string(copied.Tags)); err != nil {
			return errs.NewDatabaseError("sync tags of", "post", err)
		}
		if err := syncPostUploads(ctx, tx, copied); err != nil {
			return err
		}
		if err := s.snapshot(ctx, tx, copied.ID, copied.Content()); err != nil {
			return err
		}
		created = copied
		return nil
	})
	if err != nil {
		return UpsertResult{}, err
	}

	s.logger.Info().Str("actor", actor.ID).Str("sourceID", id.String()).Str("postID", created.ID.String()).Msg("Post duplicated")
	s.invalidator.Invalidate(ctx, cache.ForPost(uuid.Nil))
	return UpsertResult{ID: created.ID, OK: true}, nil
}

// Delete removes a post with its tags, revisions and upload references.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "PostService.Delete", attribute.String("post.id", id.String()))
	defer func() { endSpan(span, err) }()

	actor, err := s.guard.Check(ctx, auth.RoleOwner)
	if err != nil {
		return err
	}

	var slug string
	err = s.db.Transaction(ctx, func(tx database.Database) error {
		post, err := tx.PostRepo().FindByID(ctx, id)
		if err != nil {
			return errs.NewDatabaseError("find", "post", err)
		}
		slug = post.Slug
		if err := tx.UploadRepo().DeleteReferences(ctx, postsTable, id); err != nil {
			return errs.NewDatabaseError("delete upload references of", "post", err)
		}
		if err := tx.PostRepo().Delete(ctx, id); err != nil {
			return errs.NewDatabaseError("delete", "post", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID).Str("postID", id.String()).Msg("Post deleted")
	s.invalidator.Invalidate(ctx, cache.ForPost(id, slug))
	return nil
}
