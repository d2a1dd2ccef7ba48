package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

type CategoryInput struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Slug string     `json:"slug" validate:"max=120"`
	Name string     `json:"name" validate:"required,max=120"`
}

type CategoryService struct {
	db          database.Database
	guard       Guard
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

func NewCategoryService(db database.Database, guard Guard, invalidator cache.Invalidator) *CategoryService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	return &CategoryService{
		db:          db,
		guard:       guard,
		invalidator: invalidator,
		logger:      log.With().Str("service", "categoryService").Logger(),
	}
}

func (s *CategoryService) List(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.db.CategoryRepo().FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "categories", err)
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	return categories, nil
}

// Upsert creates or renames a category. The slug falls back to the name.
func (s *CategoryService) Upsert(ctx context.Context, in CategoryInput) (*models.Category, error) {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if violations := structViolations(in); len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return nil, errs.NewValidationError([]errs.Violation{{Field: "slug", Message: "must contain letters or digits"}})
	}

	category := &models.Category{Slug: slug, Name: in.Name}
	if in.ID == nil {
		if err := s.db.CategoryRepo().Add(ctx, category); err != nil {
			return nil, errs.NewDatabaseError("create", "category", err)
		}
	} else {
		category.ID = *in.ID
		if err := s.db.CategoryRepo().Update(ctx, category); err != nil {
			return nil, errs.NewDatabaseError("update", "category", err)
		}
	}

	s.logger.Info().Str("actor", actor.ID).Str("categoryID", category.ID.String()).Msg("Category saved")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathBlog))
	return category, nil
}

// Delete removes a category. Posts still filed under it are moved to fallbackID
// in the same transaction; without a fallback such a category cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID, fallbackID *uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "CategoryService.Delete", attribute.String("category.id", id.String()))
	defer func() { endSpan(span, err) }()

	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return err
	}

	var moved int64
	err = s.db.Transaction(ctx, func(tx database.Database) error {
		if _, err := tx.CategoryRepo().FindByID(ctx, id); err != nil {
			return errs.NewDatabaseError("find", "category", err)
		}

		count, err := tx.PostRepo().CountByCategory(ctx, id)
		if err != nil {
			return errs.NewDatabaseError("count", "posts", err)
		}
		if count > 0 {
			if fallbackID == nil {
				return errs.NewConflictError("category still has posts; choose a fallback category")
			}
			if *fallbackID == id {
				return errs.NewConflictError("fallback category must differ from the deleted category")
			}
			if _, err := tx.CategoryRepo().FindByID(ctx, *fallbackID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errs.NewNotFound("fallback category")
				}
				return errs.NewDatabaseError("find", "category", err)
			}
			if moved, err = tx.PostRepo().ReassignCategory(ctx, id, *fallbackID); err != nil {
				return errs.NewDatabaseError("reassign", "posts", err)
			}
		}

		if err := tx.CategoryRepo().Delete(ctx, id); err != nil {
			return errs.NewDatabaseError("delete", "category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID).Str("categoryID", id.String()).Int64("postsMoved", moved).Msg("Category deleted")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathBlog))
	return nil
}
