package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

type BookInput struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Title       string     `json:"title" validate:"required,max=300"`
	Author      string     `json:"author" validate:"required,max=200"`
	Description *string    `json:"description,omitempty"`
	Review      *string    `json:"review,omitempty"`
	CoverURL    *string    `json:"coverUrl,omitempty" validate:"omitempty,url"`
	OrderIndex  int        `json:"orderIndex" validate:"min=0"`
}

type BookService struct {
	db          database.Database
	guard       Guard
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

func NewBookService(db database.Database, guard Guard, invalidator cache.Invalidator) *BookService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	return &BookService{
		db:          db,
		guard:       guard,
		invalidator: invalidator,
		logger:      log.With().Str("service", "bookService").Logger(),
	}
}

func (s *BookService) List(ctx context.Context) ([]*models.Book, error) {
	books, err := s.db.BookRepo().FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "books", err)
	}
	if books == nil {
		books = []*models.Book{}
	}
	return books, nil
}

func (s *BookService) Upsert(ctx context.Context, in BookInput) (*models.Book, error) {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if violations := structViolations(in); len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}

	book := &models.Book{
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Review:      in.Review,
		CoverURL:    in.CoverURL,
		OrderIndex:  in.OrderIndex,
	}
	if in.ID == nil {
		if err := s.db.BookRepo().Add(ctx, book); err != nil {
			return nil, errs.NewDatabaseError("create", "book", err)
		}
	} else {
		book.ID = *in.ID
		if err := s.db.BookRepo().Update(ctx, book); err != nil {
			return nil, errs.NewDatabaseError("update", "book", err)
		}
	}

	s.logger.Info().Str("actor", actor.ID).Str("bookID", book.ID.String()).Msg("Book saved")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathBooks))
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return err
	}
	if err := s.db.BookRepo().Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "book", err)
	}
	s.logger.Info().Str("actor", actor.ID).Str("bookID", id.String()).Msg("Book deleted")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathBooks))
	return nil
}

// Reorder sets each book's order index to its position in orderedIDs.
func (s *BookService) Reorder(ctx context.Context, orderedIDs []uuid.UUID) error {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return err
	}
	if len(orderedIDs) == 0 {
		return errs.NewMissingRequiredFieldError("ids")
	}

	err = s.db.Transaction(ctx, func(tx database.Database) error {
		for i, id := range orderedIDs {
			if err := tx.BookRepo().SetOrder(ctx, id, i); err != nil {
				return errs.NewDatabaseError("reorder", "books", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor.ID).Int("count", len(orderedIDs)).Msg("Books reordered")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathBooks))
	return nil
}
