package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/models"
)

type BookRepo struct {
	db *gorm.DB
}

func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db}
}

// FindAll returns all books in display order
func (r *BookRepo) FindAll(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("order_index ASC").Order("created_at ASC").Find(&books).Error
	return books, err
}

// FindByID returns a book by its ID
func (r *BookRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Add inserts a new book into the database
func (r *BookRepo) Add(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Update updates an existing book in the database
func (r *BookRepo) Update(ctx context.Context, book *models.Book) error {
	res := r.db.WithContext(ctx).Model(book).Select("*").Omit("created_at").Updates(book)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetOrder moves a book to a new position. Unknown ids are ignored.
func (r *BookRepo) SetOrder(ctx context.Context, id uuid.UUID, orderIndex int) error {
	return r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Update("order_index", orderIndex).Error
}

// Delete removes a book from the database by id
func (r *BookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
