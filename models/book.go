package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book represents a book on the reading list, shown in OrderIndex order
type Book struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title       string    `json:"title" db:"title" gorm:"type:text;not null"`
	Author      string    `json:"author" db:"author" gorm:"type:text;not null"`
	Description *string   `json:"description,omitempty" db:"description" gorm:"type:text"`
	Review      *string   `json:"review,omitempty" db:"review" gorm:"type:text"`
	CoverURL    *string   `json:"coverUrl,omitempty" db:"cover_url" gorm:"type:text"`
	OrderIndex  int       `json:"orderIndex" db:"order_index" gorm:"type:integer;not null;index:books_order_index_idx"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" gorm:"not null"`
}

func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
