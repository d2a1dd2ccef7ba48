package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/models"
)

type PostTagRepo struct {
	db *gorm.DB
}

func NewPostTagRepo(db *gorm.DB) *PostTagRepo {
	return &PostTagRepo{db}
}

// FindByPost returns the tags associated with a post, alphabetically
func (r *PostTagRepo) FindByPost(ctx context.Context, postID uuid.UUID) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).Model(&models.PostTag{}).
		Where("post_id = ?", postID).
		Order("tag ASC").
		Pluck("tag", &tags).Error
	return tags, err
}

// Replace deletes every association of the post and inserts tags in their place.
// tags must already be de-duplicated.
func (r *PostTagRepo) Replace(ctx context.Context, postID uuid.UUID, tags []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	rows := make([]models.PostTag, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, models.PostTag{PostID: postID, Tag: tag})
	}
	return db.Create(&rows).Error
}
