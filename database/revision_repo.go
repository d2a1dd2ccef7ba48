package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/models"
)

// DefaultRevisionsKept is how many snapshots survive pruning.
const DefaultRevisionsKept = 5

type RevisionRepo struct {
	db *gorm.DB
}

func NewRevisionRepo(db *gorm.DB) *RevisionRepo {
	return &RevisionRepo{db}
}

// RecordSnapshot stores doc as the newest revision of the post. The content is
// not validated. Callers writing the same post concurrently must hold a
// transaction that has already written the post row.
func (r *RevisionRepo) RecordSnapshot(ctx context.Context, postID uuid.UUID, doc content.Document) (*models.Revision, error) {
	var last int64
	err := r.db.WithContext(ctx).Model(&models.Revision{}).
		Where("post_id = ?", postID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	revision := &models.Revision{
		PostID:      postID,
		ContentJSON: datatypes.NewJSONType(doc),
		CreatedAt:   time.Now().UTC(),
		Seq:         last + 1,
	}
	if err := r.db.WithContext(ctx).Omit("Post").Create(revision).Error; err != nil {
		return nil, err
	}
	return revision, nil
}

// PruneExcess deletes every revision of the post except the keep newest, in a
// single statement.
func (r *RevisionRepo) PruneExcess(ctx context.Context, postID uuid.UUID, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	newest := r.db.Model(&models.Revision{}).
		Select("id").
		Where("post_id = ?", postID).
		Order("seq DESC").
		Order("created_at DESC").
		Limit(keep)

	res := r.db.WithContext(ctx).
		Where("post_id = ? AND id NOT IN (?)", postID, newest).
		Delete(&models.Revision{})
	return res.RowsAffected, res.Error
}

// ListByPost returns the revisions of a post, newest first
func (r *RevisionRepo) ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.Revision, error) {
	var revisions []*models.Revision
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("seq DESC").
		Order("created_at DESC").
		Find(&revisions).Error
	return revisions, err
}

// FindByID returns one revision of a post
func (r *RevisionRepo) FindByID(ctx context.Context, postID, revisionID uuid.UUID) (*models.Revision, error) {
	var revision models.Revision
	err := r.db.WithContext(ctx).First(&revision, "id = ? AND post_id = ?", revisionID, postID).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}
