package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-cms/models"
)

type UploadRepo struct {
	db *gorm.DB
}

func NewUploadRepo(db *gorm.DB) *UploadRepo {
	return &UploadRepo{db}
}

// FindAll returns every upload that has not been deleted, newest first
func (r *UploadRepo) FindAll(ctx context.Context) ([]*models.Upload, error) {
	var uploads []*models.Upload
	err := r.db.WithContext(ctx).Where("deleted = ?", false).Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

// FindByID returns an upload by its ID, deleted or not
func (r *UploadRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).First(&upload, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindIDsByPublicURL maps live uploads to the ids of those whose public URL is in urls.
func (r *UploadRepo) FindIDsByPublicURL(ctx context.Context, urls []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(urls) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("public_url IN ? AND deleted = ?", urls, false).
		Pluck("id", &ids).Error
	return ids, err
}

// Add inserts a new upload into the database
func (r *UploadRepo) Add(ctx context.Context, upload *models.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// SoftDelete flags an upload as deleted. The row and its object stay in place.
func (r *UploadRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Upload{}).Where("id = ? AND deleted = ?", id, false).Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountReferences returns how many entities use the upload.
func (r *UploadRepo) CountReferences(ctx context.Context, uploadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UploadReference{}).Where("upload_id = ?", uploadID).Count(&count).Error
	return count, err
}

// ReplaceReferences makes uploadIDs the exact set of uploads used by the entity.
func (r *UploadRepo) ReplaceReferences(ctx context.Context, entityTable string, entityID uuid.UUID, uploadIDs []uuid.UUID) error {
	if err := r.DeleteReferences(ctx, entityTable, entityID); err != nil {
		return err
	}
	if len(uploadIDs) == 0 {
		return nil
	}

	refs := make([]models.UploadReference, 0, len(uploadIDs))
	for _, id := range uploadIDs {
		refs = append(refs, models.UploadReference{UploadID: id, EntityTable: entityTable, EntityID: entityID})
	}
	return r.db.WithContext(ctx).Omit("Upload").Clauses(clause.OnConflict{DoNothing: true}).Create(&refs).Error
}

// DeleteReferences removes every reference held by the entity.
func (r *UploadRepo) DeleteReferences(ctx context.Context, entityTable string, entityID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("entity_table = ? AND entity_id = ?", entityTable, entityID).
		Delete(&models.UploadReference{}).Error
}
