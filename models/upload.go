package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload is a stored media object. Uploads are only ever soft-deleted.
type Upload struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Path      string    `json:"path" db:"path" gorm:"type:text;not null;uniqueIndex:uploads_path_unique"`
	PublicURL string    `json:"publicUrl" db:"public_url" gorm:"type:text;not null;index:uploads_public_url_idx"`
	Size      int64     `json:"size" db:"size" gorm:"not null"`
	Mime      string    `json:"mime" db:"mime" gorm:"type:text;not null"`
	Width     *int      `json:"width,omitempty" db:"width"`
	Height    *int      `json:"height,omitempty" db:"height"`
	Source    string    `json:"source" db:"source" gorm:"type:text;not null;default:s3"`
	Deleted   bool      `json:"deleted" db:"deleted" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" gorm:"not null"`
}

func (Upload) TableName() string {
	return "uploads"
}

func (u *Upload) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UploadReference records that an entity row uses an upload.
type UploadReference struct {
	UploadID    uuid.UUID `json:"uploadId" db:"upload_id" gorm:"type:uuid;primaryKey;not null"`
	EntityTable string    `json:"entityTable" db:"entity_table" gorm:"type:text;primaryKey;not null"`
	EntityID    uuid.UUID `json:"entityId" db:"entity_id" gorm:"type:uuid;primaryKey;not null;index:upload_references_entity_idx"`

	Upload *Upload `json:"-" gorm:"foreignKey:UploadID;references:ID;constraint:OnDelete:CASCADE"`
}

func (UploadReference) TableName() string {
	return "upload_references"
}
