package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-cms/content"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// MaxSummaryLength is the longest summary a post may carry, in characters.
const MaxSummaryLength = 180

// Post is a blog post with its rich-text content and publishing state
type Post struct {
	ID                 uuid.UUID                            `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title              string                               `json:"title" db:"title" gorm:"type:text;not null"`
	Slug               string                               `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:blog_posts_slug_unique"`
	Summary            string                               `json:"summary" db:"summary" gorm:"type:varchar(180);not null"`
	CategoryID         *uuid.UUID                           `json:"categoryId" db:"category_id" gorm:"type:uuid;index:blog_posts_category_idx"`
	Tags               StringArray                          `json:"tags" db:"tags" gorm:"not null"`
	HeroImageURL       *string                              `json:"heroImageUrl" db:"hero_image_url" gorm:"type:text"`
	ContentJSON        datatypes.JSONType[content.Document] `json:"contentJson" db:"content_json" gorm:"not null"`
	Status             PostStatus                           `json:"status" db:"status" gorm:"type:varchar(16);not null;default:draft;check:blog_posts_published_at_check,status <> 'published' OR published_at IS NOT NULL"`
	PublishedAt        *time.Time                           `json:"publishedAt" db:"published_at" gorm:"index:blog_posts_published_idx"`
	ReadingTimeMinutes int                                  `json:"readingTimeMinutes" db:"reading_time_minutes" gorm:"type:integer;not null;default:1"`
	CreatedAt          time.Time                            `json:"createdAt" db:"created_at" gorm:"not null"`
	UpdatedAt          time.Time                            `json:"updatedAt" db:"updated_at" gorm:"not null"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
}

func (Post) TableName() string {
	return "blog_posts"
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Content returns the decoded content document.
func (p *Post) Content() content.Document {
	return p.ContentJSON.Data()
}

// IsPublished reports whether the post is live.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostTag is one row of the tag association table. The set of rows for a post
// always mirrors Post.Tags.
type PostTag struct {
	PostID uuid.UUID `json:"postId" db:"post_id" gorm:"type:uuid;primaryKey;not null"`
	Tag    string    `json:"tag" db:"tag" gorm:"type:text;primaryKey;not null;index:blog_post_tags_tag_idx"`

	Post *Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (PostTag) TableName() string {
	return "blog_post_tags"
}

// Revision is an immutable snapshot of a post's content
type Revision struct {
	ID          uuid.UUID                            `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	PostID      uuid.UUID                            `json:"postId" db:"post_id" gorm:"type:uuid;not null;index:blog_post_revisions_post_idx"`
	ContentJSON datatypes.JSONType[content.Document] `json:"contentJson" db:"content_json" gorm:"not null"`
	CreatedAt   time.Time                            `json:"createdAt" db:"created_at" gorm:"not null;index:blog_post_revisions_post_idx"`
	// Seq numbers the revisions of one post in save order, starting at 1.
	Seq int64 `json:"seq" db:"seq" gorm:"not null;default:0"`

	Post *Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Revision) TableName() string {
	return "blog_post_revisions"
}

func (r *Revision) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
