package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rpupo63/portfolio-cms/models"
)

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db}
}

// PostFilter narrows a post listing. Zero values match everything.
type PostFilter struct {
	Query         string
	CategorySlug  string
	Tag           string
	Status        models.PostStatus
	PublishedOnly bool
	Offset        int
	Limit         int
}

// List returns one page of posts and the total number of matches. Published
// listings are ordered by publish time, everything else by last update.
func (r *PostRepo) List(ctx context.Context, f PostFilter) ([]*models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})

	if f.PublishedOnly {
		q = q.Where("status = ?", models.PostStatusPublished)
	} else if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)", like, like)
	}
	if f.CategorySlug != "" {
		q = q.Where("category_id IN (?)", r.db.Model(&models.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", r.db.Model(&models.PostTag{}).Select("post_id").Where("tag = ?", f.Tag))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PublishedOnly {
		q = q.Order("published_at DESC").Order("id DESC")
	} else {
		q = q.Order("updated_at DESC").Order("id DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var posts []*models.Post
	err := q.Preload("Category").Find(&posts).Error
	return posts, total, err
}

// FindByID returns a post by its ID
func (r *PostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Category").First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FindBySlug returns a post by its slug
func (r *PostRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Category").First(&post, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Add inserts a new post into the database
func (r *PostRepo) Add(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update overwrites every column of an existing post. It returns
// gorm.ErrRecordNotFound when no row has the post's id.
func (r *PostRepo) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Omit(clause.Associations, "created_at").Select("*").Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a post from the database by id
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByCategory returns how many posts reference the category.
func (r *PostRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// ReassignCategory moves every post of one category to another.
func (r *PostRepo) ReassignCategory(ctx context.Context, from, to uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("category_id = ?", from).
		Updates(map[string]interface{}{"category_id": to, "updated_at": r.db.NowFunc()})
	return res.RowsAffected, res.Error
}

// Adjacent returns the published posts immediately before and after post in
// publish order. Either may be nil.
func (r *PostRepo) Adjacent(ctx context.Context, post *models.Post) (prev, next *models.Post, err error) {
	if post.PublishedAt == nil {
		return nil, nil, nil
	}

	var before []*models.Post
	err = r.db.WithContext(ctx).
		Where("status = ? AND published_at < ? AND id <> ?", models.PostStatusPublished, *post.PublishedAt, post.ID).
		Order("published_at DESC").Limit(1).Find(&before).Error
	if err != nil {
		return nil, nil, err
	}

	var after []*models.Post
	err = r.db.WithContext(ctx).
		Where("status = ? AND published_at > ? AND id <> ?", models.PostStatusPublished, *post.PublishedAt, post.ID).
		Order("published_at ASC").Limit(1).Find(&after).Error
	if err != nil {
		return nil, nil, err
	}

	if len(before) > 0 {
		prev = before[0]
	}
	if len(after) > 0 {
		next = after[0]
	}
	return prev, next, nil
}
