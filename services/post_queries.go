package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	excerptLength   = 280
)

// ListParams selects a page of posts. Page is 1-based.
type ListParams struct {
	Page          int
	PageSize      int
	Query         string
	CategorySlug  string
	Tag           string
	Status        models.PostStatus
	PublishedOnly bool
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts    []*models.Post `json:"posts"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// PostDetail is a post ready for a public page.
type PostDetail struct {
	Post     *models.Post `json:"post"`
	HTML     string       `json:"html"`
	Excerpt  string       `json:"excerpt"`
	Previous *models.Post `json:"previous,omitempty"`
	Next     *models.Post `json:"next,omitempty"`
}

// Normalize clamps paging to its defaults and limits and trims the query.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	p.Query = strings.TrimSpace(p.Query)
	return p
}

// List returns a page of posts, newest first.
func (s *PostService) List(ctx context.Context, params ListParams) (*PostPage, error) {
	params = params.Normalize()
	if params.Status != "" && params.Status != models.PostStatusDraft && params.Status != models.PostStatusPublished {
		return nil, errs.NewInvalidFieldError("status", "must be draft or published")
	}

	posts, total, err := s.db.PostRepo().List(ctx, database.PostFilter{
		Query:         params.Query,
		CategorySlug:  params.CategorySlug,
		Tag:           params.Tag,
		Status:        params.Status,
		PublishedOnly: params.PublishedOnly,
		Offset:        (params.Page - 1) * params.PageSize,
		Limit:         params.PageSize,
	})
	if err != nil {
		return nil, errs.NewDatabaseError("list", "posts", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &PostPage{Posts: posts, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// Get returns any post by id.
func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.db.PostRepo().FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "post", err)
	}
	return post, nil
}

// PublishedBySlug returns a published post rendered for display along with its
// neighbours in publish order. Drafts are reported as missing.
func (s *PostService) PublishedBySlug(ctx context.Context, slug string) (*PostDetail, error) {
	ctx, span := startSpan(ctx, "PostService.PublishedBySlug")
	var err error
	defer func() { endSpan(span, err) }()

	post, err := s.db.PostRepo().FindBySlug(ctx, slug)
	if err != nil {
		err = errs.NewDatabaseError("find", "post", err)
		return nil, err
	}
	if !post.IsPublished() {
		err = errs.NewNotFound("post")
		return nil, err
	}

	prev, next, err := s.db.PostRepo().Adjacent(ctx, post)
	if err != nil {
		err = errs.NewDatabaseError("find adjacent", "posts", err)
		return nil, err
	}

	doc := post.Content()
	return &PostDetail{
		Post:     post,
		HTML:     content.RenderHTML(&doc),
		Excerpt:  content.Summarize(content.ToPlainText(&doc), excerptLength),
		Previous: prev,
		Next:     next,
	}, nil
}

// Revisions lists the stored revisions of a post, newest first.
func (s *PostService) Revisions(ctx context.Context, postID uuid.UUID) ([]*models.Revision, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	revisions, err := s.db.RevisionRepo().ListByPost(ctx, postID)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "revisions", err)
	}
	if revisions == nil {
		revisions = []*models.Revision{}
	}
	return revisions, nil
}

// RestoreRevision saves the post again with the content of one of its
// revisions. The save goes through Upsert, so it is guarded, validated
// against the post's current status and recorded as a new revision.
func (s *PostService) RestoreRevision(ctx context.Context, postID, revisionID uuid.UUID) (UpsertResult, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return UpsertResult{}, err
	}
	revision, err := s.db.RevisionRepo().FindByID(ctx, postID, revisionID)
	if err != nil {
		return UpsertResult{}, errs.NewDatabaseError("find", "revision", err)
	}

	raw, err := revision.ContentJSON.MarshalJSON()
	if err != nil {
		return UpsertResult{}, errs.NewInternalErrorWithCause("failed to encode revision content", err)
	}
	return s.Upsert(ctx, inputFromPost(post, raw))
}

func inputFromPost(post *models.Post, contentJSON []byte) PostInput {
	in := PostInput{
		ID:          &post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Summary:     post.Summary,
		CategoryID:  post.CategoryID,
		Tags:        append([]string{}, post.Tags...),
		ContentJSON: contentJSON,
		Status:      post.Status,
		PublishedAt: post.PublishedAt,
	}
	if post.HeroImageURL != nil {
		in.HeroImageURL = *post.HeroImageURL
	}
	return in
}

// Markdown exports a post as markdown with its title as the top heading.
func (s *PostService) Markdown(ctx context.Context, id uuid.UUID) (string, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	doc := post.Content()
	body, err := content.ToMarkdown(&doc)
	if err != nil {
		return "", errs.NewInternalErrorWithCause("failed to convert post to markdown", err)
	}
	if body == "" {
		return "# " + post.Title + "\n", nil
	}
	return "# " + post.Title + "\n\n" + body + "\n", nil
}
