package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/database/dbtest"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

func publishInput(t testing.TB, slug string, categoryID uuid.UUID, publishedAt time.Time) PostInput {
	in := draftInput(t, slug)
	in.Title = "Post " + slug
	in.Status = models.PostStatusPublished
	in.CategoryID = &categoryID
	in.HeroImageURL = "https://cdn.example.com/" + slug + ".png"
	in.PublishedAt = &publishedAt
	return in
}

func TestListPaginates(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := editorCtx(t)
	for _, slug := range []string{"a", "b", "c"} {
		_, err := svc.Upsert(ctx, draftInput(t, slug))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Posts, 1)

	page, err = svc.List(ctx, ListParams{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.Len(t, page.Posts, 3)

	_, err = svc.List(ctx, ListParams{Status: "archived"})
	assert.True(t, errs.IsInvalidFieldError(err))
}

func TestPublishedBySlug(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)
	category := dbtest.Category(t, db, "notes")

	day := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err := svc.Upsert(ctx, publishInput(t, "first", category.ID, day))
	require.NoError(t, err)
	middle := publishInput(t, "second", category.ID, day.AddDate(0, 0, 1))
	middle.ContentJSON = docJSON(t, content.Heading(2, "Part <one>"), content.Paragraph("Body"))
	_, err = svc.Upsert(ctx, middle)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, publishInput(t, "third", category.ID, day.AddDate(0, 0, 2)))
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, draftInput(t, "hidden"))
	require.NoError(t, err)

	detail, err := svc.PublishedBySlug(t.Context(), "second")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Part &lt;one&gt;</h2><p>Body</p>", detail.HTML)
	assert.Equal(t, "Part <one> Body", detail.Excerpt)
	require.NotNil(t, detail.Previous)
	require.NotNil(t, detail.Next)
	assert.Equal(t, "first", detail.Previous.Slug)
	assert.Equal(t, "third", detail.Next.Slug)

	_, err = svc.PublishedBySlug(t.Context(), "hidden")
	assert.True(t, errs.IsNotFound(err))
	_, err = svc.PublishedBySlug(t.Context(), "nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestRestoreRevision(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "restorable")
	in.ContentJSON = docJSON(t, content.Paragraph("first draft"))
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	in.ID = &res.ID
	in.ContentJSON = docJSON(t, content.Paragraph("second draft"))
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)

	revisions, err := svc.Revisions(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	oldest := revisions[1]

	_, err = svc.RestoreRevision(ctx, res.ID, oldest.ID)
	require.NoError(t, err)

	post, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	doc := post.Content()
	assert.Equal(t, "first draft", content.ToPlainText(&doc))
	assert.Equal(t, models.PostStatusDraft, post.Status)

	revisions, err = svc.Revisions(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, revisions, 3)

	_, err = svc.RestoreRevision(ctx, res.ID, uuid.New())
	assert.True(t, errs.IsNotFound(err))
	_, err = svc.Revisions(ctx, uuid.New())
	assert.True(t, errs.IsNotFound(err))
}

func TestMarkdownExport(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "exported")
	in.ContentJSON = docJSON(t, content.Heading(2, "Intro"), content.Paragraph("Body text"))
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	md, err := svc.Markdown(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Hello World\n\n## Intro\n\nBody text\n", md)
}
