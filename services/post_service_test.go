package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/database/dbtest"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/ratelimit"
)

func TestUpsertCreatesPost(t *testing.T) {
	svc, db, inv := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "  Hello, World!  ")
	in.Tags = []string{"Go", "Go", " web "}
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)
	assert.True(t, res.OK)

	post, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, 1, post.ReadingTimeMinutes)
	assert.Equal(t, []string{"Go", "web"}, []string(post.Tags))

	tags, err := db.PostTagRepo().FindByPost(ctx, res.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Go", "web"}, tags)

	revisions, err := db.RevisionRepo().ListByPost(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)

	assert.Equal(t, cache.Signal{
		Tags:  []string{cache.TagPostList, cache.PostTag(res.ID)},
		Paths: []string{"/blog/hello-world", "/blog"},
	}, inv.last())
}

func TestUpsertPublishGuardWritesNothing(t *testing.T) {
	svc, db, inv := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "launch")
	in.Status = models.PostStatusPublished
	in.ContentJSON = docJSON(t)

	_, err := svc.Upsert(ctx, in)
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))
	assert.True(t, errs.HasViolation(err, "heroImageUrl"))
	assert.True(t, errs.HasViolation(err, "categoryId"))
	assert.True(t, errs.HasViolation(err, "contentJson"))

	_, total, err := db.PostRepo().List(ctx, database.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, inv.all())
}

func TestUpsertPublishes(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)
	category := dbtest.Category(t, db, "notes")

	in := draftInput(t, "launch")
	in.Status = models.PostStatusPublished
	in.CategoryID = &category.ID
	in.HeroImageURL = "https://cdn.example.com/hero.png"

	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	post, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.True(t, fixedNow.Equal(*post.PublishedAt))

	// republishing keeps the original publish time
	svc.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	in.ID = &res.ID
	in.Title = "Launch, revised"
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)

	post, err = db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(*post.PublishedAt))
	assert.Equal(t, "Launch, revised", post.Title)
}

func TestUpsertUnknownCategory(t *testing.T) {
	svc, _, _ := newPostService(t)
	in := draftInput(t, "lost")
	missing := uuid.New()
	in.CategoryID = &missing

	_, err := svc.Upsert(editorCtx(t), in)
	require.Error(t, err)
	assert.True(t, errs.HasViolation(err, "categoryId"))
}

func TestUpsertKeepsFiveRevisions(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "revised")
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)
	in.ID = &res.ID

	for i := 0; i < 6; i++ {
		in.ContentJSON = docJSON(t, content.Paragraph("version "+string(rune('a'+i))))
		_, err := svc.Upsert(ctx, in)
		require.NoError(t, err)
	}

	revisions, err := db.RevisionRepo().ListByPost(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, revisions, database.DefaultRevisionsKept)
	var kept []string
	for _, rev := range revisions {
		doc := rev.ContentJSON.Data()
		kept = append(kept, content.ToPlainText(&doc))
	}
	assert.Equal(t, []string{"version f", "version e", "version d", "version c", "version b"}, kept)
}

func TestUpsertReplacesTags(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "tagged")
	in.Tags = []string{"a", "b", "c"}
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	in.ID = &res.ID
	in.Tags = []string{"b", "d"}
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)

	tags, err := db.PostTagRepo().FindByPost(ctx, res.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "d"}, tags)
}

func TestUpsertDraftIsIdempotent(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)

	category := dbtest.Category(t, db, "notes")
	in := draftInput(t, "steady")
	in.CategoryID = &category.ID
	in.Tags = []string{"go", "sql"}
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)
	first, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)

	counts := func() (revisions, tags, categories, posts int) {
		revs, err := db.RevisionRepo().ListByPost(ctx, res.ID)
		require.NoError(t, err)
		postTags, err := db.PostTagRepo().FindByPost(ctx, res.ID)
		require.NoError(t, err)
		cats, err := db.CategoryRepo().FindAll(ctx)
		require.NoError(t, err)
		_, total, err := db.PostRepo().List(ctx, database.PostFilter{Limit: 10})
		require.NoError(t, err)
		return len(revs), len(postTags), len(cats), int(total)
	}
	revsBefore, tagsBefore, catsBefore, postsBefore := counts()
	assert.Equal(t, 1, revsBefore)

	in.ID = &res.ID
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)
	second, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)

	revsAfter, tagsAfter, catsAfter, postsAfter := counts()
	assert.Equal(t, revsBefore+1, revsAfter)
	assert.Equal(t, tagsBefore, tagsAfter)
	assert.Equal(t, 2, tagsAfter)
	assert.Equal(t, catsBefore, catsAfter)
	assert.Equal(t, postsBefore, postsAfter)
	assert.Equal(t, first.CategoryID, second.CategoryID)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Tags, second.Tags)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PublishedAt, second.PublishedAt)
	assert.Equal(t, first.ReadingTimeMinutes, second.ReadingTimeMinutes)
	assert.Equal(t, first.Content(), second.Content())
}

func TestUpsertSlugChangeInvalidatesOldPath(t *testing.T) {
	svc, _, inv := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "old-name")
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	in.ID = &res.ID
	in.Slug = "new-name"
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, []string{"/blog/new-name", "/blog/old-name", "/blog"}, inv.last().Paths)
}

func TestUpsertMissingPostIsNotFound(t *testing.T) {
	svc, _, _ := newPostService(t)
	in := draftInput(t, "ghost")
	id := uuid.New()
	in.ID = &id

	_, err := svc.Upsert(editorCtx(t), in)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestUpsertDuplicateSlugConflicts(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := editorCtx(t)

	_, err := svc.Upsert(ctx, draftInput(t, "same"))
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, draftInput(t, "Same"))
	require.Error(t, err)
	assert.True(t, errs.IsUniqueConstraintViolationError(err))
}

func TestUpsertRejectsBeforeWriting(t *testing.T) {
	svc, db, _ := newPostService(t)

	_, err := svc.Upsert(t.Context(), draftInput(t, "anon"))
	assert.True(t, errs.IsMissingTokenError(err))

	_, err = svc.Upsert(viewerCtx(t), draftInput(t, "viewer"))
	assert.True(t, errs.IsInsufficientRoleError(err))

	_, total, err := db.PostRepo().List(t.Context(), database.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpsertRateLimited(t *testing.T) {
	db := dbtest.New(t)
	limiter := ratelimit.NewFixedWindow(ratelimit.NewMemoryStore(),
		ratelimit.WithLimit(2),
		ratelimit.WithClock(func() time.Time { return fixedNow }),
	)
	svc := NewPostService(db, NewGuard(limiter), nil)
	ctx := editorCtx(t)

	for _, slug := range []string{"one", "two"} {
		_, err := svc.Upsert(ctx, draftInput(t, slug))
		require.NoError(t, err)
	}
	_, err := svc.Upsert(ctx, draftInput(t, "three"))
	require.Error(t, err)
	assert.True(t, errs.IsRateLimitError(err))

	_, total, err := db.PostRepo().List(ctx, database.PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// another actor has its own window
	_, err = svc.Upsert(ownerCtx(t), draftInput(t, "four"))
	require.NoError(t, err)
}

func TestDuplicatePost(t *testing.T) {
	svc, db, inv := newPostService(t)
	ctx := editorCtx(t)

	in := draftInput(t, "original")
	in.Tags = []string{"x", "y"}
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, res.ID)
	require.NoError(t, err)
	require.NotEqual(t, res.ID, dup.ID)

	copied, err := db.PostRepo().FindByID(ctx, dup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World (Copy)", copied.Title)
	assert.Equal(t, "original-copy-1741944413000", copied.Slug)
	assert.Equal(t, models.PostStatusDraft, copied.Status)
	assert.Nil(t, copied.PublishedAt)

	tags, err := db.PostTagRepo().FindByPost(ctx, dup.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, tags)

	revisions, err := db.RevisionRepo().ListByPost(ctx, dup.ID)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)

	assert.Equal(t, []string{cache.TagPostList}, inv.last().Tags)
}

func TestDeletePostRequiresOwner(t *testing.T) {
	svc, db, inv := newPostService(t)

	res, err := svc.Upsert(editorCtx(t), draftInput(t, "doomed"))
	require.NoError(t, err)

	err = svc.Delete(editorCtx(t), res.ID)
	assert.True(t, errs.IsInsufficientRoleError(err))

	require.NoError(t, svc.Delete(ownerCtx(t), res.ID))
	_, err = db.PostRepo().FindByID(t.Context(), res.ID)
	assert.Error(t, err)
	revisions, err := db.RevisionRepo().ListByPost(t.Context(), res.ID)
	require.NoError(t, err)
	assert.Empty(t, revisions)
	assert.Contains(t, inv.last().Paths, "/blog/doomed")

	err = svc.Delete(ownerCtx(t), res.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestUploadReferencesFollowContent(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := editorCtx(t)

	upload := &models.Upload{Path: "2025/03/a.png", PublicURL: "https://cdn.example.com/2025/03/a.png", Size: 1, Mime: "image/png"}
	require.NoError(t, db.UploadRepo().Add(ctx, upload))

	in := draftInput(t, "with-image")
	in.ContentJSON = docJSON(t, content.Node{Type: "image", Attrs: map[string]any{"src": upload.PublicURL}})
	res, err := svc.Upsert(ctx, in)
	require.NoError(t, err)

	refs, err := db.UploadRepo().CountReferences(ctx, upload.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, refs)

	in.ID = &res.ID
	in.ContentJSON = docJSON(t, content.Paragraph("no image"))
	_, err = svc.Upsert(ctx, in)
	require.NoError(t, err)

	refs, err = db.UploadRepo().CountReferences(ctx, upload.ID)
	require.NoError(t, err)
	assert.Zero(t, refs)
}
