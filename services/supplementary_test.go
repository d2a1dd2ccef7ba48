package services

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database/dbtest"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/storage"
)

func TestCategoryDelete(t *testing.T) {
	db := dbtest.New(t)
	inv := &recordingInvalidator{}
	categories := NewCategoryService(db, NewGuard(nil), inv)
	posts := NewPostService(db, NewGuard(nil), nil)
	ctx := editorCtx(t)

	empty, err := categories.Upsert(ctx, CategoryInput{Name: "Empty One"})
	require.NoError(t, err)
	assert.Equal(t, "empty-one", empty.Slug)
	require.NoError(t, categories.Delete(ctx, empty.ID, nil))
	assert.Equal(t, []string{cache.PathBlog}, inv.last().Paths)

	used, err := categories.Upsert(ctx, CategoryInput{Name: "Used", Slug: "Used Stuff"})
	require.NoError(t, err)
	fallback, err := categories.Upsert(ctx, CategoryInput{Name: "Fallback"})
	require.NoError(t, err)

	in := draftInput(t, "filed")
	in.CategoryID = &used.ID
	res, err := posts.Upsert(ctx, in)
	require.NoError(t, err)

	err = categories.Delete(ctx, used.ID, nil)
	assert.True(t, errs.IsConflict(err))

	err = categories.Delete(ctx, used.ID, &used.ID)
	assert.True(t, errs.IsConflict(err))

	missing := uuid.New()
	err = categories.Delete(ctx, used.ID, &missing)
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, categories.Delete(ctx, used.ID, &fallback.ID))
	post, err := db.PostRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, post.CategoryID)
	assert.Equal(t, fallback.ID, *post.CategoryID)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "fallback", list[0].Slug)

	err = categories.Delete(ctx, uuid.New(), nil)
	assert.True(t, errs.IsNotFound(err))
}

func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUploadIngest(t *testing.T) {
	db := dbtest.New(t)
	store := storage.NewMemoryStore("https://cdn.example.com")
	svc := NewUploadService(db, NewGuard(nil), store, nil)
	svc.now = func() time.Time { return fixedNow }
	ctx := editorCtx(t)

	res, err := svc.Ingest(ctx, "Photo.PNG", "", pngBytes(t, 4, 3))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "2025/03/"))
	assert.True(t, strings.HasSuffix(res.Path, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+res.Path, res.PublicURL)
	require.NotNil(t, res.Width)
	require.NotNil(t, res.Height)
	assert.Equal(t, 4, *res.Width)
	assert.Equal(t, 3, *res.Height)

	_, ok := store.Object(res.Path)
	assert.True(t, ok)

	stored, err := db.UploadRepo().FindByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.Mime)

	doc, err := svc.Ingest(ctx, "notes.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)
	assert.Nil(t, doc.Width)

	_, err = svc.Ingest(ctx, "big.bin", "application/octet-stream", make([]byte, MaxUploadBytes+1))
	assert.True(t, errs.IsMaxBodySizeExceededError(err))

	uploads, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, uploads, 2)
}

func TestUploadSoftDeleteKeepsReferencedUploads(t *testing.T) {
	db := dbtest.New(t)
	svc := NewUploadService(db, NewGuard(nil), storage.NewMemoryStore("https://cdn.example.com"), nil)
	posts := NewPostService(db, NewGuard(nil), nil)
	ctx := editorCtx(t)

	res, err := svc.Ingest(ctx, "hero.png", "image/png", pngBytes(t, 1, 1))
	require.NoError(t, err)

	in := draftInput(t, "uses-hero")
	in.HeroImageURL = res.PublicURL
	post, err := posts.Upsert(ctx, in)
	require.NoError(t, err)

	err = svc.SoftDelete(ctx, res.ID)
	assert.True(t, errs.IsConflict(err))

	require.NoError(t, posts.Delete(ownerCtx(t), post.ID))
	require.NoError(t, svc.SoftDelete(ctx, res.ID))

	uploads, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	err = svc.SoftDelete(ctx, res.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestBookReorder(t *testing.T) {
	db := dbtest.New(t)
	inv := &recordingInvalidator{}
	svc := NewBookService(db, NewGuard(nil), inv)
	ctx := editorCtx(t)

	var ids []uuid.UUID
	for i, title := range []string{"A", "B", "C"} {
		book, err := svc.Upsert(ctx, BookInput{Title: title, Author: "Someone", OrderIndex: i})
		require.NoError(t, err)
		ids = append(ids, book.ID)
	}

	require.NoError(t, svc.Reorder(ctx, []uuid.UUID{ids[2], ids[0], ids[1]}))
	books, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{books[0].Title, books[1].Title, books[2].Title})
	assert.Equal(t, []string{cache.PathBooks}, inv.last().Paths)

	_, err = svc.Upsert(ctx, BookInput{Title: "", Author: "x"})
	assert.True(t, errs.HasViolation(err, "title"))

	require.NoError(t, svc.Delete(ctx, ids[0]))
	assert.True(t, errs.IsNotFound(svc.Delete(ctx, ids[0])))
}

func TestCourseImportCSV(t *testing.T) {
	db := dbtest.New(t)
	svc := NewCourseService(db, NewGuard(nil), nil)
	ctx := editorCtx(t)

	n, err := svc.ImportCSV(ctx, strings.NewReader("code,name,discipline\nMATH 101,Calculus,math\nCS 50, Intro to CS ,cs\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cs, err := svc.List(ctx, "CS")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Intro to CS", cs[0].Name)
	assert.Equal(t, models.DisciplineCS, cs[0].Discipline)

	_, err = svc.ImportCSV(ctx, strings.NewReader("code,name,discipline\nPHY 1,Physics,Physics\nART 2,,Other\n"))
	require.Error(t, err)
	assert.True(t, errs.HasViolation(err, "row 2 discipline"))
	assert.True(t, errs.HasViolation(err, "row 3 name"))

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "Biology")
	assert.True(t, errs.IsInvalidFieldError(err))

	_, err = svc.ImportCSV(ctx, strings.NewReader(""))
	assert.True(t, errs.IsMissingRequiredFieldError(err))
}

func TestSettingsSaveIsOwnerOnly(t *testing.T) {
	db := dbtest.New(t)
	inv := &recordingInvalidator{}
	svc := NewSettingsService(db, NewGuard(nil), inv)

	initial, err := svc.Get(t.Context())
	require.NoError(t, err)
	assert.Empty(t, initial.HeroText)

	in := SettingsInput{
		HeroText:     "Hi, I build things",
		ContactEmail: "me@example.com",
		Socials:      map[string]string{"github": "https://github.com/rpupo63"},
	}
	_, err = svc.Save(editorCtx(t), in)
	assert.True(t, errs.IsInsufficientRoleError(err))

	_, err = svc.Save(ownerCtx(t), in)
	require.NoError(t, err)
	assert.Equal(t, []string{cache.PathHome}, inv.last().Paths)

	saved, err := svc.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Hi, I build things", saved.HeroText)
	assert.Equal(t, "https://github.com/rpupo63", saved.Socials["github"])

	in.ContactEmail = "not-an-email"
	_, err = svc.Save(ownerCtx(t), in)
	assert.True(t, errs.HasViolation(err, "contactEmail"))
}
