package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"  --Hello--World--  ": "hello-world",
		"Go 1.24 & Generics!":  "go-1-24-generics",
		"Ünïcödé only":         "n-c-d-only",
		"!!!":                  "",
		"":                     "",
		"already-a-slug":       "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestValidatePostCollectsEveryViolation(t *testing.T) {
	long := make([]string, MaxTags+1)
	for i := range long {
		long[i] = uuid.NewString()
	}

	_, err := ValidatePost(PostInput{
		Summary:      string(make([]byte, models.MaxSummaryLength+1)),
		Tags:         long,
		HeroImageURL: "ftp://example.com/a.png",
		ContentJSON:  []byte(`{"type":"paragraph"}`),
		Status:       "archived",
	})
	require.Error(t, err)
	for _, field := range []string{"title", "slug", "summary", "tags", "heroImageUrl", "contentJson", "status"} {
		assert.True(t, errs.HasViolation(err, field), field)
	}
}

func TestValidatePostDefaultsToDraft(t *testing.T) {
	valid, err := ValidatePost(PostInput{
		Title:       " Title ",
		Slug:        "My Post",
		Summary:     "s",
		ContentJSON: []byte(`{"type":"doc","content":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, valid.Status)
	assert.Equal(t, "my-post", valid.NormalizedSlug)
	assert.Equal(t, "Title", valid.Title)
	assert.True(t, content.IsEmpty(&valid.Content))
}

func TestValidatePostSlugWithoutLetters(t *testing.T) {
	_, err := ValidatePost(PostInput{Title: "t", Slug: "!!!", Summary: "s", ContentJSON: []byte(`{"type":"doc","content":[]}`)})
	require.Error(t, err)

	var apiErr *errs.ApiErr
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, []errs.Violation{{Field: "slug", Message: "must contain letters or digits"}}, apiErr.Violations)
}

func TestResolvePublishedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-72 * time.Hour)
	supplied := time.Date(2024, 12, 25, 8, 0, 0, 0, time.FixedZone("EST", -5*3600))

	published := &models.Post{Status: models.PostStatusPublished, PublishedAt: &earlier}
	draft := &models.Post{Status: models.PostStatusDraft}

	assert.Nil(t, ResolvePublishedAt(models.PostStatusDraft, &supplied, published, now))

	got := ResolvePublishedAt(models.PostStatusPublished, &supplied, published, now)
	require.NotNil(t, got)
	assert.Equal(t, supplied.UTC(), *got)
	assert.Equal(t, time.UTC, got.Location())

	got = ResolvePublishedAt(models.PostStatusPublished, nil, published, now)
	assert.Equal(t, earlier, *got)

	got = ResolvePublishedAt(models.PostStatusPublished, nil, draft, now)
	assert.Equal(t, now, *got)

	got = ResolvePublishedAt(models.PostStatusPublished, nil, nil, now)
	assert.Equal(t, now, *got)
}
