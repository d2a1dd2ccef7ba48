package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/database/dbtest"
)

type recordingInvalidator struct {
	mu      sync.Mutex
	signals []cache.Signal
}

func (r *recordingInvalidator) Invalidate(_ context.Context, s cache.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func (r *recordingInvalidator) all() []cache.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cache.Signal(nil), r.signals...)
}

func (r *recordingInvalidator) last() cache.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.signals) == 0 {
		return cache.Signal{}
	}
	return r.signals[len(r.signals)-1]
}

func ownerCtx(t testing.TB) context.Context {
	return auth.WithActor(t.Context(), auth.Actor{ID: "owner-1", Role: auth.RoleOwner})
}

func editorCtx(t testing.TB) context.Context {
	return auth.WithActor(t.Context(), auth.Actor{ID: "editor-1", Role: auth.RoleEditor})
}

func viewerCtx(t testing.TB) context.Context {
	return auth.WithActor(t.Context(), auth.Actor{ID: "viewer-1", Role: auth.RoleViewer})
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newPostService(t testing.TB, opts ...PostServiceOption) (*PostService, database.Database, *recordingInvalidator) {
	t.Helper()
	db := dbtest.New(t)
	inv := &recordingInvalidator{}
	opts = append([]PostServiceOption{WithPostClock(func() time.Time { return fixedNow })}, opts...)
	return NewPostService(db, NewGuard(nil), inv, opts...), db, inv
}

func docJSON(t testing.TB, nodes ...content.Node) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(content.NewDocument(nodes...))
	require.NoError(t, err)
	return raw
}

func draftInput(t testing.TB, slug string) PostInput {
	return PostInput{
		Title:       "Hello World",
		Slug:        slug,
		Summary:     "A first post",
		Tags:        []string{"go"},
		ContentJSON: docJSON(t, content.Paragraph("Some words here")),
		Status:      "draft",
	}
}
