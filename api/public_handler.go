package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/services"
)

const jsonContentType = "application/json; charset=utf-8"

// publicHandler serves the read-only site API. Responses are kept in the page
// cache until a write invalidates them.
type publicHandler struct {
	responder  Responder
	logger     zerolog.Logger
	db         database.Database
	posts      *services.PostService
	categories *services.CategoryService
	books      *services.BookService
	courses    *services.CourseService
	settings   *services.SettingsService
	pages      *cache.PageCache
	secret     string
}

func newPublicHandler(deps Dependencies) publicHandler {
	logger := log.With().Str("handlerName", "publicHandler").Logger()
	pages := deps.PageCache
	if pages == nil {
		pages = cache.NewPageCache(0)
	}
	return publicHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		db:         deps.Database,
		posts:      deps.Posts,
		categories: deps.Categories,
		books:      deps.Books,
		courses:    deps.Courses,
		settings:   deps.Settings,
		pages:      pages,
		secret:     deps.RevalidateSecret,
	}
}

// jsonLoader adapts fn to a cache loader that stores the JSON encoding of its result.
func jsonLoader(fn func(ctx context.Context) (any, []string, error)) cache.Loader {
	return func(ctx context.Context) ([]byte, []string, error) {
		v, tags, err := fn(ctx)
		if err != nil {
			return nil, nil, err
		}
		body, err := json.Marshal(v)
		if err != nil {
			return nil, nil, errs.NewInternalErrorWithCause("failed to encode response", err)
		}
		return body, tags, nil
	}
}

func (h publicHandler) serveCached(w http.ResponseWriter, r *http.Request, key, path string, load cache.Loader) {
	body, err := h.pages.Get(r.Context(), key, path, load)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}
	h.responder.WriteRaw(w, http.StatusOK, jsonContentType, body)
}

// listPosts returns a page of published posts, newest first
// @Summary List published posts
// @Tags Public
// @Produce json
// @Param page query int false "1-based page"
// @Param category query string false "Category slug"
// @Param tag query string false "Tag"
// @Param q query string false "Title or summary search"
// @Success 200 {object} services.PostPage
// @Router /public/posts [get]
func (h publicHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := services.ListParams{
			Page:          intQuery(r, "page", 1),
			PageSize:      intQuery(r, "pageSize", services.DefaultPageSize),
			Query:         q.Get("q"),
			CategorySlug:  q.Get("category"),
			Tag:           q.Get("tag"),
			PublishedOnly: true,
		}

		// search results are not cached
		if params.Query != "" {
			page, err := h.posts.List(r.Context(), params)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			h.responder.WriteJSON(w, page)
			return
		}

		params = params.Normalize()
		key := fmt.Sprintf("posts:page=%d:size=%d:category=%s:tag=%s", params.Page, params.PageSize, params.CategorySlug, params.Tag)
		h.serveCached(w, r, key, cache.PathBlog, jsonLoader(func(ctx context.Context) (any, []string, error) {
			page, err := h.posts.List(ctx, params)
			return page, []string{cache.TagPostList}, err
		}))
	}
}

// getPost returns a published post with its rendered body and neighbours
// @Summary Get published post
// @Tags Public
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} services.PostDetail
// @Failure 404 {object} ErrorResponse "No published post has this slug"
// @Router /public/posts/{slug} [get]
func (h publicHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		h.serveCached(w, r, "post:"+slug, cache.PostPath(slug), jsonLoader(func(ctx context.Context) (any, []string, error) {
			detail, err := h.posts.PublishedBySlug(ctx, slug)
			if err != nil {
				return nil, nil, err
			}
			return detail, []string{cache.PostTag(detail.Post.ID), cache.TagPostList}, nil
		}))
	}
}

func (h publicHandler) listCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveCached(w, r, "categories", cache.PathBlog, jsonLoader(func(ctx context.Context) (any, []string, error) {
			categories, err := h.categories.List(ctx)
			return map[string]any{"categories": categories}, nil, err
		}))
	}
}

func (h publicHandler) listBooks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveCached(w, r, "books", cache.PathBooks, jsonLoader(func(ctx context.Context) (any, []string, error) {
			books, err := h.books.List(ctx)
			return BookCollection{Books: books, Total: len(books)}, nil, err
		}))
	}
}

func (h publicHandler) listCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		discipline := r.URL.Query().Get("discipline")
		h.serveCached(w, r, "courses:"+discipline, cache.PathCourses, jsonLoader(func(ctx context.Context) (any, []string, error) {
			courses, err := h.courses.List(ctx, discipline)
			return map[string]any{"courses": courses}, nil, err
		}))
	}
}

func (h publicHandler) getSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveCached(w, r, "settings", cache.PathHome, jsonLoader(func(ctx context.Context) (any, []string, error) {
			settings, err := h.settings.Get(ctx)
			return settings, nil, err
		}))
	}
}

type revalidateRequest struct {
	Secret string   `json:"secret"`
	Tags   []string `json:"tags"`
	Paths  []string `json:"paths"`
}

// revalidate drops page cache entries by tag or path. It accepts the same body
// the invalidation webhook sends.
// @Summary Revalidate cached pages
// @Tags Public
// @Accept json
// @Success 200 {object} map[string]any
// @Failure 401 {object} ErrorResponse "Wrong secret"
// @Router /public/revalidate [post]
func (h publicHandler) revalidate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revalidateRequest
		if err := decodeJSON(w, r, maxSmallBodyBytes, "revalidation", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if h.secret == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
			h.responder.WriteError(w, errs.NewUnauthorizedError("invalid revalidation secret"))
			return
		}

		h.pages.Invalidate(r.Context(), cache.Signal{Tags: req.Tags, Paths: req.Paths})
		h.logger.Info().Strs("tags", req.Tags).Strs("paths", req.Paths).Msg("Pages revalidated")
		h.responder.WriteJSON(w, map[string]any{"revalidated": true, "now": time.Now().UTC()})
	}
}

func (h publicHandler) health(startupTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.Ping(r.Context()); err != nil {
			h.responder.WriteError(w, errs.NewServiceUnavailableError("database", err))
			return
		}
		h.responder.WriteJSON(w, map[string]any{
			"status": "ok",
			"uptime": time.Since(startupTime).Round(time.Second).String(),
		})
	}
}
