package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/services"
)

// maxPostBodyBytes bounds upsert payloads, content tree included.
const maxPostBodyBytes = 2 << 20

type postHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     *services.PostService
}

func newPostHandler(posts *services.PostService) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
	}
}

// listPosts returns a page of posts in any status
// @Summary List posts
// @Tags Posts
// @Produce json
// @Param page query int false "1-based page"
// @Param pageSize query int false "Page size, at most 50"
// @Param q query string false "Title or summary search"
// @Param category query string false "Category slug"
// @Param tag query string false "Tag"
// @Param status query string false "draft or published"
// @Success 200 {object} services.PostPage
// @Failure 400 {object} ErrorResponse
// @Router /posts [get]
func (h postHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := h.posts.List(r.Context(), services.ListParams{
			Page:         intQuery(r, "page", 1),
			PageSize:     intQuery(r, "pageSize", services.DefaultPageSize),
			Query:        q.Get("q"),
			CategorySlug: q.Get("category"),
			Tag:          q.Get("tag"),
			Status:       models.PostStatus(q.Get("status")),
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, page)
	}
}

// getPost returns one post by id
// @Summary Get post
// @Tags Posts
// @Produce json
// @Param postID path string true "Post ID" format(uuid)
// @Success 200 {object} models.Post
// @Failure 404 {object} ErrorResponse
// @Router /posts/{postID} [get]
func (h postHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		post, err := h.posts.Get(r.Context(), postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, post)
	}
}

// createPost saves a new post. An id in the body is ignored.
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Param post body services.PostInput true "Post payload"
// @Success 201 {object} services.UpsertResult
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Slug already used"
// @Failure 429 {object} ErrorResponse
// @Router /posts [post]
func (h postHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.PostInput
		if err := decodeJSON(w, r, maxPostBodyBytes, "post", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = nil

		result, err := h.posts.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

// updatePost saves an existing post
// @Summary Update post
// @Tags Posts
// @Accept json
// @Produce json
// @Param postID path string true "Post ID" format(uuid)
// @Param post body services.PostInput true "Post payload"
// @Success 200 {object} services.UpsertResult
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 404 {object} ErrorResponse
// @Router /posts/{postID} [put]
func (h postHandler) updatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in services.PostInput
		if err := decodeJSON(w, r, maxPostBodyBytes, "post", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if in.ID != nil && *in.ID != postID {
			h.responder.WriteError(w, errs.NewInvalidFieldError("id", "does not match the URL"))
			return
		}
		in.ID = &postID

		result, err := h.posts.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, result)
	}
}

// deletePost removes a post
// @Summary Delete post
// @Tags Posts
// @Param postID path string true "Post ID" format(uuid)
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse "Only the owner may delete"
// @Failure 404 {object} ErrorResponse
// @Router /posts/{postID} [delete]
func (h postHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.posts.Delete(r.Context(), postID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "post deleted successfully",
		})
	}
}

func (h postHandler) duplicatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		result, err := h.posts.Duplicate(r.Context(), postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

func (h postHandler) listRevisions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		revisions, err := h.posts.Revisions(r.Context(), postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]any{"revisions": revisions})
	}
}

func (h postHandler) restoreRevision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		revisionID, err := uuidParam(r, "revisionID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		result, err := h.posts.RestoreRevision(r.Context(), postID, revisionID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Str("actor", actorID(r)).Str("revisionID", revisionID.String()).Msg("Revision restored")
		h.responder.WriteJSON(w, result)
	}
}

// exportMarkdown returns the post as a markdown document
// @Summary Export post as markdown
// @Tags Posts
// @Produce text/markdown
// @Param postID path string true "Post ID" format(uuid)
// @Success 200 {string} string
// @Router /posts/{postID}/markdown [get]
func (h postHandler) exportMarkdown() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuidParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		md, err := h.posts.Markdown(r.Context(), postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteRaw(w, http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
	}
}
