package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/services"
)

const maxSmallBodyBytes = 64 << 10

type categoryHandler struct {
	responder  Responder
	logger     zerolog.Logger
	categories *services.CategoryService
}

func newCategoryHandler(categories *services.CategoryService) categoryHandler {
	logger := log.With().Str("handlerName", "categoryHandler").Logger()
	return categoryHandler{
		responder:  NewResponder(logger),
		logger:     logger,
		categories: categories,
	}
}

func (h categoryHandler) listCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.categories.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]any{"categories": categories})
	}
}

func (h categoryHandler) createCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.CategoryInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "category", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = nil

		category, err := h.categories.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, category)
	}
}

func (h categoryHandler) updateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuidParam(r, "categoryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in services.CategoryInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "category", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = &categoryID

		category, err := h.categories.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, category)
	}
}

// deleteCategory removes a category, moving its posts to fallbackCategoryId
// @Summary Delete category
// @Tags Categories
// @Param categoryID path string true "Category ID" format(uuid)
// @Param fallbackCategoryId query string false "Category receiving the posts" format(uuid)
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse "Category or fallback not found"
// @Failure 409 {object} ErrorResponse "Category still has posts and no usable fallback was given"
// @Router /categories/{categoryID} [delete]
func (h categoryHandler) deleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuidParam(r, "categoryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		fallbackID, err := optionalUUIDQuery(r, "fallbackCategoryId")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.categories.Delete(r.Context(), categoryID, fallbackID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "category deleted successfully",
		})
	}
}
