package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/services"
)

const maxCSVBodyBytes = 1 << 20

type courseHandler struct {
	responder Responder
	logger    zerolog.Logger
	courses   *services.CourseService
}

func newCourseHandler(courses *services.CourseService) courseHandler {
	logger := log.With().Str("handlerName", "courseHandler").Logger()
	return courseHandler{
		responder: NewResponder(logger),
		logger:    logger,
		courses:   courses,
	}
}

func (h courseHandler) listCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := h.courses.List(r.Context(), r.URL.Query().Get("discipline"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]any{"courses": courses})
	}
}

func (h courseHandler) createCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.CourseInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "course", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = nil

		course, err := h.courses.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, course)
	}
}

func (h courseHandler) updateCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := uuidParam(r, "courseID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in services.CourseInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "course", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = &courseID

		course, err := h.courses.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, course)
	}
}

func (h courseHandler) deleteCourse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err := uuidParam(r, "courseID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.courses.Delete(r.Context(), courseID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "course deleted successfully",
		})
	}
}

// importCourses adds every course of a CSV body
// @Summary Import courses
// @Tags Courses
// @Accept text/csv
// @Produce json
// @Param csv body string true "Header row then code,name,discipline rows"
// @Success 201 {object} map[string]int
// @Failure 400 {object} ErrorResponse "A row is invalid; nothing was imported"
// @Router /courses/import [post]
func (h courseHandler) importCourses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCSVBodyBytes))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(maxErr.Limit))
				return
			}
			h.responder.WriteError(w, errs.NewMalformedPayloadError("csv", err))
			return
		}

		imported, err := h.courses.ImportCSV(r.Context(), bytes.NewReader(body))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, map[string]int{"imported": imported})
	}
}
