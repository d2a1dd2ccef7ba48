package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/services"
)

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploads   *services.UploadService
}

func newUploadHandler(uploads *services.UploadService) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()
	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		uploads:   uploads,
	}
}

func (h uploadHandler) listUploads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := h.uploads.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]any{"uploads": uploads})
	}
}

// createUpload stores the multipart "file" field
// @Summary Upload media
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file, at most 10MB"
// @Success 201 {object} services.UploadResult
// @Failure 413 {object} ErrorResponse
// @Router /uploads [post]
func (h uploadHandler) createUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// room for the multipart envelope around a maximum size file
		r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+1<<20)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				h.responder.WriteError(w, errs.NewMaxBodySizeExceededError(services.MaxUploadBytes))
			case errors.Is(err, http.ErrMissingFile):
				h.responder.WriteError(w, errs.NewMissingRequiredFieldError("file"))
			default:
				h.responder.WriteError(w, errs.NewMalformedPayloadError("upload", err))
			}
			return
		}
		defer file.Close()

		body, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
		if err != nil {
			h.responder.WriteError(w, errs.NewMalformedPayloadError("upload", err))
			return
		}

		result, err := h.uploads.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), body)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, result)
	}
}

func (h uploadHandler) deleteUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploadID, err := uuidParam(r, "uploadID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.uploads.SoftDelete(r.Context(), uploadID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "upload deleted successfully",
		})
	}
}
