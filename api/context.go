package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/errs"
)

// uuidParam parses the named chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewBadRequestError("missing " + name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid " + name)
	}
	return id, nil
}

// optionalUUIDQuery parses the named query parameter, returning nil when absent.
func optionalUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errs.NewInvalidFieldError(name, "must be a UUID")
	}
	return &id, nil
}

// intQuery returns the named query parameter as an int, or fallback when it is
// absent or not a number.
func intQuery(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

// actorID names the caller in logs.
func actorID(r *http.Request) string {
	if actor, ok := auth.ActorFrom(r.Context()); ok {
		return actor.ID
	}
	return "anonymous"
}
