package api

import (
	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/services"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Database   database.Database
	Posts      *services.PostService
	Categories *services.CategoryService
	Uploads    *services.UploadService
	Books      *services.BookService
	Courses    *services.CourseService
	Settings   *services.SettingsService
	Tokens     *auth.Tokens
	PageCache  *cache.PageCache

	// RevalidateSecret guards POST /public/revalidate. An empty secret
	// disables the endpoint.
	RevalidateSecret string
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	postHandler     postHandler
	categoryHandler categoryHandler
	uploadHandler   uploadHandler
	bookHandler     bookHandler
	courseHandler   courseHandler
	settingsHandler settingsHandler
	publicHandler   publicHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error      string           `json:"error" example:"Internal Server Error"`
	Status     string           `json:"status" example:"error"`
	Field      string           `json:"field,omitempty" example:"title"`
	Details    string           `json:"details,omitempty" example:"Additional error details"`
	Cause      string           `json:"cause,omitempty" example:"Underlying error cause"`
	Violations []errs.Violation `json:"violations,omitempty"`
}
