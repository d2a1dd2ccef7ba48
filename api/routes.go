package api

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// setupPublicRoutes sets up the read-only routes behind the page cache
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, startupTime time.Time) {
	r.Get("/healthz", handlers.publicHandler.health(startupTime))

	r.Route("/public", func(r chi.Router) {
		r.Get("/posts", handlers.publicHandler.listPosts())
		r.Get("/posts/{slug}", handlers.publicHandler.getPost())
		r.Get("/categories", handlers.publicHandler.listCategories())
		r.Get("/books", handlers.publicHandler.listBooks())
		r.Get("/courses", handlers.publicHandler.listCourses())
		r.Get("/settings", handlers.publicHandler.getSettings())
		r.Post("/revalidate", handlers.publicHandler.revalidate())
	})
}

// setupDashboardRoutes sets up all routes with authentication
func setupDashboardRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)
		r.Use(authMiddleware.authenticate)

		// Post Handler endpoints
		r.Get("/posts", handlers.postHandler.listPosts())
		r.Post("/posts", handlers.postHandler.createPost())
		r.Get("/posts/{postID}", handlers.postHandler.getPost())
		r.Put("/posts/{postID}", handlers.postHandler.updatePost())
		r.Delete("/posts/{postID}", handlers.postHandler.deletePost())
		r.Post("/posts/{postID}/duplicate", handlers.postHandler.duplicatePost())
		r.Get("/posts/{postID}/revisions", handlers.postHandler.listRevisions())
		r.Post("/posts/{postID}/revisions/{revisionID}/restore", handlers.postHandler.restoreRevision())
		r.Get("/posts/{postID}/markdown", handlers.postHandler.exportMarkdown())

		// Category Handler endpoints
		r.Get("/categories", handlers.categoryHandler.listCategories())
		r.Post("/categories", handlers.categoryHandler.createCategory())
		r.Put("/categories/{categoryID}", handlers.categoryHandler.updateCategory())
		r.Delete("/categories/{categoryID}", handlers.categoryHandler.deleteCategory())

		// Upload Handler endpoints
		r.Get("/uploads", handlers.uploadHandler.listUploads())
		r.Post("/uploads", handlers.uploadHandler.createUpload())
		r.Delete("/uploads/{uploadID}", handlers.uploadHandler.deleteUpload())

		// Book Handler endpoints
		r.Get("/books", handlers.bookHandler.getAllBooks())
		r.Post("/books", handlers.bookHandler.createBook())
		r.Post("/books/reorder", handlers.bookHandler.reorderBooks())
		r.Put("/books/{bookID}", handlers.bookHandler.updateBook())
		r.Delete("/books/{bookID}", handlers.bookHandler.deleteBook())

		// Course Handler endpoints
		r.Get("/courses", handlers.courseHandler.listCourses())
		r.Post("/courses", handlers.courseHandler.createCourse())
		r.Post("/courses/import", handlers.courseHandler.importCourses())
		r.Put("/courses/{courseID}", handlers.courseHandler.updateCourse())
		r.Delete("/courses/{courseID}", handlers.courseHandler.deleteCourse())

		r.Put("/settings", handlers.settingsHandler.saveSettings())
	})
}
