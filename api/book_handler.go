package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/models"
	"github.com/rpupo63/portfolio-cms/services"
)

type bookHandler struct {
	responder Responder
	logger    zerolog.Logger
	books     *services.BookService
}

func newBookHandler(books *services.BookService) bookHandler {
	logger := log.With().Str("handlerName", "bookHandler").Logger()

	return bookHandler{
		responder: NewResponder(logger),
		logger:    logger,
		books:     books,
	}
}

// BookCollection represents the reading list in display order
type BookCollection struct {
	Books []*models.Book `json:"books"`
	Total int            `json:"total"`
}

// getAllBooks retrieves all books in display order
// @Summary Get all books
// @Description Retrieves the reading list ordered by orderIndex
// @Tags Books
// @Accept json
// @Produce json
// @Success 200 {object} BookCollection "List of books"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching books"
// @Router /books [get]
func (h bookHandler) getAllBooks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := h.books.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, BookCollection{Books: books, Total: len(books)})
	}
}

// createBook creates a new book
// @Summary Create book
// @Description Adds a book to the reading list
// @Tags Books
// @Accept json
// @Produce json
// @Param book body services.BookInput true "Book data"
// @Success 201 {object} models.Book "Created book"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid book data"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error creating book"
// @Router /books [post]
func (h bookHandler) createBook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.BookInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "book", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		in.ID = nil

		book, err := h.books.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, book)
	}
}

// updateBook updates an existing book
// @Summary Update book
// @Description Updates an existing book
// @Tags Books
// @Accept json
// @Produce json
// @Param bookID path string true "Book ID" format(uuid)
// @Param book body services.BookInput true "Updated book data"
// @Success 200 {object} models.Book "Updated book"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid book data"
// @Failure 404 {object} ErrorResponse "Not Found - Book not found"
// @Router /books/{bookID} [put]
func (h bookHandler) updateBook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID, err := uuidParam(r, "bookID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in services.BookInput
		if err := decodeJSON(w, r, maxSmallBodyBytes, "book", &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		// Ensure ID matches
		in.ID = &bookID

		book, err := h.books.Upsert(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, book)
	}
}

type reorderBooksRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// reorderBooks sets the display order to the order of ids
// @Summary Reorder books
// @Tags Books
// @Accept json
// @Param order body reorderBooksRequest true "Book ids in display order"
// @Success 200 {object} map[string]string
// @Router /books/reorder [post]
func (h bookHandler) reorderBooks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderBooksRequest
		if err := decodeJSON(w, r, maxSmallBodyBytes, "book order", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.books.Reorder(r.Context(), req.IDs); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "books reordered successfully",
		})
	}
}

// deleteBook deletes a book by ID
// @Summary Delete book
// @Description Removes a book from the reading list
// @Tags Books
// @Param bookID path string true "Book ID" format(uuid)
// @Success 200 {object} map[string]string "Success message"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid bookID"
// @Failure 404 {object} ErrorResponse "Not Found - Book not found"
// @Router /books/{bookID} [delete]
func (h bookHandler) deleteBook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookID, err := uuidParam(r, "bookID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.books.Delete(r.Context(), bookID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "book deleted successfully",
		})
	}
}
