package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
)

// BookServiceInterface defines the catalog operations exposed over HTTP
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error)
	GetBook(ctx context.Context, id int32) (*models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, models.Pagination, error)
	UpdateBookStatus(ctx context.Context, id int32, req models.UpdateBookStatusRequest, actor models.Actor) (*models.Book, error)
}

type BookHandler struct {
	books BookServiceInterface
}

func NewBookHandler(books BookServiceInterface) *BookHandler {
	return &BookHandler{books: books}
}

// CreateBook adds a title to the catalog
// @Summary Create a new book
// @Description The rack number is generated from the configured format
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.CreateBookRequest true "Book"
// @Success 201 {object} SuccessResponse{data=models.Book}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	book, err := h.books.CreateBook(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book created successfully",
	})
}

// GetBook returns one title
// @Summary Get book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse{data=models.Book}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	book, err := h.books.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: book})
}

// ListBooks lists the catalog
// @Summary List books
// @Tags books
// @Produce json
// @Param search query string false "Title, author or ISBN"
// @Param category query string false "Category"
// @Param status query string false "ACTIVE, LOST or WRITE_OFF"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} ListResponse{data=[]models.Book}
// @Router /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var filter models.BookFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	books, meta, err := h.books.ListBooks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: books, Meta: meta})
}

// UpdateBookStatus marks a title ACTIVE, LOST or WRITE_OFF
// @Summary Change a book's status
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param request body models.UpdateBookStatusRequest true "Status"
// @Success 200 {object} SuccessResponse{data=models.Book}
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/books/{id}/status [patch]
func (h *BookHandler) UpdateBookStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateBookStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	actor, _ := middleware.GetActor(c)
	book, err := h.books.UpdateBookStatus(c.Request.Context(), id, req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    book,
		Message: "Book status updated successfully",
	})
}
