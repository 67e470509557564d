package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/metrics"
	"github.com/ngenohkevin/circulation/internal/models"
)

// CatalogService manages titles and their copy counts
type CatalogService struct {
	store    database.Store
	settings SettingsProvider
	effects  sideEffects
}

func NewCatalogService(store database.Store, settings SettingsProvider, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:    store,
		settings: settings,
		effects:  newSideEffects(logger),
	}
}

func (s *CatalogService) WithAudit(audit AuditRecorder) *CatalogService {
	s.effects.audit = audit
	return s
}

// FormatSequenceCode renders n with a format such as "KFGC-000": everything up
// to the last dash is the prefix and the last segment sets the zero padding.
func FormatSequenceCode(format string, n int64) string {
	idx := strings.LastIndex(format, "-")
	if idx < 0 {
		return fmt.Sprintf("%s%d", format, n)
	}
	prefix, pad := format[:idx+1], len(format)-idx-1
	return fmt.Sprintf("%s%0*d", prefix, pad, n)
}

// CreateBook adds a title with every copy on the shelf.
func (s *CatalogService) CreateBook(ctx context.Context, req models.CreateBookRequest) (*models.Book, error) {
	if req.TotalCopies < 0 {
		return nil, apperrors.ErrInvalidCopies
	}
	if req.Price.IsNegative() {
		return nil, apperrors.ErrNegativeAmount
	}

	settings, err := s.settings.LibrarySettings(ctx)
	if err != nil {
		return nil, err
	}

	var created queries.Book
	err = s.store.ExecTx(ctx, func(q queries.Querier) error {
		seq, err := q.NextRackNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate rack number: %w", err)
		}
		created, err = q.CreateBook(ctx, queries.CreateBookParams{
			Title:       strings.TrimSpace(req.Title),
			Author:      strings.TrimSpace(req.Author),
			Isbn:        strings.TrimSpace(req.ISBN),
			Category:    textOrNull(req.Category),
			Department:  textOrNull(req.Department),
			Language:    textOrNull(req.Language),
			RackNumber:  FormatSequenceCode(settings.RackNumberFormat, seq),
			TotalCopies: req.TotalCopies,
			Price:       numericFromDecimal(req.Price),
		})
		if err != nil {
			if uniqueViolation(err, "books_isbn_key") {
				return apperrors.ErrDuplicateISBN
			}
			return fmt.Errorf("failed to create book: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.effects.logger.Info("Book created", "book_id", created.ID, "rack_number", created.RackNumber)
	return bookFromRow(created), nil
}

func (s *CatalogService) GetBook(ctx context.Context, id int32) (*models.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return bookFromRow(book), nil
}

// ListBooks returns one page of the catalog and the total match count.
func (s *CatalogService) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, models.Pagination, error) {
	page, limit := pageBounds(filter.Page, filter.Limit)
	count, err := s.store.CountBooks(ctx, queries.CountBooksParams{
		Search:   textOrNull(filter.Search),
		Category: textOrNull(filter.Category),
		Status:   textOrNull(filter.Status),
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count books: %w", err)
	}

	rows, err := s.store.ListBooks(ctx, queries.ListBooksParams{
		Search:   textOrNull(filter.Search),
		Category: textOrNull(filter.Category),
		Status:   textOrNull(filter.Status),
		Limit:    int32(limit),
		Offset:   int32((page - 1) * limit),
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]*models.Book, 0, len(rows))
	for _, b := range rows {
		books = append(books, bookFromRow(b))
	}
	return books, models.NewPagination(page, limit, count), nil
}

// UpdateBookStatus moves a title between ACTIVE, LOST and WRITE_OFF. Losing a
// title takes one copy off the shelf and restoring it puts one back.
func (s *CatalogService) UpdateBookStatus(ctx context.Context, id int32, req models.UpdateBookStatusRequest, actor models.Actor) (*models.Book, error) {
	if !req.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	var before, after queries.Book
	err := s.store.ExecTx(ctx, func(q queries.Querier) error {
		var err error
		before, err = q.GetBookForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return apperrors.ErrBookNotFound
			}
			return fmt.Errorf("failed to lock book: %w", err)
		}

		from := models.BookStatus(before.Status)
		if from == req.Status {
			after = before
			return nil
		}
		reason := strings.TrimSpace(req.Reason)
		if req.Status.RequiresReason() && reason == "" {
			return apperrors.ErrStatusReasonRequired
		}

		switch {
		case from.RequiresReason() && req.Status == models.BookStatusActive:
			if _, err := q.IncrementAvailableCopies(ctx, id); err != nil {
				return fmt.Errorf("failed to restore copy: %w", err)
			}
		case from == models.BookStatusActive && req.Status.RequiresReason():
			if _, err := q.DecrementAvailableCopies(ctx, id); err != nil {
				return fmt.Errorf("failed to withdraw copy: %w", err)
			}
		}

		after, err = q.UpdateBookStatus(ctx, queries.UpdateBookStatusParams{
			ID:           id,
			Status:       string(req.Status),
			StatusReason: textOrNull(reason),
		})
		if err != nil {
			return fmt.Errorf("failed to update book status: %w", err)
		}
		return nil
	})
	metrics.ObserveOperation("book_status", err)
	if err != nil {
		return nil, err
	}

	if before.Status != after.Status {
		description := fmt.Sprintf("Book '%s' status changed from %s to %s", after.Title, before.Status, after.Status)
		if after.StatusReason.Valid {
			description += ". Reason: " + after.StatusReason.String
		}
		s.effects.record(ctx, actor, models.EventBookStatusChanged, description)
	}
	return bookFromRow(after), nil
}

// pageBounds normalises 1-based paging input.
func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
