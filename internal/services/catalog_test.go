package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database/mockdb"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

func TestFormatSequenceCode(t *testing.T) {
	tests := []struct {
		format string
		n      int64
		want   string
	}{
		{format: "KFGC-000", n: 7, want: "KFGC-007"},
		{format: "MBR-2025-000", n: 12, want: "MBR-2025-012"},
		{format: "A-00", n: 123, want: "A-123"},
		{format: "SHELF", n: 5, want: "SHELF5"},
		{format: "R-", n: 9, want: "R-9"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSequenceCode(tt.format, tt.n))
		})
	}
}

func TestPageBounds(t *testing.T) {
	page, limit := pageBounds(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = pageBounds(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)
}

func TestCatalogService_CreateBook(t *testing.T) {
	store := &mockdb.MockStore{}
	service := NewCatalogService(store, testSettings(), testLogger())
	ctx := context.Background()

	store.On("NextRackNumber", ctx).Return(int64(42), nil)
	store.On("CreateBook", ctx, mock.MatchedBy(func(arg queries.CreateBookParams) bool {
		return arg.RackNumber == "KFGC-042" && arg.Title == "Dune" && sameMoney(arg.Price, "12.99")
	})).Return(queries.Book{ID: 1, Title: "Dune", RackNumber: "KFGC-042", TotalCopies: 2, AvailableCopies: 2, Status: "ACTIVE", Price: money("12.99")}, nil)

	book, err := service.CreateBook(ctx, models.CreateBookRequest{
		Title:       "  Dune ",
		Author:      "Frank Herbert",
		ISBN:        "9780441013593",
		TotalCopies: 2,
		Price:       dec("12.99"),
	})

	require.NoError(t, err)
	assert.Equal(t, "KFGC-042", book.RackNumber)
	assert.Equal(t, int32(2), book.AvailableCopies)
	store.AssertExpectations(t)
}

func TestCatalogService_CreateBook_DuplicateISBN(t *testing.T) {
	store := &mockdb.MockStore{}
	ctx := context.Background()

	store.On("NextRackNumber", ctx).Return(int64(43), nil)
	store.On("CreateBook", ctx, mock.Anything).Return(queries.Book{}, &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"})

	_, err := NewCatalogService(store, testSettings(), testLogger()).CreateBook(ctx, models.CreateBookRequest{Title: "Dune", ISBN: "9780441013593"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateISBN)
}

func TestCatalogService_UpdateBookStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("losing a title requires a reason", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)

		_, err := NewCatalogService(store, testSettings(), testLogger()).
			UpdateBookStatus(ctx, 3, models.UpdateBookStatusRequest{Status: models.BookStatusLost}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrStatusReasonRequired)
	})

	t.Run("lost takes a copy off the shelf and is audited", func(t *testing.T) {
		store := &mockdb.MockStore{}
		audit := &MockAuditRecorder{}
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)
		store.On("DecrementAvailableCopies", ctx, int32(3)).Return(int64(1), nil)
		store.On("UpdateBookStatus", ctx, queries.UpdateBookStatusParams{
			ID:           3,
			Status:       string(models.BookStatusLost),
			StatusReason: textOrNull("water damage"),
		}).Return(queries.Book{ID: 3, Title: "The Go Programming Language", AvailableCopies: 1, Status: "LOST", StatusReason: textOrNull("water damage")}, nil)
		audit.On("Record", ctx, int32(1), models.EventBookStatusChanged,
			"Book 'The Go Programming Language' status changed from ACTIVE to LOST. Reason: water damage").Return(nil)

		book, err := NewCatalogService(store, testSettings(), testLogger()).WithAudit(audit).
			UpdateBookStatus(ctx, 3, models.UpdateBookStatusRequest{Status: models.BookStatusLost, Reason: " water damage "}, staffActor)

		require.NoError(t, err)
		assert.Equal(t, models.BookStatusLost, book.Status)
		store.AssertExpectations(t)
		audit.AssertExpectations(t)
	})

	t.Run("restoring puts a copy back", func(t *testing.T) {
		store := &mockdb.MockStore{}
		lost := activeBook(3, 1)
		lost.Status = string(models.BookStatusLost)
		store.On("GetBookForUpdate", ctx, int32(3)).Return(lost, nil)
		store.On("IncrementAvailableCopies", ctx, int32(3)).Return(int64(1), nil)
		store.On("UpdateBookStatus", ctx, mock.Anything).Return(activeBook(3, 2), nil)

		book, err := NewCatalogService(store, testSettings(), testLogger()).
			UpdateBookStatus(ctx, 3, models.UpdateBookStatusRequest{Status: models.BookStatusActive}, staffActor)

		require.NoError(t, err)
		assert.Equal(t, int32(2), book.AvailableCopies)
		store.AssertExpectations(t)
	})

	t.Run("unchanged status is a no-op", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)

		book, err := NewCatalogService(store, testSettings(), testLogger()).
			UpdateBookStatus(ctx, 3, models.UpdateBookStatusRequest{Status: models.BookStatusActive}, staffActor)

		require.NoError(t, err)
		assert.Equal(t, models.BookStatusActive, book.Status)
		store.AssertNotCalled(t, "UpdateBookStatus", mock.Anything, mock.Anything)
	})
}

func TestMembershipService_CreateMember(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates a member code", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetUser", ctx, int32(9)).Return(queries.User{ID: 9, Username: "amina"}, nil)
		store.On("NextMemberNumber", ctx).Return(int64(4), nil)
		store.On("CreateMember", ctx, queries.CreateMemberParams{
			UserID:     9,
			MemberCode: "MBR-2025-004",
			Mobile:     textOrNull("0712345678"),
		}).Return(queries.Member{ID: 5, UserID: 9, MemberCode: "MBR-2025-004", IsActive: true}, nil)

		member, err := NewMembershipService(store, testSettings(), testLogger()).
			CreateMember(ctx, models.CreateMemberRequest{UserID: 9, Mobile: "0712345678"})

		require.NoError(t, err)
		assert.Equal(t, "MBR-2025-004", member.MemberCode)
		store.AssertExpectations(t)
	})

	t.Run("user already has a profile", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetUser", ctx, int32(9)).Return(queries.User{ID: 9}, nil)
		store.On("NextMemberNumber", ctx).Return(int64(5), nil)
		store.On("CreateMember", ctx, mock.Anything).Return(queries.Member{}, &pgconn.PgError{Code: "23505", ConstraintName: "members_user_id_key"})

		_, err := NewMembershipService(store, testSettings(), testLogger()).
			CreateMember(ctx, models.CreateMemberRequest{UserID: 9})
		assert.ErrorIs(t, err, apperrors.ErrMemberExists)
	})
}
