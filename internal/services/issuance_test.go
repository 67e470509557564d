package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/database/mockdb"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

func newTestIssuance(store *mockdb.MockStore) *IssuanceService {
	return NewIssuanceService(store, testSettings(), testLogger()).
		WithClock(fixedClock(2025, time.June, 1, 9))
}

func activeBook(id, available int32) queries.Book {
	return queries.Book{
		ID:              id,
		Title:           "The Go Programming Language",
		TotalCopies:     3,
		AvailableCopies: available,
		Status:          string(models.BookStatusActive),
		Price:           money("0"),
	}
}

func TestComputeFine(t *testing.T) {
	perDay := dec("10")

	tests := []struct {
		name       string
		due        string
		returned   string
		resolution models.LoanStatus
		price      string
		wantDays   int
		wantTotal  string
	}{
		{name: "returned on the due date", due: "2025-06-10", returned: "2025-06-10", resolution: models.LoanStatusReturned, price: "0", wantDays: 0, wantTotal: "0"},
		{name: "returned early", due: "2025-06-10", returned: "2025-06-03", resolution: models.LoanStatusReturned, price: "0", wantDays: 0, wantTotal: "0"},
		{name: "five days late", due: "2025-06-10", returned: "2025-06-15", resolution: models.LoanStatusReturned, price: "0", wantDays: 5, wantTotal: "50"},
		{name: "lost and late", due: "2025-06-10", returned: "2025-06-12", resolution: models.LoanStatusLost, price: "450.50", wantDays: 2, wantTotal: "470.50"},
		{name: "written off on time", due: "2025-06-10", returned: "2025-06-01", resolution: models.LoanStatusWriteOff, price: "300", wantDays: 0, wantTotal: "300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := computeFine(date(tt.due), date(tt.returned), perDay, tt.resolution, dec(tt.price))
			assert.Equal(t, tt.wantDays, details.OverdueDays)
			assert.True(t, details.TotalFine.Equal(dec(tt.wantTotal)), "total %s", details.TotalFine)
		})
	}
}

func TestValidateLoanDates(t *testing.T) {
	assert.NoError(t, validateLoanDates(date("2025-06-01"), date("2025-06-15"), 14))
	assert.ErrorIs(t, validateLoanDates(date("2025-06-01"), date("2025-06-01"), 14), apperrors.ErrInvalidDates)
	assert.ErrorIs(t, validateLoanDates(date("2025-06-05"), date("2025-06-01"), 14), apperrors.ErrInvalidDates)
	assert.ErrorIs(t, validateLoanDates(date("2025-06-01"), date("2025-06-16"), 14), apperrors.ErrDurationExceeded)
}

func TestIssuanceService_Issue_Success(t *testing.T) {
	store := &mockdb.MockStore{}
	notifier := &MockNotifier{}
	service := newTestIssuance(store).WithNotifier(notifier)
	ctx := context.Background()

	store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
	store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 1), nil)
	store.On("HasOpenLoan", ctx, queries.HasOpenLoanParams{MemberID: 5, BookID: 3}).Return(false, nil)
	store.On("CountOpenLoansByMember", ctx, int32(5)).Return(int64(2), nil)
	store.On("CreateLoan", ctx, mock.MatchedBy(func(arg queries.CreateLoanParams) bool {
		return dateFromPg(arg.IssueDate).Equal(date("2025-06-01")) &&
			dateFromPg(arg.DueDate).Equal(date("2025-06-15")) &&
			!arg.ReservationID.Valid
	})).Return(queries.Loan{
		ID:        11,
		BookID:    3,
		MemberID:  5,
		IssueDate: pgDate(date("2025-06-01")),
		DueDate:   pgDate(date("2025-06-15")),
		Status:    string(models.LoanStatusIssued),
	}, nil)
	store.On("DecrementAvailableCopies", ctx, int32(3)).Return(int64(1), nil)
	notifier.On("LoanIssued", ctx, mock.AnythingOfType("*models.Loan")).Return(nil)

	loan, err := service.Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)

	require.NoError(t, err)
	assert.Equal(t, int32(11), loan.ID)
	assert.Equal(t, "2025-06-15", loan.DueDate.String())
	assert.True(t, loan.Open())
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestIssuanceService_Issue_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("cap exceeded", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)
		store.On("HasOpenLoan", ctx, mock.Anything).Return(false, nil)
		store.On("CountOpenLoansByMember", ctx, int32(5)).Return(int64(3), nil)

		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrCapExceeded)
		store.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("already holding the title", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)
		store.On("HasOpenLoan", ctx, mock.Anything).Return(true, nil)

		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyHeld)
	})

	t.Run("no copies on the shelf", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
		store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 0), nil)

		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrNoCopiesAvailable)
	})

	t.Run("inactive member", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: false}, nil)

		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrMemberInactive)
	})

	t.Run("unknown book", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
		store.On("GetBookForUpdate", ctx, int32(3)).Return(queries.Book{}, pgx.ErrNoRows)

		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
	})

	t.Run("duration too long", func(t *testing.T) {
		store := &mockdb.MockStore{}
		_, err := newTestIssuance(store).Issue(ctx, models.IssueLoanInput{
			BookID:    3,
			MemberID:  5,
			IssueDate: date("2025-06-01"),
			DueDate:   date("2025-07-01"),
		}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrDurationExceeded)
	})
}

func TestIssuanceService_Return_LateFine(t *testing.T) {
	store := &mockdb.MockStore{}
	notifier := &MockNotifier{}
	service := newTestIssuance(store).WithNotifier(notifier)
	ctx := context.Background()

	loan := queries.Loan{
		ID:        7,
		BookID:    3,
		MemberID:  5,
		IssueDate: pgDate(date("2025-05-27")),
		DueDate:   pgDate(date("2025-06-10")),
		Status:    string(models.LoanStatusIssued),
	}
	closed := loan
	closed.Status = string(models.LoanStatusReturned)
	closed.ReturnedAt = pgDate(date("2025-06-15"))

	store.On("GetLoanForUpdate", ctx, int32(7)).Return(loan, nil)
	store.On("GetMemberForUpdate", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
	store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 2), nil)
	store.On("UpsertFine", ctx, mock.MatchedBy(func(arg queries.UpsertFineParams) bool {
		return arg.LoanID == 7 && arg.MemberID == 5 &&
			sameMoney(arg.Amount, "50") &&
			sameMoney(arg.CollectedAmount, "0") &&
			sameMoney(arg.RemainingFines, "50") &&
			!arg.Collected
	})).Return(queries.Fine{
		ID:              21,
		LoanID:          7,
		MemberID:        5,
		Amount:          money("50"),
		CashInHand:      money("0"),
		CollectedAmount: money("0"),
		Discount:        money("0"),
		RemainingFines:  money("50"),
	}, nil)
	store.On("IncrementAvailableCopies", ctx, int32(3)).Return(int64(1), nil)
	store.On("CloseLoan", ctx, queries.CloseLoanParams{
		ID:         7,
		ReturnedAt: pgDate(date("2025-06-15")),
		Status:     string(models.LoanStatusReturned),
	}).Return(closed, nil)
	store.On("RecomputeMemberDefaulter", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true, IsDefaulter: true}, nil)
	notifier.On("FineImposed", ctx, mock.AnythingOfType("*models.Loan"), mock.AnythingOfType("*models.Fine")).Return(nil)

	result, err := service.Return(ctx, models.ReturnLoanInput{LoanID: 7, ReturnDate: date("2025-06-15")}, staffActor)

	require.NoError(t, err)
	assert.Equal(t, 5, result.FineDetails.OverdueDays)
	assert.Equal(t, "50.00", result.FineDetails.TotalFine.StringFixed(2))
	assert.Equal(t, "50.00", result.Fine.RemainingFines.StringFixed(2))
	assert.False(t, result.Fine.Collected)
	assert.Equal(t, int32(3), result.AvailableCopies)
	assert.True(t, result.IsDefaulter)
	assert.Equal(t, models.LoanStatusReturned, result.Loan.Status)
	assert.Less(t, callIndex(store, "GetMemberForUpdate"), callIndex(store, "UpsertFine"), "member must be locked before the fine")
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestIssuanceService_Return_LostChargesPrice(t *testing.T) {
	store := &mockdb.MockStore{}
	service := newTestIssuance(store)
	ctx := context.Background()

	loan := queries.Loan{ID: 8, BookID: 4, MemberID: 5, DueDate: pgDate(date("2025-06-10")), Status: string(models.LoanStatusIssued)}
	book := activeBook(4, 0)
	book.Price = money("200")

	store.On("GetLoanForUpdate", ctx, int32(8)).Return(loan, nil)
	store.On("GetMemberForUpdate", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: false}, nil)
	store.On("GetBookForUpdate", ctx, int32(4)).Return(book, nil)
	store.On("UpsertFine", ctx, mock.MatchedBy(func(arg queries.UpsertFineParams) bool {
		return sameMoney(arg.Amount, "200") && sameMoney(arg.CollectedAmount, "200") &&
			sameMoney(arg.RemainingFines, "0") && arg.Collected
	})).Return(queries.Fine{ID: 22, LoanID: 8, MemberID: 5, Amount: money("200"), CollectedAmount: money("200"), CashInHand: money("200"), Discount: money("0"), RemainingFines: money("0"), Collected: true}, nil)
	store.On("UpdateBookStatus", ctx, queries.UpdateBookStatusParams{
		ID:           4,
		Status:       string(models.LoanStatusLost),
		StatusReason: textOrNull("loan #8 resolved as LOST"),
	}).Return(queries.Book{ID: 4, Status: string(models.BookStatusLost)}, nil)
	store.On("CloseLoan", ctx, mock.Anything).Return(queries.Loan{ID: 8, BookID: 4, MemberID: 5, Status: string(models.LoanStatusLost), ReturnedAt: pgDate(date("2025-06-05"))}, nil)
	store.On("RecomputeMemberDefaulter", ctx, int32(5)).Return(queries.Member{ID: 5}, nil)

	result, err := service.Return(ctx, models.ReturnLoanInput{
		LoanID:     8,
		ReturnDate: date("2025-06-05"),
		Resolution: models.LoanStatusLost,
		Collected:  dec("200"),
	}, staffActor)

	require.NoError(t, err)
	assert.Equal(t, "200.00", result.FineDetails.BookPrice.StringFixed(2))
	assert.True(t, result.Fine.Collected)
	assert.False(t, result.IsDefaulter)
	assert.Equal(t, int32(0), result.AvailableCopies)
	store.AssertNotCalled(t, "IncrementAvailableCopies", mock.Anything, mock.Anything)
}

func TestIssuanceService_Return_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("already returned", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetLoanForUpdate", ctx, int32(7)).Return(queries.Loan{ID: 7, ReturnedAt: pgDate(date("2025-06-02"))}, nil)

		_, err := newTestIssuance(store).Return(ctx, models.ReturnLoanInput{LoanID: 7}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReturned)
	})

	t.Run("negative collection", func(t *testing.T) {
		_, err := newTestIssuance(&mockdb.MockStore{}).Return(ctx, models.ReturnLoanInput{LoanID: 7, Collected: dec("-1")}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrNegativeAmount)
	})

	t.Run("overdue is not a resolution", func(t *testing.T) {
		_, err := newTestIssuance(&mockdb.MockStore{}).Return(ctx, models.ReturnLoanInput{LoanID: 7, Resolution: models.LoanStatusOverdue}, staffActor)
		assert.ErrorIs(t, err, apperrors.ErrInvalidResolution)
	})
}

func TestIssuanceService_SideEffectFailureDoesNotFailIssue(t *testing.T) {
	store := &mockdb.MockStore{}
	audit := &MockAuditRecorder{}
	events := &MockEventPublisher{}
	notifier := &MockNotifier{}
	service := newTestIssuance(store).WithAudit(audit).WithEvents(events).WithNotifier(notifier)
	ctx := context.Background()

	store.On("GetMember", ctx, int32(5)).Return(queries.Member{ID: 5, IsActive: true}, nil)
	store.On("GetBookForUpdate", ctx, int32(3)).Return(activeBook(3, 1), nil)
	store.On("HasOpenLoan", ctx, mock.Anything).Return(false, nil)
	store.On("CountOpenLoansByMember", ctx, int32(5)).Return(int64(0), nil)
	store.On("CreateLoan", ctx, mock.Anything).Return(queries.Loan{ID: 12, BookID: 3, MemberID: 5, Status: string(models.LoanStatusIssued)}, nil)
	store.On("DecrementAvailableCopies", ctx, int32(3)).Return(int64(1), nil)
	notifier.On("LoanIssued", ctx, mock.Anything).Return(errors.New("redis down"))
	audit.On("Record", ctx, int32(1), models.EventBookIssued, mock.Anything).Return(errors.New("audit table locked"))
	events.On("Publish", ctx, models.RoutingLoanIssued, mock.Anything).Return(errors.New("broker unreachable"))

	loan, err := service.Issue(ctx, models.IssueLoanInput{BookID: 3, MemberID: 5}, staffActor)

	require.NoError(t, err)
	assert.Equal(t, int32(12), loan.ID)
	audit.AssertExpectations(t)
	events.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestIssuanceService_MarkOverdue(t *testing.T) {
	store := &mockdb.MockStore{}
	audit := &MockAuditRecorder{}
	service := newTestIssuance(store).WithAudit(audit)
	ctx := context.Background()

	asOf := pgDate(date("2025-06-01"))
	store.On("MarkOverdueLoans", ctx, asOf).Return([]int32{4, 9}, nil).Once()
	store.On("MarkOverdueLoans", ctx, asOf).Return(nil, nil).Once()
	audit.On("Record", ctx, int32(0), models.EventLoansMarkedOverdue, "Marked 2 loan(s) overdue as of 2025-06-01").Return(nil).Once()

	first, err := service.MarkOverdue(ctx, models.Date{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, []int32{4, 9}, first.IDs)

	second, err := service.MarkOverdue(ctx, models.Date{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Empty(t, second.IDs)
	audit.AssertExpectations(t)
}

func TestIssuanceService_List_InvalidDueBefore(t *testing.T) {
	_, _, err := newTestIssuance(&mockdb.MockStore{}).List(context.Background(), models.LoanFilter{DueBefore: "June"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestIssuanceService_Get_NotFound(t *testing.T) {
	store := &mockdb.MockStore{}
	store.On("GetLoan", mock.Anything, int32(99)).Return(queries.Loan{}, pgx.ErrNoRows)

	_, err := newTestIssuance(store).Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrLoanNotFound)
}
