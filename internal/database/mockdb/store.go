// Package mockdb provides a testify mock of database.Store for service tests.
package mockdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ngenohkevin/circulation/internal/database"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/stretchr/testify/mock"
)

// MockStore runs ExecTx closures against itself, so expectations set on the
// mock apply inside and outside transactions alike.
type MockStore struct {
	mock.Mock
}

var _ database.Store = (*MockStore)(nil)

func (m *MockStore) ExecTx(ctx context.Context, fn func(q queries.Querier) error) error {
	return fn(m)
}

func (m *MockStore) CancelStaleReservations(ctx context.Context, cutoff pgtype.Date) ([]int32, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int32), args.Error(1)
}

func (m *MockStore) CloseLoan(ctx context.Context, arg queries.CloseLoanParams) (queries.Loan, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Loan), args.Error(1)
}

func (m *MockStore) CountBooks(ctx context.Context, arg queries.CountBooksParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountLoans(ctx context.Context, f queries.LoanFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountLoansByMember(ctx context.Context, memberID int32) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountOpenLoansByMember(ctx context.Context, memberID int32) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountReservations(ctx context.Context, f queries.ReservationFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CountReservationsByMember(ctx context.Context, memberID int32) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) CreateAuditLog(ctx context.Context, arg queries.CreateAuditLogParams) (queries.AuditLog, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.AuditLog), args.Error(1)
}

func (m *MockStore) CreateBook(ctx context.Context, arg queries.CreateBookParams) (queries.Book, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockStore) CreateLoan(ctx context.Context, arg queries.CreateLoanParams) (queries.Loan, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Loan), args.Error(1)
}

func (m *MockStore) CreateMember(ctx context.Context, arg queries.CreateMemberParams) (queries.Member, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) CreateReservation(ctx context.Context, arg queries.CreateReservationParams) (queries.Reservation, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Reservation), args.Error(1)
}

func (m *MockStore) CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *MockStore) DecrementAvailableCopies(ctx context.Context, id int32) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetBook(ctx context.Context, id int32) (queries.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockStore) GetBookForUpdate(ctx context.Context, id int32) (queries.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockStore) GetFineByLoan(ctx context.Context, loanID int32) (queries.Fine, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(queries.Fine), args.Error(1)
}

func (m *MockStore) GetFineByLoanForUpdate(ctx context.Context, loanID int32) (queries.Fine, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(queries.Fine), args.Error(1)
}

func (m *MockStore) GetLibrarySettings(ctx context.Context) (queries.LibrarySetting, error) {
	args := m.Called(ctx)
	return args.Get(0).(queries.LibrarySetting), args.Error(1)
}

func (m *MockStore) GetLoan(ctx context.Context, id int32) (queries.Loan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Loan), args.Error(1)
}

func (m *MockStore) GetLoanForUpdate(ctx context.Context, id int32) (queries.Loan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Loan), args.Error(1)
}

func (m *MockStore) GetMember(ctx context.Context, id int32) (queries.Member, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) GetMemberByUserID(ctx context.Context, userID int32) (queries.Member, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) GetMemberContact(ctx context.Context, id int32) (queries.GetMemberContactRow, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.GetMemberContactRow), args.Error(1)
}

func (m *MockStore) GetMemberForUpdate(ctx context.Context, id int32) (queries.Member, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) GetNotificationSettings(ctx context.Context) (queries.NotificationSetting, error) {
	args := m.Called(ctx)
	return args.Get(0).(queries.NotificationSetting), args.Error(1)
}

func (m *MockStore) GetReservation(ctx context.Context, id int32) (queries.Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Reservation), args.Error(1)
}

func (m *MockStore) GetReservationForUpdate(ctx context.Context, id int32) (queries.Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Reservation), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, id int32) (queries.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (queries.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *MockStore) HasOpenLoan(ctx context.Context, arg queries.HasOpenLoanParams) (bool, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockStore) HasPendingReservation(ctx context.Context, arg queries.HasPendingReservationParams) (bool, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockStore) IncrementAvailableCopies(ctx context.Context, id int32) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ListAuditLogs(ctx context.Context, arg queries.ListAuditLogsParams) ([]queries.AuditLog, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.AuditLog), args.Error(1)
}

func (m *MockStore) ListBooks(ctx context.Context, arg queries.ListBooksParams) ([]queries.Book, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Book), args.Error(1)
}

func (m *MockStore) ListFinesByLoanIDsForUpdate(ctx context.Context, arg queries.ListFinesByLoanIDsForUpdateParams) ([]queries.Fine, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Fine), args.Error(1)
}

func (m *MockStore) ListFinesByMember(ctx context.Context, memberID int32) ([]queries.Fine, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Fine), args.Error(1)
}

func (m *MockStore) ListFinesByMemberForUpdate(ctx context.Context, memberID int32) ([]queries.Fine, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Fine), args.Error(1)
}

func (m *MockStore) ListLoans(ctx context.Context, f queries.LoanFilter) ([]queries.Loan, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Loan), args.Error(1)
}

func (m *MockStore) ListLoansByMember(ctx context.Context, arg queries.ListLoansByMemberParams) ([]queries.Loan, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Loan), args.Error(1)
}

func (m *MockStore) ListReservations(ctx context.Context, f queries.ReservationFilter) ([]queries.Reservation, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Reservation), args.Error(1)
}

func (m *MockStore) ListReservationsByMember(ctx context.Context, arg queries.ListReservationsByMemberParams) ([]queries.Reservation, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.Reservation), args.Error(1)
}

func (m *MockStore) MarkOverdueLoans(ctx context.Context, asOf pgtype.Date) ([]int32, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int32), args.Error(1)
}

func (m *MockStore) NextMemberNumber(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) NextRackNumber(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) RecomputeMemberDefaulter(ctx context.Context, id int32) (queries.Member, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) SetMemberDefaulter(ctx context.Context, arg queries.SetMemberDefaulterParams) (queries.Member, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) UpdateBookStatus(ctx context.Context, arg queries.UpdateBookStatusParams) (queries.Book, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockStore) UpdateReservationStatus(ctx context.Context, arg queries.UpdateReservationStatusParams) (queries.Reservation, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Reservation), args.Error(1)
}

func (m *MockStore) UpsertFine(ctx context.Context, arg queries.UpsertFineParams) (queries.Fine, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Fine), args.Error(1)
}

func (m *MockStore) UpsertLibrarySettings(ctx context.Context, arg queries.UpsertLibrarySettingsParams) (queries.LibrarySetting, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.LibrarySetting), args.Error(1)
}

func (m *MockStore) CountUsersByState(ctx context.Context, state string) (int64, error) {
	args := m.Called(ctx, state)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetUserForUpdate(ctx context.Context, id int32) (queries.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *MockStore) ListUsersByState(ctx context.Context, arg queries.ListUsersByStateParams) ([]queries.User, error) {
	args := m.Called(ctx, arg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.User), args.Error(1)
}

func (m *MockStore) SetMemberActive(ctx context.Context, arg queries.SetMemberActiveParams) (queries.Member, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Member), args.Error(1)
}

func (m *MockStore) SetUserApproval(ctx context.Context, arg queries.SetUserApprovalParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}
