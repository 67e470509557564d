package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	CancelStaleReservations(ctx context.Context, cutoff pgtype.Date) ([]int32, error)
	CloseLoan(ctx context.Context, arg CloseLoanParams) (Loan, error)
	CountBooks(ctx context.Context, arg CountBooksParams) (int64, error)
	CountLoans(ctx context.Context, f LoanFilter) (int64, error)
	CountLoansByMember(ctx context.Context, memberID int32) (int64, error)
	CountOpenLoansByMember(ctx context.Context, memberID int32) (int64, error)
	CountReservations(ctx context.Context, f ReservationFilter) (int64, error)
	CountReservationsByMember(ctx context.Context, memberID int32) (int64, error)
	CountUsersByState(ctx context.Context, state string) (int64, error)
	CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error)
	CreateBook(ctx context.Context, arg CreateBookParams) (Book, error)
	CreateLoan(ctx context.Context, arg CreateLoanParams) (Loan, error)
	CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error)
	CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	DecrementAvailableCopies(ctx context.Context, id int32) (int64, error)
	GetBook(ctx context.Context, id int32) (Book, error)
	GetBookForUpdate(ctx context.Context, id int32) (Book, error)
	GetFineByLoan(ctx context.Context, loanID int32) (Fine, error)
	GetFineByLoanForUpdate(ctx context.Context, loanID int32) (Fine, error)
	GetLibrarySettings(ctx context.Context) (LibrarySetting, error)
	GetLoan(ctx context.Context, id int32) (Loan, error)
	GetLoanForUpdate(ctx context.Context, id int32) (Loan, error)
	GetMember(ctx context.Context, id int32) (Member, error)
	GetMemberByUserID(ctx context.Context, userID int32) (Member, error)
	GetMemberContact(ctx context.Context, id int32) (GetMemberContactRow, error)
	GetMemberForUpdate(ctx context.Context, id int32) (Member, error)
	GetNotificationSettings(ctx context.Context) (NotificationSetting, error)
	GetReservation(ctx context.Context, id int32) (Reservation, error)
	GetReservationForUpdate(ctx context.Context, id int32) (Reservation, error)
	GetUser(ctx context.Context, id int32) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserForUpdate(ctx context.Context, id int32) (User, error)
	HasOpenLoan(ctx context.Context, arg HasOpenLoanParams) (bool, error)
	HasPendingReservation(ctx context.Context, arg HasPendingReservationParams) (bool, error)
	IncrementAvailableCopies(ctx context.Context, id int32) (int64, error)
	ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error)
	ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error)
	ListFinesByLoanIDsForUpdate(ctx context.Context, arg ListFinesByLoanIDsForUpdateParams) ([]Fine, error)
	ListFinesByMember(ctx context.Context, memberID int32) ([]Fine, error)
	ListFinesByMemberForUpdate(ctx context.Context, memberID int32) ([]Fine, error)
	ListLoans(ctx context.Context, f LoanFilter) ([]Loan, error)
	ListLoansByMember(ctx context.Context, arg ListLoansByMemberParams) ([]Loan, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	ListReservationsByMember(ctx context.Context, arg ListReservationsByMemberParams) ([]Reservation, error)
	ListUsersByState(ctx context.Context, arg ListUsersByStateParams) ([]User, error)
	MarkOverdueLoans(ctx context.Context, asOf pgtype.Date) ([]int32, error)
	NextMemberNumber(ctx context.Context) (int64, error)
	NextRackNumber(ctx context.Context) (int64, error)
	RecomputeMemberDefaulter(ctx context.Context, id int32) (Member, error)
	SetMemberActive(ctx context.Context, arg SetMemberActiveParams) (Member, error)
	SetMemberDefaulter(ctx context.Context, arg SetMemberDefaulterParams) (Member, error)
	UpdateBookStatus(ctx context.Context, arg UpdateBookStatusParams) (Book, error)
	SetUserApproval(ctx context.Context, arg SetUserApprovalParams) (User, error)
	UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error)
	UpsertFine(ctx context.Context, arg UpsertFineParams) (Fine, error)
	UpsertLibrarySettings(ctx context.Context, arg UpsertLibrarySettingsParams) (LibrarySetting, error)
}

var _ Querier = (*Queries)(nil)
