package services

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

const pgUniqueViolation = "23505"

var hundred = decimal.NewFromInt(100)

// roundMoney rounds half away from zero to cents, which is half-up for the
// non-negative amounts stored in the ledger.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	cents := roundMoney(d).Mul(hundred).BigInt()
	return pgtype.Numeric{Int: cents, Exp: -2, Valid: true}
}

func pgDate(d models.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func dateFromPg(d pgtype.Date) models.Date {
	if !d.Valid {
		return models.Date{}
	}
	return models.DateOf(d.Time)
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func tsTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// uniqueViolation reports whether err is a unique violation on the named
// constraint or index; an empty name matches any.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func bookFromRow(b queries.Book) *models.Book {
	return &models.Book{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.Isbn,
		Category:        b.Category.String,
		Department:      b.Department.String,
		Language:        b.Language.String,
		RackNumber:      b.RackNumber,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		Status:          models.BookStatus(b.Status),
		StatusReason:    b.StatusReason.String,
		Price:           decimalFromNumeric(b.Price),
		CreatedAt:       tsTime(b.CreatedAt),
		UpdatedAt:       tsTime(b.UpdatedAt),
	}
}

func userFromRow(u queries.User) *models.User {
	return &models.User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       models.UserRole(u.Role),
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		IsDeclined: u.IsDeclined,
		CreatedAt:  tsTime(u.CreatedAt),
	}
}

func memberFromRow(m queries.Member) *models.Member {
	return &models.Member{
		ID:          m.ID,
		UserID:      m.UserID,
		MemberCode:  m.MemberCode,
		Mobile:      m.Mobile.String,
		IsDefaulter: m.IsDefaulter,
		IsActive:    m.IsActive,
		CreatedAt:   tsTime(m.CreatedAt),
		UpdatedAt:   tsTime(m.UpdatedAt),
	}
}

func reservationFromRow(r queries.Reservation) *models.Reservation {
	return &models.Reservation{
		ID:             r.ID,
		MemberID:       r.MemberID,
		BookID:         r.BookID,
		ReservedFrom:   dateFromPg(r.ReservedFrom),
		ReservedTo:     dateFromPg(r.ReservedTo),
		PickupDuration: r.PickupDuration,
		Notes:          r.Notes.String,
		Status:         models.ReservationStatus(r.Status),
		CreatedAt:      tsTime(r.CreatedAt),
		UpdatedAt:      tsTime(r.UpdatedAt),
	}
}

func loanFromRow(l queries.Loan) *models.Loan {
	loan := &models.Loan{
		ID:        l.ID,
		BookID:    l.BookID,
		MemberID:  l.MemberID,
		IssueDate: dateFromPg(l.IssueDate),
		DueDate:   dateFromPg(l.DueDate),
		Status:    models.LoanStatus(l.Status),
		CreatedAt: tsTime(l.CreatedAt),
		UpdatedAt: tsTime(l.UpdatedAt),
	}
	if l.ReservationID.Valid {
		id := l.ReservationID.Int32
		loan.ReservationID = &id
	}
	if l.ReturnedAt.Valid {
		returned := dateFromPg(l.ReturnedAt)
		loan.ReturnedAt = &returned
	}
	return loan
}

func fineFromRow(f queries.Fine) *models.Fine {
	return &models.Fine{
		ID:              f.ID,
		LoanID:          f.LoanID,
		MemberID:        f.MemberID,
		Amount:          decimalFromNumeric(f.Amount),
		CashInHand:      decimalFromNumeric(f.CashInHand),
		CollectedAmount: decimalFromNumeric(f.CollectedAmount),
		Discount:        decimalFromNumeric(f.Discount),
		RemainingFines:  decimalFromNumeric(f.RemainingFines),
		Collected:       f.Collected,
		CreatedAt:       tsTime(f.CreatedAt),
		UpdatedAt:       tsTime(f.UpdatedAt),
	}
}
