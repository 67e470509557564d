package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusIssued   LoanStatus = "ISSUED"
	LoanStatusReturned LoanStatus = "RETURNED"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
	LoanStatusLost     LoanStatus = "LOST"
	LoanStatusWriteOff LoanStatus = "WRITE_OFF"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusIssued:   {LoanStatusReturned, LoanStatusOverdue, LoanStatusLost, LoanStatusWriteOff},
	LoanStatusOverdue:  {LoanStatusReturned, LoanStatusLost, LoanStatusWriteOff},
	LoanStatusReturned: {},
	LoanStatusLost:     {},
	LoanStatusWriteOff: {},
}

func (s LoanStatus) Valid() bool {
	_, ok := loanTransitions[s]
	return ok
}

func (s LoanStatus) CanTransitionTo(to LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsResolution reports whether s can close a loan.
func (s LoanStatus) IsResolution() bool {
	return s == LoanStatusReturned || s == LoanStatusLost || s == LoanStatusWriteOff
}

// ChargesPrice reports whether resolving a loan as s adds the book price to the fine.
func (s LoanStatus) ChargesPrice() bool {
	return s == LoanStatusLost || s == LoanStatusWriteOff
}

// Loan represents one checked-out copy
type Loan struct {
	ID            int32      `json:"id"`
	BookID        int32      `json:"book_id"`
	MemberID      int32      `json:"member_id"`
	ReservationID *int32     `json:"reservation_id,omitempty"`
	IssueDate     Date       `json:"issue_date"`
	DueDate       Date       `json:"due_date"`
	ReturnedAt    *Date      `json:"returned_at,omitempty"`
	Status        LoanStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (l Loan) Open() bool {
	return l.ReturnedAt == nil
}

// IssueLoanRequest represents a walk-up issue at the desk
type IssueLoanRequest struct {
	BookID    int32  `json:"book_id" binding:"required,min=1"`
	MemberID  int32  `json:"member_id" binding:"required,min=1"`
	IssueDate string `json:"issue_date" binding:"omitempty,dateonly"`
	DueDate   string `json:"due_date" binding:"omitempty,dateonly"`
}

// IssueLoanInput is the engine-level form of an issue. A zero DueDate means
// issue date plus the configured maximum duration.
type IssueLoanInput struct {
	BookID    int32
	MemberID  int32
	IssueDate Date
	DueDate   Date
}

// ReturnLoanRequest closes a loan
type ReturnLoanRequest struct {
	ReturnDate string          `json:"return_date" binding:"omitempty,dateonly"`
	Resolution LoanStatus      `json:"resolution" binding:"omitempty,oneof=RETURNED LOST WRITE_OFF"`
	Collected  decimal.Decimal `json:"collected_amount"`
	Discount   decimal.Decimal `json:"discount"`
}

// ReturnLoanInput is the engine-level form of a return. A zero ReturnDate
// means today and an empty Resolution means RETURNED.
type ReturnLoanInput struct {
	LoanID     int32
	ReturnDate Date
	Resolution LoanStatus
	Collected  decimal.Decimal
	Discount   decimal.Decimal
}

// FineDetails breaks down the charge computed at return time.
type FineDetails struct {
	OverdueDays int             `json:"overdue_days"`
	OverdueFine decimal.Decimal `json:"overdue_fine"`
	BookPrice   decimal.Decimal `json:"book_price"`
	TotalFine   decimal.Decimal `json:"total_fine"`
	Collected   decimal.Decimal `json:"collected"`
	Discount    decimal.Decimal `json:"discount"`
	Remaining   decimal.Decimal `json:"remaining"`
}

type ReturnResult struct {
	Loan            *Loan       `json:"loan"`
	Fine            *Fine       `json:"fine"`
	FineDetails     FineDetails `json:"fine_details"`
	AvailableCopies int32       `json:"available_copies"`
	IsDefaulter     bool        `json:"is_defaulter"`
}

// LoanFilter narrows a staff listing of loans
type LoanFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=ISSUED RETURNED OVERDUE LOST WRITE_OFF"`
	MemberID  int32  `form:"member_id" binding:"omitempty,min=1"`
	BookID    int32  `form:"book_id" binding:"omitempty,min=1"`
	OpenOnly  bool   `form:"open"`
	DueBefore string `form:"due_before" binding:"omitempty,dateonly"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
