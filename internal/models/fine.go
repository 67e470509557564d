package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fine is the ledger entry owned by exactly one loan
type Fine struct {
	ID              int32           `json:"id"`
	LoanID          int32           `json:"loan_id"`
	MemberID        int32           `json:"member_id"`
	Amount          decimal.Decimal `json:"amount"`
	CashInHand      decimal.Decimal `json:"cash_in_hand"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
	Discount        decimal.Decimal `json:"discount"`
	RemainingFines  decimal.Decimal `json:"remaining_fines"`
	Collected       bool            `json:"collected"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CollectFinesRequest applies one payment and one discount across a member's fines.
type CollectFinesRequest struct {
	MemberID       int32           `json:"member_id" binding:"required,min=1"`
	LoanIDs        []int32         `json:"loan_ids" binding:"omitempty,dive,min=1"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	FullPayment    bool            `json:"full_payment"`
}

// CollectFinesInput is the engine-level form of a collection. An empty
// LoanIDs selects every fine of the member, oldest first.
type CollectFinesInput struct {
	MemberID       int32
	LoanIDs        []int32
	TotalCollected decimal.Decimal
	TotalDiscount  decimal.Decimal
	FullPayment    bool
}

// FineAllocation is the share of a collection applied to one fine.
type FineAllocation struct {
	FineID           int32           `json:"fine_id"`
	LoanID           int32           `json:"loan_id"`
	AppliedDiscount  decimal.Decimal `json:"applied_discount"`
	AppliedCollected decimal.Decimal `json:"applied_collected"`
	Remaining        decimal.Decimal `json:"remaining"`
}

type CollectionResult struct {
	MemberID             int32            `json:"member_id"`
	Allocations          []FineAllocation `json:"allocations"`
	LeftoverDiscount     decimal.Decimal  `json:"leftover_discount"`
	LeftoverCollected    decimal.Decimal  `json:"leftover_collected"`
	AllFullyPaidSelected bool             `json:"all_fully_paid_selected"`
	IsDefaulter          bool             `json:"is_defaulter"`
}

// SettleFineRequest overwrites the totals of a single loan's fine.
type SettleFineRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Collected  decimal.Decimal `json:"collected_amount"`
	Discount   decimal.Decimal `json:"discount"`
	CashInHand decimal.Decimal `json:"cash_in_hand"`
}

// FineReportRow is one line of a fine report, scanned by the report queries.
type FineReportRow struct {
	FineID          int32           `json:"fine_id" db:"fine_id"`
	LoanID          int32           `json:"loan_id" db:"loan_id"`
	MemberID        int32           `json:"member_id" db:"member_id"`
	MemberCode      string          `json:"member_code" db:"member_code"`
	Username        string          `json:"username" db:"username"`
	BookTitle       string          `json:"book_title" db:"book_title"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	CollectedAmount decimal.Decimal `json:"collected_amount" db:"collected_amount"`
	CashInHand      decimal.Decimal `json:"cash_in_hand" db:"cash_in_hand"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	RemainingFines  decimal.Decimal `json:"remaining_fines" db:"remaining_fines"`
	Collected       bool            `json:"collected" db:"collected"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

type FineReport struct {
	Rows  []FineReportRow `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

type FinancialSummary struct {
	Collected       FineReport      `json:"collected"`
	Pending         FineReport      `json:"pending"`
	CashInHand      FineReport      `json:"cash_in_hand"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	OutstandingDebt decimal.Decimal `json:"outstanding_debt"`
}

// ReportKind names a fine report.
type ReportKind string

const (
	ReportCollected  ReportKind = "collected"
	ReportPending    ReportKind = "pending"
	ReportCashInHand ReportKind = "cash-in-hand"
)

func (k ReportKind) Valid() bool {
	return k == ReportCollected || k == ReportPending || k == ReportCashInHand
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)
