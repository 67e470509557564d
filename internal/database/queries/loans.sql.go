// source: loans.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const loanColumns = `id, book_id, member_id, reservation_id, issue_date, due_date, returned_at, status, created_at, updated_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var i Loan
	err := row.Scan(
		&i.ID,
		&i.BookID,
		&i.MemberID,
		&i.ReservationID,
		&i.IssueDate,
		&i.DueDate,
		&i.ReturnedAt,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectLoans(rows pgx.Rows, err error) ([]Loan, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Loan{}
	for rows.Next() {
		i, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const closeLoan = `-- name: CloseLoan :one
UPDATE loans
SET returned_at = $2, status = $3, updated_at = NOW()
WHERE id = $1 AND returned_at IS NULL
RETURNING ` + loanColumns

type CloseLoanParams struct {
	ID         int32       `json:"id"`
	ReturnedAt pgtype.Date `json:"returned_at"`
	Status     string      `json:"status"`
}

func (q *Queries) CloseLoan(ctx context.Context, arg CloseLoanParams) (Loan, error) {
	return scanLoan(q.db.QueryRow(ctx, closeLoan, arg.ID, arg.ReturnedAt, arg.Status))
}

const countLoansByMember = `-- name: CountLoansByMember :one
SELECT COUNT(*) FROM loans WHERE member_id = $1
`

func (q *Queries) CountLoansByMember(ctx context.Context, memberID int32) (int64, error) {
	row := q.db.QueryRow(ctx, countLoansByMember, memberID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countOpenLoansByMember = `-- name: CountOpenLoansByMember :one
SELECT COUNT(*) FROM loans WHERE member_id = $1 AND returned_at IS NULL
`

func (q *Queries) CountOpenLoansByMember(ctx context.Context, memberID int32) (int64, error) {
	row := q.db.QueryRow(ctx, countOpenLoansByMember, memberID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createLoan = `-- name: CreateLoan :one
INSERT INTO loans (book_id, member_id, reservation_id, issue_date, due_date, status)
VALUES ($1, $2, $3, $4, $5, 'ISSUED')
RETURNING ` + loanColumns

type CreateLoanParams struct {
	BookID        int32       `json:"book_id"`
	MemberID      int32       `json:"member_id"`
	ReservationID pgtype.Int4 `json:"reservation_id"`
	IssueDate     pgtype.Date `json:"issue_date"`
	DueDate       pgtype.Date `json:"due_date"`
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (Loan, error) {
	row := q.db.QueryRow(ctx, createLoan,
		arg.BookID,
		arg.MemberID,
		arg.ReservationID,
		arg.IssueDate,
		arg.DueDate,
	)
	return scanLoan(row)
}

const getLoan = `-- name: GetLoan :one
SELECT ` + loanColumns + ` FROM loans
WHERE id = $1
`

func (q *Queries) GetLoan(ctx context.Context, id int32) (Loan, error) {
	return scanLoan(q.db.QueryRow(ctx, getLoan, id))
}

const getLoanForUpdate = `-- name: GetLoanForUpdate :one
SELECT ` + loanColumns + ` FROM loans
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetLoanForUpdate(ctx context.Context, id int32) (Loan, error) {
	return scanLoan(q.db.QueryRow(ctx, getLoanForUpdate, id))
}

const hasOpenLoan = `-- name: HasOpenLoan :one
SELECT EXISTS (
    SELECT 1 FROM loans
    WHERE member_id = $1 AND book_id = $2 AND returned_at IS NULL
)
`

type HasOpenLoanParams struct {
	MemberID int32 `json:"member_id"`
	BookID   int32 `json:"book_id"`
}

func (q *Queries) HasOpenLoan(ctx context.Context, arg HasOpenLoanParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasOpenLoan, arg.MemberID, arg.BookID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listLoansByMember = `-- name: ListLoansByMember :many
SELECT ` + loanColumns + ` FROM loans
WHERE member_id = $1
ORDER BY issue_date DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListLoansByMemberParams struct {
	MemberID int32 `json:"member_id"`
	Limit    int32 `json:"limit"`
	Offset   int32 `json:"offset"`
}

func (q *Queries) ListLoansByMember(ctx context.Context, arg ListLoansByMemberParams) ([]Loan, error) {
	return collectLoans(q.db.Query(ctx, listLoansByMember, arg.MemberID, arg.Limit, arg.Offset))
}

const markOverdueLoans = `-- name: MarkOverdueLoans :many
UPDATE loans
SET status = 'OVERDUE', updated_at = NOW()
WHERE status = 'ISSUED' AND returned_at IS NULL AND due_date < $1
RETURNING id
`

func (q *Queries) MarkOverdueLoans(ctx context.Context, asOf pgtype.Date) ([]int32, error) {
	rows, err := q.db.Query(ctx, markOverdueLoans, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []int32{}
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
