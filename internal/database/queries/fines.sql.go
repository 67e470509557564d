// source: fines.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const fineColumns = `id, loan_id, member_id, amount, cash_in_hand, collected_amount, discount,
    remaining_fines, collected, created_at, updated_at`

func scanFine(row pgx.Row) (Fine, error) {
	var i Fine
	err := row.Scan(
		&i.ID,
		&i.LoanID,
		&i.MemberID,
		&i.Amount,
		&i.CashInHand,
		&i.CollectedAmount,
		&i.Discount,
		&i.RemainingFines,
		&i.Collected,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectFines(rows pgx.Rows, err error) ([]Fine, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Fine{}
	for rows.Next() {
		i, err := scanFine(rows)
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

const getFineByLoan = `-- name: GetFineByLoan :one
SELECT ` + fineColumns + ` FROM fines
WHERE loan_id = $1
`

func (q *Queries) GetFineByLoan(ctx context.Context, loanID int32) (Fine, error) {
	return scanFine(q.db.QueryRow(ctx, getFineByLoan, loanID))
}

const getFineByLoanForUpdate = `-- name: GetFineByLoanForUpdate :one
SELECT ` + fineColumns + ` FROM fines
WHERE loan_id = $1
FOR UPDATE
`

func (q *Queries) GetFineByLoanForUpdate(ctx context.Context, loanID int32) (Fine, error) {
	return scanFine(q.db.QueryRow(ctx, getFineByLoanForUpdate, loanID))
}

const listFinesByLoanIDsForUpdate = `-- name: ListFinesByLoanIDsForUpdate :many
SELECT ` + fineColumns + ` FROM fines
WHERE member_id = $1 AND loan_id = ANY($2::int[])
ORDER BY id
FOR UPDATE
`

type ListFinesByLoanIDsForUpdateParams struct {
	MemberID int32   `json:"member_id"`
	LoanIds  []int32 `json:"loan_ids"`
}

func (q *Queries) ListFinesByLoanIDsForUpdate(ctx context.Context, arg ListFinesByLoanIDsForUpdateParams) ([]Fine, error) {
	return collectFines(q.db.Query(ctx, listFinesByLoanIDsForUpdate, arg.MemberID, arg.LoanIds))
}

const listFinesByMember = `-- name: ListFinesByMember :many
SELECT ` + fineColumns + ` FROM fines
WHERE member_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListFinesByMember(ctx context.Context, memberID int32) ([]Fine, error) {
	return collectFines(q.db.Query(ctx, listFinesByMember, memberID))
}

const listFinesByMemberForUpdate = `-- name: ListFinesByMemberForUpdate :many
SELECT ` + fineColumns + ` FROM fines
WHERE member_id = $1
ORDER BY created_at, id
FOR UPDATE
`

func (q *Queries) ListFinesByMemberForUpdate(ctx context.Context, memberID int32) ([]Fine, error) {
	return collectFines(q.db.Query(ctx, listFinesByMemberForUpdate, memberID))
}

const upsertFine = `-- name: UpsertFine :one
INSERT INTO fines (
    loan_id, member_id, amount, cash_in_hand, collected_amount, discount, remaining_fines, collected
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (loan_id) DO UPDATE SET
    amount = EXCLUDED.amount,
    cash_in_hand = EXCLUDED.cash_in_hand,
    collected_amount = EXCLUDED.collected_amount,
    discount = EXCLUDED.discount,
    remaining_fines = EXCLUDED.remaining_fines,
    collected = EXCLUDED.collected,
    updated_at = NOW()
RETURNING ` + fineColumns

type UpsertFineParams struct {
	LoanID          int32          `json:"loan_id"`
	MemberID        int32          `json:"member_id"`
	Amount          pgtype.Numeric `json:"amount"`
	CashInHand      pgtype.Numeric `json:"cash_in_hand"`
	CollectedAmount pgtype.Numeric `json:"collected_amount"`
	Discount        pgtype.Numeric `json:"discount"`
	RemainingFines  pgtype.Numeric `json:"remaining_fines"`
	Collected       bool           `json:"collected"`
}

func (q *Queries) UpsertFine(ctx context.Context, arg UpsertFineParams) (Fine, error) {
	row := q.db.QueryRow(ctx, upsertFine,
		arg.LoanID,
		arg.MemberID,
		arg.Amount,
		arg.CashInHand,
		arg.CollectedAmount,
		arg.Discount,
		arg.RemainingFines,
		arg.Collected,
	)
	return scanFine(row)
}
