// source: reservations.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reservationColumns = `id, member_id, book_id, reserved_from, reserved_to, pickup_duration, notes, status, created_at, updated_at`

func scanReservation(row pgx.Row) (Reservation, error) {
	var i Reservation
	err := row.Scan(
		&i.ID,
		&i.MemberID,
		&i.BookID,
		&i.ReservedFrom,
		&i.ReservedTo,
		&i.PickupDuration,
		&i.Notes,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectReservations(rows pgx.Rows, err error) ([]Reservation, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Reservation{}
	for rows.Next() {
		i, err := scanReservation(rows)
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

const cancelStaleReservations = `-- name: CancelStaleReservations :many
UPDATE reservations
SET status = 'CANCELLED', updated_at = NOW()
WHERE status = 'PENDING' AND reserved_from < $1
RETURNING id
`

func (q *Queries) CancelStaleReservations(ctx context.Context, cutoff pgtype.Date) ([]int32, error) {
	rows, err := q.db.Query(ctx, cancelStaleReservations, cutoff)
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

const countReservationsByMember = `-- name: CountReservationsByMember :one
SELECT COUNT(*) FROM reservations WHERE member_id = $1
`

func (q *Queries) CountReservationsByMember(ctx context.Context, memberID int32) (int64, error) {
	row := q.db.QueryRow(ctx, countReservationsByMember, memberID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createReservation = `-- name: CreateReservation :one
INSERT INTO reservations (member_id, book_id, reserved_from, reserved_to, pickup_duration, notes, status)
VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
RETURNING ` + reservationColumns

type CreateReservationParams struct {
	MemberID       int32       `json:"member_id"`
	BookID         int32       `json:"book_id"`
	ReservedFrom   pgtype.Date `json:"reserved_from"`
	ReservedTo     pgtype.Date `json:"reserved_to"`
	PickupDuration int32       `json:"pickup_duration"`
	Notes          pgtype.Text `json:"notes"`
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRow(ctx, createReservation,
		arg.MemberID,
		arg.BookID,
		arg.ReservedFrom,
		arg.ReservedTo,
		arg.PickupDuration,
		arg.Notes,
	)
	return scanReservation(row)
}

const getReservation = `-- name: GetReservation :one
SELECT ` + reservationColumns + ` FROM reservations
WHERE id = $1
`

func (q *Queries) GetReservation(ctx context.Context, id int32) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservation, id))
}

const getReservationForUpdate = `-- name: GetReservationForUpdate :one
SELECT ` + reservationColumns + ` FROM reservations
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetReservationForUpdate(ctx context.Context, id int32) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, getReservationForUpdate, id))
}

const hasPendingReservation = `-- name: HasPendingReservation :one
SELECT EXISTS (
    SELECT 1 FROM reservations
    WHERE member_id = $1 AND book_id = $2 AND status = 'PENDING'
)
`

type HasPendingReservationParams struct {
	MemberID int32 `json:"member_id"`
	BookID   int32 `json:"book_id"`
}

func (q *Queries) HasPendingReservation(ctx context.Context, arg HasPendingReservationParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasPendingReservation, arg.MemberID, arg.BookID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listReservationsByMember = `-- name: ListReservationsByMember :many
SELECT ` + reservationColumns + ` FROM reservations
WHERE member_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListReservationsByMemberParams struct {
	MemberID int32 `json:"member_id"`
	Limit    int32 `json:"limit"`
	Offset   int32 `json:"offset"`
}

func (q *Queries) ListReservationsByMember(ctx context.Context, arg ListReservationsByMemberParams) ([]Reservation, error) {
	return collectReservations(q.db.Query(ctx, listReservationsByMember, arg.MemberID, arg.Limit, arg.Offset))
}

const updateReservationStatus = `-- name: UpdateReservationStatus :one
UPDATE reservations
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + reservationColumns

type UpdateReservationStatusParams struct {
	ID     int32  `json:"id"`
	Status string `json:"status"`
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, updateReservationStatus, arg.ID, arg.Status))
}
