// source: members.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const memberColumns = `id, user_id, member_code, mobile, is_defaulter, is_active, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var i Member
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.MemberCode,
		&i.Mobile,
		&i.IsDefaulter,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMember = `-- name: CreateMember :one
INSERT INTO members (user_id, member_code, mobile)
VALUES ($1, $2, $3)
RETURNING ` + memberColumns

type CreateMemberParams struct {
	UserID     int32       `json:"user_id"`
	MemberCode string      `json:"member_code"`
	Mobile     pgtype.Text `json:"mobile"`
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, createMember, arg.UserID, arg.MemberCode, arg.Mobile))
}

const getMember = `-- name: GetMember :one
SELECT ` + memberColumns + ` FROM members
WHERE id = $1
`

func (q *Queries) GetMember(ctx context.Context, id int32) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, getMember, id))
}

const getMemberByUserID = `-- name: GetMemberByUserID :one
SELECT ` + memberColumns + ` FROM members
WHERE user_id = $1
`

func (q *Queries) GetMemberByUserID(ctx context.Context, userID int32) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, getMemberByUserID, userID))
}

const getMemberContact = `-- name: GetMemberContact :one
SELECT m.id AS member_id, m.member_code, m.mobile, u.username, u.email
FROM members m
JOIN users u ON u.id = m.user_id
WHERE m.id = $1
`

type GetMemberContactRow struct {
	MemberID   int32       `json:"member_id"`
	MemberCode string      `json:"member_code"`
	Mobile     pgtype.Text `json:"mobile"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
}

func (q *Queries) GetMemberContact(ctx context.Context, id int32) (GetMemberContactRow, error) {
	row := q.db.QueryRow(ctx, getMemberContact, id)
	var i GetMemberContactRow
	err := row.Scan(
		&i.MemberID,
		&i.MemberCode,
		&i.Mobile,
		&i.Username,
		&i.Email,
	)
	return i, err
}

const getMemberForUpdate = `-- name: GetMemberForUpdate :one
SELECT ` + memberColumns + ` FROM members
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetMemberForUpdate(ctx context.Context, id int32) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, getMemberForUpdate, id))
}

const nextMemberNumber = `-- name: NextMemberNumber :one
SELECT nextval('member_code_seq')::bigint
`

func (q *Queries) NextMemberNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, nextMemberNumber)
	var column_1 int64
	err := row.Scan(&column_1)
	return column_1, err
}

const recomputeMemberDefaulter = `-- name: RecomputeMemberDefaulter :one
UPDATE members
SET is_defaulter = EXISTS (
        SELECT 1 FROM fines f WHERE f.member_id = members.id AND f.remaining_fines > 0
    ),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + memberColumns

// RecomputeMemberDefaulter derives is_defaulter from the member's fines.
func (q *Queries) RecomputeMemberDefaulter(ctx context.Context, id int32) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, recomputeMemberDefaulter, id))
}

const setMemberDefaulter = `-- name: SetMemberDefaulter :one
UPDATE members
SET is_defaulter = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + memberColumns

type SetMemberDefaulterParams struct {
	ID          int32 `json:"id"`
	IsDefaulter bool  `json:"is_defaulter"`
}

func (q *Queries) SetMemberDefaulter(ctx context.Context, arg SetMemberDefaulterParams) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, setMemberDefaulter, arg.ID, arg.IsDefaulter))
}

const setMemberActive = `-- name: SetMemberActive :one
UPDATE members
SET is_active = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + memberColumns

type SetMemberActiveParams struct {
	ID       int32 `json:"id"`
	IsActive bool  `json:"is_active"`
}

func (q *Queries) SetMemberActive(ctx context.Context, arg SetMemberActiveParams) (Member, error) {
	return scanMember(q.db.QueryRow(ctx, setMemberActive, arg.ID, arg.IsActive))
}
