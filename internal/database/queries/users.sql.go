// source: users.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, role, is_active, is_verified, is_declined, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.IsActive,
		&i.IsVerified,
		&i.IsDeclined,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, email, password_hash, role, is_verified)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	IsVerified   bool   `json:"is_verified"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.PasswordHash,
		arg.Role,
		arg.IsVerified,
	)
	return scanUser(row)
}

const getUser = `-- name: GetUser :one
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id int32) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT ` + userColumns + ` FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
}

const getUserForUpdate = `-- name: GetUserForUpdate :one
SELECT ` + userColumns + ` FROM users
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetUserForUpdate(ctx context.Context, id int32) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserForUpdate, id))
}

const setUserApproval = `-- name: SetUserApproval :one
UPDATE users
SET is_active = $2, is_verified = $3, is_declined = $4, updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

type SetUserApprovalParams struct {
	ID         int32 `json:"id"`
	IsActive   bool  `json:"is_active"`
	IsVerified bool  `json:"is_verified"`
	IsDeclined bool  `json:"is_declined"`
}

func (q *Queries) SetUserApproval(ctx context.Context, arg SetUserApprovalParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, setUserApproval, arg.ID, arg.IsActive, arg.IsVerified, arg.IsDeclined))
}

// pending and approved only ever hold members; declined holds any role.
const userStatePredicate = `
WHERE ($1::text = 'pending' AND role = 'member' AND NOT is_active AND NOT is_declined)
   OR ($1::text = 'approved' AND role = 'member' AND is_active AND NOT is_declined)
   OR ($1::text = 'declined' AND is_declined)
`

const listUsersByState = `-- name: ListUsersByState :many
SELECT ` + userColumns + ` FROM users` + userStatePredicate + `ORDER BY created_at, id
LIMIT $2 OFFSET $3
`

type ListUsersByStateParams struct {
	State  string `json:"state"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListUsersByState(ctx context.Context, arg ListUsersByStateParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersByState, arg.State, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
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

const countUsersByState = `-- name: CountUsersByState :one
SELECT COUNT(*) FROM users` + userStatePredicate

func (q *Queries) CountUsersByState(ctx context.Context, state string) (int64, error) {
	row := q.db.QueryRow(ctx, countUsersByState, state)
	var count int64
	err := row.Scan(&count)
	return count, err
}
