// source: books.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookColumns = `id, title, author, isbn, category, department, language, rack_number,
    total_copies, available_copies, status, status_reason, price, created_at, updated_at`

func scanBook(row pgx.Row) (Book, error) {
	var i Book
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Author,
		&i.Isbn,
		&i.Category,
		&i.Department,
		&i.Language,
		&i.RackNumber,
		&i.TotalCopies,
		&i.AvailableCopies,
		&i.Status,
		&i.StatusReason,
		&i.Price,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const countBooks = `-- name: CountBooks :one
SELECT COUNT(*) FROM books
WHERE ($1::text IS NULL OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR isbn = $1)
  AND ($2::text IS NULL OR category = $2)
  AND ($3::text IS NULL OR status = $3)
`

type CountBooksParams struct {
	Search   pgtype.Text `json:"search"`
	Category pgtype.Text `json:"category"`
	Status   pgtype.Text `json:"status"`
}

func (q *Queries) CountBooks(ctx context.Context, arg CountBooksParams) (int64, error) {
	row := q.db.QueryRow(ctx, countBooks, arg.Search, arg.Category, arg.Status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createBook = `-- name: CreateBook :one
INSERT INTO books (
    title, author, isbn, category, department, language, rack_number,
    total_copies, available_copies, price
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $8, $9
)
RETURNING ` + bookColumns

type CreateBookParams struct {
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	Isbn        string         `json:"isbn"`
	Category    pgtype.Text    `json:"category"`
	Department  pgtype.Text    `json:"department"`
	Language    pgtype.Text    `json:"language"`
	RackNumber  string         `json:"rack_number"`
	TotalCopies int32          `json:"total_copies"`
	Price       pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (Book, error) {
	row := q.db.QueryRow(ctx, createBook,
		arg.Title,
		arg.Author,
		arg.Isbn,
		arg.Category,
		arg.Department,
		arg.Language,
		arg.RackNumber,
		arg.TotalCopies,
		arg.Price,
	)
	return scanBook(row)
}

const decrementAvailableCopies = `-- name: DecrementAvailableCopies :execrows
UPDATE books
SET available_copies = available_copies - 1, updated_at = NOW()
WHERE id = $1 AND available_copies > 0
`

// DecrementAvailableCopies reports 0 rows when no copy is left.
func (q *Queries) DecrementAvailableCopies(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, decrementAvailableCopies, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getBook = `-- name: GetBook :one
SELECT ` + bookColumns + ` FROM books
WHERE id = $1
`

func (q *Queries) GetBook(ctx context.Context, id int32) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, getBook, id))
}

const getBookForUpdate = `-- name: GetBookForUpdate :one
SELECT ` + bookColumns + ` FROM books
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetBookForUpdate(ctx context.Context, id int32) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, getBookForUpdate, id))
}

const incrementAvailableCopies = `-- name: IncrementAvailableCopies :execrows
UPDATE books
SET available_copies = available_copies + 1, updated_at = NOW()
WHERE id = $1 AND available_copies < total_copies
`

// IncrementAvailableCopies reports 0 rows when every copy is already on the shelf.
func (q *Queries) IncrementAvailableCopies(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, incrementAvailableCopies, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listBooks = `-- name: ListBooks :many
SELECT ` + bookColumns + ` FROM books
WHERE ($1::text IS NULL OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR isbn = $1)
  AND ($2::text IS NULL OR category = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY title, id
LIMIT $4 OFFSET $5
`

type ListBooksParams struct {
	Search   pgtype.Text `json:"search"`
	Category pgtype.Text `json:"category"`
	Status   pgtype.Text `json:"status"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error) {
	rows, err := q.db.Query(ctx, listBooks,
		arg.Search,
		arg.Category,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Book{}
	for rows.Next() {
		i, err := scanBook(rows)
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

const nextRackNumber = `-- name: NextRackNumber :one
SELECT nextval('rack_number_seq')::bigint
`

func (q *Queries) NextRackNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, nextRackNumber)
	var column_1 int64
	err := row.Scan(&column_1)
	return column_1, err
}

const updateBookStatus = `-- name: UpdateBookStatus :one
UPDATE books
SET status = $2, status_reason = $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + bookColumns

type UpdateBookStatusParams struct {
	ID           int32       `json:"id"`
	Status       string      `json:"status"`
	StatusReason pgtype.Text `json:"status_reason"`
}

func (q *Queries) UpdateBookStatus(ctx context.Context, arg UpdateBookStatusParams) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, updateBookStatus, arg.ID, arg.Status, arg.StatusReason))
}
