package queries

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCaptured = errors.New("captured")

// captureDB records the last statement instead of executing it.
type captureDB struct {
	sql  string
	args []interface{}
}

func (c *captureDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.CommandTag{}, errCaptured
}

func (c *captureDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.sql, c.args = sql, args
	return nil, errCaptured
}

func (c *captureDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	c.sql, c.args = sql, args
	return capturedRow{}
}

type capturedRow struct{}

func (capturedRow) Scan(...interface{}) error { return errCaptured }

func TestListReservations_BuildsFilteredQuery(t *testing.T) {
	db := &captureDB{}
	q := New(db)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := q.ListReservations(context.Background(), ReservationFilter{
		Status:   "PENDING",
		MemberID: 7,
		FromDate: pgtype.Date{Time: from, Valid: true},
		Limit:    20,
	})
	require.ErrorIs(t, err, errCaptured)

	assert.Contains(t, db.sql, `FROM "reservations"`)
	assert.Contains(t, db.sql, `"status" = $1`)
	assert.Contains(t, db.sql, `"member_id" = $2`)
	assert.Contains(t, db.sql, `"reserved_from" >= $3`)
	require.Contains(t, db.sql, "WHERE")
	where := db.sql[strings.Index(db.sql, "WHERE"):]
	assert.NotContains(t, where, `"book_id"`)
	assert.Contains(t, db.sql, `ORDER BY "created_at" DESC, "id" DESC`)
	require.GreaterOrEqual(t, len(db.args), 3)
	assert.Equal(t, "PENDING", db.args[0])
	assert.EqualValues(t, 7, db.args[1])
}

func TestListReservations_NoFilters(t *testing.T) {
	db := &captureDB{}
	_, err := New(db).ListReservations(context.Background(), ReservationFilter{})
	require.ErrorIs(t, err, errCaptured)

	assert.NotContains(t, db.sql, "WHERE")
	assert.NotContains(t, db.sql, "LIMIT")
	assert.Empty(t, db.args)
}

func TestCountLoans_OpenAndDueBefore(t *testing.T) {
	db := &captureDB{}
	due := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	_, err := New(db).CountLoans(context.Background(), LoanFilter{
		OpenOnly:  true,
		DueBefore: pgtype.Date{Time: due, Valid: true},
	})
	require.ErrorIs(t, err, errCaptured)

	assert.Contains(t, db.sql, `COUNT(*)`)
	assert.Contains(t, db.sql, `"returned_at" IS NULL`)
	assert.Contains(t, db.sql, `"due_date" < $1`)
}
