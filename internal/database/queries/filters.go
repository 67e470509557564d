package queries

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgtype"
)

// Hand-written list queries whose WHERE clause depends on which filters are set.

const dialectPostgres = "postgres"

var (
	reservationSelect = []interface{}{
		"id", "member_id", "book_id", "reserved_from", "reserved_to", "pickup_duration",
		"notes", "status", "created_at", "updated_at",
	}
	loanSelect = []interface{}{
		"id", "book_id", "member_id", "reservation_id", "issue_date", "due_date",
		"returned_at", "status", "created_at", "updated_at",
	}
)

type ReservationFilter struct {
	Status   string
	MemberID int32
	BookID   int32
	// FromDate and ToDate bound reserved_from inclusively.
	FromDate pgtype.Date
	ToDate   pgtype.Date
	Limit    int32
	Offset   int32
}

func (f ReservationFilter) where() []exp.Expression {
	var exprs []exp.Expression
	if f.Status != "" {
		exprs = append(exprs, goqu.C("status").Eq(f.Status))
	}
	if f.MemberID > 0 {
		exprs = append(exprs, goqu.C("member_id").Eq(f.MemberID))
	}
	if f.BookID > 0 {
		exprs = append(exprs, goqu.C("book_id").Eq(f.BookID))
	}
	if f.FromDate.Valid {
		exprs = append(exprs, goqu.C("reserved_from").Gte(f.FromDate.Time))
	}
	if f.ToDate.Valid {
		exprs = append(exprs, goqu.C("reserved_from").Lte(f.ToDate.Time))
	}
	return exprs
}

type LoanFilter struct {
	Status   string
	MemberID int32
	BookID   int32
	OpenOnly bool
	// DueBefore matches loans due strictly before the date.
	DueBefore pgtype.Date
	Limit     int32
	Offset    int32
}

func (f LoanFilter) where() []exp.Expression {
	var exprs []exp.Expression
	if f.Status != "" {
		exprs = append(exprs, goqu.C("status").Eq(f.Status))
	}
	if f.MemberID > 0 {
		exprs = append(exprs, goqu.C("member_id").Eq(f.MemberID))
	}
	if f.BookID > 0 {
		exprs = append(exprs, goqu.C("book_id").Eq(f.BookID))
	}
	if f.OpenOnly {
		exprs = append(exprs, goqu.C("returned_at").IsNull())
	}
	if f.DueBefore.Valid {
		exprs = append(exprs, goqu.C("due_date").Lt(f.DueBefore.Time))
	}
	return exprs
}

func (q *Queries) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From("reservations").
		Select(reservationSelect...).
		Where(f.where()...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())
	if f.Limit > 0 {
		stmt = stmt.Limit(uint(f.Limit)).Offset(uint(f.Offset))
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reservation list query: %w", err)
	}
	return collectReservations(q.db.Query(ctx, query, args...))
}

func (q *Queries) CountReservations(ctx context.Context, f ReservationFilter) (int64, error) {
	query, args, err := goqu.Dialect(dialectPostgres).
		From("reservations").
		Select(goqu.COUNT(goqu.Star())).
		Where(f.where()...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build reservation count query: %w", err)
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (q *Queries) ListLoans(ctx context.Context, f LoanFilter) ([]Loan, error) {
	stmt := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(loanSelect...).
		Where(f.where()...).
		Order(goqu.C("issue_date").Desc(), goqu.C("id").Desc())
	if f.Limit > 0 {
		stmt = stmt.Limit(uint(f.Limit)).Offset(uint(f.Offset))
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan list query: %w", err)
	}
	return collectLoans(q.db.Query(ctx, query, args...))
}

func (q *Queries) CountLoans(ctx context.Context, f LoanFilter) (int64, error) {
	query, args, err := goqu.Dialect(dialectPostgres).
		From("loans").
		Select(goqu.COUNT(goqu.Star())).
		Where(f.where()...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build loan count query: %w", err)
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
