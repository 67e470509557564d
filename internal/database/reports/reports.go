// Package reports runs the read-only fine reports. Queries are built with
// goqu and scanned with sqlx over the shared pgx pool.
package reports

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ngenohkevin/circulation/internal/models"
)

var dialect = goqu.Dialect("postgres")

type Reader struct {
	db *sqlx.DB
}

// New opens a database/sql handle over the pool. Closing the Reader does not
// close the pool.
func New(pool *pgxpool.Pool) *Reader {
	return &Reader{db: sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")}
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sqlx.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// FineReport returns the rows of a report and the total of the column the
// report is about.
func (r *Reader) FineReport(ctx context.Context, kind models.ReportKind) (models.FineReport, error) {
	query, args, err := FineReportQuery(kind)
	if err != nil {
		return models.FineReport{}, err
	}

	rows := []models.FineReportRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return models.FineReport{}, fmt.Errorf("failed to run %s report: %w", kind, err)
	}

	report := models.FineReport{Rows: rows, Total: decimal.Zero}
	for _, row := range rows {
		report.Total = report.Total.Add(totalColumn(kind, row))
	}
	return report, nil
}

// TotalDiscount sums every discount granted.
func (r *Reader) TotalDiscount(ctx context.Context) (decimal.Decimal, error) {
	query, args, err := dialect.From("fines").
		Select(goqu.COALESCE(goqu.SUM("discount"), 0)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to total discounts: %w", err)
	}
	return total, nil
}

// FineReportQuery builds the SQL for a report kind.
func FineReportQuery(kind models.ReportKind) (string, []interface{}, error) {
	var where exp.Expression
	switch kind {
	case models.ReportCollected:
		where = goqu.And(goqu.I("f.collected").IsTrue(), goqu.I("f.collected_amount").Gt(0))
	case models.ReportPending:
		where = goqu.And(goqu.I("f.collected").IsFalse(), goqu.I("f.amount").Gt(0))
	case models.ReportCashInHand:
		where = goqu.I("f.collected_amount").Gt(0)
	default:
		return "", nil, fmt.Errorf("unknown report kind %q", kind)
	}

	return dialect.From(goqu.T("fines").As("f")).
		Join(goqu.T("loans").As("l"), goqu.On(goqu.I("l.id").Eq(goqu.I("f.loan_id")))).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("f.member_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("m.user_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Select(
			goqu.I("f.id").As("fine_id"),
			goqu.I("f.loan_id"),
			goqu.I("f.member_id"),
			goqu.I("m.member_code"),
			goqu.I("u.username"),
			goqu.I("b.title").As("book_title"),
			goqu.I("f.amount"),
			goqu.I("f.collected_amount"),
			goqu.I("f.cash_in_hand"),
			goqu.I("f.discount"),
			goqu.I("f.remaining_fines"),
			goqu.I("f.collected"),
			goqu.I("f.updated_at"),
		).
		Where(where).
		Order(goqu.I("f.updated_at").Desc(), goqu.I("f.id").Desc()).
		Prepared(true).
		ToSQL()
}

func totalColumn(kind models.ReportKind, row models.FineReportRow) decimal.Decimal {
	switch kind {
	case models.ReportCollected:
		return row.CollectedAmount
	case models.ReportPending:
		return row.RemainingFines
	default:
		return row.CashInHand
	}
}
