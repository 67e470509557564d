// source: settings.sql

package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getLibrarySettings = `-- name: GetLibrarySettings :one
SELECT id, max_books_per_member, max_issue_duration, fine_per_day, rack_number_format,
    member_id_format, low_stock_threshold, updated_at
FROM library_settings
WHERE id = 1
`

func (q *Queries) GetLibrarySettings(ctx context.Context) (LibrarySetting, error) {
	row := q.db.QueryRow(ctx, getLibrarySettings)
	var i LibrarySetting
	err := row.Scan(
		&i.ID,
		&i.MaxBooksPerMember,
		&i.MaxIssueDuration,
		&i.FinePerDay,
		&i.RackNumberFormat,
		&i.MemberIDFormat,
		&i.LowStockThreshold,
		&i.UpdatedAt,
	)
	return i, err
}

const getNotificationSettings = `-- name: GetNotificationSettings :one
SELECT id, on_reservation_request, on_reservation_ready, on_book_issue, on_due_reminder,
    on_fine_imposition, on_fine_collection, updated_at
FROM notification_settings
WHERE id = 1
`

func (q *Queries) GetNotificationSettings(ctx context.Context) (NotificationSetting, error) {
	row := q.db.QueryRow(ctx, getNotificationSettings)
	var i NotificationSetting
	err := row.Scan(
		&i.ID,
		&i.OnReservationRequest,
		&i.OnReservationReady,
		&i.OnBookIssue,
		&i.OnDueReminder,
		&i.OnFineImposition,
		&i.OnFineCollection,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertLibrarySettings = `-- name: UpsertLibrarySettings :one
INSERT INTO library_settings (
    id, max_books_per_member, max_issue_duration, fine_per_day, rack_number_format,
    member_id_format, low_stock_threshold
) VALUES (
    1, $1, $2, $3, $4, $5, $6
)
ON CONFLICT (id) DO UPDATE SET
    max_books_per_member = EXCLUDED.max_books_per_member,
    max_issue_duration = EXCLUDED.max_issue_duration,
    fine_per_day = EXCLUDED.fine_per_day,
    rack_number_format = EXCLUDED.rack_number_format,
    member_id_format = EXCLUDED.member_id_format,
    low_stock_threshold = EXCLUDED.low_stock_threshold,
    updated_at = NOW()
RETURNING id, max_books_per_member, max_issue_duration, fine_per_day, rack_number_format,
    member_id_format, low_stock_threshold, updated_at
`

type UpsertLibrarySettingsParams struct {
	MaxBooksPerMember int32          `json:"max_books_per_member"`
	MaxIssueDuration  int32          `json:"max_issue_duration"`
	FinePerDay        pgtype.Numeric `json:"fine_per_day"`
	RackNumberFormat  string         `json:"rack_number_format"`
	MemberIDFormat    string         `json:"member_id_format"`
	LowStockThreshold int32          `json:"low_stock_threshold"`
}

func (q *Queries) UpsertLibrarySettings(ctx context.Context, arg UpsertLibrarySettingsParams) (LibrarySetting, error) {
	row := q.db.QueryRow(ctx, upsertLibrarySettings,
		arg.MaxBooksPerMember,
		arg.MaxIssueDuration,
		arg.FinePerDay,
		arg.RackNumberFormat,
		arg.MemberIDFormat,
		arg.LowStockThreshold,
	)
	var i LibrarySetting
	err := row.Scan(
		&i.ID,
		&i.MaxBooksPerMember,
		&i.MaxIssueDuration,
		&i.FinePerDay,
		&i.RackNumberFormat,
		&i.MemberIDFormat,
		&i.LowStockThreshold,
		&i.UpdatedAt,
	)
	return i, err
}
