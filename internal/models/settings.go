package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LibrarySettings are the library-wide rules the engines enforce.
type LibrarySettings struct {
	MaxBooksPerMember int             `json:"max_books_per_member"`
	MaxIssueDuration  int             `json:"max_issue_duration"`
	FinePerDay        decimal.Decimal `json:"fine_per_day"`
	RackNumberFormat  string          `json:"rack_number_format"`
	MemberIDFormat    string          `json:"member_id_format"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	StaleAfter        time.Duration   `json:"-"`
	Location          *time.Location  `json:"-"`
}

type UpdateSettingsRequest struct {
	MaxBooksPerMember int             `json:"max_books_per_member" binding:"required,min=1"`
	MaxIssueDuration  int             `json:"max_issue_duration" binding:"required,min=1"`
	FinePerDay        decimal.Decimal `json:"fine_per_day"`
	RackNumberFormat  string          `json:"rack_number_format" binding:"required,max=50"`
	MemberIDFormat    string          `json:"member_id_format" binding:"required,max=50"`
	LowStockThreshold int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
}

// NotificationSettings toggle each notification the engines may enqueue.
type NotificationSettings struct {
	OnReservationRequest bool `json:"on_reservation_request"`
	OnReservationReady   bool `json:"on_reservation_ready"`
	OnBookIssue          bool `json:"on_book_issue"`
	OnDueReminder        bool `json:"on_due_reminder"`
	OnFineImposition     bool `json:"on_fine_imposition"`
	OnFineCollection     bool `json:"on_fine_collection"`
}

// AllNotifications is used when no settings row has been persisted.
var AllNotifications = NotificationSettings{
	OnReservationRequest: true,
	OnReservationReady:   true,
	OnBookIssue:          true,
	OnDueReminder:        true,
	OnFineImposition:     true,
	OnFineCollection:     true,
}
