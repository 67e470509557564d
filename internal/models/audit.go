package models

import "time"

// Audit event types
const (
	EventReservationRequested      = "RESERVATION_REQUESTED"
	EventReservationFulfilled      = "RESERVATION_FULFILLED"
	EventReservationIssued         = "RESERVATION_ISSUED"
	EventReservationCancelled      = "RESERVATION_CANCELLED"
	EventReservationsAutoCancelled = "RESERVATIONS_AUTO_CANCELLED"
	EventBookIssued                = "BOOK_ISSUED"
	EventBookReturned              = "BOOK_RETURNED"
	EventBookStatusChanged         = "BOOK_STATUS_CHANGED"
	EventFineCollected             = "FINE_COLLECTED"
	EventLoansMarkedOverdue        = "LOANS_MARKED_OVERDUE"
	EventSettingsUpdated           = "SETTINGS_UPDATED"
	EventUserApproved              = "USER_APPROVED"
	EventUserDeclined              = "USER_DECLINED"
	EventMemberStatusChanged       = "MEMBER_STATUS_CHANGED"
)

// Routing keys for published domain events
const (
	RoutingReservationCreated   = "reservation.created"
	RoutingReservationFulfilled = "reservation.fulfilled"
	RoutingReservationIssued    = "reservation.issued"
	RoutingReservationCancelled = "reservation.cancelled"
	RoutingLoanIssued           = "loan.issued"
	RoutingLoanReturned         = "loan.returned"
	RoutingFineCollected        = "fine.collected"
)

// Notification templates
const (
	TemplateReservationRequest = "reservation_request"
	TemplateReservationReady   = "reservation_ready"
	TemplateBookIssued         = "book_issued"
	TemplateDueReminder        = "due_reminder"
	TemplateFineImposed        = "fine_imposed"
	TemplateFineCollected      = "fine_collected"
)

type AuditEntry struct {
	ID          int64  `json:"id"`
	ActorID     *int32 `json:"actor_id,omitempty"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Pagination is the meta block of list responses
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
