package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID          int64              `json:"id"`
	ActorID     pgtype.Int4        `json:"actor_id"`
	EventType   string             `json:"event_type"`
	Description string             `json:"description"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Book struct {
	ID              int32              `json:"id"`
	Title           string             `json:"title"`
	Author          string             `json:"author"`
	Isbn            string             `json:"isbn"`
	Category        pgtype.Text        `json:"category"`
	Department      pgtype.Text        `json:"department"`
	Language        pgtype.Text        `json:"language"`
	RackNumber      string             `json:"rack_number"`
	TotalCopies     int32              `json:"total_copies"`
	AvailableCopies int32              `json:"available_copies"`
	Status          string             `json:"status"`
	StatusReason    pgtype.Text        `json:"status_reason"`
	Price           pgtype.Numeric     `json:"price"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type Fine struct {
	ID              int32              `json:"id"`
	LoanID          int32              `json:"loan_id"`
	MemberID        int32              `json:"member_id"`
	Amount          pgtype.Numeric     `json:"amount"`
	CashInHand      pgtype.Numeric     `json:"cash_in_hand"`
	CollectedAmount pgtype.Numeric     `json:"collected_amount"`
	Discount        pgtype.Numeric     `json:"discount"`
	RemainingFines  pgtype.Numeric     `json:"remaining_fines"`
	Collected       bool               `json:"collected"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type LibrarySetting struct {
	ID                int32              `json:"id"`
	MaxBooksPerMember int32              `json:"max_books_per_member"`
	MaxIssueDuration  int32              `json:"max_issue_duration"`
	FinePerDay        pgtype.Numeric     `json:"fine_per_day"`
	RackNumberFormat  string             `json:"rack_number_format"`
	MemberIDFormat    string             `json:"member_id_format"`
	LowStockThreshold int32              `json:"low_stock_threshold"`
	UpdatedAt         pgtype.Timestamptz `json:"updated_at"`
}

type Loan struct {
	ID            int32              `json:"id"`
	BookID        int32              `json:"book_id"`
	MemberID      int32              `json:"member_id"`
	ReservationID pgtype.Int4        `json:"reservation_id"`
	IssueDate     pgtype.Date        `json:"issue_date"`
	DueDate       pgtype.Date        `json:"due_date"`
	ReturnedAt    pgtype.Date        `json:"returned_at"`
	Status        string             `json:"status"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type Member struct {
	ID          int32              `json:"id"`
	UserID      int32              `json:"user_id"`
	MemberCode  string             `json:"member_code"`
	Mobile      pgtype.Text        `json:"mobile"`
	IsDefaulter bool               `json:"is_defaulter"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type NotificationSetting struct {
	ID                   int32              `json:"id"`
	OnReservationRequest bool               `json:"on_reservation_request"`
	OnReservationReady   bool               `json:"on_reservation_ready"`
	OnBookIssue          bool               `json:"on_book_issue"`
	OnDueReminder        bool               `json:"on_due_reminder"`
	OnFineImposition     bool               `json:"on_fine_imposition"`
	OnFineCollection     bool               `json:"on_fine_collection"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type Reservation struct {
	ID             int32              `json:"id"`
	MemberID       int32              `json:"member_id"`
	BookID         int32              `json:"book_id"`
	ReservedFrom   pgtype.Date        `json:"reserved_from"`
	ReservedTo     pgtype.Date        `json:"reserved_to"`
	PickupDuration int32              `json:"pickup_duration"`
	Notes          pgtype.Text        `json:"notes"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type User struct {
	ID           int32              `json:"id"`
	Username     string             `json:"username"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash"`
	Role         string             `json:"role"`
	IsActive     bool               `json:"is_active"`
	IsVerified   bool               `json:"is_verified"`
	IsDeclined   bool               `json:"is_declined"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}
