package models

import "time"

// Member is the borrowing profile of a user
type Member struct {
	ID          int32     `json:"id"`
	UserID      int32     `json:"user_id"`
	MemberCode  string    `json:"member_code"`
	Mobile      string    `json:"mobile,omitempty"`
	IsDefaulter bool      `json:"is_defaulter"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateMemberRequest struct {
	UserID int32  `json:"user_id" binding:"required,min=1"`
	Mobile string `json:"mobile" binding:"omitempty,max=20"`
}
