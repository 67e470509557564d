package models

import (
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusFulfilled ReservationStatus = "FULFILLED"
	ReservationStatusIssued    ReservationStatus = "ISSUED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// DefaultPickupDuration is the number of days a fulfilled hold waits at the desk.
const DefaultPickupDuration = 2

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusFulfilled, ReservationStatusCancelled},
	ReservationStatusFulfilled: {ReservationStatusIssued},
	ReservationStatusIssued:    {},
	ReservationStatusCancelled: {},
}

func (s ReservationStatus) Valid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// CanTransitionTo reports whether the reservation state machine allows s -> to.
func (s ReservationStatus) CanTransitionTo(to ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return s.Valid() && len(reservationTransitions[s]) == 0
}

// Reservation represents a hold on a title for a date window
type Reservation struct {
	ID             int32             `json:"id"`
	MemberID       int32             `json:"member_id"`
	BookID         int32             `json:"book_id"`
	ReservedFrom   Date              `json:"reserved_from"`
	ReservedTo     Date              `json:"reserved_to"`
	PickupDuration int32             `json:"pickup_duration"`
	Notes          string            `json:"notes,omitempty"`
	Status         ReservationStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CreateReservationRequest represents a request to place a hold. MemberID is
// optional for members, who always reserve for themselves.
type CreateReservationRequest struct {
	MemberID       int32  `json:"member_id" binding:"omitempty,min=1"`
	BookID         int32  `json:"book_id" binding:"required,min=1"`
	ReservedFrom   string `json:"reserved_from" binding:"required,dateonly"`
	ReservedTo     string `json:"reserved_to" binding:"required,dateonly"`
	Notes          string `json:"notes" binding:"omitempty,max=1000"`
	PickupDuration int32  `json:"pickup_duration" binding:"omitempty,min=1,max=30"`
}

// CreateReservationInput is the engine-level form of a hold request.
type CreateReservationInput struct {
	MemberID       int32
	BookID         int32
	ReservedFrom   Date
	ReservedTo     Date
	Notes          string
	PickupDuration int32
}

// IssueReservationRequest converts a fulfilled hold into a loan
type IssueReservationRequest struct {
	IssueDate string `json:"issue_date" binding:"required,dateonly"`
	DueDate   string `json:"due_date" binding:"required,dateonly"`
}

// ReservationFilter narrows a staff listing of holds
type ReservationFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING FULFILLED ISSUED CANCELLED"`
	MemberID int32  `form:"member_id" binding:"omitempty,min=1"`
	BookID   int32  `form:"book_id" binding:"omitempty,min=1"`
	From     string `form:"from" binding:"omitempty,dateonly"`
	To       string `form:"to" binding:"omitempty,dateonly"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SweepResult reports how many records a bulk transition touched.
type SweepResult struct {
	Count int     `json:"count"`
	IDs   []int32 `json:"ids"`
}
