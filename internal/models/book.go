package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookStatus is the circulation status of a title.
type BookStatus string

const (
	BookStatusActive   BookStatus = "ACTIVE"
	BookStatusLost     BookStatus = "LOST"
	BookStatusWriteOff BookStatus = "WRITE_OFF"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusActive, BookStatusLost, BookStatusWriteOff:
		return true
	default:
		return false
	}
}

// RequiresReason reports whether moving into s must carry a status reason.
func (s BookStatus) RequiresReason() bool {
	return s == BookStatusLost || s == BookStatusWriteOff
}

// Book represents a title in the catalog
type Book struct {
	ID              int32           `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn"`
	Category        string          `json:"category,omitempty"`
	Department      string          `json:"department,omitempty"`
	Language        string          `json:"language,omitempty"`
	RackNumber      string          `json:"rack_number"`
	TotalCopies     int32           `json:"total_copies"`
	AvailableCopies int32           `json:"available_copies"`
	Status          BookStatus      `json:"status"`
	StatusReason    string          `json:"status_reason,omitempty"`
	Price           decimal.Decimal `json:"price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateBookRequest represents the request to add a title to the catalog
type CreateBookRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=255"`
	Author      string          `json:"author" binding:"required,min=1,max=255"`
	ISBN        string          `json:"isbn" binding:"required,min=10,max=20"`
	Category    string          `json:"category" binding:"omitempty,max=100"`
	Department  string          `json:"department" binding:"omitempty,max=100"`
	Language    string          `json:"language" binding:"omitempty,max=50"`
	TotalCopies int32           `json:"total_copies" binding:"min=0"`
	Price       decimal.Decimal `json:"price"`
}

// UpdateBookStatusRequest marks a title ACTIVE, LOST or WRITE_OFF
type UpdateBookStatusRequest struct {
	Status BookStatus `json:"status" binding:"required,oneof=ACTIVE LOST WRITE_OFF"`
	Reason string     `json:"reason" binding:"omitempty,max=500"`
}

// BookFilter narrows a catalog listing
type BookFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE LOST WRITE_OFF"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
