package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserRole string

const (
	RoleSuperuser UserRole = "superuser"
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleMember    UserRole = "member"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperuser, RoleAdmin, RoleManager, RoleMember:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may act on other members' records.
func (r UserRole) IsStaff() bool {
	return r == RoleSuperuser || r == RoleAdmin || r == RoleManager
}

type User struct {
	ID         int32     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	IsDeclined bool      `json:"is_declined"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserState selects users by approval state.
type UserState string

const (
	UserStatePending  UserState = "pending"
	UserStateApproved UserState = "approved"
	UserStateDeclined UserState = "declined"
)

func (s UserState) Valid() bool {
	return s == UserStatePending || s == UserStateApproved || s == UserStateDeclined
}

type UserFilter struct {
	State UserState `form:"state" binding:"required,oneof=pending approved declined"`
	Page  int       `form:"page" binding:"omitempty,min=1"`
	Limit int       `form:"limit" binding:"omitempty,min=1,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User        *User  `json:"user"`
	MemberID    int32  `json:"member_id,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type JWTClaims struct {
	UserID   int32    `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	MemberID int32    `json:"member_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	UserID   int32    `json:"user_id"`
	MemberID int32    `json:"member_id,omitempty"`
	Role     UserRole `json:"role"`
}

// SystemActor attributes scheduled sweeps in the audit log.
var SystemActor = Actor{Role: RoleSuperuser}

func (a Actor) IsSystem() bool {
	return a.UserID == 0
}

func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// ActorFromClaims builds the actor for a validated token.
func ActorFromClaims(claims *JWTClaims) Actor {
	return Actor{UserID: claims.UserID, MemberID: claims.MemberID, Role: claims.Role}
}
