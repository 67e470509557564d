package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/apperrors"
	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListResponse represents a paginated list response
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta,omitempty"`
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, apperrors.ErrNotOwner) {
		return http.StatusForbidden
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindCapacity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Default().Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
		c.JSON(status, ErrorResponse{
			Success: false,
			Error: ErrorDetail{
				Code:    apperrors.CodeInternal,
				Message: "Internal server error",
			},
		})
		return
	}
	c.JSON(status, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    apperrors.CodeOf(err),
			Message: err.Error(),
		},
	})
}

func respondValidation(c *gin.Context, message string, err error) {
	detail := ErrorDetail{Code: apperrors.CodeValidation, Message: message}
	if err != nil {
		detail.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: detail})
}

func respondForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    "INSUFFICIENT_PERMISSIONS",
			Message: "Insufficient permissions to access this resource",
		},
	})
}

// pathID parses a positive int32 path parameter, writing a 400 when it is not one.
func pathID(c *gin.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		respondValidation(c, "Invalid "+name, errors.New(name+" must be a positive integer"))
		return 0, false
	}
	return int32(id), true
}

// optionalDate parses an optional YYYY-MM-DD value; empty yields the zero Date.
func optionalDate(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   ErrorDetail{Code: "MISSING_AUTH", Message: "Authentication required"},
		})
	}
	return actor, ok
}

// authorize checks a member-scoped action against the owner of the record.
// An owner of 0 admits only roles granted the action outright.
func authorize(c *gin.Context, p policy.Policy, action policy.Action, ownerMemberID int32) (models.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return models.Actor{}, false
	}
	if !p.ActorCan(actor, action, policy.Member(ownerMemberID)) {
		respondForbidden(c)
		return models.Actor{}, false
	}
	return actor, true
}
