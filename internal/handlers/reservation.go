package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

// ReservationServiceInterface defines the reservation engine operations exposed over HTTP
type ReservationServiceInterface interface {
	Create(ctx context.Context, in models.CreateReservationInput, actor models.Actor) (*models.Reservation, error)
	Fulfill(ctx context.Context, id int32, actor models.Actor) (*models.Reservation, error)
	Issue(ctx context.Context, id int32, issueDate, dueDate models.Date, actor models.Actor) (*models.Loan, error)
	Cancel(ctx context.Context, id int32, requester models.Actor) (*models.Reservation, error)
	Get(ctx context.Context, id int32) (*models.Reservation, error)
	ListByMember(ctx context.Context, memberID int32, page, limit int) ([]*models.Reservation, models.Pagination, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, models.Pagination, error)
}

// ReservationHandler handles reservation-related HTTP requests
type ReservationHandler struct {
	reservations ReservationServiceInterface
	policy       policy.Policy
}

func NewReservationHandler(reservations ReservationServiceInterface, p policy.Policy) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, policy: p}
}

// CreateReservation places a hold
// @Summary Reserve a book
// @Description Members reserve for themselves; staff may reserve for any member
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body models.CreateReservationRequest true "Reservation request"
// @Success 201 {object} SuccessResponse{data=models.Reservation}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	memberID := req.MemberID
	if memberID == 0 {
		memberID = actor.MemberID
	}
	if memberID == 0 {
		respondValidation(c, "member_id is required", nil)
		return
	}
	if !h.policy.ActorCan(actor, policy.ActionCreateReservation, policy.Member(memberID)) {
		respondForbidden(c)
		return
	}

	from, err := models.ParseDate(req.ReservedFrom)
	if err != nil {
		respondValidation(c, "Invalid reserved_from", err)
		return
	}
	to, err := models.ParseDate(req.ReservedTo)
	if err != nil {
		respondValidation(c, "Invalid reserved_to", err)
		return
	}

	reservation, err := h.reservations.Create(c.Request.Context(), models.CreateReservationInput{
		MemberID:       memberID,
		BookID:         req.BookID,
		ReservedFrom:   from,
		ReservedTo:     to,
		Notes:          req.Notes,
		PickupDuration: req.PickupDuration,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    reservation,
		Message: "Book reserved successfully",
	})
}

// GetReservation returns one hold
// @Summary Get a reservation
// @Tags reservations
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} SuccessResponse{data=models.Reservation}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reservation, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewReservation, reservation.MemberID); !ok {
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    reservation,
		Message: "Reservation retrieved successfully",
	})
}

// ListReservations lists holds for staff
// @Summary List reservations
// @Tags reservations
// @Produce json
// @Param status query string false "PENDING, FULFILLED, ISSUED or CANCELLED"
// @Param member_id query int false "Member ID"
// @Param book_id query int false "Book ID"
// @Param from query string false "Window starts on or after (YYYY-MM-DD)"
// @Param to query string false "Window ends on or before (YYYY-MM-DD)"
// @Success 200 {object} ListResponse{data=[]models.Reservation}
// @Router /api/v1/reservations [get]
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	var filter models.ReservationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	reservations, meta, err := h.reservations.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: reservations, Meta: meta})
}

// ListMemberReservations lists a member's holds
// @Summary List a member's reservations
// @Tags reservations
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} ListResponse{data=[]models.Reservation}
// @Router /api/v1/members/{id}/reservations [get]
func (h *ReservationHandler) ListMemberReservations(c *gin.Context) {
	memberID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewReservation, memberID); !ok {
		return
	}
	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	reservations, meta, err := h.reservations.ListByMember(c.Request.Context(), memberID, page.Page, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: reservations, Meta: meta})
}

// FulfillReservation sets a copy aside for a pending hold
// @Summary Fulfil a reservation
// @Tags reservations
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} SuccessResponse{data=models.Reservation}
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/reservations/{id}/fulfill [post]
func (h *ReservationHandler) FulfillReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := authorize(c, h.policy, policy.ActionFulfillReservation, 0)
	if !ok {
		return
	}
	reservation, err := h.reservations.Fulfill(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    reservation,
		Message: "Reservation fulfilled successfully",
	})
}

// IssueReservation converts a fulfilled hold into a loan
// @Summary Issue a reserved book
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path int true "Reservation ID"
// @Param request body models.IssueReservationRequest true "Loan dates"
// @Success 201 {object} SuccessResponse{data=models.Loan}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/reservations/{id}/issue [post]
func (h *ReservationHandler) IssueReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := authorize(c, h.policy, policy.ActionIssueReservation, 0)
	if !ok {
		return
	}
	var req models.IssueReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	issueDate, err := models.ParseDate(req.IssueDate)
	if err != nil {
		respondValidation(c, "Invalid issue_date", err)
		return
	}
	dueDate, err := models.ParseDate(req.DueDate)
	if err != nil {
		respondValidation(c, "Invalid due_date", err)
		return
	}

	loan, err := h.reservations.Issue(c.Request.Context(), id, issueDate, dueDate, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    loan,
		Message: "Reserved book issued successfully",
	})
}

// CancelReservation cancels a pending hold
// @Summary Cancel a reservation
// @Description Only the member who placed the hold may cancel it
// @Tags reservations
// @Produce json
// @Param id path int true "Reservation ID"
// @Success 200 {object} SuccessResponse{data=models.Reservation}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	// Ownership is decided by the engine, which reports NOT_OWNER as 403.
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if !h.policy.ActorCan(actor, policy.ActionCancelReservation, policy.Member(actor.MemberID)) {
		respondForbidden(c)
		return
	}
	reservation, err := h.reservations.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    reservation,
		Message: "Reservation cancelled successfully",
	})
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
