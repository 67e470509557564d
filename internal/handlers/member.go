package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

type MemberServiceInterface interface {
	CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.Member, error)
	GetMember(ctx context.Context, id int32) (*models.Member, error)
	ToggleMemberActive(ctx context.Context, memberID int32, actor models.Actor) (*models.Member, error)
	ApproveUser(ctx context.Context, userID int32, actor models.Actor) (*models.User, error)
	DeclineUser(ctx context.Context, userID int32, actor models.Actor) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, models.Pagination, error)
}

type MemberHandler struct {
	members MemberServiceInterface
	policy  policy.Policy
}

func NewMemberHandler(members MemberServiceInterface, p policy.Policy) *MemberHandler {
	return &MemberHandler{members: members, policy: p}
}

// CreateMember opens a borrowing profile for a user
// @Summary Create a member
// @Tags members
// @Accept json
// @Produce json
// @Param request body models.CreateMemberRequest true "Member"
// @Success 201 {object} SuccessResponse{data=models.Member}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req models.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	member, err := h.members.CreateMember(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    member,
		Message: "Member created successfully",
	})
}

// GetMember returns a member profile
// @Summary Get a member
// @Tags members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} SuccessResponse{data=models.Member}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := authorize(c, h.policy, policy.ActionViewMember, id); !ok {
		return
	}
	member, err := h.members.GetMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: member})
}

// ToggleMemberActive enables or disables borrowing for a member
// @Summary Toggle a member's active flag
// @Tags members
// @Produce json
// @Param id path int true "Member ID"
// @Success 200 {object} SuccessResponse{data=models.Member}
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/members/{id}/toggle-active [post]
func (h *MemberHandler) ToggleMemberActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	member, err := h.members.ToggleMemberActive(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "Member has been disabled"
	if member.IsActive {
		message = "Member has been enabled"
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: member, Message: message})
}

// ListUsers lists accounts by approval state
// @Summary List pending, approved or declined users
// @Tags users
// @Produce json
// @Param state query string true "pending, approved or declined"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} ListResponse{data=[]models.User}
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/users [get]
func (h *MemberHandler) ListUsers(c *gin.Context) {
	var filter models.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	users, meta, err := h.members.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Success: true, Data: users, Meta: meta})
}

// ApproveUser activates a pending account
// @Summary Approve a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/{id}/approve [post]
func (h *MemberHandler) ApproveUser(c *gin.Context) {
	h.decide(c, h.members.ApproveUser, "User approved successfully")
}

// DeclineUser rejects a pending account
// @Summary Decline a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse{data=models.User}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/{id}/decline [post]
func (h *MemberHandler) DeclineUser(c *gin.Context) {
	h.decide(c, h.members.DeclineUser, "User declined successfully")
}

func (h *MemberHandler) decide(c *gin.Context, apply func(context.Context, int32, models.Actor) (*models.User, error), message string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	user, err := apply(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: user, Message: message})
}
