package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/services"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	BlacklistToken(ctx context.Context, tokenString string) error
}

type AuthHandler struct {
	auth AuthServiceInterface
}

func NewAuthHandler(auth AuthServiceInterface) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges credentials for an access token
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} SuccessResponse{data=models.LoginResponse}
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   ErrorDetail{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password"},
		})
		return
	case errors.Is(err, services.ErrUserInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   ErrorDetail{Code: "ACCOUNT_INACTIVE", Message: "Account is inactive"},
		})
		return
	case err != nil:
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    resp,
		Message: "Login successful",
	})
}

// Logout revokes the caller's token
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.BlacklistToken(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Logout successful"})
}

// Profile returns the caller as seen by the API
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.Actor}
// @Router /api/v1/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data: gin.H{
			"user_id":   actor.UserID,
			"username":  middleware.GetUsername(c),
			"role":      actor.Role,
			"member_id": actor.MemberID,
		},
	})
}
