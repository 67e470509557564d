package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/policy"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUserRole = "user_role"
	ContextMemberID = "member_id"
	ContextClaims   = "claims"
	ContextToken    = "token"
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
	policy policy.Policy
}

func NewAuthMiddleware(tokens TokenValidator, p policy.Policy) *AuthMiddleware {
	if p == nil {
		p = policy.NewRolePolicy()
	}
	return &AuthMiddleware{
		tokens: tokens,
		policy: p,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "MISSING_AUTH_HEADER", "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := parts[1]
		claims, err := m.tokens.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextMemberID, claims.MemberID)
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, tokenString)

		c.Next()
	}
}

// RequirePermission rejects callers the policy does not allow to perform
// action on any record. Member-scoped checks happen in the handlers, which
// know the owning member.
func (m *AuthMiddleware) RequirePermission(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "MISSING_USER_ROLE", "User role not found in context")
			return
		}
		if !m.policy.ActorCan(actor, action, policy.Any) {
			abort(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Insufficient permissions to access this resource")
			return
		}
		c.Next()
	}
}

// Policy exposes the policy for handler-level ownership checks.
func (m *AuthMiddleware) Policy() policy.Policy {
	return m.policy
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// GetActor returns the authenticated caller set by RequireAuth.
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextClaims)
	if !exists {
		return models.Actor{}, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return models.Actor{}, false
	}
	return models.ActorFromClaims(claims), true
}

func GetUserID(c *gin.Context) int32 {
	if id, ok := c.Get(ContextUserID); ok {
		if v, ok := id.(int32); ok {
			return v
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func GetUserRole(c *gin.Context) models.UserRole {
	if role, ok := c.Get(ContextUserRole); ok {
		if r, ok := role.(models.UserRole); ok {
			return r
		}
	}
	return ""
}

// GetToken returns the raw bearer token of the request.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextToken)
}
