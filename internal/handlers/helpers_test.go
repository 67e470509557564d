package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	os.Exit(m.Run())
}

var (
	memberActor  = models.Actor{UserID: 21, MemberID: 7, Role: models.RoleMember}
	otherMember  = models.Actor{UserID: 22, MemberID: 8, Role: models.RoleMember}
	managerActor = models.Actor{UserID: 3, Role: models.RoleManager}
	adminActor   = models.Actor{UserID: 1, Role: models.RoleAdmin}
)

// asActor stands in for RequireAuth, loading the caller's claims.
func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &models.JWTClaims{
			UserID:   actor.UserID,
			Username: "tester",
			Role:     actor.Role,
			MemberID: actor.MemberID,
		}
		c.Set(middleware.ContextUserID, claims.UserID)
		c.Set(middleware.ContextUsername, claims.Username)
		c.Set(middleware.ContextUserRole, claims.Role)
		c.Set(middleware.ContextMemberID, claims.MemberID)
		c.Set(middleware.ContextClaims, claims)
		c.Set(middleware.ContextToken, "test-token")
		c.Next()
	}
}

func newRouter(actor *models.Actor) *gin.Engine {
	router := gin.New()
	if actor != nil {
		router.Use(asActor(*actor))
	}
	return router
}

func perform(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func actorPtr(a models.Actor) *models.Actor { return &a }
