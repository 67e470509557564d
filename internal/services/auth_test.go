package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ngenohkevin/circulation/internal/database/mockdb"
	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

func generateTestKey(t *testing.T, pkcs8 bool) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	if pkcs8 {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	}
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	auth, err := NewAuthService(generateTestKey(t, false), time.Hour, testLogger(), nil)
	require.NoError(t, err)
	return auth
}

func TestNewAuthService_Keys(t *testing.T) {
	t.Run("PKCS8 key", func(t *testing.T) {
		_, err := NewAuthService(generateTestKey(t, true), time.Hour, testLogger(), nil)
		assert.NoError(t, err)
	})

	t.Run("not PEM", func(t *testing.T) {
		_, err := NewAuthService("not-a-key", time.Hour, testLogger(), nil)
		assert.ErrorIs(t, err, ErrInvalidRSAKey)
	})
}

func TestAuthService_Passwords(t *testing.T) {
	auth := newTestAuth(t)

	tests := []struct {
		name     string
		password string
		attempt  string
		wantErr  error
		wantOK   bool
	}{
		{name: "matching password", password: "correct horse", attempt: "correct horse", wantOK: true},
		{name: "wrong password", password: "correct horse", attempt: "battery staple", wantOK: false},
		{name: "too short", password: "short", wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, hash, "$argon2id$")

			ok, err := auth.VerifyPassword(hash, tt.attempt)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	t.Run("salted", func(t *testing.T) {
		first, _ := auth.HashPassword("correct horse")
		second, _ := auth.HashPassword("correct horse")
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash", func(t *testing.T) {
		_, err := auth.VerifyPassword("$bcrypt$nope", "correct horse")
		assert.Error(t, err)
	})
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	auth := newTestAuth(t)
	user := &models.User{ID: 9, Username: "amina", Role: models.RoleMember}

	token, err := auth.GenerateToken(user, 5)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(9), claims.UserID)
	assert.Equal(t, int32(5), claims.MemberID)
	assert.Equal(t, models.RoleMember, claims.Role)
	assert.Equal(t, "user_9", claims.Subject)
}

func TestAuthService_ValidateToken_Rejections(t *testing.T) {
	auth := newTestAuth(t)
	other := newTestAuth(t)

	foreign, err := other.GenerateToken(&models.User{ID: 1, Role: models.RoleAdmin}, 0)
	require.NoError(t, err)

	_, err = auth.ValidateToken(context.Background(), foreign)
	assert.Error(t, err)

	_, err = auth.ValidateToken(context.Background(), "garbage")
	assert.Error(t, err)

	unknownRole, err := auth.GenerateToken(&models.User{ID: 1, Role: models.UserRole("janitor")}, 0)
	require.NoError(t, err)
	_, err = auth.ValidateToken(context.Background(), unknownRole)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Login(t *testing.T) {
	auth := newTestAuth(t)
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	user := queries.User{
		ID:           9,
		Username:     "amina",
		Email:        "amina@example.com",
		PasswordHash: hash,
		Role:         string(models.RoleMember),
		IsActive:     true,
		IsVerified:   true,
	}

	t.Run("member with profile", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetUserByUsername", mock.Anything, "amina").Return(user, nil)
		store.On("GetMemberByUserID", mock.Anything, int32(9)).Return(queries.Member{ID: 5, UserID: 9}, nil)
		auth.WithUsers(store)

		resp, err := auth.Login(context.Background(), models.LoginRequest{Username: "amina", Password: "correct horse"})

		require.NoError(t, err)
		assert.Equal(t, int32(5), resp.MemberID)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, 3600, resp.ExpiresIn)

		claims, err := auth.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, int32(5), claims.MemberID)
		store.AssertExpectations(t)
	})

	t.Run("staff without profile", func(t *testing.T) {
		staff := user
		staff.ID = 1
		staff.Username = "librarian"
		staff.Role = string(models.RoleManager)
		store := &mockdb.MockStore{}
		store.On("GetUserByUsername", mock.Anything, "librarian").Return(staff, nil)
		store.On("GetMemberByUserID", mock.Anything, int32(1)).Return(queries.Member{}, pgx.ErrNoRows)
		auth.WithUsers(store)

		resp, err := auth.Login(context.Background(), models.LoginRequest{Username: "librarian", Password: "correct horse"})

		require.NoError(t, err)
		assert.Zero(t, resp.MemberID)
		assert.Equal(t, models.RoleManager, resp.User.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetUserByUsername", mock.Anything, "amina").Return(user, nil)
		auth.WithUsers(store)

		_, err := auth.Login(context.Background(), models.LoginRequest{Username: "amina", Password: "battery staple"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := &mockdb.MockStore{}
		store.On("GetUserByUsername", mock.Anything, "ghost").Return(queries.User{}, pgx.ErrNoRows)
		auth.WithUsers(store)

		_, err := auth.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		inactive := user
		inactive.IsActive = false
		store := &mockdb.MockStore{}
		store.On("GetUserByUsername", mock.Anything, "amina").Return(inactive, nil)
		auth.WithUsers(store)

		_, err := auth.Login(context.Background(), models.LoginRequest{Username: "amina", Password: "correct horse"})
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestAuthService_BlacklistRequiresRedis(t *testing.T) {
	auth := newTestAuth(t)
	assert.Error(t, auth.BlacklistToken(context.Background(), "anything"))
}
