package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/ngenohkevin/circulation/internal/database/queries"
	"github.com/ngenohkevin/circulation/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidPassword    = errors.New("invalid password format")
	ErrInvalidRSAKey      = errors.New("invalid RSA key")
)

// AuthQuerier defines the lookups used at login
type AuthQuerier interface {
	GetUserByUsername(ctx context.Context, username string) (queries.User, error)
	GetMemberByUserID(ctx context.Context, userID int32) (queries.Member, error)
}

type AuthService struct {
	jwtPrivateKey *rsa.PrivateKey
	jwtPublicKey  *rsa.PublicKey
	tokenExpiry   time.Duration
	argon2Config  *Argon2Config
	users         AuthQuerier
	logger        *slog.Logger
	redisClient   *redis.Client
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func NewAuthService(jwtPrivateKeyPEM string, tokenExpiry time.Duration, logger *slog.Logger, redisClient *redis.Client) (*AuthService, error) {
	jwtPrivateKey, err := parseRSAPrivateKey(jwtPrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT private key: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		jwtPrivateKey: jwtPrivateKey,
		jwtPublicKey:  &jwtPrivateKey.PublicKey,
		tokenExpiry:   tokenExpiry,
		argon2Config: &Argon2Config{
			Memory:      64 * 1024,
			Iterations:  3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		logger:      logger,
		redisClient: redisClient,
	}, nil
}

// WithUsers enables Login.
func (s *AuthService) WithUsers(users AuthQuerier) *AuthService {
	s.users = users
	return s
}

func parseRSAPrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidRSAKey
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		if rsaKey, ok := parsedKey.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidRSAKey
	}

	return privateKey, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", ErrInvalidPassword
	}

	salt := make([]byte, s.argon2Config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		s.argon2Config.Iterations,
		s.argon2Config.Memory,
		s.argon2Config.Parallelism,
		s.argon2Config.KeyLength,
	)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.argon2Config.Memory,
		s.argon2Config.Iterations,
		s.argon2Config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (s *AuthService) VerifyPassword(hashedPassword, password string) (bool, error) {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, errors.New("invalid hash type")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return false, errors.New("incompatible argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("error decoding salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("error decoding hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}

// GenerateToken signs an RS256 access token for the user.
func (s *AuthService) GenerateToken(user *models.User, memberID int32) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		MemberID: memberID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("user_%d", user.ID),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.jwtPrivateKey)
}

func (s *AuthService) parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtPublicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	if s.redisClient != nil {
		blacklisted, err := s.redisClient.Exists(ctx, "blacklist:"+tokenString).Result()
		if err != nil {
			// Continue validation if Redis is down
			s.logger.Error("Failed to check token blacklist", "error", err)
		}
		if blacklisted > 0 {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Login checks the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if s.users == nil {
		return nil, errors.New("login is not configured")
	}
	row, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	ok, err := s.VerifyPassword(row.PasswordHash, req.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !row.IsActive || row.IsDeclined {
		return nil, ErrUserInactive
	}

	user := userFromRow(row)

	var memberID int32
	if member, err := s.users.GetMemberByUserID(ctx, row.ID); err == nil {
		memberID = member.ID
	} else if !isNoRows(err) {
		return nil, fmt.Errorf("failed to get member profile: %w", err)
	}

	token, err := s.GenerateToken(user, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &models.LoginResponse{
		User:        user,
		MemberID:    memberID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenExpiry.Seconds()),
	}, nil
}

// BlacklistToken revokes a token until it would have expired anyway.
func (s *AuthService) BlacklistToken(ctx context.Context, tokenString string) error {
	if s.redisClient == nil {
		return errors.New("redis client not configured")
	}
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	expiry := time.Until(claims.ExpiresAt.Time)
	if expiry <= 0 {
		return nil
	}
	if err := s.redisClient.Set(ctx, "blacklist:"+tokenString, "1", expiry).Err(); err != nil {
		s.logger.Error("Failed to blacklist token", "error", err)
		return err
	}
	return nil
}
