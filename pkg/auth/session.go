package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"earnhub/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// SessionAuth validates tokens minted by the external auth service.
// Tokens are base64url(user_id|expiry_unix) + "." + hex(HMAC-SHA256),
// keyed with a secret shared with that service.
type SessionAuth struct {
	secret    []byte
	debugMode bool
}

func NewSessionAuth(secret string, debugMode bool) *SessionAuth {
	return &SessionAuth{
		secret:    []byte(secret),
		debugMode: debugMode,
	}
}

type SessionUser struct {
	ID        uuid.UUID
	ExpiresAt time.Time
}

// MintToken is used by tests and local tooling; in production tokens
// come from the auth service, signed with the same shared secret.
func (s *SessionAuth) MintToken(userID uuid.UUID, ttl time.Duration) string {
	payload := fmt.Sprintf("%s|%d", userID.String(), time.Now().Add(ttl).Unix())
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded)
}

func (s *SessionAuth) ValidateToken(token string) (*SessionUser, error) {
	encoded, tag, found := strings.Cut(token, ".")
	if !found {
		return nil, ErrInvalidToken
	}

	if !s.debugMode {
		expected := s.sign(encoded)
		if !hmac.Equal([]byte(expected), []byte(tag)) {
			return nil, ErrInvalidToken
		}
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidToken
	}

	idPart, expPart, found := strings.Cut(string(raw), "|")
	if !found {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(idPart)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expUnix, err := strconv.ParseInt(expPart, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt := time.Unix(expUnix, 0)
	if time.Now().After(expiresAt) {
		return nil, ErrTokenExpired
	}

	return &SessionUser{
		ID:        userID,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SessionAuth) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *SessionAuth) SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Session ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Session ")
		sessionUser, err := s.ValidateToken(token)
		if err != nil {
			log.Info("invalid session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set("session_user", sessionUser)
		c.Next()
	}
}

// SessionUserFrom extracts the authenticated user placed into the
// context by SessionAuthMiddleware.
func SessionUserFrom(c *gin.Context) (*SessionUser, bool) {
	userData, exists := c.Get("session_user")
	if !exists {
		return nil, false
	}
	sessionUser, ok := userData.(*SessionUser)
	if !ok {
		return nil, false
	}
	return sessionUser, true
}
