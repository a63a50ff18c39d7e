package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie   = "yatube_session"
	SessionTTL      = 14 * 24 * time.Hour
	sessionIssuer   = "yatube"
	sessionAudience = "yatube-web"
)

var errSessionRevoked = errors.New("session revoked")

// sessionClaims is the verified content of a session token.
type sessionClaims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

// SessionManager issues, verifies and revokes JWT session cookies.
// Revoked token IDs are kept in Redis until the token would have expired.
type SessionManager struct {
	secret []byte
	redis  *redis.Client
	secure bool
}

func NewSessionManager(secret string, rdb *redis.Client, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), redis: rdb, secure: secure}
}

// NewToken signs a session token for userID.
func (m *SessionManager) NewToken(userID uint) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("session secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    sessionIssuer,
		Audience:  jwt.ClaimStrings{sessionAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies signature, issuer, audience, expiry and revocation.
func (m *SessionManager) Parse(ctx context.Context, token string) (*sessionClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	if claims.ID != "" && m.redis != nil {
		n, err := m.redis.Exists(ctx, cache.RevokedSessionKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return nil, errSessionRevoked
		}
	}

	return &sessionClaims{UserID: uint(userID), ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Issue logs user in by setting the session cookie.
func (m *SessionManager) Issue(c *fiber.Ctx, user *models.User) error {
	token, err := m.NewToken(user.ID)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(SessionTTL),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	middleware.SetCurrentUser(c, user)
	return nil
}

// Revoke blacklists the current token and clears the cookie.
func (m *SessionManager) Revoke(c *fiber.Ctx) {
	if raw := c.Cookies(SessionCookie); raw != "" && m.redis != nil {
		if claims, err := m.Parse(c.UserContext(), raw); err == nil && claims.ID != "" {
			ttl := time.Until(claims.ExpiresAt)
			if ttl > 0 {
				if err := m.redis.Set(c.UserContext(), cache.RevokedSessionKey(claims.ID), "1", ttl).Err(); err != nil {
					middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session",
						slog.String("error", err.Error()))
				}
			}
		}
	}
	m.clear(c)
	c.Locals(middleware.CurrentUserKey, nil)
	c.Locals("userID", nil)
}

func (m *SessionManager) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Authenticate resolves the session cookie into the current user.
// Invalid or revoked cookies are dropped and the request continues anonymously.
func (m *SessionManager) Authenticate(load func(ctx context.Context, id uint) (*models.User, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookie)
		if raw == "" {
			return c.Next()
		}

		claims, err := m.Parse(c.UserContext(), raw)
		if err != nil {
			m.clear(c)
			return c.Next()
		}

		user, err := load(c.UserContext(), claims.UserID)
		if err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			m.clear(c)
			return c.Next()
		}

		middleware.SetCurrentUser(c, user)
		return c.Next()
	}
}
