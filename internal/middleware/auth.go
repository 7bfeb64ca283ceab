// Package middleware contains HTTP middleware for the Golf Society API.
// Middleware runs on every request routed through it, which makes it the right place for
// cross-cutting concerns like authentication.
package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	// jwt signs and verifies the short-lived admin session tokens issued by /auth/check
	"github.com/golang-jwt/jwt/v5"

	"github.com/trentd187/golf-society/internal/config"
	"github.com/trentd187/golf-society/internal/society"
)

// SessionSubject is the "sub" claim of every admin session token. There is a single
// admin credential, so there is no per-user identity to carry.
const SessionSubject = "admin"

// LocalsAuthVia is the c.Locals key recording how the request authenticated:
// "password" or "session".
const LocalsAuthVia = "authVia"

// Claims is the payload of an admin session token.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a session token valid for cfg.SessionTTL from now.
func IssueToken(cfg *config.Config, now time.Time) (string, time.Time, error) {
	expires := now.Add(cfg.SessionTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SessionSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// CheckPassword compares a candidate against the configured admin password in constant time.
func CheckPassword(cfg *config.Config, candidate string) bool {
	if candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(cfg.AdminPassword)) == 1
}

// verifyToken parses and validates a session token. Only HS256 is accepted.
func verifyToken(cfg *config.Config, tokenStr string) error {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(cfg.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(SessionSubject))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// AdminAuth returns a Fiber middleware that lets a request through only if it carries
// the admin credential in the Authorization header, either:
//   - the admin password itself, as the browser UI sends it, or
//   - "Bearer <token>" with a session token from IssueToken.
//
// Anything else returns society.Unauthorized() before the handler runs, so rejected writes
// never touch the store. The app's ErrorHandler turns it into a 401.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))

		if tokenStr, ok := strings.CutPrefix(header, "Bearer "); ok {
			if err := verifyToken(cfg, strings.TrimSpace(tokenStr)); err == nil {
				c.Locals(LocalsAuthVia, "session")
				return c.Next()
			}
			return society.Unauthorized()
		}

		if CheckPassword(cfg, header) {
			c.Locals(LocalsAuthVia, "password")
			return c.Next()
		}
		return society.Unauthorized()
	}
}
