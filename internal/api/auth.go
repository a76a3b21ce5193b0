package api

import (
	"strings"
	"time"

	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin          = "admin"
	RoleProjectManager = "project_manager"
	RoleReviewer       = "reviewer"
)

const (
	localUserID   = "userID"
	localUserRole = "userRole"
)

// RequireAuth verifies an HMAC-signed bearer token and stores the caller's
// id and role in the request locals. Tokens must carry an expiry. Without a
// secret every request is rejected.
func RequireAuth(cfg config.AuthConfig) fiber.Handler {
	secret := []byte(strings.TrimSpace(cfg.JWTSecret))
	if len(secret) == 0 {
		return func(*fiber.Ctx) error {
			return errors.NewUnauthorizedError("token verification is not configured")
		}
	}
	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = "role"
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		}
		if raw == "" {
			return errors.NewUnauthorizedError("missing bearer token")
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.NewUnauthorizedError("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !tok.Valid {
			return errors.NewUnauthorizedError("invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return errors.NewUnauthorizedError("invalid token claims")
		}
		if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			return errors.NewUnauthorizedError("token has no valid expiry")
		}
		if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
			return errors.NewUnauthorizedError("unexpected issuer")
		}

		role, _ := claims[roleClaim].(string)
		if role == "" {
			return errors.NewUnauthorizedError("token carries no role")
		}
		sub, _ := claims["sub"].(string)

		c.Locals(localUserID, sub)
		c.Locals(localUserRole, role)
		return c.Next()
	}
}

// OnlyRoles rejects callers whose role is not listed.
func OnlyRoles(operation string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(localUserRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return errors.NewForbiddenError(role, operation)
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
