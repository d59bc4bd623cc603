// Package middleware provides HTTP middleware for the fiber app:
// token validation, role gates and the admin override key check.
package middleware

import (
	"log"
	"strings"

	"upiroute/internal/config"
	"upiroute/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Auth validates the bearer token and stores the claims in the request
// context. Token issuance lives in the platform's identity service; only the
// shared signing secret is configured here.
func Auth() fiber.Handler {
	secret := []byte(config.GetEnv("JWT_SECRET", "upiroute"))

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &models.APIClaims{}, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Printf("token validation error: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		claims, ok := token.Claims.(*models.APIClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid claims"})
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}

// RequireRole gates a route group to one or more roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.APIClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing claims"})
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
	}
}

// RequireAdminKey additionally checks the X-Admin-Key header against the
// configured bcrypt hash for destructive admin overrides.
func RequireAdminKey() fiber.Handler {
	hash := []byte(config.GetEnv("ADMIN_KEY_HASH", ""))

	return func(c *fiber.Ctx) error {
		if len(hash) == 0 {
			log.Println("ADMIN_KEY_HASH not configured, admin overrides disabled")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin overrides disabled"})
		}
		key := c.Get("X-Admin-Key")
		if err := bcrypt.CompareHashAndPassword(hash, []byte(key)); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid admin key"})
		}
		return c.Next()
	}
}
