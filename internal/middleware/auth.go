// Package middleware provides the Fiber middleware shared by every route: bearer
// verification, structured request logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"xweeter/internal/config"
	"xweeter/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// AuthRequired verifies an HMAC signed bearer token and stores its subject as
// c.Locals("userID"). Tokens are issued elsewhere.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthorized(c, "Authorization header required")
	}

	scheme, tokenString, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || tokenString == "" {
		return unauthorized(c, "Invalid authorization header format")
	}

	userID, err := userIDFromToken(tokenString)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return c.Next()
}

func userIDFromToken(tokenString string) (uint, error) {
	if cfg == nil {
		return 0, errors.New("Authentication is not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("Invalid or expired token")
	}

	// RFC 7519 subject carries the user ID as a decimal string.
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("Invalid token structure - missing subject")
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, errors.New("Invalid user ID in token")
	}
	return uint(userID), nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(message))
}
