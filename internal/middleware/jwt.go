package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request
// context. The provided secret must match the one used when issuing
// tokens. Handlers behind this middleware read the authenticated user via
// c.Get("user_id"), c.Get("role") and c.Get("email").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !storeClaims(c, strings.TrimPrefix(auth, "Bearer "), secret) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

// OptionalJWTAuth parses a Bearer token when one is present but lets the
// request through either way. The explicit-seat booking endpoint uses it:
// the same route serves authenticated users and anonymous guests, and the
// handler decides the identity mode from the context.
func OptionalJWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				if !storeClaims(c, strings.TrimPrefix(auth, "Bearer "), secret) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
			}
			return next(c)
		}
	}
}

// storeClaims parses and validates the raw token, placing its claims in
// the context. It returns false when the token cannot be trusted.
func storeClaims(c echo.Context, raw, secret string) bool {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	c.Set("user_id", claims["sub"])
	c.Set("role", claims["role"])
	c.Set("email", claims["email"])
	return true
}
