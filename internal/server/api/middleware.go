package api

import (
	"net/http"
	"strings"
	"time"

	"fileshare/internal/server/auth"
	"fileshare/internal/server/models"

	"github.com/labstack/echo/v4"
)

// userContextKey is the echo context key the authenticated user is stored under.
const userContextKey = "user"

// currentUser returns the user stored by the auth middleware. It must only be
// called from handlers registered behind Authenticate.
func currentUser(c echo.Context) *models.User {
	return c.Get(userContextKey).(*models.User)
}

// Authenticate validates the Authorization bearer token, loads the account,
// and stores it in the request context. Every failure mode — missing header,
// malformed token, bad signature, expiry, unknown or deactivated account —
// produces the same 401 body.
func (h *Handler) Authenticate(secret []byte) echo.MiddlewareFunc {
	unauthorized := func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return unauthorized(c)
			}

			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				return unauthorized(c)
			}

			user, err := h.users.GetByID(c.Request().Context(), userID)
			if err != nil {
				return unauthorized(c)
			}
			if !user.IsActive {
				return unauthorized(c)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated requests whose account holds a different
// role. It must run after Authenticate.
func RequireRole(role models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if currentUser(c).Role != role {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "operation not permitted for this role"})
			}
			return next(c)
		}
	}
}

// RequestLogger returns an echo middleware that logs each request.
func (h *Handler) RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			h.log.Info(req.Context(), "request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"ip", c.RealIP(),
			)

			return err
		}
	}
}
