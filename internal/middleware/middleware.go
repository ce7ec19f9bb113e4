package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paybridge/internal/repository"
)

// ContextKeyCartID holds the cart id resolved by SessionAuth.
const ContextKeyCartID = "cart_id"

// SessionHeader carries the storefront checkout session.
const SessionHeader = "X-Session-Id"

// SessionAuth resolves the X-Session-Id header to a cart and rejects unknown sessions.
func SessionAuth(sessions repository.SessionRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
			if sessionID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session id is required"})
			}

			s, err := sessions.Find(c.Request().Context(), sessionID)
			if errors.Is(err, repository.ErrSessionNotFound) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid session"})
			}
			if err != nil {
				return err
			}

			c.Set(ContextKeyCartID, s.CartID)
			return next(c)
		}
	}
}

// CartID returns the cart id set by SessionAuth.
func CartID(c echo.Context) string {
	id, _ := c.Get(ContextKeyCartID).(string)
	return id
}

// RequestLogger writes one line per request.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	}
}

// CORS configures CORS headers for the storefront origin.
func CORS(allowOrigin string) echo.MiddlewareFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
