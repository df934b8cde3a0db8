package middleware

import (
	"errors"
	"net/http"

	"catalog-service/internal/model"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userContextKey = "user"

// SessionAuth resolves the session cookie through the auth service
type SessionAuth struct {
	auth       *service.AuthService
	cookieName string
}

// NewSessionAuth creates session middlewares reading cookieName
func NewSessionAuth(auth *service.AuthService, cookieName string) *SessionAuth {
	return &SessionAuth{auth: auth, cookieName: cookieName}
}

// Token returns the raw session token of the request, if any
func (a *SessionAuth) Token(c echo.Context) string {
	cookie, err := c.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Require rejects requests without a live session before the handler runs
func (a *SessionAuth) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		user, err := a.auth.RequireUser(c.Request().Context(), a.Token(c))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				log.Warn("Rejected request without valid session", zap.String("path", c.Path()))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			log.Error("Failed to resolve session", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
		}

		setUser(c, user)
		return next(c)
	}
}

// Optional attaches the user when a live session exists and never rejects
func (a *SessionAuth) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := a.auth.ResolveCurrentUser(c.Request().Context(), a.Token(c))
		if err != nil {
			logger.FromContext(c).Warn("Ignoring unresolvable session", zap.Error(err))
		}
		if user != nil {
			setUser(c, user)
		}
		return next(c)
	}
}

func setUser(c echo.Context, user *model.User) {
	c.Set(userContextKey, user)
	logger.WithContext(c, logger.FromContext(c).With(zap.Uint("user_id", user.ID)))
}

// CurrentUser returns the user attached by Require or Optional
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok && user != nil
}
