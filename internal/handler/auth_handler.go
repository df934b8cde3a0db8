package handler

import (
	"net/http"
	"time"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler serves registration and session endpoints
type AuthHandler struct {
	errorWriter
	auth         *service.AuthService
	sessions     *middleware.SessionAuth
	cookieName   string
	secureCookie bool
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(auth *service.AuthService, sessions *middleware.SessionAuth, cookieName string, production bool) *AuthHandler {
	return &AuthHandler{
		errorWriter:  errorWriter{exposeDetails: !production},
		auth:         auth,
		sessions:     sessions,
		cookieName:   cookieName,
		secureCookie: production,
	}
}

// Register creates an admin account
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	user, err := h.auth.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.write(c, err, nil)
	}

	logger.FromContext(c).Info("User registered", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"id":      user.ID,
		"email":   user.Email,
	})
}

// Login verifies credentials and sets the session cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	login, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.write(c, err, nil)
	}

	c.SetCookie(h.cookie(login.Token, login.ExpiresAt))
	logger.FromContext(c).Info("User logged in", zap.Uint("user_id", login.User.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    echo.Map{"id": login.User.ID, "email": login.User.Email},
	})
}

// Logout revokes the session and clears the cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), h.sessions.Token(c)); err != nil {
		return h.write(c, err, nil)
	}

	cookie := h.cookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the user behind the current session
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return h.write(c, service.ErrUnauthorized, nil)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": user.ID, "email": user.Email})
}

func (h *AuthHandler) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
