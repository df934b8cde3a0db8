package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errorWriter renders service errors. Outside production 5xx bodies carry the cause.
type errorWriter struct {
	exposeDetails bool
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (w errorWriter) write(c echo.Context, err error, extra echo.Map) error {
	status := statusFor(err)
	message := service.Message(err)
	log := logger.FromContext(c)

	body := echo.Map{"error": message}
	for k, v := range extra {
		body[k] = v
	}

	if status >= http.StatusInternalServerError {
		log.Error(message, zap.Error(err))
		if w.exposeDetails {
			body["details"] = err.Error()
		}
	} else {
		log.Warn(message, zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, body)
}

func (w errorWriter) badRequest(c echo.Context, err error) error {
	logger.FromContext(c).Warn("Invalid request data", zap.Error(err))
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
}

// looseString accepts a JSON string, number or null and keeps its text
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		*s = looseString(data)
	}
	return nil
}
