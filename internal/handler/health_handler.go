package handler

import (
	"context"
	"net/http"
	"time"

	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StoragePinger checks the object store is reachable
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service, database and object storage liveness
type HealthHandler struct {
	db      *gorm.DB
	storage StoragePinger
	service string
}

// NewHealthHandler creates a HealthHandler. storage may be nil when uploads
// are not configured.
func NewHealthHandler(db *gorm.DB, storage StoragePinger, serviceName string) *HealthHandler {
	return &HealthHandler{db: db, storage: storage, service: serviceName}
}

// HealthCheck handles the health check endpoint. An unreachable database makes
// the service unhealthy; unreachable storage only degrades it.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	log := logger.FromContext(c)

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Error("Database health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "unhealthy",
			"service":  h.service,
			"database": "unreachable",
		})
	}

	status, storage := "healthy", "not_configured"
	if h.storage != nil {
		storage = "ok"
		if err := h.storage.Ping(ctx); err != nil {
			log.Warn("Storage health check failed", zap.Error(err))
			status, storage = "degraded", "unreachable"
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"service":  h.service,
		"database": "ok",
		"storage":  storage,
	})
}
