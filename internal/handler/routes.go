package handler

import (
	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Dependencies are the services the HTTP surface is built from
type Dependencies struct {
	ServiceName   string
	Production    bool
	CookieName    string
	MaxUploadSize int64

	DB       *gorm.DB
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Media    *service.MediaService
	Sessions *middleware.SessionAuth

	// Storage is pinged by the health check when set
	Storage StoragePinger

	// LoginLimiter throttles login attempts when set
	LoginLimiter echo.MiddlewareFunc
}

// RegisterRoutes mounts the health check and the /api routes on e
func RegisterRoutes(e *echo.Echo, d Dependencies) {
	health := NewHealthHandler(d.DB, d.Storage, d.ServiceName)
	auth := NewAuthHandler(d.Auth, d.Sessions, d.CookieName, d.Production)
	categories := NewCategoryHandler(d.Catalog, d.Production)
	products := NewProductHandler(d.Catalog, d.Production)
	uploads := NewUploadHandler(d.Media, d.MaxUploadSize, d.Production)

	requireSession := d.Sessions.Require

	e.GET("/health", health.HealthCheck)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", auth.Register)
	if d.LoginLimiter != nil {
		authGroup.POST("/login", auth.Login, d.LoginLimiter)
	} else {
		authGroup.POST("/login", auth.Login)
	}
	authGroup.POST("/logout", auth.Logout, requireSession)
	authGroup.GET("/me", auth.Me, requireSession)

	api.GET("/categories", categories.ListCategories)
	api.POST("/categories", categories.CreateCategory, requireSession)
	api.PUT("/categories", categories.UpdateCategory, requireSession)
	api.DELETE("/categories", categories.DeleteCategory, requireSession)

	api.GET("/products", products.ListProducts)
	api.GET("/products/:id", products.GetProduct, d.Sessions.Optional)
	api.POST("/products", products.CreateProduct, requireSession)
	api.PUT("/products", products.UpdateProduct, requireSession)
	api.DELETE("/products", products.DeleteProduct, requireSession)
	api.POST("/products/:id/images", uploads.AttachImages, requireSession)
	api.DELETE("/products/:id/images", uploads.RemoveImage, requireSession)

	api.POST("/upload", uploads.Upload, requireSession)
}
