package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"catalog-service/internal/media"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// multipart parts carrying images
var uploadFields = []string{"file", "files"}

// UploadHandler serves image uploads and product image references
type UploadHandler struct {
	errorWriter
	media   *service.MediaService
	maxSize int64
}

// NewUploadHandler creates an UploadHandler. Files above maxSize are only
// read far enough to be rejected.
func NewUploadHandler(media *service.MediaService, maxSize int64, production bool) *UploadHandler {
	return &UploadHandler{errorWriter: errorWriter{exposeDetails: !production}, media: media, maxSize: maxSize}
}

// Upload stores the posted images and returns their signed URLs
func (h *UploadHandler) Upload(c echo.Context) error {
	files, err := h.readFiles(c)
	if err != nil {
		return h.fail(c, err)
	}

	result, err := h.media.Upload(c.Request().Context(), files)
	if err != nil {
		return h.fail(c, err)
	}

	message := result.Message()
	if message == "" {
		message = "Product image uploaded."
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": message,
		"url":     result.URLs[0],
		"urls":    result.URLs,
	})
}

// AttachImages uploads images and appends them to a product
func (h *UploadHandler) AttachImages(c echo.Context) error {
	files, err := h.readFiles(c)
	if err != nil {
		return h.fail(c, err)
	}

	product, result, err := h.media.AttachImages(c.Request().Context(), c.Param("id"), files)
	if err != nil {
		return h.fail(c, err)
	}

	logger.FromContext(c).Info("Images attached",
		zap.Uint("product_id", product.ID),
		zap.Int("count", len(result.URLs)),
	)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": result.Message(),
		"urls":    result.URLs,
		"product": product,
	})
}

type removeImageRequest struct {
	URL string `json:"url" query:"url"`
}

// RemoveImage drops one reference from a product
func (h *UploadHandler) RemoveImage(c echo.Context) error {
	var req removeImageRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.media.RemoveImage(c.Request().Context(), c.Param("id"), req.URL)
	if err != nil {
		return h.write(c, err, nil)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *UploadHandler) fail(c echo.Context, err error) error {
	return h.write(c, err, echo.Map{"success": false, "message": service.Message(err)})
}

var errNoFile = &service.Error{Kind: service.ErrValidation, Message: "No file uploaded"}

func (h *UploadHandler) readFiles(c echo.Context) ([]media.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errNoFile
		}
		return nil, &service.Error{Kind: service.ErrValidation, Message: "Invalid upload form", Err: err}
	}

	var files []media.File
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			f, err := h.readFile(fh)
			if err != nil {
				return nil, &service.Error{Kind: service.ErrValidation, Message: "Invalid upload form", Err: err}
			}
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, errNoFile
	}
	return files, nil
}

func (h *UploadHandler) readFile(fh *multipart.FileHeader) (media.File, error) {
	src, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	// one byte past the limit is enough to reject the file as too large
	reader := io.Reader(src)
	if h.maxSize > 0 {
		reader = io.LimitReader(src, h.maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return media.File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	return media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
