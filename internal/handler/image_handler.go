package handler

import (
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	apperrors "techlam/internal/errors"
	"techlam/internal/service"
)

// ImageHandler accepts project image uploads.
type ImageHandler struct {
	images service.ImageService
}

// NewImageHandler creates a new image handler.
func NewImageHandler(images service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload godoc
// @Summary Upload a project image
// @Description JPEG, PNG, WebP or GIF. The returned url goes into a project's image_url.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 201 {object} service.UploadedImage
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Router /images [post]
func (h *ImageHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(apperrors.NewValidationError("file", "file is required"))
	}
	if fh.Size > h.images.MaxBytes() {
		return respondError(fmt.Errorf("%w: %s is over the %s limit", apperrors.ErrImageTooLarge,
			humanize.IBytes(uint64(fh.Size)), humanize.IBytes(uint64(h.images.MaxBytes()))))
	}

	file, err := fh.Open()
	if err != nil {
		return respondError(fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	img, err := h.images.Upload(c.Request().Context(), fh.Filename, file)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, img)
}
