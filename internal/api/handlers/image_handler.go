package handlers

import (
	"context"

	"ai-receipt/internal/dto"
	"ai-receipt/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Uploader interface {
	Upload(ctx context.Context, principal string, in service.UploadInput) (*dto.ImageUploadResponse, error)
}

type ImageHandler struct {
	uploader Uploader
	logger   *zap.Logger
}

func NewImageHandler(uploader Uploader, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		uploader: uploader,
		logger:   logger,
	}
}

// UploadImage godoc
// @Summary Upload a receipt image
// @Description Stores the image so it can be parsed later
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image"
// @Security Bearer
// @Success 200 {object} dto.ImageUploadResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/images [post]
func (h *ImageHandler) UploadImage(c *fiber.Ctx) error {
	principal, ok := requirePrincipal(c)
	if !ok {
		return unauthorized(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Failed to open file")
	}
	defer src.Close()

	resp, err := h.uploader.Upload(c.UserContext(), principal, service.UploadInput{
		Body:        src,
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
	})
	if err != nil {
		return respondError(c, h.logger, "Failed to upload image", err)
	}
	return c.JSON(resp)
}
