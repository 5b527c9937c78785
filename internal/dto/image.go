package dto

import (
	"time"

	"ai-receipt/internal/models"
)

type ImageUploadResponse struct {
	ImageID          int64   `json:"image_id"`
	ObjectKey        string  `json:"object_key"`
	OriginalFilename *string `json:"original_filename"`
	ContentType      string  `json:"content_type"`
	SizeBytes        *int64  `json:"size_bytes"`
	CreatedAt        string  `json:"created_at"`
}

func NewImageUploadResponse(img *models.ImageAsset) *ImageUploadResponse {
	return &ImageUploadResponse{
		ImageID:          img.ID,
		ObjectKey:        img.ObjectKey,
		OriginalFilename: img.OriginalFilename,
		ContentType:      img.ContentType,
		SizeBytes:        img.SizeBytes,
		CreatedAt:        img.CreatedAt.Format(time.RFC3339),
	}
}
