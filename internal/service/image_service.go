package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/extraction"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"
	"ai-receipt/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultImageExt = ".jpg"
	maxImageExtLen  = 10
)

// UploadInput is one image file received from a client.
type UploadInput struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

type ImageService struct {
	store  repository.Store
	blobs  storage.BlobStore
	bucket string
	now    func() time.Time
	logger *zap.Logger
}

func NewImageService(store repository.Store, blobs storage.BlobStore, bucket string, logger *zap.Logger) *ImageService {
	return &ImageService{
		store:  store,
		blobs:  blobs,
		bucket: bucket,
		now:    time.Now,
		logger: logger,
	}
}

// Upload stores the file under a fresh object key and records the asset.
// The object is removed again if the metadata row cannot be written.
func (s *ImageService) Upload(ctx context.Context, principal string, in UploadInput) (*dto.ImageUploadResponse, error) {
	if in.Body == nil || in.Size == 0 {
		return nil, apperr.Validation("file is required")
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = extraction.DefaultMIMEType
	}
	key := buildObjectKey(user.ID, s.now(), in.Filename)

	if err := s.blobs.Put(ctx, s.bucket, key, contentType, in.Body, in.Size); err != nil {
		return nil, apperr.Upstream("Failed to store image", err)
	}

	filename := sanitizeUTF8(in.Filename)
	image := &models.ImageAsset{
		UserID:           user.ID,
		ObjectKey:        key,
		OriginalFilename: extraction.TrimToNull(&filename),
		ContentType:      contentType,
	}
	if in.Size > 0 {
		size := in.Size
		image.SizeBytes = &size
	}

	if err := s.store.Images().Create(ctx, image); err != nil {
		if delErr := s.blobs.Delete(ctx, s.bucket, key); delErr != nil {
			s.logger.Warn("Failed to remove stored image after insert error", zap.String("object_key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create image record: %w", err)
	}

	s.logger.Info("Image uploaded",
		zap.Int64("image_id", image.ID),
		zap.String("object_key", key),
		zap.Int64("size", in.Size),
	)
	return dto.NewImageUploadResponse(image), nil
}

// buildObjectKey lays keys out as receipts/{user}/{yyyy}/{mm}/{dd}/{uuid}{ext}.
func buildObjectKey(userID uuid.UUID, now time.Time, filename string) string {
	return fmt.Sprintf("receipts/%s/%04d/%02d/%02d/%s%s",
		userID, now.Year(), int(now.Month()), now.Day(), uuid.New(), imageExt(filename))
}

func imageExt(filename string) string {
	name := strings.TrimSpace(filename)
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return defaultImageExt
	}
	ext := strings.ToLower(name[idx:])
	if len(ext) > maxImageExtLen {
		return defaultImageExt
	}
	return ext
}
