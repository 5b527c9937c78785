package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/extraction"
	"ai-receipt/internal/gemini"
	"ai-receipt/internal/repository"
	"ai-receipt/pkg/storage"

	"go.uber.org/zap"
)

// ExtractionModel is the vision model that reads receipt images.
type ExtractionModel interface {
	Configured() bool
	GenerateContent(ctx context.Context, req gemini.Request) (string, error)
}

type ParsingService struct {
	store  repository.Store
	blobs  storage.BlobStore
	model  ExtractionModel
	bucket string
	logger *zap.Logger
}

func NewParsingService(
	store repository.Store,
	blobs storage.BlobStore,
	model ExtractionModel,
	bucket string,
	logger *zap.Logger,
) *ParsingService {
	return &ParsingService{
		store:  store,
		blobs:  blobs,
		model:  model,
		bucket: bucket,
		logger: logger,
	}
}

// ParseFromImage runs a stored image through the model and persists the
// resulting receipt: image -> model -> parse -> normalize -> save.
func (s *ParsingService) ParseFromImage(ctx context.Context, imageID *int64, principal string) (*dto.ReceiptResponse, error) {
	if !s.model.Configured() {
		return nil, apperr.Configuration("Gemini API key is not configured")
	}
	if imageID == nil {
		return nil, apperr.Validation("imageId is required")
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	image, err := s.store.Images().GetByIDAndUser(ctx, *imageID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Image not found")
		}
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	data, err := s.blobs.Get(ctx, s.bucket, image.ObjectKey)
	if err != nil {
		s.logger.Warn("Failed to read image from storage",
			zap.Int64("image_id", image.ID),
			zap.String("object_key", image.ObjectKey),
			zap.Error(err),
		)
		return nil, apperr.Wrap(apperr.ErrValidation, "Failed to read image from storage", err)
	}
	if len(data) == 0 {
		return nil, apperr.Validation("Stored image is empty")
	}

	mimeType := strings.TrimSpace(image.ContentType)
	if mimeType == "" {
		mimeType = extraction.DefaultMIMEType
	}

	body, err := s.model.GenerateContent(ctx, gemini.Request{
		Prompt:         extraction.Prompt,
		MIMEType:       mimeType,
		Image:          data,
		ResponseSchema: extraction.ResponseSchema,
	})
	if err != nil {
		s.logger.Error("Gemini request failed", zap.Int64("image_id", image.ID), zap.Error(err))
		return nil, apperr.Upstream("Gemini API request failed", err)
	}

	ex, err := extraction.ParseResponse(body)
	if err != nil {
		s.logger.Warn("Failed to parse model response", zap.Int64("image_id", image.ID), zap.Error(err))
		return nil, err
	}

	receipt := extraction.Assemble(ex, user.ID)
	receipt.ImageID = &image.ID
	imageURL := fmt.Sprintf("s3://%s/%s", s.bucket, image.ObjectKey)
	receipt.ImageURL = &imageURL
	receipt.Reviewed = false
	if ex != nil {
		if raw, err := json.Marshal(ex); err == nil {
			rawJSON := string(raw)
			receipt.RawJSON = &rawJSON
		}
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Receipts().Create(ctx, receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	s.logger.Info("Receipt parsed",
		zap.Int64("receipt_id", receipt.ID),
		zap.Int64("image_id", image.ID),
		zap.Int("items", len(receipt.Items)),
	)

	return dto.NewReceiptResponse(receipt), nil
}
