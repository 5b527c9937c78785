package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"
	"ai-receipt/pkg/storage"

	"go.uber.org/zap"
)

type DeletionService struct {
	store  repository.Store
	blobs  storage.BlobStore
	bucket string
	logger *zap.Logger
}

func NewDeletionService(store repository.Store, blobs storage.BlobStore, bucket string, logger *zap.Logger) *DeletionService {
	return &DeletionService{
		store:  store,
		blobs:  blobs,
		bucket: bucket,
		logger: logger,
	}
}

func (s *DeletionService) DeleteOne(ctx context.Context, receiptID int64, principal string) (*dto.DeleteReceiptsResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		receipt, err := getOwnedReceipt(ctx, tx, receiptID, user)
		if err != nil {
			return err
		}
		return s.deleteAndCollect(ctx, tx, []*models.Receipt{receipt})
	})
	if err != nil {
		return nil, err
	}

	return &dto.DeleteReceiptsResponse{DeletedCount: 1, DeletedIDs: []int64{receiptID}}, nil
}

// DeleteMany deletes every listed receipt or none: unknown or foreign ids
// fail the whole call before anything is removed.
func (s *DeletionService) DeleteMany(ctx context.Context, ids []*int64, principal string) (*dto.DeleteReceiptsResponse, error) {
	uniqueIDs, err := uniqueReceiptIDs(ids)
	if err != nil {
		return nil, err
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		receipts, err := tx.Receipts().ListByIDsAndUser(ctx, uniqueIDs, user.ID)
		if err != nil {
			return fmt.Errorf("failed to load receipts: %w", err)
		}

		if missing := missingIDs(uniqueIDs, receipts); len(missing) > 0 {
			return apperr.Validation("Receipts not found: " + formatIDs(missing))
		}

		return s.deleteAndCollect(ctx, tx, receipts)
	})
	if err != nil {
		return nil, err
	}

	return &dto.DeleteReceiptsResponse{DeletedCount: len(uniqueIDs), DeletedIDs: uniqueIDs}, nil
}

func (s *DeletionService) deleteAndCollect(ctx context.Context, tx repository.Store, receipts []*models.Receipt) error {
	ids := make([]int64, 0, len(receipts))
	for _, r := range receipts {
		ids = append(ids, r.ID)
	}

	if _, err := tx.Receipts().DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete receipts: %w", err)
	}
	s.logger.Info("Receipts deleted", zap.Int64s("receipt_ids", ids))

	return s.cleanupOrphans(ctx, tx, distinctImageIDs(receipts))
}

// cleanupOrphans removes images no receipt references any more. Each image
// row is locked first so a concurrent insert referencing it either commits
// before the reference check or fails its foreign key afterwards. The
// storage object goes before the metadata row; a storage failure aborts the
// whole transaction.
func (s *DeletionService) cleanupOrphans(ctx context.Context, tx repository.Store, imageIDs []int64) error {
	for _, imageID := range imageIDs {
		image, err := tx.Images().GetByIDForUpdate(ctx, imageID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to lock image %d: %w", imageID, err)
		}

		referenced, err := tx.Receipts().ExistsByImageID(ctx, imageID)
		if err != nil {
			return fmt.Errorf("failed to check image references: %w", err)
		}
		if referenced {
			continue
		}

		if err := s.blobs.Delete(ctx, s.bucket, image.ObjectKey); err != nil {
			s.logger.Error("Failed to delete image from storage",
				zap.Int64("image_id", imageID),
				zap.String("object_key", image.ObjectKey),
				zap.Error(err),
			)
			return apperr.Upstream("Failed to delete image from storage", err)
		}

		if err := tx.Images().Delete(ctx, imageID); err != nil {
			return fmt.Errorf("failed to delete image %d: %w", imageID, err)
		}
		s.logger.Info("Orphaned image removed", zap.Int64("image_id", imageID))
	}
	return nil
}

func uniqueReceiptIDs(ids []*int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("ids is required")
	}

	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			return nil, apperr.Validation("ids must not contain null")
		}
		if seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	return unique, nil
}

func missingIDs(want []int64, found []*models.Receipt) []int64 {
	present := make(map[int64]bool, len(found))
	for _, r := range found {
		present[r.ID] = true
	}

	var missing []int64
	for _, id := range want {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// distinctImageIDs returns the referenced image ids in ascending order, so
// concurrent deletions lock shared images in the same order.
func distinctImageIDs(receipts []*models.Receipt) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, r := range receipts {
		if r.ImageID == nil || seen[*r.ImageID] {
			continue
		}
		seen[*r.ImageID] = true
		ids = append(ids, *r.ImageID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
