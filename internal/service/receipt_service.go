package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/extraction"
	"ai-receipt/internal/models"
	"ai-receipt/internal/repository"

	"go.uber.org/zap"
)

type ReceiptService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewReceiptService(store repository.Store, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		store:  store,
		logger: logger,
	}
}

// ListByUser returns the principal's receipts, newest first.
func (s *ReceiptService) ListByUser(ctx context.Context, principal string) ([]*dto.ReceiptResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	receipts, err := s.store.Receipts().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		a, b := receipts[i], receipts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return dto.NewReceiptResponses(receipts), nil
}

func (s *ReceiptService) GetByID(ctx context.Context, receiptID int64, principal string) (*dto.ReceiptResponse, error) {
	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	receipt, err := getOwnedReceipt(ctx, s.store, receiptID, user)
	if err != nil {
		return nil, err
	}
	return dto.NewReceiptResponse(receipt), nil
}

func (s *ReceiptService) UpdateReviewStatus(ctx context.Context, receiptID int64, reviewed *bool, principal string) (*dto.ReceiptResponse, error) {
	if reviewed == nil {
		return nil, apperr.Validation("reviewed is required")
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		r, err := getOwnedReceipt(ctx, tx, receiptID, user)
		if err != nil {
			return err
		}
		r.Reviewed = *reviewed
		if err := tx.Receipts().Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update receipt: %w", err)
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt review status updated",
		zap.Int64("receipt_id", receiptID),
		zap.Bool("reviewed", *reviewed),
	)
	return dto.NewReceiptResponse(receipt), nil
}

// UpdateDetails applies a partial update. Present fields overwrite, absent
// fields stay; a present items list replaces every existing item.
func (s *ReceiptService) UpdateDetails(ctx context.Context, receiptID int64, req *dto.UpdateReceiptRequest, principal string) (*dto.ReceiptResponse, error) {
	if req == nil {
		return nil, apperr.Validation("request body is required")
	}

	date, err := parseOptionalDate(req.ReceiptDate)
	if err != nil {
		return nil, err
	}

	user, err := resolveUser(ctx, s.store.Users(), principal)
	if err != nil {
		return nil, err
	}

	var receipt *models.Receipt
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		r, err := getOwnedReceipt(ctx, tx, receiptID, user)
		if err != nil {
			return err
		}

		applyDetails(r, req, date)
		if err := tx.Receipts().Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update receipt: %w", err)
		}
		if req.Items != nil {
			if err := tx.Receipts().ReplaceItems(ctx, r); err != nil {
				return fmt.Errorf("failed to replace receipt items: %w", err)
			}
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt updated", zap.Int64("receipt_id", receiptID), zap.Int("items", len(receipt.Items)))
	return dto.NewReceiptResponse(receipt), nil
}

func applyDetails(receipt *models.Receipt, req *dto.UpdateReceiptRequest, date dateField) {
	if req.MerchantName != nil {
		receipt.MerchantName = extraction.TrimToNull(req.MerchantName)
	}
	if date.present {
		receipt.ReceiptDate = date.value
	}
	if req.Currency != nil {
		receipt.Currency = extraction.NormalizeCurrency(req.Currency)
	}
	if req.Category != nil {
		receipt.Category = extraction.NormalizeCategory(req.Category)
	}
	if req.Subtotal.Valid {
		receipt.Subtotal = extraction.RoundMoney(req.Subtotal)
	}
	if req.Tax.Valid {
		receipt.Tax = extraction.RoundMoney(req.Tax)
	}
	if req.Total.Valid {
		receipt.Total = extraction.RoundMoney(req.Total)
	}

	if req.Items != nil {
		items := make([]*models.ReceiptItem, 0, len(req.Items))
		for _, item := range req.Items {
			if item == nil {
				continue
			}
			items = append(items, &models.ReceiptItem{
				Description: extraction.TrimToNull(item.Description),
				Quantity:    extraction.RoundQuantity(item.Quantity),
				UnitPrice:   extraction.RoundMoney(item.UnitPrice),
				TotalPrice:  extraction.RoundMoney(item.TotalPrice),
			})
		}
		receipt.ReplaceItems(items)
	}
}

func getOwnedReceipt(ctx context.Context, store repository.Store, receiptID int64, user *models.User) (*models.Receipt, error) {
	receipt, err := store.Receipts().GetByIDAndUser(ctx, receiptID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Receipt not found")
		}
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	return receipt, nil
}
