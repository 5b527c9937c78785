package extraction

import (
	"ai-receipt/internal/models"

	"github.com/google/uuid"
)

// Assemble builds an unsaved receipt owned by userID from ex. A nil
// extraction yields a skeleton receipt with only defaults set.
func Assemble(ex *Extraction, userID uuid.UUID) *models.Receipt {
	receipt := &models.Receipt{
		UserID:   userID,
		Currency: DefaultCurrency,
		Category: OtherCategory,
	}
	if ex == nil {
		return receipt
	}

	receipt.MerchantName = TrimToNull(ex.MerchantName.Ptr())
	receipt.ReceiptDate = NormalizeDate(ex.ReceiptDate.Ptr())
	receipt.Currency = NormalizeCurrency(ex.Currency.Ptr())
	receipt.Category = NormalizeCategory(ex.Category.Ptr())
	receipt.Subtotal = RoundMoney(NormalizeMoney(ex.Subtotal.Ptr()))
	receipt.Tax = RoundMoney(NormalizeMoney(ex.Tax.Ptr()))
	receipt.Total = RoundMoney(NormalizeMoney(ex.Total.Ptr()))

	for _, item := range ex.Items {
		if item == nil {
			continue
		}
		receipt.AddItem(&models.ReceiptItem{
			Description: TrimToNull(item.Description.Ptr()),
			Quantity:    RoundQuantity(NormalizeMoney(item.Quantity.Ptr())),
			UnitPrice:   RoundMoney(NormalizeMoney(item.UnitPrice.Ptr())),
			TotalPrice:  RoundMoney(NormalizeMoney(item.TotalPrice.Ptr())),
		})
	}

	return receipt
}
