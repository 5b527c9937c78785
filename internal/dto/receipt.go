package dto

import (
	"time"

	"ai-receipt/internal/models"

	"github.com/shopspring/decimal"
)

type ParseReceiptRequest struct {
	ImageID *int64 `json:"image_id"`
}

// UpdateReceiptRequest is a partial update: absent or null fields are left
// untouched. A present items list, even an empty one, replaces all items.
type UpdateReceiptRequest struct {
	MerchantName *string                     `json:"merchant_name" validate:"omitempty,max=255"`
	ReceiptDate  *string                     `json:"receipt_date"`
	Currency     *string                     `json:"currency" validate:"omitempty,max=8"`
	Category     *string                     `json:"category" validate:"omitempty,max=50"`
	Subtotal     decimal.NullDecimal         `json:"subtotal" swaggertype:"string"`
	Tax          decimal.NullDecimal         `json:"tax" swaggertype:"string"`
	Total        decimal.NullDecimal         `json:"total" swaggertype:"string"`
	Items        []*UpdateReceiptItemRequest `json:"items" validate:"omitempty,dive"`
}

type UpdateReceiptItemRequest struct {
	Description *string             `json:"description" validate:"omitempty,max=512"`
	Quantity    decimal.NullDecimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.NullDecimal `json:"unit_price" swaggertype:"string"`
	TotalPrice  decimal.NullDecimal `json:"total_price" swaggertype:"string"`
}

type ReviewReceiptRequest struct {
	Reviewed *bool `json:"reviewed"`
}

type DeleteReceiptsRequest struct {
	IDs []*int64 `json:"ids"`
}

type DeleteReceiptsResponse struct {
	DeletedCount int     `json:"deleted_count"`
	DeletedIDs   []int64 `json:"deleted_ids"`
}

type ReceiptItemResponse struct {
	ID          int64               `json:"id"`
	Description *string             `json:"description"`
	Quantity    decimal.NullDecimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.NullDecimal `json:"unit_price" swaggertype:"string"`
	TotalPrice  decimal.NullDecimal `json:"total_price" swaggertype:"string"`
}

type ReceiptResponse struct {
	ReceiptID    int64                 `json:"receipt_id"`
	ImageID      *int64                `json:"image_id"`
	ImageURL     *string               `json:"image_url"`
	MerchantName *string               `json:"merchant_name"`
	ReceiptDate  *string               `json:"receipt_date"`
	Currency     string                `json:"currency"`
	Category     string                `json:"category"`
	Subtotal     decimal.NullDecimal   `json:"subtotal" swaggertype:"string"`
	Tax          decimal.NullDecimal   `json:"tax" swaggertype:"string"`
	Total        decimal.NullDecimal   `json:"total" swaggertype:"string"`
	Reviewed     bool                  `json:"reviewed"`
	Items        []ReceiptItemResponse `json:"items"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

func NewReceiptResponse(r *models.Receipt) *ReceiptResponse {
	resp := &ReceiptResponse{
		ReceiptID:    r.ID,
		ImageID:      r.ImageID,
		ImageURL:     r.ImageURL,
		MerchantName: r.MerchantName,
		ReceiptDate:  formatDate(r.ReceiptDate),
		Currency:     r.Currency,
		Category:     r.Category,
		Subtotal:     r.Subtotal,
		Tax:          r.Tax,
		Total:        r.Total,
		Reviewed:     r.Reviewed,
		Items:        make([]ReceiptItemResponse, 0, len(r.Items)),
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range r.Items {
		resp.Items = append(resp.Items, ReceiptItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return resp
}

func NewReceiptResponses(receipts []*models.Receipt) []*ReceiptResponse {
	out := make([]*ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, NewReceiptResponse(r))
	}
	return out
}

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(time.DateOnly)
	return &s
}
