package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Receipt struct {
	ID           int64               `db:"id"`
	UserID       uuid.UUID           `db:"user_id"`
	ImageID      *int64              `db:"image_id"`
	ImageURL     *string             `db:"image_url"`
	MerchantName *string             `db:"merchant_name"`
	ReceiptDate  *time.Time          `db:"receipt_date"`
	Currency     string              `db:"currency"`
	Category     string              `db:"category"`
	Subtotal     decimal.NullDecimal `db:"subtotal"`
	Tax          decimal.NullDecimal `db:"tax"`
	Total        decimal.NullDecimal `db:"total"`
	RawJSON      *string             `db:"raw_json"`
	Reviewed     bool                `db:"reviewed"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`

	Items []*ReceiptItem `db:"-"`
}

// AddItem appends item and points it back at r.
func (r *Receipt) AddItem(item *ReceiptItem) {
	item.ReceiptID = r.ID
	r.Items = append(r.Items, item)
}

// ReplaceItems drops every existing item and adds items in order.
func (r *Receipt) ReplaceItems(items []*ReceiptItem) {
	r.Items = nil
	for _, item := range items {
		r.AddItem(item)
	}
}

// TotalOrZero is the receipt total with a missing amount counted as zero.
func (r *Receipt) TotalOrZero() decimal.Decimal {
	if r.Total.Valid {
		return r.Total.Decimal
	}
	return decimal.Zero
}

type ReceiptItem struct {
	ID          int64               `db:"id"`
	ReceiptID   int64               `db:"receipt_id"`
	Description *string             `db:"description"`
	Quantity    decimal.NullDecimal `db:"quantity"`
	UnitPrice   decimal.NullDecimal `db:"unit_price"`
	TotalPrice  decimal.NullDecimal `db:"total_price"`
}
