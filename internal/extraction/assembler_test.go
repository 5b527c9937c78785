package extraction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestAssembleNilExtraction(t *testing.T) {
	userID := uuid.New()
	r := Assemble(nil, userID)

	if r.UserID != userID {
		t.Errorf("UserID = %v, want %v", r.UserID, userID)
	}
	if r.Currency != "USD" || r.Category != "Other" {
		t.Errorf("defaults = %q/%q, want USD/Other", r.Currency, r.Category)
	}
	if r.MerchantName != nil || r.ReceiptDate != nil || r.Total.Valid || len(r.Items) != 0 {
		t.Errorf("skeleton receipt has data: %+v", r)
	}
}

func TestAssemble(t *testing.T) {
	ex := &Extraction{
		MerchantName: NewField("  Corner Cafe "),
		ReceiptDate:  NewField("2024-03-05T09:15:00"),
		Currency:     NewField("eur"),
		Category:     NewField("FOOD"),
		Subtotal:     NewField("€10.999"),
		Tax:          NewField("n/a"),
		Total:        NewField("12,00"),
		Items: []*ItemExtraction{
			{Description: NewField(" Latte "), Quantity: NewField("2"), UnitPrice: NewField("2.25"), TotalPrice: NewField("4.50")},
			nil,
			{Description: NewField("   ")},
		},
	}

	r := Assemble(ex, uuid.New())

	if r.MerchantName == nil || *r.MerchantName != "Corner Cafe" {
		t.Errorf("MerchantName = %v", r.MerchantName)
	}
	if r.ReceiptDate == nil || r.ReceiptDate.Format("2006-01-02") != "2024-03-05" {
		t.Errorf("ReceiptDate = %v", r.ReceiptDate)
	}
	if r.Currency != "EUR" || r.Category != "Food" {
		t.Errorf("Currency/Category = %q/%q", r.Currency, r.Category)
	}
	if !r.Subtotal.Decimal.Equal(decimal.RequireFromString("11.00")) {
		t.Errorf("Subtotal = %s, want rounded 11.00", r.Subtotal.Decimal)
	}
	if r.Tax.Valid {
		t.Errorf("Tax = %s, want null", r.Tax.Decimal)
	}
	if !r.Total.Decimal.Equal(decimal.RequireFromString("1200")) {
		t.Errorf("Total = %s, want 1200", r.Total.Decimal)
	}

	if len(r.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2 (nil entry skipped)", len(r.Items))
	}
	first := r.Items[0]
	if first.Description == nil || *first.Description != "Latte" {
		t.Errorf("item description = %v", first.Description)
	}
	if !first.Quantity.Decimal.Equal(decimal.NewFromInt(2)) || !first.TotalPrice.Decimal.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("item amounts = %+v", first)
	}
	if r.Items[1].Description != nil || r.Items[1].UnitPrice.Valid {
		t.Errorf("blank item should carry nulls: %+v", r.Items[1])
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	ex := &Extraction{Total: NewField("3.14159"), Category: NewField("health")}
	userID := uuid.New()
	a, b := Assemble(ex, userID), Assemble(ex, userID)
	if !a.Total.Decimal.Equal(b.Total.Decimal) || a.Category != b.Category {
		t.Error("Assemble() is not deterministic")
	}
}
