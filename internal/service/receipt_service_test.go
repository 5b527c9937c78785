package service

import (
	"context"
	"errors"
	"testing"

	"ai-receipt/internal/apperr"
	"ai-receipt/internal/dto"
	"ai-receipt/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestResolveUser(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com")
	bob := store.addUser("bob", "bob@example.com")

	tests := []struct {
		name      string
		principal string
		want      *models.User
		kind      error
	}{
		{name: "by email", principal: "alice@example.com", want: alice},
		{name: "by username", principal: "alice", want: alice},
		{name: "other user by email", principal: "bob@example.com", want: bob},
		{name: "trimmed", principal: "  alice ", want: alice},
		{name: "blank", principal: "   ", kind: apperr.ErrValidation},
		{name: "anonymous", principal: "anonymousUser", kind: apperr.ErrValidation},
		{name: "unknown", principal: "carol", kind: apperr.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveUser(context.Background(), store.Users(), tt.principal)
			if tt.kind != nil {
				if !errors.Is(err, tt.kind) {
					t.Fatalf("error = %v, want %v", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.want.ID {
				t.Errorf("resolved %s, want %s", got.Username, tt.want.Username)
			}
		})
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com")
	other := store.addUser("bob", "bob@example.com")

	first := store.addReceipt(alice.ID, nil, "2024-01-01", "Food", "1")
	second := store.addReceipt(alice.ID, nil, "2023-01-01", "Food", "2")
	store.addReceipt(other.ID, nil, "2024-01-01", "Food", "3")
	// same creation time as second, higher id
	third := store.addReceipt(alice.ID, nil, "", "Food", "4")
	store.st.receipts[third.ID].CreatedAt = second.CreatedAt

	svc := NewReceiptService(store, zap.NewNop())
	got, err := svc.ListByUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}

	want := []int64{third.ID, second.ID, first.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d receipts, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ReceiptID != id {
			t.Errorf("position %d: id %d, want %d", i, got[i].ReceiptID, id)
		}
	}
}

func TestGetByID(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com")
	store.addUser("bob", "bob@example.com")
	r := store.addReceipt(alice.ID, nil, "2024-02-10", "Food", "12.34")

	svc := NewReceiptService(store, zap.NewNop())

	got, err := svc.GetByID(context.Background(), r.ID, "alice")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ReceiptID != r.ID || *got.ReceiptDate != "2024-02-10" {
		t.Errorf("unexpected receipt %+v", got)
	}

	_, err = svc.GetByID(context.Background(), r.ID, "bob")
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Message(err, "") != "Receipt not found" {
		t.Errorf("foreign receipt: err = %v", err)
	}

	if _, err := svc.GetByID(context.Background(), 12345, "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing receipt: err = %v", err)
	}
}

func TestUpdateReviewStatus(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice", "alice@example.com")
	r := store.addReceipt(alice.ID, nil, "", "Food", "1")
	svc := NewReceiptService(store, zap.NewNop())

	if _, err := svc.UpdateReviewStatus(context.Background(), r.ID, nil, "alice"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("nil reviewed: err = %v", err)
	}

	reviewed := true
	got, err := svc.UpdateReviewStatus(context.Background(), r.ID, &reviewed, "alice")
	if err != nil {
		t.Fatalf("UpdateReviewStatus: %v", err)
	}
	if !got.Reviewed || !store.st.receipts[r.ID].Reviewed {
		t.Error("receipt should be reviewed")
	}

	if _, err := svc.UpdateReviewStatus(context.Background(), 999, &reviewed, "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing receipt: err = %v", err)
	}
}

func TestUpdateDetails(t *testing.T) {
	newStore := func() (*fakeStore, *models.Receipt) {
		store := newFakeStore()
		alice := store.addUser("alice", "alice@example.com")
		r := store.addReceipt(alice.ID, nil, "2024-01-15", "Food", "20.00")
		stored := store.st.receipts[r.ID]
		stored.MerchantName = strPtr("Old Shop")
		stored.Items = []*models.ReceiptItem{
			{ID: 100, ReceiptID: r.ID, Description: strPtr("old item"), TotalPrice: money("20.00")},
		}
		return store, cloneReceipt(stored)
	}

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		store, r := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		got, err := svc.UpdateDetails(context.Background(), r.ID, &dto.UpdateReceiptRequest{
			Total:    money("21.499"),
			Currency: strPtr(" eur "),
		}, "alice")
		if err != nil {
			t.Fatalf("UpdateDetails: %v", err)
		}
		if got.Total.Decimal.String() != "21.5" {
			t.Errorf("total = %s", got.Total.Decimal)
		}
		if got.Currency != "EUR" {
			t.Errorf("currency = %s", got.Currency)
		}
		if got.MerchantName == nil || *got.MerchantName != "Old Shop" {
			t.Errorf("merchant changed: %v", got.MerchantName)
		}
		if *got.ReceiptDate != "2024-01-15" || got.Category != "Food" {
			t.Errorf("date/category changed: %v/%s", *got.ReceiptDate, got.Category)
		}
		if len(store.st.receipts[r.ID].Items) != 1 {
			t.Error("items should be untouched when absent")
		}
	})

	t.Run("items replaced", func(t *testing.T) {
		store, r := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		got, err := svc.UpdateDetails(context.Background(), r.ID, &dto.UpdateReceiptRequest{
			ReceiptDate: strPtr("2024-02-01"),
			Category:    strPtr("travel"),
			Items: []*dto.UpdateReceiptItemRequest{
				{Description: strPtr(" Taxi "), Quantity: money("1.23456"), TotalPrice: money("15")},
				nil,
				{Description: strPtr("Tip"), TotalPrice: money("3")},
			},
		}, "alice")
		if err != nil {
			t.Fatalf("UpdateDetails: %v", err)
		}
		if *got.ReceiptDate != "2024-02-01" || got.Category != "Travel" {
			t.Errorf("date/category = %s/%s", *got.ReceiptDate, got.Category)
		}
		items := store.st.receipts[r.ID].Items
		if len(items) != 2 {
			t.Fatalf("items = %d, want 2", len(items))
		}
		if *items[0].Description != "Taxi" || items[0].Quantity.Decimal.String() != "1.235" {
			t.Errorf("first item = %+v", items[0])
		}
		for _, item := range items {
			if item.ID == 100 {
				t.Error("old item survived replacement")
			}
		}
	})

	t.Run("empty items clears", func(t *testing.T) {
		store, r := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		got, err := svc.UpdateDetails(context.Background(), r.ID, &dto.UpdateReceiptRequest{
			Items: []*dto.UpdateReceiptItemRequest{},
		}, "alice")
		if err != nil {
			t.Fatalf("UpdateDetails: %v", err)
		}
		if len(got.Items) != 0 || len(store.st.receipts[r.ID].Items) != 0 {
			t.Error("items should be cleared")
		}
	})

	t.Run("blank merchant clears it", func(t *testing.T) {
		store, r := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		got, err := svc.UpdateDetails(context.Background(), r.ID, &dto.UpdateReceiptRequest{
			MerchantName: strPtr("   "),
		}, "alice")
		if err != nil {
			t.Fatalf("UpdateDetails: %v", err)
		}
		if got.MerchantName != nil {
			t.Errorf("merchant = %q", *got.MerchantName)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		store, r := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		_, err := svc.UpdateDetails(context.Background(), r.ID, &dto.UpdateReceiptRequest{
			ReceiptDate: strPtr("15/01/2024"),
			Total:       money("1"),
		}, "alice")
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v", err)
		}
		if apperr.Message(err, "") != "receiptDate must be in YYYY-MM-DD format" {
			t.Errorf("message = %q", apperr.Message(err, ""))
		}
		if !store.st.receipts[r.ID].Total.Decimal.Equal(decimal.RequireFromString("20")) {
			t.Error("receipt changed despite validation error")
		}
	})

	t.Run("missing receipt", func(t *testing.T) {
		store, _ := newStore()
		svc := NewReceiptService(store, zap.NewNop())

		_, err := svc.UpdateDetails(context.Background(), 4242, &dto.UpdateReceiptRequest{}, "alice")
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}
