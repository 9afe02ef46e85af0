package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для создания черновика заказа с одной позицией.
func makeDraft() domain.OrderDraft {
	now := time.Now().UTC()
	return domain.OrderDraft{
		Items: []domain.LineItem{
			{
				ProductID:  "sticker-1",
				Name:       "Holographic Sticker",
				PriceMinor: 950,
				Qty:        2,
				StockLimit: 10,
				AddedAt:    now,
			},
		},
		TotalMinor:     1900,
		Customer:       domain.CustomerInfo{Email: "me@example.com", FirstName: "Ann", LastName: "Lee"},
		Timestamp:      now,
		IdempotencyKey: "key-1",
	}
}

func TestOrderDraftValidate_Ok(t *testing.T) {
	draft := makeDraft()
	if errs := draft.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderDraftValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(d *domain.OrderDraft)
	}{
		{
			name: "no items",
			mut: func(d *domain.OrderDraft) {
				d.Items = nil
				d.TotalMinor = 0
			},
		},
		{
			name: "negative total",
			mut: func(d *domain.OrderDraft) {
				d.TotalMinor = -1
			},
		},
		{
			name: "qty invalid",
			mut: func(d *domain.OrderDraft) {
				d.Items[0].Qty = 0
			},
		},
		{
			name: "qty above stock",
			mut: func(d *domain.OrderDraft) {
				d.Items[0].Qty = 11
			},
		},
		{
			name: "total mismatch",
			mut: func(d *domain.OrderDraft) {
				d.TotalMinor = 999
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := makeDraft()
			tc.mut(&draft)

			if len(draft.Validate()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestCheckoutPhase(t *testing.T) {
	if !domain.PhaseSettled.IsTerminal() {
		t.Fatal("settled must be terminal")
	}
	for _, p := range []domain.CheckoutPhase{domain.PhaseForm, domain.PhaseProcessing, domain.PhasePaymentChoice, domain.PhaseRedirecting, domain.PhaseConfirming} {
		if p.IsTerminal() {
			t.Fatalf("phase %s must not be terminal", p)
		}
	}
	if !domain.PhaseForm.Interactive() || !domain.PhasePaymentChoice.Interactive() {
		t.Fatal("form and payment_choice must be interactive")
	}
	if domain.PhaseProcessing.Interactive() {
		t.Fatal("processing must not be interactive")
	}
}
