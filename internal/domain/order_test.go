package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCreditCard, PaymentApplePay, PaymentCash} {
		if !m.Valid() {
			t.Fatalf("expected %s valid", m)
		}
	}
	if PaymentMethod("BITCOIN").Valid() || PaymentMethod("").Valid() {
		t.Fatalf("expected unknown methods invalid")
	}
}

func TestLineSubtotal(t *testing.T) {
	got := LineSubtotal(decimal.RequireFromString("0.1"), 3)
	if !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected 0.3, got %s", got)
	}
}

func TestImportLeavesDecimalJSONSettingAlone(t *testing.T) {
	if decimal.MarshalJSONWithoutQuotes {
		t.Fatalf("expected domain to leave decimal.MarshalJSONWithoutQuotes unset")
	}
	raw, err := json.Marshal(Order{Total: decimal.RequireFromString("12.50")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"total":"12.5"`) {
		t.Fatalf("expected library default encoding, got %s", raw)
	}
}

func TestCreateOrderRequestAcceptsNumbersAndStrings(t *testing.T) {
	var req CreateOrderRequest
	body := `{"items":[{"productId":"p1","quantity":2,"price":"3.50"}],"subtotal":7,"total":7.0,"paymentMethod":"CASH"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Items[0].Price.Equal(decimal.RequireFromString("3.5")) || !req.Total.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected amounts %+v", req)
	}
	if req.Items[0].Notes != "" {
		t.Fatalf("expected empty notes, got %q", req.Items[0].Notes)
	}
}

func TestProductDisplayName(t *testing.T) {
	if got := (Product{Name: "Congee", NameZh: "粥"}).DisplayName(); got != "粥" {
		t.Fatalf("expected localized name, got %q", got)
	}
	if got := (Product{Name: "Congee"}).DisplayName(); got != "Congee" {
		t.Fatalf("expected base name, got %q", got)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(NewValidationError("bad")) {
		t.Fatalf("expected validation error detected")
	}
	if IsValidation(ErrNotFound) {
		t.Fatalf("expected ErrNotFound not to be a validation error")
	}
}
