package enum

import "testing"

func TestPaymentMethodSetDefaultsToCash(t *testing.T) {
	set := NewPaymentMethodSet([]string{"bitcoin", ""})
	if !set.Enabled(PaymentCash) || set.Enabled(PaymentCard) {
		t.Fatalf("expected cash-only set, got %v", set.List())
	}
}

func TestPaymentMethodSetOrder(t *testing.T) {
	set := NewPaymentMethodSet([]string{"MOBILE", " cash "})
	got := set.List()
	if len(got) != 2 || got[0] != PaymentCash || got[1] != PaymentMobile {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if _, ok := ParsePaymentMethod("cheque"); ok {
		t.Fatal("cheque should not parse")
	}
	if p, ok := ParsePaymentMethod("Card"); !ok || p != PaymentCard {
		t.Fatalf("expected card, got %q %v", p, ok)
	}
}
