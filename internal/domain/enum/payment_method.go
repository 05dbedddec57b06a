package enum

import "strings"

// PaymentMethod is how a sale was settled
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// AllPaymentMethods lists every method the system knows about, enabled or not.
var AllPaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentMobile}

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether p is a known payment method
func (p PaymentMethod) IsValid() bool {
	for _, m := range AllPaymentMethods {
		if m == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod normalizes raw input. Unknown values return false.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	p := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.IsValid()
}

// PaymentMethodSet is the subset of methods the checkout accepts.
type PaymentMethodSet map[PaymentMethod]struct{}

// NewPaymentMethodSet builds the enabled set from configuration values.
// Unknown names are ignored; an empty result falls back to cash only.
func NewPaymentMethodSet(names []string) PaymentMethodSet {
	set := make(PaymentMethodSet)
	for _, n := range names {
		if p, ok := ParsePaymentMethod(n); ok {
			set[p] = struct{}{}
		}
	}
	if len(set) == 0 {
		set[PaymentCash] = struct{}{}
	}
	return set
}

func (s PaymentMethodSet) Enabled(p PaymentMethod) bool {
	_, ok := s[p]
	return ok
}

// List returns the enabled methods in declaration order.
func (s PaymentMethodSet) List() []PaymentMethod {
	out := make([]PaymentMethod, 0, len(s))
	for _, m := range AllPaymentMethods {
		if s.Enabled(m) {
			out = append(out, m)
		}
	}
	return out
}
