package model

import (
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// PaymentMethod is the closed set of ways an expense can be paid.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// PaymentMethods lists every payment method in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentCash,
		PaymentCreditCard,
		PaymentDebitCard,
		PaymentBankTransfer,
		PaymentOther,
	}
}

// Valid reports whether p is one of the known payment methods.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentOther:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name used in tables and exports.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentCash:
		return "Cash"
	case PaymentCreditCard:
		return "Credit Card"
	case PaymentDebitCard:
		return "Debit Card"
	case PaymentBankTransfer:
		return "Bank Transfer"
	case PaymentOther:
		return "Other"
	default:
		return string(p)
	}
}

// ParsePaymentMethod accepts the stored form as well as labels such as
// "Credit Card" or "credit-card".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	p := PaymentMethod(key)
	if !p.Valid() {
		return "", common.Validationf("unknown payment method %q", s)
	}
	return p, nil
}
