// Package importer turns bank and card statements into ledger expenses.
//
// A Source yields StatementLines in its own terms (OFX files, Plaid
// transactions). ToExpenses then keeps the money that left the account and
// files it under a single target category chosen by the caller.
package importer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Kind classifies a statement line the way the bank reported it.
type Kind string

const (
	KindDebit    Kind = "debit"
	KindCredit   Kind = "credit"
	KindPOS      Kind = "pos"
	KindOnline   Kind = "online"
	KindATM      Kind = "atm"
	KindCheck    Kind = "check"
	KindTransfer Kind = "transfer"
	KindPayment  Kind = "payment"
	KindFee      Kind = "fee"
	KindOther    Kind = "other"
)

// StatementLine is one transaction as reported by a statement source.
type StatementLine struct {
	Date time.Time
	// Amount is positive for money leaving the account.
	Amount decimal.Decimal
	// Ref is unique per source and stable across fetches.
	Ref   string
	Payee string
	Memo  string
	Kind  Kind
	// Card is set for lines from a credit card account.
	Card bool
}

// Source produces statement lines.
type Source interface {
	Fetch(ctx context.Context) ([]StatementLine, error)
	Name() string
}

// Mapping says where imported expenses are filed.
type Mapping struct {
	SubcategoryID *int64
	// PaymentMethod overrides the method inferred from each line when set.
	PaymentMethod model.PaymentMethod
	CategoryID    int64
	IsFixed       bool
}

// Validate checks the mapping before any line is converted.
func (m Mapping) Validate() error {
	if m.CategoryID <= 0 {
		return common.Validationf("import requires a target category")
	}
	if m.PaymentMethod != "" && !m.PaymentMethod.Valid() {
		return common.Validationf("unknown payment method %q", string(m.PaymentMethod))
	}
	return nil
}

// ToExpenses converts the outflows in lines into expenses under m. Inflows
// and zero-amount lines are dropped and counted in skipped.
func ToExpenses(lines []StatementLine, m Mapping) (expenses []model.NewExpense, skipped int, err error) {
	if err := m.Validate(); err != nil {
		return nil, 0, err
	}

	expenses = make([]model.NewExpense, 0, len(lines))
	for _, line := range lines {
		if !line.Amount.IsPositive() {
			skipped++
			continue
		}

		method := m.PaymentMethod
		if method == "" {
			method = paymentMethodFor(line)
		}

		exp := model.NewExpense{
			Date:          model.DateOf(line.Date),
			CategoryID:    m.CategoryID,
			SubcategoryID: m.SubcategoryID,
			Amount:        line.Amount,
			Description:   describe(line),
			PaymentMethod: method,
			SourceRef:     line.Ref,
			IsFixed:       m.IsFixed,
		}
		if err := exp.Validate(); err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, exp)
	}
	return expenses, skipped, nil
}

func paymentMethodFor(line StatementLine) model.PaymentMethod {
	if line.Card {
		return model.PaymentCreditCard
	}
	switch line.Kind {
	case KindATM:
		return model.PaymentCash
	case KindPOS, KindDebit, KindOnline:
		return model.PaymentDebitCard
	case KindCheck, KindTransfer, KindPayment:
		return model.PaymentBankTransfer
	default:
		return model.PaymentOther
	}
}

func describe(line StatementLine) string {
	desc := strings.TrimSpace(line.Payee)
	if desc == "" {
		desc = strings.TrimSpace(line.Memo)
	}
	if utf8.RuneCountInString(desc) <= model.MaxDescriptionLength {
		return desc
	}
	runes := []rune(desc)
	return strings.TrimSpace(string(runes[:model.MaxDescriptionLength]))
}
