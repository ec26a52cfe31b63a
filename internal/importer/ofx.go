package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket in SGML-style files.
	unclosedTagPattern = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

var cardPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// OFXFile reads an OFX or QFX statement from disk.
type OFXFile struct {
	Path string
}

// Name implements Source.
func (f OFXFile) Name() string {
	return "ofx"
}

// Fetch implements Source.
func (f OFXFile) Fetch(ctx context.Context) ([]StatementLine, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open statement: %w", common.ErrValidation, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Warn("Failed to close statement file", "path", f.Path, "error", cerr)
		}
	}()
	return ParseOFX(ctx, file)
}

// ParseOFX reads every bank and credit card statement in an OFX document.
func ParseOFX(ctx context.Context, r io.Reader) ([]StatementLine, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse OFX file: %w", common.ErrValidation, err)
	}

	var lines []StatementLine
	var bankStmts, cardStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		account := string(stmt.BankAcctFrom.AcctID)
		for _, tx := range stmt.BankTranList.Transactions {
			line, err := convertOFX(tx, account, false)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		cardStmts++
		account := string(stmt.CCAcctFrom.AcctID)
		for _, tx := range stmt.BankTranList.Transactions {
			line, err := convertOFX(tx, account, true)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}

	slog.Info("Parsed OFX file",
		"lines", len(lines),
		"bank_statements", bankStmts,
		"cc_statements", cardStmts)

	return lines, nil
}

// preprocessOFX fixes common formatting issues in bank-generated files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagPattern.ReplaceAllString(content, "$1>")
}

func convertOFX(tx ofxgo.Transaction, account string, card bool) (StatementLine, error) {
	// OFX reports money out as a negative amount.
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(4))
	if err != nil {
		return StatementLine{}, fmt.Errorf("%w: invalid amount for %s: %w", common.ErrValidation, tx.FiTID, err)
	}

	return StatementLine{
		Ref:    "ofx:" + account + ":" + string(tx.FiTID),
		Date:   tx.DtPosted.Time,
		Amount: amount.Neg(),
		Payee:  payeeName(tx),
		Memo:   strings.TrimSpace(string(tx.Memo)),
		Kind:   ofxKind(tx.TrnType.String()),
		Card:   card,
	}, nil
}

func ofxKind(trnType string) Kind {
	switch trnType {
	case "DEBIT":
		return KindDebit
	case "POS":
		return KindPOS
	case "ATM", "CASH":
		return KindATM
	case "CHECK":
		return KindCheck
	case "XFER":
		return KindTransfer
	case "PAYMENT", "DIRECTDEBIT", "REPEATPMT":
		return KindPayment
	case "FEE", "SRVCHG":
		return KindFee
	case "CREDIT", "DEP", "DIRECTDEP", "INT", "DIV":
		return KindCredit
	default:
		return KindOther
	}
}

// payeeName picks the cleanest merchant name the statement offers.
func payeeName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	upper := strings.ToUpper(name)
	for _, prefix := range cardPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}
