package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
)

// plaidPageSize is the largest page TransactionsGet accepts.
const plaidPageSize = int32(500)

// PlaidConfig holds Plaid API credentials.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c PlaidConfig) Validate() error {
	if c.ClientID == "" {
		return common.Validationf("plaid client ID is required")
	}
	if c.Secret == "" {
		return common.Validationf("plaid secret is required")
	}
	if c.AccessToken == "" {
		return common.Validationf("plaid access token is required")
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	case "":
		return common.Validationf("plaid environment is required")
	default:
		return common.Validationf("invalid Plaid environment %q: must be sandbox or production", c.Environment)
	}
}

// plaidTxn is the part of a Plaid transaction the ledger reads.
type plaidTxn struct {
	ID       string
	Date     string
	Name     string
	Merchant string
	Channel  string
	Amount   float64
	Pending  bool
}

// pageFetcher returns one page of transactions starting at offset along
// with the total available.
type pageFetcher func(ctx context.Context, offset int32) ([]plaidTxn, int32, error)

// PlaidSource fetches posted transactions in a date range from Plaid.
type PlaidSource struct {
	start     time.Time
	end       time.Time
	fetchPage pageFetcher
	logger    *slog.Logger
	retry     common.RetryOptions
}

// NewPlaidSource creates a source for the transactions between start and
// end inclusive.
func NewPlaidSource(cfg PlaidConfig, start, end time.Time) (*PlaidSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, common.Validationf("start date must be before end date")
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}
	client := plaid.NewAPIClient(configuration)

	src := newPlaidSource(start, end, nil)
	src.fetchPage = func(ctx context.Context, offset int32) ([]plaidTxn, int32, error) {
		request := plaid.NewTransactionsGetRequest(
			cfg.AccessToken,
			src.start.Format(model.DateLayout),
			src.end.Format(model.DateLayout),
		)
		request.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(plaidPageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, _, err := client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			return nil, 0, classifyPlaidError(err)
		}

		page := make([]plaidTxn, 0, len(resp.GetTransactions()))
		for _, pt := range resp.GetTransactions() {
			page = append(page, plaidTxn{
				ID:       pt.GetTransactionId(),
				Date:     pt.GetDate(),
				Name:     pt.GetName(),
				Merchant: pt.GetMerchantName(),
				Channel:  pt.GetPaymentChannel(),
				Amount:   pt.GetAmount(),
				Pending:  pt.GetPending(),
			})
		}
		return page, resp.GetTotalTransactions(), nil
	}
	return src, nil
}

func newPlaidSource(start, end time.Time, fetch pageFetcher) *PlaidSource {
	return &PlaidSource{
		start:     model.DateOf(start),
		end:       model.DateOf(end),
		fetchPage: fetch,
		logger:    slog.Default().With("component", "plaid"),
		retry:     common.DefaultRetryOptions(),
	}
}

// Name implements Source.
func (p *PlaidSource) Name() string {
	return "plaid"
}

// Fetch pages through every transaction in the range. Pending transactions
// are left out until they post.
func (p *PlaidSource) Fetch(ctx context.Context) ([]StatementLine, error) {
	p.logger.Info("Fetching transactions from Plaid",
		"start_date", p.start.Format(model.DateLayout),
		"end_date", p.end.Format(model.DateLayout))

	var all []plaidTxn
	offset := int32(0)
	for {
		var page []plaidTxn
		var total int32
		err := common.WithRetry(ctx, func() error {
			var err error
			page, total, err = p.fetchPage(ctx, offset)
			return err
		}, p.retry)
		if err != nil {
			return nil, common.CollaboratorErr("plaid transactions", err)
		}

		p.logger.Debug("Fetched transaction batch",
			"count", len(page),
			"offset", offset,
			"total", total)

		all = append(all, page...)
		if len(page) < int(plaidPageSize) || int32(len(all)) >= total {
			break
		}
		offset += int32(len(page))
	}

	lines := make([]StatementLine, 0, len(all))
	var pending int
	for _, pt := range all {
		if pt.Pending {
			pending++
			continue
		}
		line, err := convertPlaid(pt)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	p.logger.Info("Fetched all transactions", "count", len(lines), "pending", pending)
	return lines, nil
}

func convertPlaid(pt plaidTxn) (StatementLine, error) {
	date, err := model.ParseDate(pt.Date)
	if err != nil {
		return StatementLine{}, fmt.Errorf("plaid transaction %s: %w", pt.ID, err)
	}

	payee := pt.Merchant
	if payee == "" {
		payee = pt.Name
	}

	var kind Kind
	switch pt.Channel {
	case "online":
		kind = KindOnline
	case "in_store":
		kind = KindPOS
	default:
		kind = KindOther
	}

	// Plaid reports money out as a positive amount.
	return StatementLine{
		Ref:    "plaid:" + pt.ID,
		Date:   date,
		Amount: decimal.NewFromFloat(pt.Amount).Round(2),
		Payee:  cleanMerchantName(payee),
		Memo:   pt.Name,
		Kind:   kind,
	}, nil
}

// classifyPlaidError retries transport failures and rate limiting. Other
// Plaid API errors fail immediately with Plaid's error code in the message.
func classifyPlaidError(err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrRateLimit, plaidErr.ErrorMessage),
			Retryable: true,
		}
	}
	return &common.RetryableError{
		Err:       errors.New("plaid API error: " + plaidErr.ErrorCode + " - " + plaidErr.ErrorMessage),
		Retryable: false,
	}
}

// cleanMerchantName title-cases a merchant name and strips trailing
// transaction ids and company suffixes.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := range runes {
			if j == 0 || !isASCIILetter(runes[j-1]) {
				runes[j] = toUpperASCII(runes[j])
			}
		}
		words[i] = string(runes)
	}

	if n := len(words); n > 1 && len(words[n-1]) > 5 && isAllDigits(words[n-1]) {
		words = words[:n-1]
	}
	name = strings.Join(words, " ")

	suffixes := []string{" Llc", " Inc", " Corp", " Corporation", " Company", " Co", " Ltd", " Limited"}
	for changed := true; changed; {
		changed = false
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}
	return strings.TrimSpace(name)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}
