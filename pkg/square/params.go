package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentLinkCreateParams contains the inputs for a hosted checkout link.
// The cart total is charged as a single quick-pay line; itemization lives
// on our side of the ledger.
type PaymentLinkCreateParams struct {
	LocationID     string
	Name           string
	AmountCents    int64
	Currency       string
	ReferenceID    string
	RedirectURL    string
	Note           string
	IdempotencyKey string
}

func (p PaymentLinkCreateParams) toSquareRequest(idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		QuickPay: &sq.QuickPay{
			Name:       p.Name,
			LocationID: p.LocationID,
		},
	}
	if p.AmountCents > 0 {
		req.QuickPay.PriceMoney = moneyValue(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		req.CheckoutOptions = &sq.CheckoutOptions{RedirectURL: ptrString(trimmed)}
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Description = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.PaymentNote = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyValue(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
