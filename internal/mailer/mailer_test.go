package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/mail"
)

type stubSender struct {
	sent []mail.Message
}

func (s *stubSender) Send(_ context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func receiptOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   1001,
		CustomerEmail: "buyer@example.com",
		Currency:      "USD",
		SubtotalCents: 10000,
		DiscountCents: 6500,
		TaxCents:      0,
		TotalCents:    3500,
		Items: []models.OrderLineItem{
			{Title: "Landing Kit", TotalCents: 2100},
			{Title: "Email Pack", TotalCents: 1400},
		},
	}
}

func TestSendReceiptIncludesLinksAndTotals(t *testing.T) {
	sender := &stubSender{}
	m, err := New(sender, "Templaria", nil)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	links := []downloads.IssuedLink{
		{
			Title:     "Landing Kit",
			URL:       "https://shop.example.com/downloads/abc?token=xyz",
			ExpiresAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	if err := m.SendReceipt(context.Background(), receiptOrder(), links); err != nil {
		t.Fatalf("send receipt: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ToEmail != "buyer@example.com" {
		t.Fatalf("recipient = %s", msg.ToEmail)
	}
	if !strings.Contains(msg.Subject, "order #1001") {
		t.Fatalf("subject = %s", msg.Subject)
	}
	for _, want := range []string{
		"USD 35.00",
		"Discounts: -USD 65.00",
		"https://shop.example.com/downloads/abc?token=xyz",
		"Landing Kit",
	} {
		if !strings.Contains(msg.TextBody, want) {
			t.Fatalf("receipt body missing %q:\n%s", want, msg.TextBody)
		}
	}
}

func TestSendPaymentFailedMentionsReason(t *testing.T) {
	sender := &stubSender{}
	m, err := New(sender, "Templaria", nil)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	if err := m.SendPaymentFailed(context.Background(), receiptOrder(), "card declined"); err != nil {
		t.Fatalf("send payment failed: %v", err)
	}
	msg := sender.sent[0]
	if !strings.Contains(msg.TextBody, "card declined") {
		t.Fatalf("body missing reason:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "No charge was made") {
		t.Fatalf("body missing reassurance:\n%s", msg.TextBody)
	}
}
