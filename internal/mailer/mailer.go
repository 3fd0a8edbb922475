package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mgiraldodev/templaria-backend/internal/downloads"
	"github.com/mgiraldodev/templaria-backend/pkg/db/models"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
	"github.com/mgiraldodev/templaria-backend/pkg/mail"
)

// Mailer renders and sends the store's transactional emails.
type Mailer struct {
	sender    mail.Sender
	storeName string
	logg      *logger.Logger
}

// New builds the mailer on top of the shared mail transport.
func New(sender mail.Sender, storeName string, logg *logger.Logger) (*Mailer, error) {
	if sender == nil {
		return nil, errors.New("mailer: sender is required")
	}
	if storeName == "" {
		storeName = "Templaria"
	}
	return &Mailer{sender: sender, storeName: storeName, logg: logg}, nil
}

// SendReceipt delivers the purchase receipt with the download links for
// every purchased template. Links carry the clear tokens, so this is the
// only place they ever leave the system.
func (m *Mailer) SendReceipt(ctx context.Context, order *models.Order, links []downloads.IssuedLink) error {
	if order == nil {
		return errors.New("mailer: order is required")
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Thanks for your purchase! Order #%d\n\n", order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&text, "- %s  %s\n", item.Title, formatCents(item.TotalCents, order.Currency))
	}
	fmt.Fprintf(&text, "\nSubtotal: %s\n", formatCents(order.SubtotalCents, order.Currency))
	if order.DiscountCents > 0 {
		fmt.Fprintf(&text, "Discounts: -%s\n", formatCents(order.DiscountCents, order.Currency))
	}
	if order.TaxCents > 0 {
		fmt.Fprintf(&text, "Tax: %s\n", formatCents(order.TaxCents, order.Currency))
	}
	fmt.Fprintf(&text, "Total: %s\n", formatCents(order.TotalCents, order.Currency))

	if len(links) > 0 {
		text.WriteString("\nYour downloads:\n")
		for _, link := range links {
			fmt.Fprintf(&text, "- %s: %s (valid until %s)\n",
				link.Title, link.URL, link.ExpiresAt.Format("Jan 2, 2006"))
		}
	}

	msg := mail.Message{
		ToEmail:  order.CustomerEmail,
		Subject:  fmt.Sprintf("%s receipt for order #%d", m.storeName, order.OrderNumber),
		TextBody: text.String(),
	}
	return m.sender.Send(ctx, msg)
}

// SendPaymentFailed tells the buyer the charge did not go through and
// that the cart can be checked out again.
func (m *Mailer) SendPaymentFailed(ctx context.Context, order *models.Order, reason string) error {
	if order == nil {
		return errors.New("mailer: order is required")
	}

	var text strings.Builder
	fmt.Fprintf(&text, "The payment for order #%d did not go through", order.OrderNumber)
	if reason != "" {
		fmt.Fprintf(&text, " (%s)", reason)
	}
	text.WriteString(".\n\nNo charge was made. You can return to the store and try checking out again.\n")

	msg := mail.Message{
		ToEmail:  order.CustomerEmail,
		Subject:  fmt.Sprintf("%s payment issue on order #%d", m.storeName, order.OrderNumber),
		TextBody: text.String(),
	}
	return m.sender.Send(ctx, msg)
}

func formatCents(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}
