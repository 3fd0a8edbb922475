package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mgiraldodev/templaria-backend/pkg/config"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
	"github.com/mgiraldodev/templaria-backend/pkg/logger"
)

// Message is a rendered transactional email ready to send.
type Message struct {
	ToEmail  string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender is the transport surface the mailer depends on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)

// Client sends transactional mail through SendGrid.
type Client struct {
	send     sendFunc
	fromAddr string
	fromName string
	logg     *logger.Logger
}

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid from email is required")
)

// NewClient validates the SendGrid configuration and builds the mail client.
func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errFromRequired
	}

	sg := sendgrid.NewSendClient(apiKey)
	return &Client{
		send: func(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
			return sg.SendWithContext(ctx, email)
		},
		fromAddr: cfg.DefaultFrom,
		fromName: cfg.FromName,
		logg:     logg,
	}, nil
}

// Send delivers the message, mapping provider failures to dependency errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil || c.send == nil {
		return errors.New("mail client not initialized")
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	from := sgmail.NewEmail(c.fromName, c.fromAddr)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	text := msg.TextBody
	if text == "" {
		text = msg.Subject
	}
	email := sgmail.NewSingleEmail(from, msg.Subject, to, text, msg.HTMLBody)

	resp, err := c.send(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}
	if resp != nil && resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}

	if c.logg != nil {
		fields := map[string]any{"subject": msg.Subject}
		c.logg.Info(c.logg.WithFields(ctx, fields), "email sent")
	}
	return nil
}
