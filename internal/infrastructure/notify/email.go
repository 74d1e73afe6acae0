// Package notify delivers order notifications to customers.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/documents/order"
)

// Config configures the mail relay client.
type Config struct {
	BaseURL string
	Token   string
	From    string
	Timeout time.Duration
}

// MailRequest is the payload accepted by the relay's /messages endpoint.
type MailRequest struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type relayError struct {
	Message string `json:"message"`
}

// EmailNotifier sends the sale confirmation mail through an HTTP mail relay.
type EmailNotifier struct {
	httpClient *resty.Client
	from       string
}

var _ order.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier builds a resty-backed relay client.
func NewEmailNotifier(cfg Config) *EmailNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &EmailNotifier{httpClient: client, from: cfg.From}
}

// SaleOrderCreated mails the customer a summary of the new order.
// Customers without an email address are skipped.
func (n *EmailNotifier) SaleOrderCreated(ctx context.Context, o *order.Order, customer *counterparty.Counterparty) error {
	if customer == nil || customer.Email == nil || *customer.Email == "" {
		return nil
	}

	req := MailRequest{
		From:    n.from,
		To:      *customer.Email,
		Subject: fmt.Sprintf("Order %s received", o.Code),
		Text:    saleSummary(o, customer),
		Tags:    map[string]string{"order_id": o.ID.String(), "order_code": o.Code},
	}

	apiErr := new(relayError)
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetError(apiErr).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("send order mail: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("mail relay error: status=%d, message=%s", resp.StatusCode(), apiErr.Message)
	}
	return nil
}

func saleSummary(o *order.Order, customer *counterparty.Counterparty) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nWe received your order %s.\n\n", customer.Name, o.Code)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d. %d %s x %s = %s\n", it.LineNo, it.Quantity, it.Unit, it.UnitPrice.StringFixed(2), it.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nPaid: %s\nOutstanding: %s\n",
		o.Total.StringFixed(2), o.Paid.StringFixed(2), o.Outstanding().StringFixed(2))
	return b.String()
}
