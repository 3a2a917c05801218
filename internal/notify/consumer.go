package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AdminDirectory lists the addresses that receive administrator mail.
type AdminDirectory interface {
	ListAdminEmails(ctx context.Context) ([]string, error)
}

type Consumer struct {
	reader   messageReader
	notifier Notifier
	admins   AdminDirectory
	// fallback receives administrator mail when the directory is empty.
	fallback string
}

func NewConsumer(brokers []string, topic, groupID string, n Notifier, admins AdminDirectory, fallback string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, notifier: n, admins: admins, fallback: fallback}
}

// Run reads until ctx is cancelled. A message that cannot be handled is logged
// and committed; nothing is retried.
func (c *Consumer) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("component", "notify")
	l.Info("notify_consumer_started")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				l.Info("notify_consumer_stopped")
				return nil
			}
			l.Error("notify_read_error", "error", err)
			return err
		}

		if err := c.handleMessage(ctx, m); err != nil {
			l.Warn("notify_handle_error", "offset", m.Offset, "partition", m.Partition, "error", err)
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			l.Error("notify_commit_error", "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) error {
	var e events.Event
	if err := json.Unmarshal(m.Value, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	msg, ok, err := c.render(ctx, e)
	if err != nil || !ok {
		return err
	}
	if len(msg.To) == 0 {
		logging.FromContext(ctx).Warn("notify_skipped", "event", e.Type, "reason", "no recipients")
		return nil
	}
	return c.notifier.Send(ctx, msg)
}

type userPayload struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type manualPaymentPayload struct {
	ManualPaymentID uint   `json:"manual_payment_id"`
	OrderID         uint   `json:"order_id"`
	AmountMWK       int64  `json:"amount_mwk"`
	ReferenceCode   string `json:"reference_code"`
}

// render builds the mail for an event. ok is false for events nobody is mailed about.
func (c *Consumer) render(ctx context.Context, e events.Event) (Message, bool, error) {
	switch e.Type {
	case events.VendorSignedUp:
		var p userPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return Message{}, false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		to, err := c.adminRecipients(ctx)
		if err != nil {
			return Message{}, false, err
		}
		name := p.DisplayName
		if name == "" {
			name = p.Username
		}
		return Message{
			To:      to,
			Subject: "New vendor awaiting approval",
			Body:    fmt.Sprintf("%s (%s, user #%d) signed up as a vendor and is waiting for approval.", name, p.Email, p.UserID),
		}, true, nil

	case events.VendorApproved:
		var p userPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return Message{}, false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		var to []string
		if p.Email != "" {
			to = []string{p.Email}
		}
		return Message{
			To:      to,
			Subject: "Your vendor account is approved",
			Body:    fmt.Sprintf("Hello %s, your vendor account has been approved. You can now list products.", p.Username),
		}, true, nil

	case events.ManualPaymentSubmitted:
		var p manualPaymentPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return Message{}, false, fmt.Errorf("decode %s: %w", e.Type, err)
		}
		to, err := c.adminRecipients(ctx)
		if err != nil {
			return Message{}, false, err
		}
		return Message{
			To:      to,
			Subject: fmt.Sprintf("Manual payment for order #%d needs review", p.OrderID),
			Body: fmt.Sprintf("Manual payment #%d of %d MWK (reference %s) was submitted for order #%d.",
				p.ManualPaymentID, p.AmountMWK, p.ReferenceCode, p.OrderID),
		}, true, nil
	}
	return Message{}, false, nil
}

func (c *Consumer) adminRecipients(ctx context.Context) ([]string, error) {
	var to []string
	if c.admins != nil {
		emails, err := c.admins.ListAdminEmails(ctx)
		if err != nil {
			return nil, fmt.Errorf("list admin emails: %w", err)
		}
		to = emails
	}
	if len(to) == 0 && c.fallback != "" {
		to = []string{c.fallback}
	}
	return to, nil
}
