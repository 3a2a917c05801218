// Package events publishes domain events to Kafka. Publishing is fire-and-forget:
// callers log failures and carry on, the database stays the source of truth.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	OrderCreated           = "order_created"
	ManualPaymentSubmitted = "manual_payment_submitted"
	ManualPaymentReviewed  = "manual_payment_reviewed"
	CODCollected           = "cod_collected"
	VendorSignedUp         = "vendor_signed_up"
	VendorApproved         = "vendor_approved"
)

type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func New(typ, key string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Key: key, OccurredAt: time.Now().UTC(), Payload: raw}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}
