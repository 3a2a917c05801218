package service

import (
	"context"
	"strconv"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// publish never fails the caller: the database change is already committed.
func publish(ctx context.Context, p events.Publisher, typ, key string, payload any) {
	if p == nil {
		return
	}
	l := logging.FromContext(ctx).With("event", typ)
	e, err := events.New(typ, key, payload)
	if err != nil {
		l.Error("publish_event_error", "reason", "cannot encode payload", "error", err)
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		l.Warn("publish_event_error", "reason", "broker rejected event", "error", err)
	}
}

func key(prefix string, id uint) string {
	return prefix + "-" + strconv.FormatUint(uint64(id), 10)
}
