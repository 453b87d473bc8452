// Package service holds the business rules of each feature slice.  Handlers
// parse HTTP input and call a service; services validate, enforce
// ownership, talk to their store and publish activity events.  Stores are
// interfaces so the rules can be tested without a database.
package service

import (
	"context"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/queue"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the actor holds the administrative override.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// owns reports whether the actor may act on a resource owned by ownerID.
func (a Actor) owns(ownerID uint64) bool {
	return a.UserID == ownerID || a.IsAdmin()
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// publish sends ev when a publisher is configured.  Failures are logged
// and never surface to the caller: the mutation has already been stored.
func publish(ctx context.Context, p EventPublisher, ev queue.Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = queue.Now()
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warnf("publish %s for entity %d failed: %v", ev.Type, ev.EntityID, err)
	}
}
