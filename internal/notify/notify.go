// Package notify implements the store-backed notification emitter.
// Delivery is best-effort: recording happens in the background with its own
// deadline, and failures are logged but never surfaced to the operation
// that triggered the notification.
package notify

import (
	"context"
	"time"

	"rewear/internal/models"
	"rewear/internal/pkg/logger"
	"rewear/internal/storage"
)

const deliveryTimeout = 5 * time.Second

// Emitter writes notifications to the store.
type Emitter struct {
	db  storage.Storage
	log *logger.Logger
}

// NewEmitter creates an Emitter on top of the given store.
func NewEmitter(db storage.Storage, l *logger.Logger) *Emitter {
	return &Emitter{db: db, log: l}
}

// Notify records a notification without blocking the caller. The write uses
// a detached context so it is not cancelled with the triggering request.
func (e *Emitter) Notify(n models.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := e.db.CreateNotification(ctx, &n); err != nil {
			e.log.Sugar().Errorf("Failed to record notification for user %d: %s", n.RecipientID, err)
		}
	}()
}
