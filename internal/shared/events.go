package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Op names the mutation that changed a collection.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeEvent announces that a collection was mutated and persisted.
type ChangeEvent struct {
	ID         uuid.UUID
	Collection string
	Op         Op
	EntityID   int64
	At         time.Time
}

// NewChangeEvent stamps a fresh event.
func NewChangeEvent(collection string, op Op, entityID int64) ChangeEvent {
	return ChangeEvent{
		ID:         uuid.New(),
		Collection: collection,
		Op:         op,
		EntityID:   entityID,
		At:         time.Now().UTC(),
	}
}

// Listener receives change events after the write succeeded.
type Listener func(ctx context.Context, event ChangeEvent)

// Notify calls every non-nil listener in order.
func Notify(ctx context.Context, listeners []Listener, event ChangeEvent) {
	for _, l := range listeners {
		if l != nil {
			l(ctx, event)
		}
	}
}
