package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Process applies one gateway event. The returned Result says what
	// happened; a non-nil error means infrastructure trouble and the gateway
	// should redeliver.
	Process(ctx context.Context, event Event) (Result, error)
}

type Repository interface {
	// InsertEvent records the delivery. The duplicate return is true when the
	// (gateway, event_id) pair was already recorded.
	InsertEvent(ctx context.Context, db *gorm.DB, record *EventRecord) (duplicate bool, err error)
	FindEvent(ctx context.Context, db *gorm.DB, gateway, eventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
