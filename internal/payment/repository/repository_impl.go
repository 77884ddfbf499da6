package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/subforge/renewals/internal/payment/domain"
	"github.com/subforge/renewals/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, tx *gorm.DB, record *paymentdomain.EventRecord) (bool, error) {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, gateway, event_id, type, processed, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Gateway,
		record.EventID,
		record.Type,
		record.Processed,
		record.ReceivedAt,
		record.ProcessedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (r *repo) FindEvent(ctx context.Context, tx *gorm.DB, gateway, eventID string) (*paymentdomain.EventRecord, error) {
	var record paymentdomain.EventRecord
	err := tx.WithContext(ctx).Raw(
		`SELECT id, gateway, event_id, type, processed, received_at, processed_at
		 FROM payment_events
		 WHERE gateway = ? AND event_id = ?`,
		gateway,
		eventID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) MarkProcessed(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payment_events SET processed = TRUE, processed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	).Error
}
