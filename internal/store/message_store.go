package store

import (
	"context"
	"time"

	"hushnet/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{db: s.DB} }

func (m *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return m.db.WithContext(ctx).Create(msg).Error
}

func (m *MessageStore) PendingForDevice(ctx context.Context, deviceID uuid.UUID) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := m.db.WithContext(ctx).
		Where("to_device_id = ? AND delivered_at IS NULL", deviceID).
		Order("created_at asc").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkDeliveredForDevice stamps every undelivered row addressed to the
// device. Paired with PendingForDevice this is the read-implies-
// acknowledge contract: there is no separate ack step.
func (m *MessageStore) MarkDeliveredForDevice(ctx context.Context, deviceID uuid.UUID, at time.Time) error {
	return m.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("to_device_id = ? AND delivered_at IS NULL", deviceID).
		Update("delivered_at", at).Error
}
