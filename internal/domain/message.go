package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one encrypted payload addressed to one device. A logical
// message (client-assigned LogicalMsgID) fans out to one row per
// recipient device; the per-row ciphertext differs because each device
// has its own session.
type Message struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LogicalMsgID string     `gorm:"type:text;not null;index" json:"logicalMsgId"`
	ChatID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"chatId"`
	FromUserID   uuid.UUID  `gorm:"type:uuid;not null" json:"fromUserId"`
	FromDeviceID uuid.UUID  `gorm:"type:uuid;not null" json:"fromDeviceId"`
	ToUserID     uuid.UUID  `gorm:"type:uuid;not null" json:"toUserId"`
	ToDeviceID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_to_device_created,priority:1" json:"toDeviceId"`
	Header       JSON       `gorm:"type:jsonb;not null" json:"header"`
	Ciphertext   string     `gorm:"type:text;not null" json:"ciphertext"`
	DeliveredAt  *time.Time `json:"deliveredAt"`
	ReadAt       *time.Time `json:"readAt"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime;index:idx_messages_to_device_created,priority:2" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
