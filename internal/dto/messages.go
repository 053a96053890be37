package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutgoingMessagePayload is the ciphertext for one recipient device.
type OutgoingMessagePayload struct {
	ToDeviceID uuid.UUID       `json:"to_device_id"`
	Header     json.RawMessage `json:"header"`
	Ciphertext string          `json:"ciphertext"`
}

// OutgoingMessage is one logical message fanned out over the recipient
// user's devices. LogicalMsgID is client-assigned and lets clients
// dedup retried sends.
type OutgoingMessage struct {
	ChatID       uuid.UUID                `json:"chat_id"`
	LogicalMsgID string                   `json:"logical_msg_id"`
	ToUserID     uuid.UUID                `json:"to_user_id"`
	Payloads     []OutgoingMessagePayload `json:"payloads"`
}

type MessageView struct {
	ID           uuid.UUID       `json:"id"`
	LogicalMsgID string          `json:"logical_msg_id"`
	ChatID       uuid.UUID       `json:"chat_id"`
	FromUserID   uuid.UUID       `json:"from_user_id"`
	FromDeviceID uuid.UUID       `json:"from_device_id"`
	Header       json.RawMessage `json:"header"`
	Ciphertext   string          `json:"ciphertext"`
	CreatedAt    time.Time       `json:"created_at"`
}
