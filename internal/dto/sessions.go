package dto

import (
	"time"

	"github.com/google/uuid"
)

// SessionInit is one handshake offer aimed at a single recipient
// device. Key material is base64; the relay never decodes it.
type SessionInit struct {
	RecipientDeviceID uuid.UUID `json:"recipient_device_id"`
	EphemeralPubkey   string    `json:"ephemeral_pubkey"`
	SenderPrekeyPub   string    `json:"sender_prekey_pub"`
	OtpkUsed          string    `json:"otpk_used"`
	Ciphertext        string    `json:"ciphertext"`
}

// CreateSessionRequest carries one offer per device of the recipient
// user, all produced by the same sender device.
type CreateSessionRequest struct {
	RecipientUserID uuid.UUID     `json:"recipient_user_id"`
	SessionsInit    []SessionInit `json:"sessions_init"`
}

type ConfirmSessionRequest struct {
	PendingSessionID uuid.UUID `json:"pending_session_id"`
	SenderDeviceID   uuid.UUID `json:"sender_device_id"`
	ReceiverDeviceID uuid.UUID `json:"receiver_device_id"`
}

type PendingSessionView struct {
	ID                uuid.UUID `json:"id"`
	SenderDeviceID    uuid.UUID `json:"sender_device_id"`
	RecipientDeviceID uuid.UUID `json:"recipient_device_id"`
	EphemeralPubkey   string    `json:"ephemeral_pubkey"`
	SenderPrekeyPub   string    `json:"sender_prekey_pub"`
	OtpkUsed          string    `json:"otpk_used"`
	Ciphertext        string    `json:"ciphertext"`
	CreatedAt         time.Time `json:"created_at"`
}
