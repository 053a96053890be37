package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-device-pair session record materialized when a
// handshake offer is confirmed.
//
// The ratchet columns (root/chain keys, counters, ratchet pubkeys) are
// storage only: the relay writes them once on insert and never reads,
// derives from, or validates them. They are kept for client and schema
// compatibility; whether they are authoritative server state is an open
// product question, not something this code decides.
type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID           uuid.UUID `gorm:"type:uuid;not null;index" json:"chatId"`
	SenderDeviceID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_pair,priority:1" json:"senderDeviceId"`
	ReceiverDeviceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_pair,priority:2" json:"receiverDeviceId"`
	RootKey          *string   `gorm:"type:text" json:"-"`
	SendChainKey     *string   `gorm:"type:text" json:"-"`
	RecvChainKey     *string   `gorm:"type:text" json:"-"`
	SendCount        int       `gorm:"not null;default:0" json:"sendCount"`
	RecvCount        int       `gorm:"not null;default:0" json:"recvCount"`
	RatchetPub       *string   `gorm:"type:text" json:"ratchetPub"`
	LastRatchetPub   *string   `gorm:"type:text" json:"lastRatchetPub"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Session) TableName() string { return "sessions" }

// PendingSession is the asynchronous first half of a key exchange,
// stored until the recipient device comes online and confirms it.
// At most one outstanding offer per (sender, recipient) device pair;
// duplicate inserts are an idempotent no-op.
type PendingSession struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderDeviceID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_pair,priority:1" json:"senderDeviceId"`
	RecipientDeviceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pending_pair,priority:2;index" json:"recipientDeviceId"`
	EphemeralPubkey   string    `gorm:"type:text;not null" json:"ephemeralPubkey"`
	SenderPrekeyPub   string    `gorm:"type:text;not null" json:"senderPrekeyPub"`
	OtpkUsed          string    `gorm:"type:text;not null" json:"otpkUsed"`
	Ciphertext        string    `gorm:"type:text;not null" json:"ciphertext"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (PendingSession) TableName() string { return "pending_sessions" }
