package domain

import (
	"time"

	"github.com/google/uuid"
)

// Device is a registered endpoint of a user. IdentityPubkey is the
// device's long-lived ed25519 public key (base64); it is both the
// authentication credential and the lookup key, and never changes.
type Device struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	IdentityPubkey  string     `gorm:"type:text;not null;uniqueIndex" json:"identityPubkey"`
	SignedPrekeyPub string     `gorm:"type:text;not null" json:"signedPrekeyPub"`
	SignedPrekeySig string     `gorm:"type:text;not null" json:"signedPrekeySig"`
	OneTimePrekeys  JSON       `gorm:"type:jsonb;not null" json:"oneTimePrekeys"`
	DeviceLabel     *string    `gorm:"type:text" json:"deviceLabel"`
	PushToken       *string    `gorm:"type:text" json:"pushToken"`
	LastSeen        *time.Time `json:"lastSeen"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (Device) TableName() string { return "devices" }

type SignedPreKey struct {
	Key       string `json:"key"`
	Signature string `json:"signature"`
}

type OneTimePreKey struct {
	Key string `json:"key"`
}
