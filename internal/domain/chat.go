package domain

import (
	"time"

	"github.com/google/uuid"
)

const ChatTypeDirect = "direct"

// Chat is a conversation between two users. For direct chats the pair
// is stored canonically: UserA always holds the byte-wise smaller uuid,
// so any unordered pair maps to exactly one row. The unique index on
// (user_a, user_b) is what makes concurrent lookup-or-create safe.
type Chat struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChatType      string     `gorm:"type:text;not null;default:direct" json:"chatType"`
	UserA         *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_chats_pair,priority:1" json:"userA"`
	UserB         *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_chats_pair,priority:2" json:"userB"`
	Name          *string    `gorm:"type:text" json:"name"`
	OwnerID       *uuid.UUID `gorm:"type:uuid" json:"ownerId"`
	LastMessageID *uuid.UUID `gorm:"type:uuid" json:"lastMessageId"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Chat) TableName() string { return "chats" }

// CanonicalPair orders two user ids so the byte-wise smaller one comes
// first. Both directions of a handshake derive the same chat row.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	for i := 0; i < len(a); i++ {
		if a[i] < b[i] {
			return a, b
		}
		if a[i] > b[i] {
			return b, a
		}
	}
	return a, b
}

// ChatView is the per-caller projection returned by the chat listing.
type ChatView struct {
	ID              uuid.UUID  `json:"id"`
	ChatType        string     `json:"chatType"`
	PartnerUserID   *uuid.UUID `json:"partnerUserId"`
	PartnerUsername *string    `json:"partnerUsername"`
	Name            *string    `json:"name"`
	LastMessageID   *uuid.UUID `json:"lastMessageId"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
