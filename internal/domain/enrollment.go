package domain

import "time"

// UsedToken records an enrollment token that already enrolled a device.
// Tokens are single-use; the row outlives the token's own expiry so a
// replay after expiry still fails on the uniqueness check.
type UsedToken struct {
	Token  string    `gorm:"type:text;primaryKey" json:"token"`
	UsedAt time.Time `gorm:"not null;autoCreateTime" json:"usedAt"`
}

func (UsedToken) TableName() string { return "used_tokens" }
