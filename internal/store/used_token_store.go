package store

import (
	"context"

	"hushnet/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsedTokenStore struct{ db *gorm.DB }

func (s *Store) UsedTokens() *UsedTokenStore { return &UsedTokenStore{db: s.DB} }

func (u *UsedTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&domain.UsedToken{}).
		Where("token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add records a consumed enrollment token. Recording the same token
// twice is a no-op, not an error.
func (u *UsedTokenStore) Add(ctx context.Context, token string) error {
	return u.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.UsedToken{Token: token}).Error
}
